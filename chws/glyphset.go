package chws

import (
	"sort"
	"strings"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otshape"
	"github.com/npillmayer/chwsgen/otshape/otcore"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// Candidate is one resolved (code point, glyph ID) pair for a pair class.
type Candidate struct {
	CodePoint rune
	Glyph     ot.GlyphIndex
}

// GlyphSet maps each pair class to its ordered candidate list for one
// face, separately for horizontal and vertical shaping.
type GlyphSet struct {
	Horizontal map[PairClass][]Candidate
	Vertical   map[PairClass][]Candidate // nil unless Config.Vertical
}

// GlyphSetResolver shapes single-codepoint buffers to find, for each
// Config code-point set, the glyph ID the font and shaper agree on.
type GlyphSetResolver struct {
	font   *Font
	engine *otshape.Shaper
}

// NewGlyphSetResolver builds a resolver bound to the core shaping engine,
// the only engine this tool ever needs: CJK text never engages the
// complex Arabic/Hebrew shaping paths.
func NewGlyphSetResolver(f *Font) *GlyphSetResolver {
	return &GlyphSetResolver{
		font:   f,
		engine: otshape.NewShaper(otcore.New()),
	}
}

// Resolve produces the candidate GlyphSet for a Config and resolved
// language, per spec §4.3.
func (r *GlyphSetResolver) Resolve(cfg *Config, lang Language) (*GlyphSet, error) {
	langTag := languageTag(lang)
	gs := &GlyphSet{Horizontal: map[PairClass][]Candidate{}}
	for _, class := range []PairClass{ClassL, ClassR, ClassM} {
		var cps map[rune]bool
		switch class {
		case ClassL:
			cps = cfg.L
		case ClassR:
			cps = cfg.R
		case ClassM:
			cps = cfg.M
		}
		sorted := make([]rune, 0, len(cps))
		for cp := range cps {
			sorted = append(sorted, cp)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for _, cp := range sorted {
			cand, ok, err := r.shapeOne(cp, langTag, bidi.LeftToRight)
			if err != nil {
				tracer().Errorf("shaping codepoint U+%04X failed: %v", cp, err)
				continue
			}
			if !ok {
				continue
			}
			gs.Horizontal[class] = append(gs.Horizontal[class], cand)
		}
	}
	if cfg.Vertical && r.font.HasVerticalMetrics() {
		gs.Vertical = map[PairClass][]Candidate{}
		for class, cands := range gs.Horizontal {
			// Vertical glyph identity is the same as horizontal: shaping
			// only resolves code point -> glyph ID, never orientation
			// (see DESIGN.md's vertical-shaping open question).
			gs.Vertical[class] = append([]Candidate(nil), cands...)
		}
	}
	return gs, nil
}

// shapeOne shapes a single code point and returns its glyph ID, discarding
// candidates mapping to .notdef or producing more than one glyph
// (ligation), per spec §4.3.
func (r *GlyphSetResolver) shapeOne(cp rune, lang language.Tag, dir bidi.Direction) (Candidate, bool, error) {
	scr := scriptForCodepoint(cp)
	options := otshape.ShapeOptions{
		Params: otshape.Params{
			Font:      r.font.OT,
			Direction: dir,
			Script:    scr,
			Language:  lang,
		},
		FlushBoundary: otshape.FlushOnRunBoundary,
	}
	sink := &glyphSetSink{}
	src := strings.NewReader(string(cp))
	if err := r.engine.Shape(options, src, sink); err != nil {
		return Candidate{}, false, err
	}
	if len(sink.glyphs) != 1 {
		return Candidate{}, false, nil
	}
	gid := sink.glyphs[0].GID
	if gid == 0 {
		return Candidate{}, false, nil
	}
	return Candidate{CodePoint: cp, Glyph: gid}, true, nil
}

type glyphSetSink struct {
	glyphs []otshape.GlyphRecord
}

func (s *glyphSetSink) WriteGlyph(g otshape.GlyphRecord) error {
	s.glyphs = append(s.glyphs, g)
	return nil
}

// scriptForCodepoint picks the ISO 15924 script tag used for shaper
// engine selection: Kana for the two Japanese syllabary blocks, Hani
// (Han) for everything else this tool ever classifies (CJK ideographs
// and CJK punctuation, which the core engine resolves via cmap
// regardless of script tag).
func scriptForCodepoint(cp rune) language.Script {
	switch {
	case cp >= 0x3040 && cp <= 0x30FF:
		return language.MustParseScript("Kana")
	default:
		return language.MustParseScript("Hani")
	}
}

// languageTag maps a resolved Language to its BCP 47 language.Tag.
func languageTag(lang Language) language.Tag {
	switch lang {
	case JAN:
		return language.Japanese
	case KOR:
		return language.Korean
	case ZHS:
		return language.SimplifiedChinese
	case ZHT:
		return language.TraditionalChinese
	default:
		return language.Und
	}
}
