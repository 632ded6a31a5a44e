package chws

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/npillmayer/chwsgen/fontio"
	"github.com/npillmayer/chwsgen/ot"
)

// Outcome is the per-face result of running Build against one loaded
// face, combining what every pipeline component reported for it.
type Outcome struct {
	Face      int
	Language  Language
	Added     []ot.Tag      // feature tags newly written into the face's GPOS table
	Skipped   []MergeResult // tags left untouched (already identical, or a conflict)
	Unchanged bool          // true if the face's output is byte-identical to its input
	Test      *TestReport   // nil if TestLevel was 0 or the face was Unchanged
	Glyphs    ClassifiedSet // horizontal L/R/M/F membership, for the --glyphs sidecar
	Warnings  []error       // non-fatal component errors recorded along the way
}

// BuildFace runs the full pipeline doc.go describes — LanguageClassifier,
// GlyphSetResolver, InkBoundsAnalyzer, PairClassifier, GPOSBuilder,
// FeatureTester, each in that fixed order — against one already-loaded
// face, and installs the rebuilt GPOS table (if any) into face via
// face.SetGPOS. A non-nil error here is always face-fatal per spec §7
// (LanguageAmbiguous, ShaperUnavailable, or an I/O failure rebuilding the
// GPOS table); every other component's failure is recorded in
// Outcome.Warnings and does not abort the face.
func BuildFace(ctx context.Context, face *fontio.Face, cfg Config, userLang Language) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	font := NewFont(face.OT)
	out := &Outcome{Face: face.Index}

	lang, err := ClassifyLanguage(font, userLang)
	if err != nil {
		return nil, err
	}
	out.Language = lang
	cfg.Language = lang
	if cfg.L == nil && cfg.R == nil && cfg.M == nil && cfg.F == nil {
		d := DefaultConfig(lang)
		cfg.L, cfg.R, cfg.M, cfg.F = d.L, d.R, d.M, d.F
	}
	cfg.Vertical = cfg.Vertical && font.HasVerticalMetrics()

	resolver := NewGlyphSetResolver(font)
	gs, err := resolver.Resolve(&cfg, lang)
	if err != nil {
		return nil, newError(KindShaperUnavailable, face.Index, "resolving candidate glyph sets", err)
	}

	ib := NewInkBoundsAnalyzer(font)
	upem := font.UnitsPerEm()
	script := cjkScriptTag()
	langSys := langSysTag(lang)

	hcs := Classify(font, ib, &cfg, gs.Horizontal, false)
	out.Glyphs = hcs

	var plans []PositionPlan
	if hcs.Applicable() {
		plans = append(plans,
			SynthesizePairs(ot.T("chws"), &cfg, hcs, upem, false),
			SynthesizeSingles(ot.T("halt"), &cfg, hcs, upem, false),
		)
	} else {
		out.Warnings = append(out.Warnings, newError(KindNoApplicableGlyphs, face.Index,
			"no candidate glyphs in L or R class for horizontal spacing", nil))
	}

	if cfg.Vertical && gs.Vertical != nil {
		vcs := Classify(font, ib, &cfg, gs.Vertical, true)
		if vcs.Applicable() {
			plans = append(plans,
				SynthesizePairs(ot.T("vchw"), &cfg, vcs, upem, true),
				SynthesizeSingles(ot.T("vhal"), &cfg, vcs, upem, true),
			)
		} else {
			out.Warnings = append(out.Warnings, newError(KindNoApplicableGlyphs, face.Index,
				"no candidate glyphs in L or R class for vertical spacing", nil))
		}
	}

	if len(plans) == 0 {
		out.Unchanged = true
		return out, nil
	}

	result, err := BuildGPOS(font, script, langSys, plans)
	if err != nil {
		return nil, err
	}
	out.Added = result.Added
	out.Skipped = result.Skipped
	for _, m := range result.Skipped {
		if m.Action == MergeConflict {
			out.Warnings = append(out.Warnings, newError(KindGPOSConflict, face.Index,
				fmt.Sprintf("feature %s already present with different coverage, keeping existing lookup", m.Tag), nil))
		}
	}
	if result.GPOS == nil {
		out.Unchanged = true
		return out, nil
	}
	face.SetGPOS(result.GPOS)

	if cfg.TestLevel > 0 {
		report, err := verifyBuild(face, &cfg, hcs, lang, upem)
		if err != nil {
			out.Warnings = append(out.Warnings, newError(KindShaperUnavailable, face.Index,
				"feature verification shaping failed", err))
		} else {
			out.Test = report
		}
	}
	return out, nil
}

// verifyBuild reopens face's just-rebuilt bytes (so the shaper sees the
// new lookups as ordinary registered features, per FeatureTester's own
// doc comment) and runs it against the horizontal classified set. A
// verification failure is reported in Outcome.Test, never corrupting the
// already-written face (spec §4.6).
func verifyBuild(face *fontio.Face, cfg *Config, hcs ClassifiedSet, lang Language, upem int) (*TestReport, error) {
	rebuilt, err := face.Serialize()
	if err != nil {
		return nil, err
	}
	testedOTF, err := ot.ParseFont(rebuilt)
	if err != nil {
		return nil, err
	}
	tester := NewFeatureTester(NewFont(testedOTF))
	return tester.Run(cfg, hcs, lang, false, upem)
}

// cjkScriptTag returns the OpenType script tag whose LangSys entries this
// package's four resolved languages live under. JAN, KOR, ZHS, and ZHT are
// OpenType language-system tags (LangSys), not scripts: all of them sit
// under the single CJK Ideographic script, `hani`.
func cjkScriptTag() ot.Tag {
	return ot.T("hani")
}

// langSysTag maps a resolved Language to its OpenType LangSys tag.
func langSysTag(lang Language) ot.Tag {
	switch lang {
	case JAN, KOR, ZHS, ZHT:
		return ot.T(string(lang))
	default:
		return ot.DFLT
	}
}

// FontResult is the outcome of running Build across every selected face
// of a loaded font.
type FontResult struct {
	Outcomes []*Outcome
	Failed   map[int]error // face index -> the fatal error that aborted it
}

// BuildFont runs BuildFace across every face of font named by indices (or
// every face, if indices is empty), per spec §5: faces are independent
// and this function may run them concurrently, but it always waits for
// every one to finish before returning — the caller must not call
// font.Save until BuildFont has returned, so that a cancelled or
// failed run never leaves a partially written output file. ctx
// cancellation is honored between faces; a face already running is left
// to complete rather than interrupted mid-component.
//
// langs maps a face index to its user-forced Language; a face with no
// entry falls back to langs[-1] (a broadcast override, set by the CLI
// when the user supplies one --language value for every face) and then
// to LanguageAuto.
func BuildFont(ctx context.Context, font *fontio.Font, cfg Config, indices []int, langs map[int]Language) *FontResult {
	targets := font.Faces
	if len(indices) > 0 {
		want := make(map[int]bool, len(indices))
		for _, i := range indices {
			want[i] = true
		}
		targets = nil
		for _, f := range font.Faces {
			if want[f.Index] {
				targets = append(targets, f)
			}
		}
	}

	result := &FontResult{Failed: map[int]error{}}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, face := range targets {
		if err := ctx.Err(); err != nil {
			result.Failed[face.Index] = err
			continue
		}
		face := face
		wg.Add(1)
		go func() {
			defer wg.Done()
			userLang := langs[face.Index]
			if userLang == "" {
				userLang = langs[-1]
			}
			out, err := BuildFace(ctx, face, cfg, userLang)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[face.Index] = err
				return
			}
			result.Outcomes = append(result.Outcomes, out)
		}()
	}
	wg.Wait()

	sort.Slice(result.Outcomes, func(i, j int) bool { return result.Outcomes[i].Face < result.Outcomes[j].Face })
	return result
}

// FormatGlyphSidecar renders a classified set as the --glyphs sidecar
// format: one glyph ID per line, ascending within each class, prefixed by
// the class letter, classes in a fixed L, R, M, F order.
func FormatGlyphSidecar(cs ClassifiedSet) string {
	var b []byte
	appendClass := func(letter string, cands []Candidate) {
		ids := make([]int, len(cands))
		for i, c := range cands {
			ids[i] = int(c.Glyph)
		}
		sort.Ints(ids)
		for _, id := range ids {
			b = append(b, fmt.Sprintf("%s %d\n", letter, id)...)
		}
	}
	appendClass("L", cs.L)
	appendClass("R", cs.R)
	appendClass("M", cs.M)
	appendClass("F", cs.F)
	return string(b)
}
