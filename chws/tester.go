package chws

import (
	"strings"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otshape"
	"github.com/npillmayer/chwsgen/otshape/otcore"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// TestReport summarizes a FeatureTester run over one classified candidate
// set, per spec §4.6/§8.4's shaped-advance law: shaping an L-R (or L-M,
// M-R, M-M) pair through the rebuilt font must reduce the pair's combined
// advance by exactly the synthesized GPOS adjustment.
type TestReport struct {
	Checked int
	Passed  int
	Failed  []TestFailure
}

// TestFailure records one pair whose shaped advance did not match the
// adjustment the GPOS lookup was built to apply.
type TestFailure struct {
	Left, Right    rune
	ExpectedDelta  int32
	ActualDelta    int32
}

// OK reports whether every checked pair passed.
func (r *TestReport) OK() bool {
	return r != nil && len(r.Failed) == 0
}

// FeatureTester re-shapes sample candidate pairs through a rebuilt font
// and verifies the resulting advance matches the positioning plan that was
// written into its GPOS table.
type FeatureTester struct {
	font   *Font
	engine *otshape.Shaper
}

// NewFeatureTester binds a tester to a font that has already had its GPOS
// table rebuilt and reopened (so the shaper sees the new chws/vchw/halt/
// vhal lookups as ordinary registered features).
func NewFeatureTester(f *Font) *FeatureTester {
	return &FeatureTester{font: f, engine: otshape.NewShaper(otcore.New())}
}

// Run checks cs's pairs (and, for TestLevel 2, every L-R/L-M/M-R/M-M
// combination; for TestLevel 1, a fixed-size sample) against the
// positioning plan synthesized for them. lang selects the language system
// to shape with. Shaping always runs horizontally, left to right; vertical
// only selects whether vertical (YAdvance, vmtx) or horizontal (XAdvance,
// hmtx) advances are compared.
func (t *FeatureTester) Run(cfg *Config, cs ClassifiedSet, lang Language, vertical bool, upem int) (*TestReport, error) {
	pairs := samplePairs(cs, cfg.TestLevel)
	report := &TestReport{}
	langTag := languageTag(lang)
	halfEm := halfEmUnits(cfg, upem)
	for _, p := range pairs {
		expected := pairDelta(p.leftClass, p.rightClass, halfEm)
		actual, err := t.shapedAdvanceDelta(p.left, p.right, langTag, vertical)
		if err != nil {
			return report, err
		}
		report.Checked++
		if actual == expected {
			report.Passed++
		} else {
			report.Failed = append(report.Failed, TestFailure{
				Left: p.left, Right: p.right,
				ExpectedDelta: expected, ActualDelta: actual,
			})
		}
	}
	return report, nil
}

// shapedAdvanceDelta shapes the two-codepoint sequence left,right and
// returns (sum of unadjusted advances) - (shaped combined advance): the
// amount of width the GPOS lookup removed.
func (t *FeatureTester) shapedAdvanceDelta(left, right rune, lang language.Tag, vertical bool) (int32, error) {
	scr := scriptForCodepoint(left)
	options := otshape.ShapeOptions{
		Params: otshape.Params{
			Font:      t.font.OT,
			Direction: bidi.LeftToRight,
			Script:    scr,
			Language:  lang,
		},
		FlushBoundary: otshape.FlushOnRunBoundary,
	}
	sink := &advanceSink{}
	src := strings.NewReader(string([]rune{left, right}))
	if err := t.engine.Shape(options, src, sink); err != nil {
		return 0, err
	}
	if len(sink.glyphs) < 2 {
		return 0, nil
	}
	var shapedTotal, baselineTotal int32
	for _, g := range sink.glyphs {
		if vertical {
			shapedTotal += int32(g.Pos.YAdvance)
		} else {
			shapedTotal += int32(g.Pos.XAdvance)
		}
	}
	for _, g := range sink.glyphs {
		if vertical {
			baselineTotal += t.font.VAdvance(g.GID)
		} else {
			baselineTotal += t.font.HAdvance(g.GID)
		}
	}
	return baselineTotal - shapedTotal, nil
}

type advanceSink struct {
	glyphs []otshape.GlyphRecord
}

func (s *advanceSink) WriteGlyph(g otshape.GlyphRecord) error {
	s.glyphs = append(s.glyphs, g)
	return nil
}

type sampledPair struct {
	left, right           rune
	leftClass, rightClass PairClass
}

// samplePairs enumerates the L x R (and M-involving) pairs a test run
// should check. TestLevel 1 samples a bounded prefix for a quick smoke
// check; TestLevel 2 checks every combination.
func samplePairs(cs ClassifiedSet, level int) []sampledPair {
	lead := append(append([]Candidate{}, cs.L...), cs.M...)
	follow := append(append([]Candidate{}, cs.R...), cs.M...)
	leadClass := classOf(cs.L, ClassL, cs.M, ClassM)
	followClass := classOf(cs.R, ClassR, cs.M, ClassM)

	const smokeSampleSize = 8
	var out []sampledPair
	for _, a := range lead {
		for _, b := range follow {
			if a.Glyph == b.Glyph && leadClass[a.Glyph] == ClassM && followClass[b.Glyph] == ClassM {
				continue
			}
			out = append(out, sampledPair{
				left: a.CodePoint, right: b.CodePoint,
				leftClass: leadClass[a.Glyph], rightClass: followClass[b.Glyph],
			})
			if level < 2 && len(out) >= smokeSampleSize {
				return out
			}
		}
	}
	return out
}

func classOf(primary []Candidate, primaryClass PairClass, secondary []Candidate, secondaryClass PairClass) map[ot.GlyphIndex]PairClass {
	m := make(map[ot.GlyphIndex]PairClass, len(primary)+len(secondary))
	for _, c := range primary {
		m[c.Glyph] = primaryClass
	}
	for _, c := range secondary {
		m[c.Glyph] = secondaryClass
	}
	return m
}
