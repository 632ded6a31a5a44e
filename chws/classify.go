package chws

import (
	"github.com/npillmayer/chwsgen/ot"
)

// ClassifiedSet is the final L/R/M glyph membership for one face (and
// orientation), after ink-bounds filtering, uniqueness resolution, and
// any CustomClassOverride. F-class rejects are kept only for diagnostics
// (the `--glyphs` sidecar).
type ClassifiedSet struct {
	L, R, M []Candidate
	F       []Candidate // rejected: fails is_fullwidth or (with UseInkBounds) its own class's is_halfwidth_* test
}

// Classify applies the PairClassifier steps of spec §4.4 to a GlyphSet's
// horizontal or vertical candidates, using advance lookups appropriate to
// the orientation (horizontal advance for the horizontal set, vertical
// advance for the vertical set).
func Classify(font *Font, ib *InkBoundsAnalyzer, cfg *Config, candidates map[PairClass][]Candidate, vertical bool) ClassifiedSet {
	advance := func(g ot.GlyphIndex) int32 {
		if vertical {
			return font.VAdvance(g)
		}
		return font.HAdvance(g)
	}

	// Step 1+2: is_fullwidth, then, only when cfg.UseInkBounds is set, the
	// class-specific is_halfwidth_* test; without ink bounds the language
	// convention's class is kept and no outline is analyzed. A candidate
	// failing its own class's test is rejected to F; it is not moved to
	// another class. Classes are walked in a fixed order (L, R, M) so that step 3's
	// uniqueness resolution below is deterministic without depending on
	// map iteration order.
	type placement struct {
		cand  Candidate
		class PairClass
	}
	classOrder := []PairClass{ClassL, ClassR, ClassM}
	var survivors []placement
	var rejects []Candidate
	for _, class := range classOrder {
		for _, cand := range candidates[class] {
			adv := advance(cand.Glyph)
			if !ib.IsFullwidth(adv, cfg) {
				rejects = append(rejects, cand)
				continue
			}
			ok := false
			switch {
			case !cfg.UseInkBounds:
				ok = true
			case class == ClassL:
				ok = ib.IsHalfwidthLeft(cand.Glyph, adv, cfg)
			case class == ClassR:
				ok = ib.IsHalfwidthRight(cand.Glyph, adv, cfg)
			case class == ClassM:
				ok = ib.IsHalfwidthMiddle(cand.Glyph, adv, cfg)
			}
			if !ok {
				rejects = append(rejects, cand)
				continue
			}
			survivors = append(survivors, placement{cand: cand, class: class})
		}
	}

	// Step 3: enforce uniqueness across classes, L > R > M. Since
	// survivors is already walked in L, R, M order, the first placement
	// seen for a glyph ID is automatically its highest-priority class.
	claimed := map[ot.GlyphIndex]bool{}
	out := ClassifiedSet{F: rejects}
	for _, p := range survivors {
		if claimed[p.cand.Glyph] {
			continue
		}
		claimed[p.cand.Glyph] = true
		class := p.class
		if cfg.CustomClassOverride != nil {
			class = cfg.CustomClassOverride(p.cand.CodePoint, class)
		}
		switch class {
		case ClassL:
			out.L = append(out.L, p.cand)
		case ClassR:
			out.R = append(out.R, p.cand)
		case ClassM:
			out.M = append(out.M, p.cand)
		default:
			out.F = append(out.F, p.cand)
		}
	}
	return out
}

// Applicable reports whether this classified set has enough membership to
// emit a chws/vchw pair-positioning lookup at all (spec §4.4's edge case:
// if both L and R are empty, the feature is not applicable).
func (cs ClassifiedSet) Applicable() bool {
	return len(cs.L) > 0 || len(cs.R) > 0
}
