package chws

import (
	"github.com/npillmayer/chwsgen/ot"
)

// ClassPairValue is the ValueRecord pair synthesized for one (class1,
// class2) cell of a class-based chws/vchw lookup (GPOS PairPos format 2).
// A cell absent zero value on a side means that side carries no adjustment
// at all, per spec §4.5's matrix ("—").
type ClassPairValue struct {
	Class1, Class2 uint16
	Value1, Value2 ot.ValueRecord
}

// ClassPairPlan is the class-based pair-positioning content for chws/vchw.
// Class1 assigns lead-side glyph membership (L -> 1, M -> 2); Class2
// assigns follow-side membership (R -> 1, M -> 2). A glyph absent from a
// map is class 0 (not covered on that side). Cells lists the populated
// (class1, class2) combinations; any combination not listed carries empty
// ValueRecords on both sides.
type ClassPairPlan struct {
	Class1 map[ot.GlyphIndex]uint16
	Class2 map[ot.GlyphIndex]uint16
	Cells  []ClassPairValue
}

// SingleRule is one entry of a single-positioning (GPOS lookup type 1)
// lookup: an unconditional adjustment applied to one glyph.
type SingleRule struct {
	Glyph ot.GlyphIndex
	Value ot.ValueRecord
}

// PositionPlan is the synthesized content for one feature's lookup,
// independent of how it will later be serialized into a GPOS table.
type PositionPlan struct {
	Tag      ot.Tag
	Vertical bool
	Pairs    *ClassPairPlan // chws / vchw; nil if not applicable
	Singles  []SingleRule   // halt / vhal
}

// halfEmUnits rounds half of the configured fullwidth advance to the
// nearest design unit, per spec §4.5.
func halfEmUnits(cfg *Config, upem int) int32 {
	full := cfg.FullwidthAdvanceEms * float64(upem)
	return int32(full/2 + 0.5)
}

// pairDelta returns the total shaped-advance reduction spec §4.5/§8.4
// assigns to a lead/follow class combination: a full halfEm for L
// followed by R (both sides already have a full empty half-cell), half of
// that for any combination involving a centered M glyph (only a
// quarter-cell of padding sits on each of its sides).
func pairDelta(leadClass, followClass PairClass, halfEm int32) int32 {
	if leadClass == ClassL && followClass == ClassR {
		return halfEm
	}
	return halfEm / 2
}

// SynthesizePairs builds the chws/vchw pair-positioning plan from a
// classified glyph set as a class-based (PairPos format 2) matrix, per
// spec §4.5's 2x2 table of (lead class, follow class) cells:
//
//	L x R: left ValueRecord XAdvance -halfEm,        right: none
//	L x M: left ValueRecord XAdvance -halfEm/2,       right: none
//	M x R: left: none,       right ValueRecord XPlacement/XAdvance -halfEm/2
//	M x M: left ValueRecord XAdvance -halfEm/2,       right: none
//
// Vertical variants use YAdvance/YPlacement in place of the horizontal
// fields. A cell is only emitted when both of its classes are actually
// populated (e.g. the M x M cell is skipped entirely when M is empty).
func SynthesizePairs(tag ot.Tag, cfg *Config, cs ClassifiedSet, upem int, vertical bool) PositionPlan {
	halfEm := halfEmUnits(cfg, upem)
	plan := PositionPlan{Tag: tag, Vertical: vertical}

	hasL, hasM, hasR := len(cs.L) > 0, len(cs.M) > 0, len(cs.R) > 0
	if (!hasL && !hasM) || (!hasR && !hasM) {
		return plan
	}

	class1 := make(map[ot.GlyphIndex]uint16, len(cs.L)+len(cs.M))
	for _, c := range cs.L {
		class1[c.Glyph] = 1
	}
	for _, c := range cs.M {
		class1[c.Glyph] = 2
	}
	class2 := make(map[ot.GlyphIndex]uint16, len(cs.R)+len(cs.M))
	for _, c := range cs.R {
		class2[c.Glyph] = 1
	}
	for _, c := range cs.M {
		class2[c.Glyph] = 2
	}

	advRecord := func(amount int32) ot.ValueRecord {
		if vertical {
			return ot.ValueRecord{YAdvance: int16(-amount)}
		}
		return ot.ValueRecord{XAdvance: int16(-amount)}
	}
	placeAndAdvRecord := func(amount int32) ot.ValueRecord {
		if vertical {
			return ot.ValueRecord{YPlacement: int16(-amount), YAdvance: int16(-amount)}
		}
		return ot.ValueRecord{XPlacement: int16(-amount), XAdvance: int16(-amount)}
	}

	var cells []ClassPairValue
	if hasL && hasR {
		cells = append(cells, ClassPairValue{Class1: 1, Class2: 1, Value1: advRecord(pairDelta(ClassL, ClassR, halfEm))})
	}
	if hasL && hasM {
		cells = append(cells, ClassPairValue{Class1: 1, Class2: 2, Value1: advRecord(pairDelta(ClassL, ClassM, halfEm))})
	}
	if hasM && hasR {
		cells = append(cells, ClassPairValue{Class1: 2, Class2: 1, Value2: placeAndAdvRecord(pairDelta(ClassM, ClassR, halfEm))})
	}
	if hasM {
		cells = append(cells, ClassPairValue{Class1: 2, Class2: 2, Value1: advRecord(pairDelta(ClassM, ClassM, halfEm))})
	}
	if len(cells) == 0 {
		return plan
	}
	plan.Pairs = &ClassPairPlan{Class1: class1, Class2: class2, Cells: cells}
	return plan
}

// SynthesizeSingles builds the halt/vhal single-positioning plan: every
// member of L, R, or M gets its advance shrunk to half width
// unconditionally; M-class members are additionally re-centered in the
// narrower cell via a placement shift, since their ink sits in the middle
// of the original full-width cell.
func SynthesizeSingles(tag ot.Tag, cfg *Config, cs ClassifiedSet, upem int, vertical bool) PositionPlan {
	halfEm := halfEmUnits(cfg, upem)
	plan := PositionPlan{Tag: tag, Vertical: vertical}

	add := func(cand Candidate, class PairClass) {
		var v ot.ValueRecord
		if vertical {
			v.YAdvance = int16(-halfEm)
			if class == ClassM {
				v.YPlacement = int16(-halfEm / 2)
			}
		} else {
			v.XAdvance = int16(-halfEm)
			if class == ClassM {
				v.XPlacement = int16(-halfEm / 2)
			}
		}
		plan.Singles = append(plan.Singles, SingleRule{Glyph: cand.Glyph, Value: v})
	}
	for _, c := range cs.L {
		add(c, ClassL)
	}
	for _, c := range cs.R {
		add(c, ClassR)
	}
	for _, c := range cs.M {
		add(c, ClassM)
	}
	return plan
}
