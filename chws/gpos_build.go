package chws

import (
	"github.com/npillmayer/chwsgen/ot"
)

// BuildResult is the final synthesized GPOS table for one face, along
// with bookkeeping about which features were actually added versus
// skipped by the merge policy (spec §4.5/§7).
type BuildResult struct {
	GPOS    []byte        // nil if nothing was added (every plan skipped or empty)
	Added   []ot.Tag      // tags whose lookup was newly added
	Skipped []MergeResult // MergeIdenticalSkip or MergeConflict entries
}

// BuildGPOS merges a set of synthesized PositionPlans into font's GPOS
// table, applying the per-tag add/skip-identical/conflict decision of
// DetectConflicts before handing surviving plans to ot.BuildGPOSForScripts
// (or, for a font with no pre-existing GPOS table at all, ot.
// BuildGPOSFromScratch). script and lang select which LangSys the merge
// decision and the new feature registration apply to.
func BuildGPOS(font *Font, script, lang ot.Tag, plans []PositionPlan) (*BuildResult, error) {
	byTag := make(map[ot.Tag]PositionPlan, len(plans))
	planned := make(map[ot.Tag][]ot.GlyphIndex, len(plans))
	for _, p := range plans {
		if p.Pairs == nil && len(p.Singles) == 0 {
			continue
		}
		byTag[p.Tag] = p
		planned[p.Tag] = planGlyphs(p)
	}
	if len(planned) == 0 {
		return &BuildResult{}, nil
	}

	gposTable := font.OT.Table(ot.T("GPOS"))
	hasGPOS := gposTable != nil && font.OT.Table(ot.T("GSUB")) != nil

	var merges []MergeResult
	if hasGPOS {
		var err error
		merges, err = DetectConflicts(font.OT, script, lang, planned)
		if err != nil {
			return nil, err
		}
	} else {
		// No pre-existing GPOS (or no GSUB, which FontFeatures requires to
		// enumerate features at all): there is nothing to conflict with,
		// every planned tag is a fresh addition.
		tags := make([]ot.Tag, 0, len(planned))
		for tag := range planned {
			tags = append(tags, tag)
		}
		sortTags(tags)
		for _, tag := range tags {
			merges = append(merges, MergeResult{Tag: tag, Action: MergeAdd})
		}
	}

	result := &BuildResult{}
	var newLookups []ot.NewGposLookup
	for _, m := range merges {
		if m.Action != MergeAdd {
			result.Skipped = append(result.Skipped, m)
			continue
		}
		newLookups = append(newLookups, toNewGposLookup(byTag[m.Tag]))
		result.Added = append(result.Added, m.Tag)
	}
	if len(newLookups) == 0 {
		return result, nil
	}

	var bytes []byte
	var err error
	if hasGPOS {
		bytes, err = ot.BuildGPOSForScripts(gposTable.Self().AsGPos(), newLookups, []ot.Tag{script})
	} else {
		bytes, err = ot.BuildGPOSFromScratch(newLookups, []ot.Tag{script})
	}
	if err != nil {
		return nil, newError(KindIOError, 0, "rebuilding GPOS table", err)
	}
	result.GPOS = bytes
	return result, nil
}

// planGlyphs collects the glyph IDs a plan's lookup references, for
// DetectConflicts' coverage comparison.
func planGlyphs(p PositionPlan) []ot.GlyphIndex {
	set := map[ot.GlyphIndex]bool{}
	if p.Pairs != nil {
		for g := range p.Pairs.Class1 {
			set[g] = true
		}
		for g := range p.Pairs.Class2 {
			set[g] = true
		}
	}
	for _, r := range p.Singles {
		set[r.Glyph] = true
	}
	out := make([]ot.GlyphIndex, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	return out
}

func toNewGposLookup(p PositionPlan) ot.NewGposLookup {
	nl := ot.NewGposLookup{Tag: p.Tag, Vertical: p.Vertical}
	if p.Pairs != nil {
		cp := &ot.GposClassPairs{
			Class1: p.Pairs.Class1,
			Class2: p.Pairs.Class2,
		}
		for _, c := range p.Pairs.Cells {
			cp.Cells = append(cp.Cells, ot.GposClassPairCell{
				Class1: c.Class1, Class2: c.Class2, Value1: c.Value1, Value2: c.Value2,
			})
		}
		nl.Pairs = cp
	}
	for _, r := range p.Singles {
		nl.Singles = append(nl.Singles, ot.GposSingleEntry{Glyph: r.Glyph, Value: r.Value})
	}
	return nl
}
