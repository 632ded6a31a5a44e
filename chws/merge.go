package chws

import (
	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otlayout"
)

// MergeAction is the outcome of comparing a planned feature against a
// font's existing GPOS content for the same tag.
type MergeAction uint8

const (
	// MergeAdd means no existing feature occupies the tag; the planned
	// lookup should be appended.
	MergeAdd MergeAction = iota
	// MergeIdenticalSkip means an existing feature already covers exactly
	// the planned glyph set; re-running the build is a no-op (spec
	// §8.3/§8.6 idempotence).
	MergeIdenticalSkip
	// MergeConflict means an existing feature occupies the tag but covers
	// a different glyph set; the existing feature is kept and the planned
	// lookup is dropped with a warning (spec §7 scenario S5).
	MergeConflict
)

func (a MergeAction) String() string {
	switch a {
	case MergeAdd:
		return "add"
	case MergeIdenticalSkip:
		return "skip-identical"
	case MergeConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// MergeResult is the merge decision for one feature tag.
type MergeResult struct {
	Tag    ot.Tag
	Action MergeAction
}

// DetectConflicts compares each planned feature's glyph coverage (the set
// of glyph IDs referenced by its synthesized lookup) against any existing
// GPOS feature already registered under the same tag for script/lang, and
// decides whether to add, skip, or flag a conflict.
//
// planned maps a feature tag (chws, vchw, halt, vhal) to the glyph set its
// synthesized lookup would reference.
func DetectConflicts(otf *ot.Font, script, lang ot.Tag, planned map[ot.Tag][]ot.GlyphIndex) ([]MergeResult, error) {
	_, gposFeats, err := otlayout.FontFeatures(otf, script, lang)
	if err != nil {
		return nil, err
	}
	existing := map[ot.Tag]otlayout.Feature{}
	for _, f := range gposFeats {
		if f == nil {
			continue
		}
		existing[f.Tag()] = f
	}

	gposTable := otf.Table(ot.T("GPOS"))
	var lookupGraph *ot.LookupListGraph
	if gposTable != nil {
		lookupGraph = gposTable.Self().AsGPos().LookupGraph()
	}

	tags := make([]ot.Tag, 0, len(planned))
	for tag := range planned {
		tags = append(tags, tag)
	}
	sortTags(tags)

	results := make([]MergeResult, 0, len(tags))
	for _, tag := range tags {
		feat, ok := existing[tag]
		if !ok {
			results = append(results, MergeResult{Tag: tag, Action: MergeAdd})
			continue
		}
		existingGlyphs := coveredGlyphs(feat, lookupGraph)
		if sameGlyphSet(existingGlyphs, planned[tag]) {
			results = append(results, MergeResult{Tag: tag, Action: MergeIdenticalSkip})
		} else {
			tracer().Infof("feature %s already present in font with different coverage; keeping existing lookup", tag)
			results = append(results, MergeResult{Tag: tag, Action: MergeConflict})
		}
	}
	return results, nil
}

// coveredGlyphs collects the union of every subtable's Coverage for every
// lookup an existing feature references.
func coveredGlyphs(feat otlayout.Feature, lookupGraph *ot.LookupListGraph) map[ot.GlyphIndex]bool {
	set := map[ot.GlyphIndex]bool{}
	if lookupGraph == nil {
		return set
	}
	for i := 0; i < feat.LookupCount(); i++ {
		lt := lookupGraph.Lookup(feat.LookupIndex(i))
		if lt == nil {
			continue
		}
		for _, node := range lt.Range() {
			if node == nil {
				continue
			}
			addCoverage(set, node.Coverage)
		}
	}
	return set
}

func addCoverage(set map[ot.GlyphIndex]bool, cov ot.Coverage) {
	for _, g := range cov.Glyphs() {
		set[g] = true
	}
}

func sameGlyphSet(existing map[ot.GlyphIndex]bool, planned []ot.GlyphIndex) bool {
	if len(existing) != len(planned) {
		return false
	}
	for _, g := range planned {
		if !existing[g] {
			return false
		}
	}
	return true
}

func sortTags(tags []ot.Tag) {
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}
}
