package ot

// This file completes the Phase-1 refactor scaffolding in refactor.go:
// parseConcreteLookupListGraph already builds a concrete LookupListGraph,
// but nothing built the matching concrete ScriptList/FeatureList, so
// LayoutTable.ScriptGraph/FeatureGraph/LookupGraph were always nil for any
// font parsed through parseGPos/parseGSub. otlayout.FontFeatures already
// depends on non-nil graphs; this file supplies them.

// parseConcreteFeatureList builds a concrete FeatureList from the raw bytes
// of an OpenType FeatureList table (the table itself, not the layout table
// that contains it).
func parseConcreteFeatureList(b binarySegm) *FeatureList {
	fl := &FeatureList{raw: b}
	records := parseTagRecordMap16(b, 0, b, "FeatureList", "Feature")
	n := records.Len()
	fl.featureOrder = make([]Tag, 0, n)
	fl.featuresByIndex = make([]*Feature, 0, n)
	fl.indicesByTag = map[Tag][]int{}
	for i := 0; i < n; i++ {
		tag, link := records.Get(i)
		feat := parseConcreteFeature(link.Jump().Bytes())
		fl.featureOrder = append(fl.featureOrder, tag)
		fl.featuresByIndex = append(fl.featuresByIndex, feat)
		fl.indicesByTag[tag] = append(fl.indicesByTag[tag], i)
	}
	return fl
}

// parseConcreteFeature builds a concrete Feature from the raw bytes of one
// OpenType Feature table.
func parseConcreteFeature(b binarySegm) *Feature {
	f := &Feature{raw: b}
	if len(b) < 4 {
		f.err = errBufferBounds
		return f
	}
	f.featureParamsOffset = b.U16(0)
	count := int(b.U16(2))
	indices := make([]uint16, 0, count)
	off := 4
	for i := 0; i < count; i++ {
		if off+2 > len(b) {
			f.err = errBufferBounds
			break
		}
		indices = append(indices, b.U16(off))
		off += 2
	}
	f.lookupListIndices = indices
	return f
}

// parseConcreteScriptList builds a concrete ScriptList from the raw bytes of
// an OpenType ScriptList table. fl is the already-parsed FeatureList, needed
// to resolve each LangSys's feature indices into *Feature pointers.
func parseConcreteScriptList(b binarySegm, fl *FeatureList) *ScriptList {
	sl := &ScriptList{raw: b}
	records := parseTagRecordMap16(b, 0, b, "ScriptList", "Script")
	n := records.Len()
	sl.scriptOrder = make([]Tag, 0, n)
	sl.offsetByTag = map[Tag]uint16{}
	sl.scriptByTag = map[Tag]*Script{}
	for i := 0; i < n; i++ {
		tag, link := records.Get(i)
		var off uint16
		if l16, ok := link.(link16); ok {
			off = l16.offset
		}
		sl.scriptOrder = append(sl.scriptOrder, tag)
		sl.offsetByTag[tag] = off
		sl.scriptByTag[tag] = parseConcreteScript(link.Jump().Bytes(), fl)
	}
	return sl
}

// parseConcreteScript builds a concrete Script from the raw bytes of one
// OpenType Script table.
func parseConcreteScript(b binarySegm, fl *FeatureList) *Script {
	s := &Script{raw: b}
	if len(b) < 4 {
		s.err = errBufferBounds
		return s
	}
	s.defaultLangSysOffset = b.U16(0)
	if s.defaultLangSysOffset != 0 {
		s.defaultLangSys = parseConcreteLangSys(b[s.defaultLangSysOffset:], fl)
	}
	records := parseTagRecordMap16(b, 2, b, "Script", "LangSys")
	n := records.Len()
	s.langOrder = make([]Tag, 0, n)
	s.langOffsetsByTag = map[Tag]uint16{}
	s.langByTag = map[Tag]*LangSys{}
	for i := 0; i < n; i++ {
		tag, link := records.Get(i)
		var off uint16
		if l16, ok := link.(link16); ok {
			off = l16.offset
		}
		s.langOrder = append(s.langOrder, tag)
		s.langOffsetsByTag[tag] = off
		s.langByTag[tag] = parseConcreteLangSys(link.Jump().Bytes(), fl)
	}
	return s
}

// parseConcreteLangSys builds a concrete LangSys from the raw bytes of one
// OpenType LangSys table, resolving its feature indices against fl.
func parseConcreteLangSys(b binarySegm, fl *FeatureList) *LangSys {
	ls := &LangSys{}
	if len(b) < 4 {
		ls.err = errBufferBounds
		return ls
	}
	ls.lookupOrderOffset = b.U16(0)
	ls.requiredFeatureIndex = b.U16(2)
	count := int(b.U16(4))
	off := 6
	indices := make([]uint16, 0, count)
	features := make([]*Feature, 0, count)
	for i := 0; i < count; i++ {
		if off+2 > len(b) {
			ls.err = errBufferBounds
			break
		}
		idx := b.U16(off)
		indices = append(indices, idx)
		if fl != nil && int(idx) < len(fl.featuresByIndex) {
			features = append(features, fl.featuresByIndex[idx])
		} else {
			features = append(features, nil)
		}
		off += 2
	}
	ls.featureIndices = indices
	ls.features = features
	return ls
}
