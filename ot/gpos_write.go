package ot

import "sort"

// This file implements the GPOS rebuild writer: it appends synthesized
// pair- and single-positioning lookups to an already-parsed GPOS table and
// re-serializes the whole table. It is a structural rebuild rather than a
// byte-for-byte editor: the ScriptList is fully re-encoded from its
// concrete ScriptGraph (so new feature references can be threaded into
// every LangSys), while the FeatureList and LookupList keep their
// existing on-disk table bodies as opaque blobs and only grow their
// record-offset arrays to admit the newly appended entries — nothing in
// an existing lookup or feature table is reinterpreted or rewritten.
//
// Known limitation: a GPOS table with a FeatureVariations section (layout
// header minor version 1, used by variable fonts) has that section
// dropped by the rebuild. chwsgen targets static CJK fonts; wiring
// FeatureVariations through the rebuild is out of scope.

// GposClassPairCell is one (class1, class2) cell of a class-based
// pair-positioning lookup: the ValueRecord pair applied to every covered
// glyph pair whose first glyph is in class1 and second glyph is in class2.
type GposClassPairCell struct {
	Class1, Class2 uint16
	Value1, Value2 ValueRecord
}

// GposClassPairs is the synthesized content of a class-based (PairPos
// format 2) pair-positioning lookup. Class1/Class2 assign every covered
// first/second glyph its class number; Cells lists the populated
// (class1, class2) combinations, any combination absent from Cells gets
// empty ValueRecords.
type GposClassPairs struct {
	Class1 map[GlyphIndex]uint16
	Class2 map[GlyphIndex]uint16
	Cells  []GposClassPairCell
}

// GposSingleEntry is one entry of a synthesized single-positioning lookup.
type GposSingleEntry struct {
	Glyph GlyphIndex
	Value ValueRecord
}

// NewGposLookup is the synthesized content for one new GPOS feature.
// Exactly one of Pairs or Singles should be non-nil/non-empty.
type NewGposLookup struct {
	Tag      Tag
	Vertical bool
	Pairs    *GposClassPairs
	Singles  []GposSingleEntry
}

// BuildGPOS re-serializes orig's GPOS table, appending one new Lookup and
// Feature per entry of newLookups, and wiring each new feature into every
// LangSys of every script in scripts (or of every script present in the
// original table, if scripts is empty; the DFLT script, if present, always
// receives the new features regardless of scripts).
func BuildGPOS(orig *GPosTable, newLookups []NewGposLookup) ([]byte, error) {
	return BuildGPOSForScripts(orig, newLookups, nil)
}

// BuildGPOSForScripts is BuildGPOS with explicit script-tag filtering.
func BuildGPOSForScripts(orig *GPosTable, newLookups []NewGposLookup, scripts []Tag) ([]byte, error) {
	if orig == nil {
		return nil, errFontFormat("nil GPOS table")
	}
	full := orig.Binary()
	h := orig.header
	if h == nil {
		return nil, errFontFormat("GPOS table has no parsed header")
	}
	scriptOff := h.offsetFor(layoutScriptSection)
	featureOff := h.offsetFor(layoutFeatureSection)
	lookupOff := h.offsetFor(layoutLookupSection)
	if scriptOff <= 0 || featureOff <= 0 || lookupOff <= 0 {
		return nil, errFontFormat("GPOS table missing a required section offset")
	}

	bounds := []int{scriptOff, featureOff, lookupOff, len(full)}
	sort.Ints(bounds)
	endOf := func(start int) int {
		for _, b := range bounds {
			if b > start {
				return b
			}
		}
		return len(full)
	}
	featureBytes := full[featureOff:endOf(featureOff)]
	lookupBytes := full[lookupOff:endOf(lookupOff)]

	newLookupListBytes, lookupIndexBase, err := growLookupList(lookupBytes, newLookups)
	if err != nil {
		return nil, err
	}
	newFeatureListBytes, featureIndexBase, err := growFeatureList(featureBytes, newLookups, lookupIndexBase)
	if err != nil {
		return nil, err
	}
	newScriptListBytes, err := rebuildScriptList(orig.ScriptGraph(), scripts, featureIndexBase, len(newLookups))
	if err != nil {
		return nil, err
	}

	const headerLen = 10
	scriptAt := headerLen
	featureAt := scriptAt + len(newScriptListBytes)
	lookupAt := featureAt + len(newFeatureListBytes)

	out := make([]byte, 0, lookupAt+len(newLookupListBytes))
	out = appendU16(out, 1) // major version
	out = appendU16(out, 0) // minor version
	out = appendU16(out, uint16(scriptAt))
	out = appendU16(out, uint16(featureAt))
	out = appendU16(out, uint16(lookupAt))
	out = append(out, newScriptListBytes...)
	out = append(out, newFeatureListBytes...)
	out = append(out, newLookupListBytes...)
	return out, nil
}

// BuildGPOSFromScratch synthesizes an entirely new GPOS table for a font
// that has none yet (spec §5's "no GPOS table" case: a font can legally
// lack GPOS and still need chws/vchw/halt/vhal added). Every tag in scripts
// gets a Script record whose DefaultLangSys references every lookup in
// newLookups; DFLT is used if scripts is empty. There is no pre-existing
// FeatureList/LookupList to grow, so this calls growLookupList/
// growFeatureList with an empty (count-0) list rather than rebuildScriptList.
func BuildGPOSFromScratch(newLookups []NewGposLookup, scripts []Tag) ([]byte, error) {
	if len(scripts) == 0 {
		scripts = []Tag{DFLT}
	}
	empty := binarySegm{0, 0} // a list header encoding zero existing entries
	newLookupListBytes, _, err := growLookupList(empty, newLookups)
	if err != nil {
		return nil, err
	}
	newFeatureListBytes, featureIndexBase, err := growFeatureList(empty, newLookups, 0)
	if err != nil {
		return nil, err
	}
	newScriptListBytes := buildScriptListFromScratch(scripts, featureIndexBase, len(newLookups))

	const headerLen = 10
	scriptAt := headerLen
	featureAt := scriptAt + len(newScriptListBytes)
	lookupAt := featureAt + len(newFeatureListBytes)

	out := make([]byte, 0, lookupAt+len(newLookupListBytes))
	out = appendU16(out, 1) // major version
	out = appendU16(out, 0) // minor version
	out = appendU16(out, uint16(scriptAt))
	out = appendU16(out, uint16(featureAt))
	out = appendU16(out, uint16(lookupAt))
	out = append(out, newScriptListBytes...)
	out = append(out, newFeatureListBytes...)
	out = append(out, newLookupListBytes...)
	return out, nil
}

// buildScriptListFromScratch encodes a ScriptList with one Script per tag,
// each carrying only a DefaultLangSys (no named LangSys records) that
// references featureCount features starting at featureIndexBase.
func buildScriptListFromScratch(scripts []Tag, featureIndexBase, featureCount int) []byte {
	newIndices := make([]uint16, featureCount)
	for i := range newIndices {
		newIndices[i] = uint16(featureIndexBase + i)
	}
	sorted := append([]Tag(nil), scripts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	defaultBody := encodeNewLangSys(newIndices)
	bodies := make([][]byte, len(sorted))
	for i := range sorted {
		bodies[i] = defaultBody
	}

	const recordSize = 6
	headerLen := 2 + recordSize*len(sorted)
	out := make([]byte, 0, headerLen+sumLen(bodies))
	out = appendU16(out, uint16(len(sorted)))
	bodyStart := headerLen
	for i, tag := range sorted {
		out = append(out, tagBytes(tag)...)
		out = appendU16(out, uint16(bodyStart))
		bodyStart += len(bodies[i])
	}
	for _, b := range bodies {
		out = append(out, b...)
	}
	return out
}

// encodeNewLangSys encodes a LangSys with no lookupOrder, no required
// feature, and indices as its only feature references.
func encodeNewLangSys(indices []uint16) []byte {
	out := make([]byte, 0, 6+2*len(indices))
	out = appendU16(out, 0)      // lookupOrder, reserved
	out = appendU16(out, 0xFFFF) // requiredFeatureIndex: none
	out = appendU16(out, uint16(len(indices)))
	for _, idx := range indices {
		out = appendU16(out, idx)
	}
	return out
}

// growLookupList appends one Lookup table per entry of newLookups to an
// existing LookupList's raw bytes, returning the rebuilt bytes and the
// lookup-list index assigned to the first new lookup.
func growLookupList(lookupBytes binarySegm, newLookups []NewGposLookup) ([]byte, int, error) {
	if len(lookupBytes) < 2 {
		return nil, 0, errBufferBounds
	}
	oldCount := int(lookupBytes.U16(0))
	oldHeaderLen := 2 + 2*oldCount
	if oldHeaderLen > len(lookupBytes) {
		return nil, 0, errBufferBounds
	}
	oldBody := lookupBytes[oldHeaderLen:]
	newCount := oldCount + len(newLookups)
	newHeaderLen := 2 + 2*newCount
	growth := newHeaderLen - oldHeaderLen

	var newBodies [][]byte
	for _, nl := range newLookups {
		newBodies = append(newBodies, encodeGposLookupTable(nl))
	}

	out := make([]byte, 0, newHeaderLen+len(oldBody)+sumLen(newBodies))
	out = appendU16(out, uint16(newCount))
	for i := 0; i < oldCount; i++ {
		origOff := int(lookupBytes.U16(2 + 2*i))
		out = appendU16(out, uint16(origOff+growth))
	}
	bodyStart := newHeaderLen + len(oldBody)
	for _, body := range newBodies {
		out = appendU16(out, uint16(bodyStart))
		bodyStart += len(body)
	}
	out = append(out, oldBody...)
	for _, body := range newBodies {
		out = append(out, body...)
	}
	return out, oldCount, nil
}

// growFeatureList appends one Feature table per entry of newLookups to an
// existing FeatureList's raw bytes, returning the rebuilt bytes and the
// feature-list index assigned to the first new feature. lookupIndexBase is
// the lookup-list index of the first newly appended lookup (entries line
// up positionally with newLookups).
func growFeatureList(featureBytes binarySegm, newLookups []NewGposLookup, lookupIndexBase int) ([]byte, int, error) {
	if len(featureBytes) < 2 {
		return nil, 0, errBufferBounds
	}
	oldCount := int(featureBytes.U16(0))
	const recordSize = 6 // tag(4) + offset(2)
	oldHeaderLen := 2 + recordSize*oldCount
	if oldHeaderLen > len(featureBytes) {
		return nil, 0, errBufferBounds
	}
	oldBody := featureBytes[oldHeaderLen:]
	newCount := oldCount + len(newLookups)
	newHeaderLen := 2 + recordSize*newCount
	growth := newHeaderLen - oldHeaderLen

	var newBodies [][]byte
	for i, nl := range newLookups {
		body := make([]byte, 0, 6)
		body = appendU16(body, 0) // no FeatureParams
		body = appendU16(body, 1) // lookupIndexCount
		body = appendU16(body, uint16(lookupIndexBase+i))
		newBodies = append(newBodies, body)
		_ = nl
	}

	out := make([]byte, 0, newHeaderLen+len(oldBody)+sumLen(newBodies))
	out = appendU16(out, uint16(newCount))
	for i := 0; i < oldCount; i++ {
		recOff := 2 + recordSize*i
		tag := full4(featureBytes[recOff : recOff+4])
		origOff := int(featureBytes.U16(recOff + 4))
		out = append(out, tag...)
		out = appendU16(out, uint16(origOff+growth))
	}
	bodyStart := newHeaderLen + len(oldBody)
	for i, nl := range newLookups {
		out = append(out, tagBytes(nl.Tag)...)
		out = appendU16(out, uint16(bodyStart))
		bodyStart += len(newBodies[i])
	}
	out = append(out, oldBody...)
	for _, body := range newBodies {
		out = append(out, body...)
	}
	return out, oldCount, nil
}

// rebuildScriptList fully re-encodes a ScriptList, threading featureCount
// new feature indices (base featureIndexBase) into every LangSys of every
// applicable script.
func rebuildScriptList(sg *ScriptList, scripts []Tag, featureIndexBase, featureCount int) ([]byte, error) {
	if sg == nil {
		return nil, errFontFormat("GPOS table has no concrete script graph")
	}
	apply := func(tag Tag) bool {
		if len(scripts) == 0 || tag == DFLT {
			return true
		}
		for _, s := range scripts {
			if s == tag {
				return true
			}
		}
		return false
	}
	newIndices := make([]uint16, featureCount)
	for i := range newIndices {
		newIndices[i] = uint16(featureIndexBase + i)
	}

	type scriptBody struct {
		tag  Tag
		body []byte
	}
	var scriptBodies []scriptBody
	for tag, scr := range sg.Range() {
		wire := apply(tag)
		scriptBodies = append(scriptBodies, scriptBody{tag: tag, body: encodeScript(scr, wire, newIndices)})
	}
	sort.Slice(scriptBodies, func(i, j int) bool { return scriptBodies[i].tag < scriptBodies[j].tag })

	const recordSize = 6
	headerLen := 2 + recordSize*len(scriptBodies)
	bodyTotal := 0
	for _, sb := range scriptBodies {
		bodyTotal += len(sb.body)
	}
	out := make([]byte, 0, headerLen+bodyTotal)
	out = appendU16(out, uint16(len(scriptBodies)))
	bodyStart := headerLen
	for _, sb := range scriptBodies {
		out = append(out, tagBytes(sb.tag)...)
		out = appendU16(out, uint16(bodyStart))
		bodyStart += len(sb.body)
	}
	for _, sb := range scriptBodies {
		out = append(out, sb.body...)
	}
	return out, nil
}

// encodeScript re-encodes one Script table, appending newIndices to every
// LangSys (default and named) when wire is true.
func encodeScript(scr *Script, wire bool, newIndices []uint16) []byte {
	extra := func() []uint16 {
		if wire {
			return newIndices
		}
		return nil
	}

	type langBody struct {
		tag  Tag
		body []byte
	}
	var namedBodies []langBody
	for tag, ls := range scr.Range() {
		namedBodies = append(namedBodies, langBody{tag: tag, body: encodeLangSys(ls, extra())})
	}
	sort.Slice(namedBodies, func(i, j int) bool { return namedBodies[i].tag < namedBodies[j].tag })

	var defaultBody []byte
	if scr.DefaultLangSys() != nil {
		defaultBody = encodeLangSys(scr.DefaultLangSys(), extra())
	}

	const recordSize = 6
	headerLen := 2 + recordSize*len(namedBodies)
	bodyStart := headerLen
	defaultOffset := 0
	if defaultBody != nil {
		defaultOffset = bodyStart
		bodyStart += len(defaultBody)
	}

	out := make([]byte, 0, bodyStart)
	out = appendU16(out, uint16(defaultOffset))
	out = appendU16(out, uint16(len(namedBodies)))
	cursor := headerLen
	if defaultBody != nil {
		cursor += len(defaultBody)
	}
	for _, lb := range namedBodies {
		out = append(out, tagBytes(lb.tag)...)
		out = appendU16(out, uint16(cursor))
		cursor += len(lb.body)
	}
	if defaultBody != nil {
		out = append(out, defaultBody...)
	}
	for _, lb := range namedBodies {
		out = append(out, lb.body...)
	}
	return out
}

// encodeLangSys re-encodes one LangSys table with extra feature indices
// appended after its existing ones.
func encodeLangSys(ls *LangSys, extra []uint16) []byte {
	indices := append([]uint16{}, ls.featureIndices...)
	indices = append(indices, extra...)

	required := uint16(0xFFFF)
	if r, ok := ls.RequiredFeatureIndex(); ok {
		required = r
	}
	out := make([]byte, 0, 6+2*len(indices))
	out = appendU16(out, 0) // lookupOrder, reserved
	out = appendU16(out, required)
	out = appendU16(out, uint16(len(indices)))
	for _, idx := range indices {
		out = appendU16(out, idx)
	}
	return out
}

// --- GPOS lookup-subtable encoding ------------------------------------------

func encodeGposLookupTable(nl NewGposLookup) []byte {
	var subtable []byte
	var lookupType LayoutTableLookupType
	if nl.Pairs != nil {
		lookupType = GPosLookupTypePair
		subtable = encodePairPosFormat2(nl.Pairs, nl.Vertical)
	} else {
		lookupType = GPosLookupTypeSingle
		subtable = encodeSinglePosFormat2(nl.Singles, nl.Vertical)
	}
	out := make([]byte, 0, 8+len(subtable))
	out = appendU16(out, uint16(lookupType))
	out = appendU16(out, 0) // lookup flag
	out = appendU16(out, 1) // subtable count
	out = appendU16(out, 8) // subtable offset, right after this 8-byte header
	out = append(out, subtable...)
	return out
}

func valueFormats(vertical bool) (ValueFormat, ValueFormat) {
	if vertical {
		return ValueFormatYAdvance, ValueFormatYPlacement | ValueFormatYAdvance
	}
	return ValueFormatXAdvance, ValueFormatXPlacement | ValueFormatXAdvance
}

func singleValueFormat(vertical bool) ValueFormat {
	if vertical {
		return ValueFormatYPlacement | ValueFormatYAdvance
	}
	return ValueFormatXPlacement | ValueFormatXAdvance
}

// encodePairPosFormat2 builds a PairPos subtable format 2: a Coverage table
// over the first-glyph (Class1) set, ClassDef1/ClassDef2 tables classifying
// first and second glyphs, and a dense class1Count x class2Count matrix of
// ValueRecord pairs. This keeps the chws/vchw lookup to a handful of class
// cells instead of one PairSet per covered glyph, per the design this tool
// targets: CJK half-width pairing covers thousands of glyphs but only a
// 2x2 class combination, so the class matrix stays tiny regardless of face
// size.
func encodePairPosFormat2(pairs *GposClassPairs, vertical bool) []byte {
	format1, format2 := valueFormats(vertical)

	firsts := make([]GlyphIndex, 0, len(pairs.Class1))
	for g := range pairs.Class1 {
		firsts = append(firsts, g)
	}
	coverage := encodeCoverageFormat1(firsts)
	classDef1 := encodeClassDefFormat2(pairs.Class1)
	classDef2 := encodeClassDefFormat2(pairs.Class2)

	class1Count := maxClassPlus1(pairs.Class1)
	class2Count := maxClassPlus1(pairs.Class2)

	cellByClass := make(map[[2]uint16]GposClassPairCell, len(pairs.Cells))
	for _, c := range pairs.Cells {
		cellByClass[[2]uint16{c.Class1, c.Class2}] = c
	}

	const headerLen = 16 // format, coverageOffset, 2 valueFormats, 2 classDefOffsets, 2 classCounts
	coverageOffset := headerLen
	classDef1Offset := coverageOffset + len(coverage)
	classDef2Offset := classDef1Offset + len(classDef1)
	matrixStart := classDef2Offset + len(classDef2)
	cellSize := valueRecordSize(format1) + valueRecordSize(format2)

	out := make([]byte, 0, matrixStart+int(class1Count)*int(class2Count)*cellSize)
	out = appendU16(out, 2) // format
	out = appendU16(out, uint16(coverageOffset))
	out = appendU16(out, uint16(format1))
	out = appendU16(out, uint16(format2))
	out = appendU16(out, uint16(classDef1Offset))
	out = appendU16(out, uint16(classDef2Offset))
	out = appendU16(out, class1Count)
	out = appendU16(out, class2Count)
	out = append(out, coverage...)
	out = append(out, classDef1...)
	out = append(out, classDef2...)
	for c1 := uint16(0); c1 < class1Count; c1++ {
		for c2 := uint16(0); c2 < class2Count; c2++ {
			cell := cellByClass[[2]uint16{c1, c2}]
			out = append(out, encodeValueRecord(cell.Value1, format1)...)
			out = append(out, encodeValueRecord(cell.Value2, format2)...)
		}
	}
	return out
}

// encodeClassDefFormat2 builds a ClassDef table format 2 (ClassRangeRecord
// list) from a glyph -> class map; adjacent glyphs sharing a class are
// merged into a single range. Glyphs absent from classes default to
// class 0, the OpenType ClassDef convention.
func encodeClassDefFormat2(classes map[GlyphIndex]uint16) []byte {
	if len(classes) == 0 {
		out := make([]byte, 0, 4)
		out = appendU16(out, 2)
		out = appendU16(out, 0)
		return out
	}
	glyphs := make([]GlyphIndex, 0, len(classes))
	for g := range classes {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })

	type classRange struct {
		start, end GlyphIndex
		class      uint16
	}
	var ranges []classRange
	for _, g := range glyphs {
		c := classes[g]
		if n := len(ranges); n > 0 && ranges[n-1].class == c && ranges[n-1].end+1 == g {
			ranges[n-1].end = g
			continue
		}
		ranges = append(ranges, classRange{start: g, end: g, class: c})
	}

	out := make([]byte, 0, 4+6*len(ranges))
	out = appendU16(out, 2)
	out = appendU16(out, uint16(len(ranges)))
	for _, r := range ranges {
		out = appendU16(out, uint16(r.start))
		out = appendU16(out, uint16(r.end))
		out = appendU16(out, r.class)
	}
	return out
}

// maxClassPlus1 sizes a class1Count/class2Count field: the ClassDef
// table's highest assigned class, plus one for implicit class 0.
func maxClassPlus1(classes map[GlyphIndex]uint16) uint16 {
	var max uint16
	for _, c := range classes {
		if c > max {
			max = c
		}
	}
	return max + 1
}

// encodeSinglePosFormat2 builds a SinglePos subtable format 2 (Coverage
// plus one independent ValueRecord per covered glyph).
func encodeSinglePosFormat2(singles []GposSingleEntry, vertical bool) []byte {
	format := singleValueFormat(vertical)
	sorted := append([]GposSingleEntry(nil), singles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Glyph < sorted[j].Glyph })

	glyphs := make([]GlyphIndex, len(sorted))
	for i, s := range sorted {
		glyphs[i] = s.Glyph
	}
	coverage := encodeCoverageFormat1(glyphs)

	const headerLen = 6 // format, coverageOffset, valueFormat
	out := make([]byte, 0, headerLen+len(coverage)+len(sorted)*valueRecordSize(format))
	out = appendU16(out, 2) // format
	out = appendU16(out, uint16(headerLen))
	out = appendU16(out, uint16(format))
	out = append(out, coverage...)
	for _, s := range sorted {
		out = append(out, encodeValueRecord(s.Value, format)...)
	}
	return out
}

// encodeCoverageFormat1 builds a Coverage table format 1 from a glyph set,
// which is sorted and deduplicated first (format 1 requires ascending,
// unique glyph IDs).
func encodeCoverageFormat1(glyphs []GlyphIndex) []byte {
	sorted := append([]GlyphIndex(nil), glyphs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var deduped []GlyphIndex
	for i, g := range sorted {
		if i == 0 || g != sorted[i-1] {
			deduped = append(deduped, g)
		}
	}
	out := make([]byte, 0, 4+2*len(deduped))
	out = appendU16(out, 1)
	out = appendU16(out, uint16(len(deduped)))
	for _, g := range deduped {
		out = appendU16(out, uint16(g))
	}
	return out
}

// encodeValueRecord writes a ValueRecord's present fields, in wire order,
// according to format.
func encodeValueRecord(v ValueRecord, format ValueFormat) []byte {
	var out []byte
	if format&ValueFormatXPlacement != 0 {
		out = appendU16(out, uint16(v.XPlacement))
	}
	if format&ValueFormatYPlacement != 0 {
		out = appendU16(out, uint16(v.YPlacement))
	}
	if format&ValueFormatXAdvance != 0 {
		out = appendU16(out, uint16(v.XAdvance))
	}
	if format&ValueFormatYAdvance != 0 {
		out = appendU16(out, uint16(v.YAdvance))
	}
	if format&ValueFormatXPlaDevice != 0 {
		out = appendU16(out, v.XPlaDevice)
	}
	if format&ValueFormatYPlaDevice != 0 {
		out = appendU16(out, v.YPlaDevice)
	}
	if format&ValueFormatXAdvDevice != 0 {
		out = appendU16(out, v.XAdvDevice)
	}
	if format&ValueFormatYAdvDevice != 0 {
		out = appendU16(out, v.YAdvDevice)
	}
	return out
}

// --- small helpers -----------------------------------------------------

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func tagBytes(t Tag) []byte {
	return []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
}

func full4(b []byte) []byte {
	out := make([]byte, 4)
	copy(out, b)
	return out
}

func sumLen(bs [][]byte) int {
	n := 0
	for _, b := range bs {
		n += len(b)
	}
	return n
}

