// Package fontio is the thin font-binary I/O collaborator spec.md treats
// as an external dependency: opening a font file (single SFNT or TTC),
// handing back one navigable Face per contained font, and re-serializing
// the result after chws has rebuilt a face's GPOS table.
//
// The teacher package `ot` is explicitly read-only ("this package is not
// intended for font manipulation", ot/doc.go) and, by its own Status
// note, does not yet support font collections. fontio fills both gaps:
// TTC face extraction/walking and binary re-assembly (including the
// shared-table deduplication spec §9 requires for Noto CJK-sized TTCs),
// grounded in the standard OpenType table-directory layout `ot.Parse`
// already reads (see DESIGN.md for the stdlib justification).
package fontio

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("font.chws.io")
}

// Face is one loaded, navigable font within a Font: the only face of a
// standalone SFNT, or one member of a TrueType Collection.
type Face struct {
	Index    int               // TTC face index; 0 for a non-collection file
	OT       *ot.Font          // table-level view, used for GPOS analysis/rebuild
	fontType uint32            // sfnt version / 'OTTO' tag from the face's own header
	tables   map[ot.Tag][]byte // current table bytes, keyed by tag
	touched  bool              // true once SetGPOS has replaced the GPOS table
}

// Tables returns a snapshot of this face's current table set, tag to
// bytes, reflecting any prior SetGPOS call.
func (f *Face) Tables() map[ot.Tag][]byte {
	out := make(map[ot.Tag][]byte, len(f.tables))
	for t, b := range f.tables {
		out[t] = b
	}
	return out
}

// Touched reports whether this face's GPOS table has been replaced since
// it was loaded.
func (f *Face) Touched() bool {
	return f.touched
}

// SetGPOS installs newGPOS (typically the result of ot.BuildGPOS or
// ot.BuildGPOSForScripts) as this face's GPOS table for serialization. It
// adds a GPOS table if the face did not previously carry one.
func (f *Face) SetGPOS(newGPOS []byte) {
	f.tables[ot.T("GPOS")] = newGPOS
	f.touched = true
}

// Serialize re-encodes this face as a standalone single-font SFNT binary:
// every table in f.Tables() is packed into a fresh table directory sorted
// by tag, checksums are recomputed, and (when a `head` table is present)
// checkSumAdjustment is recomputed over the assembled file per the
// OpenType spec.
func (f *Face) Serialize() ([]byte, error) {
	tags := make([]ot.Tag, 0, len(f.tables))
	for t := range f.tables {
		tags = append(tags, t)
	}
	return encodeStandalone(f.fontType, tags, f.tables)
}

// Font is one loaded font file: either a single face, or a TrueType
// Collection of several faces that may share table data.
type Font struct {
	Path  string
	IsTTC bool
	Faces []*Face

	raw []byte // original file bytes, for byte-identical passthrough of untouched fonts
}

var ttcTag = ot.T("ttcf")

// Open loads and parses every face contained in a font file at path.
// Single-font files produce a one-element Faces slice.
func Open(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse loads a font from an in-memory buffer, the same entry point Open
// uses once it has read the file. Callers that already hold font bytes
// (tests, a recursive directory walker) can skip the disk round-trip.
func Parse(data []byte, path string) (*Font, error) {
	if len(data) >= 4 && ot.MakeTag(data[0:4]) == ttcTag {
		return parseTTC(data, path)
	}
	face, err := parseStandaloneFace(data, 0)
	if err != nil {
		return nil, err
	}
	tracer().Infof("loaded %s: single face, %d tables", path, len(face.tables))
	return &Font{Path: path, Faces: []*Face{face}, raw: data}, nil
}

func parseStandaloneFace(data []byte, index int) (*Face, error) {
	otf, err := ot.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("fontio: parse face %d: %w", index, err)
	}
	tags := otf.TableTags()
	tables := make(map[ot.Tag][]byte, len(tags))
	for _, tag := range tags {
		t := otf.Table(tag)
		tables[tag] = append([]byte(nil), t.Binary()...)
	}
	var fontType uint32 = 0x00010000
	if otf.Header != nil && otf.Header.FontType != 0 {
		fontType = otf.Header.FontType
	}
	return &Face{Index: index, OT: otf, fontType: fontType, tables: tables}, nil
}

// AnyTouched reports whether at least one face had its GPOS table
// replaced since loading.
func (font *Font) AnyTouched() bool {
	for _, face := range font.Faces {
		if face.touched {
			return true
		}
	}
	return false
}

// Save writes the font back out. A font with no touched face is written
// back byte-identical to its original bytes (spec §8.2's no-regression
// property, and scenarios S3/S4); otherwise the touched face(s) (and, for
// a TTC, the whole collection) are re-serialized.
func (font *Font) Save(path string) error {
	data, err := font.serializeAll()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (font *Font) serializeAll() ([]byte, error) {
	if !font.AnyTouched() {
		return font.raw, nil
	}
	if !font.IsTTC {
		return font.Faces[0].Serialize()
	}
	return serializeTTC(font.Faces)
}

// --- binary assembly --------------------------------------------------

// encodeStandalone builds a standalone single-font SFNT binary out of an
// explicit table set: a 12-byte offset subtable, tags sorted ascending
// (per spec §4.5's determinism requirement and the OpenType spec's own
// table-directory ordering rule), one 16-byte table record per tag, and
// the table bodies themselves, each padded to a 4-byte boundary.
func encodeStandalone(fontType uint32, tags []ot.Tag, tables map[ot.Tag][]byte) ([]byte, error) {
	sorted := append([]ot.Tag(nil), tags...)
	sortTagsAsc(sorted)

	numTables := len(sorted)
	searchRange, entrySelector, rangeShift := sfntDirectorySizing(numTables)

	headerSize := 12 + 16*numTables
	headBytes := tables[ot.T("head")]
	var headCopy []byte
	if len(headBytes) >= 12 {
		headCopy = append([]byte(nil), headBytes...)
		binary.BigEndian.PutUint32(headCopy[8:12], 0) // zeroed for its own checksum, per spec
		tables = cloneWithHead(tables, headCopy)
	}

	// First pass: lay out offsets and compute per-table checksums.
	records := make([]tableRecord, numTables)
	dataOffset := uint32(headerSize)
	for i, tag := range sorted {
		b := tables[tag]
		records[i] = tableRecord{
			tag:      tag,
			offset:   dataOffset,
			length:   uint32(len(b)),
			checksum: tableChecksum(b),
		}
		dataOffset += padTo4(uint32(len(b)))
	}

	buf := make([]byte, dataOffset)
	binary.BigEndian.PutUint32(buf[0:4], fontType)
	binary.BigEndian.PutUint16(buf[4:6], uint16(numTables))
	binary.BigEndian.PutUint16(buf[6:8], searchRange)
	binary.BigEndian.PutUint16(buf[8:10], entrySelector)
	binary.BigEndian.PutUint16(buf[10:12], rangeShift)

	for i, rec := range records {
		recOff := 12 + i*16
		copy(buf[recOff:recOff+4], tagBytes(rec.tag))
		binary.BigEndian.PutUint32(buf[recOff+4:recOff+8], rec.checksum)
		binary.BigEndian.PutUint32(buf[recOff+8:recOff+12], rec.offset)
		binary.BigEndian.PutUint32(buf[recOff+12:recOff+16], rec.length)
		copy(buf[rec.offset:rec.offset+rec.length], tables[rec.tag])
	}

	if headCopy != nil {
		patchCheckSumAdjustment(buf, findTableOffset(records, ot.T("head")))
	}
	return buf, nil
}

func cloneWithHead(tables map[ot.Tag][]byte, head []byte) map[ot.Tag][]byte {
	out := make(map[ot.Tag][]byte, len(tables))
	for t, b := range tables {
		out[t] = b
	}
	out[ot.T("head")] = head
	return out
}

// tableRecord is one pending entry of a table directory being assembled.
type tableRecord struct {
	tag      ot.Tag
	offset   uint32
	length   uint32
	checksum uint32
}

func findTableOffset(records []tableRecord, tag ot.Tag) uint32 {
	for _, r := range records {
		if r.tag == tag {
			return r.offset
		}
	}
	return 0
}

// patchCheckSumAdjustment computes the whole-file checksum over buf (with
// head's checkSumAdjustment already zeroed at headOffset+8, as written by
// encodeStandalone) and writes 0xB1B0AFBA minus that checksum into the
// live buffer, per the OpenType 'head' table spec.
func patchCheckSumAdjustment(buf []byte, headOffset uint32) {
	if headOffset == 0 || int(headOffset)+12 > len(buf) {
		return
	}
	sum := tableChecksum(buf)
	adjustment := 0xB1B0AFBA - sum
	binary.BigEndian.PutUint32(buf[headOffset+8:headOffset+12], adjustment)
}

// tableChecksum is the OpenType table checksum algorithm: the sum, modulo
// 2^32, of the table's bytes read as big-endian uint32 words, with the
// final partial word (if any) padded with zero bytes.
func tableChecksum(b []byte) uint32 {
	var sum uint32
	n := len(b) / 4
	for i := 0; i < n; i++ {
		sum += binary.BigEndian.Uint32(b[i*4 : i*4+4])
	}
	if rem := len(b) % 4; rem != 0 {
		var last [4]byte
		copy(last[:], b[n*4:])
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func padTo4(n uint32) uint32 {
	if rem := n % 4; rem != 0 {
		return n + (4 - rem)
	}
	return n
}

func tagBytes(t ot.Tag) []byte {
	return []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
}

func sortTagsAsc(tags []ot.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
}

// sfntDirectorySizing computes the searchRange/entrySelector/rangeShift
// triple the sfnt offset subtable carries, per the OpenType spec: the
// largest power of two not exceeding numTables drives all three.
func sfntDirectorySizing(numTables int) (searchRange, entrySelector, rangeShift uint16) {
	pow := 1
	var sel uint16
	for pow*2 <= numTables {
		pow *= 2
		sel++
	}
	searchRange = uint16(pow * 16)
	entrySelector = sel
	rangeShift = uint16(numTables*16) - searchRange
	return
}
