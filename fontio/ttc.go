package fontio

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/chwsgen/ot"
)

// This file implements the TrueType-collection (TTC) walker spec.md
// treats as an external collaborator: detecting a TTC container,
// extracting each member face into a standalone table set ot.ParseFont
// can consume, and re-serializing a modified collection with shared
// tables deduplicated (spec §9: Noto CJK's faces share glyf/CFF/cmap
// bytes, and writing them out once per face rather than once total
// would roughly quadruple output size).

const ttcHeaderSize = 12 // tag, version, numFonts

// parseTTC reads a TrueType Collection's header and extracts every member
// face into its own ot.Font, each carrying a private copy of the table
// bytes it references (shared or not) so downstream chws processing
// never needs to know a face came from a collection.
func parseTTC(data []byte, path string) (*Font, error) {
	if len(data) < ttcHeaderSize+4 {
		return nil, fmt.Errorf("fontio: TTC header truncated in %s", path)
	}
	numFonts := binary.BigEndian.Uint32(data[8:12])
	if numFonts == 0 {
		return nil, fmt.Errorf("fontio: TTC %s declares zero fonts", path)
	}
	offsetTableEnd := ttcHeaderSize + 4*int(numFonts)
	if len(data) < offsetTableEnd {
		return nil, fmt.Errorf("fontio: TTC %s offset table truncated", path)
	}
	faces := make([]*Face, numFonts)
	for i := 0; i < int(numFonts); i++ {
		faceOffset := binary.BigEndian.Uint32(data[ttcHeaderSize+4*i : ttcHeaderSize+4*i+4])
		standalone, err := extractFace(data, faceOffset)
		if err != nil {
			return nil, fmt.Errorf("fontio: extract TTC face %d of %s: %w", i, path, err)
		}
		face, err := parseStandaloneFace(standalone, i)
		if err != nil {
			return nil, fmt.Errorf("fontio: parse TTC face %d of %s: %w", i, path, err)
		}
		faces[i] = face
	}
	tracer().Infof("loaded %s: TTC with %d faces", path, numFonts)
	return &Font{Path: path, IsTTC: true, Faces: faces, raw: data}, nil
}

// extractFace rebuilds a standalone single-font SFNT binary for the face
// whose own table directory begins at offset within a TTC's raw bytes.
//
// A TTC face's table-directory entries already carry offsets that are
// absolute into the whole collection file — that's exactly the mechanism
// that lets faces share table bytes. So extraction is: read this face's
// directory, copy every table span it references out of the shared
// buffer, and hand the result to encodeStandalone, which lays those
// tables out as a fresh, self-contained font starting at byte 0 (which is
// what ot.Parse, a single-font parser, requires).
func extractFace(data []byte, offset uint32) ([]byte, error) {
	if uint32(len(data)) < offset+12 {
		return nil, fmt.Errorf("face offset %d out of range (file is %d bytes)", offset, len(data))
	}
	fontType := binary.BigEndian.Uint32(data[offset : offset+4])
	numTables := binary.BigEndian.Uint16(data[offset+4 : offset+6])
	dirStart := offset + 12
	dirEnd := uint64(dirStart) + uint64(numTables)*16
	if uint64(len(data)) < dirEnd {
		return nil, fmt.Errorf("face table directory truncated at offset %d", offset)
	}
	tables := make(map[ot.Tag][]byte, numTables)
	tags := make([]ot.Tag, 0, numTables)
	for i := 0; i < int(numTables); i++ {
		rec := data[dirStart+uint32(i)*16:]
		tag := ot.Tag(binary.BigEndian.Uint32(rec[0:4]))
		tableOffset := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		end := uint64(tableOffset) + uint64(length)
		if uint64(len(data)) < end {
			return nil, fmt.Errorf("table %s out of range in TTC face at offset %d", tag, offset)
		}
		tables[tag] = append([]byte(nil), data[tableOffset:end]...)
		tags = append(tags, tag)
	}
	return encodeStandalone(fontType, tags, tables)
}

// serializeTTC re-assembles faces into a version-1.0 (no DSIG) TrueType
// Collection: a TTC header, one table directory per face, then a pool of
// table bodies shared by content — any table whose bytes are bit-
// identical across two or more faces is written once and referenced by
// every face that carries it, except `head`, which is never shared
// because each face's checkSumAdjustment is computed (and therefore
// patched) independently, per that face's own virtual-font table set.
func serializeTTC(faces []*Face) ([]byte, error) {
	type poolEntry struct {
		length   uint32
		checksum uint32
	}
	pool := map[[32]byte]poolEntry{}
	order := make([][32]byte, 0, len(faces)*8)

	type faceLayout struct {
		fontType uint32
		tags     []ot.Tag
		entries  map[ot.Tag]poolEntry // resolved once pool offsets are known (head excluded)
		headData []byte               // private, zeroed-adjustment copy; nil if face has no head
	}
	layouts := make([]faceLayout, len(faces))

	addToPool := func(b []byte) [32]byte {
		key := sha256.Sum256(b)
		if _, ok := pool[key]; !ok {
			pool[key] = poolEntry{length: uint32(len(b)), checksum: tableChecksum(b)}
			order = append(order, key)
		}
		return key
	}

	faceKeys := make([]map[ot.Tag][32]byte, len(faces))
	for i, face := range faces {
		tables := face.Tables()
		tags := make([]ot.Tag, 0, len(tables))
		for t := range tables {
			tags = append(tags, t)
		}
		sortTagsAsc(tags)
		keys := make(map[ot.Tag][32]byte, len(tags))
		var headCopy []byte
		for _, tag := range tags {
			if tag == ot.T("head") {
				h := append([]byte(nil), tables[tag]...)
				if len(h) >= 12 {
					binary.BigEndian.PutUint32(h[8:12], 0)
				}
				headCopy = h
				continue
			}
			keys[tag] = addToPool(tables[tag])
		}
		faceKeys[i] = keys
		layouts[i] = faceLayout{fontType: face.fontType, tags: tags, headData: headCopy}
	}

	// Layout: TTC header, then each face's own table directory
	// back-to-back, then the head copies (one per face that has one),
	// then the deduplicated pool data, in first-reference order.
	ttcDirStart := uint32(ttcHeaderSize + 4*len(faces))
	faceDirOffsets := make([]uint32, len(faces))
	cursor := ttcDirStart
	for i, l := range layouts {
		faceDirOffsets[i] = cursor
		cursor += uint32(12 + 16*len(l.tags))
	}
	headOffsets := make([]uint32, len(faces))
	for i, l := range layouts {
		if l.headData == nil {
			continue
		}
		headOffsets[i] = cursor
		cursor += padTo4(uint32(len(l.headData)))
	}
	poolOffsets := make(map[[32]byte]uint32, len(pool))
	for _, key := range order {
		poolOffsets[key] = cursor
		cursor += padTo4(pool[key].length)
	}

	buf := make([]byte, cursor)
	binary.BigEndian.PutUint32(buf[0:4], uint32(ttcTag))
	binary.BigEndian.PutUint32(buf[4:8], 0x00010000)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(faces)))
	for i, off := range faceDirOffsets {
		binary.BigEndian.PutUint32(buf[ttcHeaderSize+4*i:ttcHeaderSize+4*i+4], off)
	}

	// Write pool bytes: walk faces again to find one representative byte
	// slice per pool key (content-identical across all referencing faces).
	written := map[[32]byte]bool{}
	for i, face := range faces {
		tables := face.Tables()
		for tag, key := range faceKeys[i] {
			if written[key] {
				continue
			}
			off := poolOffsets[key]
			b := tables[tag]
			copy(buf[off:off+uint32(len(b))], b)
			written[key] = true
		}
	}
	for i, l := range layouts {
		if l.headData == nil {
			continue
		}
		off := headOffsets[i]
		copy(buf[off:off+uint32(len(l.headData))], l.headData)
	}

	// Per-face table directories, and per-face virtual-font checksum
	// (head's checkSumAdjustment is computed as if this face's own
	// referenced tables were a standalone font).
	for i, l := range layouts {
		dirOff := faceDirOffsets[i]
		searchRange, entrySelector, rangeShift := sfntDirectorySizing(len(l.tags))
		binary.BigEndian.PutUint32(buf[dirOff:dirOff+4], l.fontType)
		binary.BigEndian.PutUint16(buf[dirOff+4:dirOff+6], uint16(len(l.tags)))
		binary.BigEndian.PutUint16(buf[dirOff+6:dirOff+8], searchRange)
		binary.BigEndian.PutUint16(buf[dirOff+8:dirOff+10], entrySelector)
		binary.BigEndian.PutUint16(buf[dirOff+10:dirOff+12], rangeShift)

		var virtualChecksum uint32
		var headDirOffset uint32
		for j, tag := range l.tags {
			recOff := dirOff + 12 + uint32(j)*16
			var tOff, tLen, tSum uint32
			if tag == ot.T("head") {
				tOff = headOffsets[i]
				tLen = uint32(len(l.headData))
				tSum = tableChecksum(l.headData)
				headDirOffset = tOff
			} else {
				key := faceKeys[i][tag]
				e := pool[key]
				tOff = poolOffsets[key]
				tLen = e.length
				tSum = e.checksum
			}
			copy(buf[recOff:recOff+4], tagBytes(tag))
			binary.BigEndian.PutUint32(buf[recOff+4:recOff+8], tSum)
			binary.BigEndian.PutUint32(buf[recOff+8:recOff+12], tOff)
			binary.BigEndian.PutUint32(buf[recOff+12:recOff+16], tLen)
			virtualChecksum += tSum
		}
		if l.headData != nil {
			adjustment := 0xB1B0AFBA - virtualChecksum
			binary.BigEndian.PutUint32(buf[headDirOffset+8:headDirOffset+12], adjustment)
		}
	}

	return buf, nil
}
