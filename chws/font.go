package chws

import (
	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otquery"
)

// Font is a thin adapter over a parsed OpenType font face, exposing just
// the capabilities this package's components need: units-per-em, glyph
// count, per-glyph horizontal (and optional vertical) advance, a cmap
// query, and access to the underlying `ot.Font` for GPOS merging and
// outline access.
type Font struct {
	OT *ot.Font

	upem       int
	glyphCount int
	vAdvance   map[ot.GlyphIndex]int32 // from vmtx, filled by NewFont
	vheaFound  bool
}

// NewFont wraps an already-parsed ot.Font.
func NewFont(otf *ot.Font) *Font {
	f := &Font{OT: otf}
	metrics := otquery.FontMetrics(otf)
	f.upem = int(metrics.UnitsPerEm)
	if maxp := otf.Table(ot.T("maxp")); maxp != nil {
		if mp := maxp.Self().AsMaxP(); mp != nil {
			f.glyphCount = mp.NumGlyphs
		}
	}
	f.loadVerticalMetrics()
	return f
}

// UnitsPerEm returns the font's design-grid resolution.
func (f *Font) UnitsPerEm() int {
	if f == nil {
		return 0
	}
	return f.upem
}

// GlyphCount returns the number of glyphs in the font.
func (f *Font) GlyphCount() int {
	if f == nil {
		return 0
	}
	return f.glyphCount
}

// GlyphIndex maps a code point to a glyph ID via the font's cmap, or 0
// (.notdef) if unmapped.
func (f *Font) GlyphIndex(cp rune) ot.GlyphIndex {
	if f == nil || f.OT == nil {
		return 0
	}
	return otquery.GlyphIndex(f.OT, cp)
}

// HAdvance returns a glyph's horizontal advance in design units.
func (f *Font) HAdvance(g ot.GlyphIndex) int32 {
	if f == nil || f.OT == nil {
		return 0
	}
	metrics := otquery.GlyphMetrics(f.OT, g)
	return int32(metrics.Advance)
}

// HasVerticalMetrics reports whether the font carries a `vhea`/`vmtx`
// pair, making vertical advances (and therefore `vchw`/`vhal`) available.
func (f *Font) HasVerticalMetrics() bool {
	return f != nil && f.vheaFound
}

// VAdvance returns a glyph's vertical advance in design units, or 0 if
// the font has no vertical metrics.
func (f *Font) VAdvance(g ot.GlyphIndex) int32 {
	if f == nil || !f.vheaFound {
		return 0
	}
	return f.vAdvance[g]
}

// loadVerticalMetrics reads the `vhea`/`vmtx` tables directly, since `ot`
// does not parse them (they are not required for GSUB/GPOS shaping and
// the teacher package never added typed support for them). The wire
// layout mirrors `hhea`/`hmtx`: vhea's `numOfLongVerMetrics` sits at the
// same byte offset as hhea's `numberOfHMetrics` (both tables share the
// OpenType "*hea" layout), and vmtx is an array of (advance, top-side-
// bearing) uint16/int16 pairs exactly like hmtx's (advance, lsb) pairs.
func (f *Font) loadVerticalMetrics() {
	vhea := f.OT.Table(ot.T("vhea"))
	vmtx := f.OT.Table(ot.T("vmtx"))
	if vhea == nil || vmtx == nil {
		return
	}
	vheaBytes := vhea.Binary()
	if len(vheaBytes) < 36 {
		return
	}
	numOfLongVerMetrics := int(u16at(vheaBytes, 34))
	if numOfLongVerMetrics <= 0 || numOfLongVerMetrics > f.glyphCount {
		return
	}
	vmtxBytes := vmtx.Binary()
	advances := make(map[ot.GlyphIndex]int32, f.glyphCount)
	var last int32
	for gid := 0; gid < f.glyphCount; gid++ {
		if gid < numOfLongVerMetrics {
			off := gid * 4
			if off+2 > len(vmtxBytes) {
				break
			}
			last = int32(u16at(vmtxBytes, off))
		}
		advances[ot.GlyphIndex(gid)] = last
	}
	f.vAdvance = advances
	f.vheaFound = true
}

func u16at(b []byte, off int) uint16 {
	if off < 0 || off+2 > len(b) {
		return 0
	}
	return uint16(b[off])<<8 | uint16(b[off+1])
}
