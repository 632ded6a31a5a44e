package chws

import (
	"fmt"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otquery"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// InkBoundsAnalyzer computes a glyph's axis-aligned ink bounding box and
// classifies where that ink sits within the glyph's advance cell.
//
// The common case (TrueType outlines) reuses otquery.GlyphMetrics, which
// already reads the bounding box directly out of the `glyf`/`loca` table
// bytes. Fonts without a `glyf` table (CFF/OTTO outlines) fall back to
// walking sfnt.Buffer.LoadGlyph's Bézier segments and taking the extrema
// of their endpoints and control points — per spec §4.2, this is a
// documented slight over-estimate at curve bulges, not a rigorous exact
// extrema computation.
type InkBoundsAnalyzer struct {
	font   *Font
	hasGlyf bool
	buf    sfnt.Buffer
}

// NewInkBoundsAnalyzer builds an analyzer for a font.
func NewInkBoundsAnalyzer(f *Font) *InkBoundsAnalyzer {
	return &InkBoundsAnalyzer{
		font:    f,
		hasGlyf: f.OT.Table(ot.T("glyf")) != nil && f.OT.Table(ot.T("loca")) != nil,
	}
}

// BBox returns a glyph's ink bounding box in design units.
func (a *InkBoundsAnalyzer) BBox(g ot.GlyphIndex) (otquery.BoundingBox, error) {
	if a.hasGlyf {
		return otquery.GlyphMetrics(a.font.OT, g).BBox, nil
	}
	return a.bboxFromOutlineSegments(g)
}

func (a *InkBoundsAnalyzer) bboxFromOutlineSegments(g ot.GlyphIndex) (otquery.BoundingBox, error) {
	sf := a.font.OT.F.SFNT
	if sf == nil {
		return otquery.BoundingBox{}, newError(KindOutlineMalformed, 0,
			fmt.Sprintf("no sfnt.Font available for glyph %d", g), nil)
	}
	ppem := fixed.Int26_6(a.font.upem << 6)
	segs, err := sf.LoadGlyph(&a.buf, sfnt.GlyphIndex(g), ppem, nil)
	if err != nil {
		return otquery.BoundingBox{}, newError(KindOutlineMalformed, 0,
			fmt.Sprintf("cannot load outline for glyph %d", g), err)
	}
	if len(segs) == 0 {
		return otquery.BoundingBox{}, nil
	}
	var minX, minY, maxX, maxY fixed.Int26_6
	first := true
	consider := func(p fixed.Point26_6) {
		if first {
			minX, maxX = p.X, p.X
			minY, maxY = p.Y, p.Y
			first = false
			return
		}
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	for _, seg := range segs {
		n := 1
		switch seg.Op {
		case sfnt.SegmentOpQuadTo:
			n = 2
		case sfnt.SegmentOpCubeTo:
			n = 3
		}
		for i := 0; i < n; i++ {
			consider(seg.Args[i])
		}
	}
	return otquery.BoundingBox{
		MinX: sfnt.Units(minX >> 6),
		MinY: sfnt.Units(minY >> 6),
		MaxX: sfnt.Units(maxX >> 6),
		MaxY: sfnt.Units(maxY >> 6),
	}, nil
}

// tolerance converts a Config's fractional UPEM tolerance into design units.
func tolerance(cfg *Config, upem int) int32 {
	return int32(cfg.FullwidthTolerance * float64(upem))
}

// IsHalfwidthLeft reports whether the glyph's ink sits in the left half
// of its advance cell (the right half is empty and available for spacing
// reduction).
func (a *InkBoundsAnalyzer) IsHalfwidthLeft(g ot.GlyphIndex, advance int32, cfg *Config) bool {
	bbox, err := a.BBox(g)
	if err != nil || bbox.IsEmpty() {
		return false
	}
	tol := tolerance(cfg, a.font.upem)
	return int32(bbox.MaxX) <= advance/2+tol
}

// IsHalfwidthRight reports whether the glyph's ink sits in the right
// half of its advance cell.
func (a *InkBoundsAnalyzer) IsHalfwidthRight(g ot.GlyphIndex, advance int32, cfg *Config) bool {
	bbox, err := a.BBox(g)
	if err != nil || bbox.IsEmpty() {
		return false
	}
	tol := tolerance(cfg, a.font.upem)
	return int32(bbox.MinX) >= advance/2-tol
}

// IsHalfwidthMiddle reports whether the glyph's ink is centered, with
// both left and right quarter-cells empty.
func (a *InkBoundsAnalyzer) IsHalfwidthMiddle(g ot.GlyphIndex, advance int32, cfg *Config) bool {
	bbox, err := a.BBox(g)
	if err != nil || bbox.IsEmpty() {
		return false
	}
	tol := tolerance(cfg, a.font.upem)
	return int32(bbox.MinX) >= advance/4-tol && int32(bbox.MaxX) <= 3*advance/4+tol
}

// IsFullwidth reports whether a glyph's advance is within tolerance of
// the expected em advance. Non-fullwidth glyphs are never adjusted.
func (a *InkBoundsAnalyzer) IsFullwidth(advance int32, cfg *Config) bool {
	expected := int32(cfg.FullwidthAdvanceEms * float64(a.font.upem))
	tol := tolerance(cfg, a.font.upem)
	diff := advance - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}
