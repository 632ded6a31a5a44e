/*
Package opentype handles OpenType fonts.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package opentype

import (
	"strings"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otquery"
	"github.com/npillmayer/chwsgen/otshape"
	"github.com/npillmayer/chwsgen/otshape/otcore"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// FromBinary parses raw OpenType bytes and returns a decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
func FromBinary(data []byte) (*ot.Font, error) {
	return ot.Parse(data)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the current name-table reader.
func FamilyName(f *ot.Font) (family, subfamily string) {
	for nameId, stringValue := range otquery.NamesRange(f) {
		switch nameId {
		case sfnt.NameIDFamily:
			family = stringValue
		case sfnt.NameIDSubfamily:
			subfamily = stringValue
		}
	}
	return
}

type glyphCollector struct {
	glyphs []otshape.GlyphRecord
}

// WriteGlyph appends one shaped glyph record to the collector.
func (c *glyphCollector) WriteGlyph(g otshape.GlyphRecord) error {
	c.glyphs = append(c.glyphs, g)
	return nil
}

// ShapeLatinText shapes UTF-8 text as one left-to-right run in “Latin” (i.e.,
// Western) script.
//
// It uses the core OpenType shaper with script `Latn` and language `en`, and
// returns glyph records in output order. If `otf` is nil or `text` is empty, it
// does nothing.
//
// This is a convenience API for a very common use-case of short pieces of Western
// test. Clients who need more control over shaping, such as shaping multiple runs or
// using different scripts and languages, need to use the `otshape` package
// directly. Package `otshape` employs a streaming API that allows clients to
// manage memory allocation more efficiently.
func ShapeLatinText(otf *ot.Font, text string) ([]otshape.GlyphRecord, error) {
	if otf == nil || text == "" {
		return nil, nil
	}
	options := otshape.ShapeOptions{
		Params: otshape.Params{
			Font:      otf,
			Direction: bidi.LeftToRight,
			Script:    language.MustParseScript("Latn"),
			Language:  language.English,
		},
		FlushBoundary: otshape.FlushOnRunBoundary,
	}
	src := strings.NewReader(string(text))
	sink := &glyphCollector{
		glyphs: make([]otshape.GlyphRecord, 0, len(text)+16),
	}
	coreEngine := otcore.New()
	shaper := otshape.NewShaper(coreEngine)
	err := shaper.Shape(options, src, sink)
	return sink.glyphs, err
}

// ShapeSingleCJK shapes UTF-8 text as one horizontal left-to-right run in a
// CJK script (Han or Kana), applying registered OpenType GPOS/GSUB features
// via the core engine the same way ShapeLatinText does for Latin text.
//
// script must be an ISO 15924 script tag such as "Hani" or "Kana"; lang is a
// BCP 47 language tag such as "ja", "ko", "zh-Hans", or "zh-Hant". Vertical
// writing mode and the chws/vchw/halt/vhal contextual spacing features are
// not driven through this convenience function; see package `chws`, which
// computes and injects those features directly rather than relying on
// runtime shaper feature selection. If otf is nil or text is empty, it does
// nothing.
func ShapeSingleCJK(otf *ot.Font, text string, script language.Script, lang language.Tag) ([]otshape.GlyphRecord, error) {
	if otf == nil || text == "" {
		return nil, nil
	}
	options := otshape.ShapeOptions{
		Params: otshape.Params{
			Font:      otf,
			Direction: bidi.LeftToRight,
			Script:    script,
			Language:  lang,
		},
		FlushBoundary: otshape.FlushOnRunBoundary,
	}
	src := strings.NewReader(text)
	sink := &glyphCollector{
		glyphs: make([]otshape.GlyphRecord, 0, len(text)+16),
	}
	coreEngine := otcore.New()
	shaper := otshape.NewShaper(coreEngine)
	err := shaper.Shape(options, src, sink)
	return sink.glyphs, err
}
