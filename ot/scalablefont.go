package ot

import (
	"os"

	"golang.org/x/image/font/sfnt"
)

// ScalableFont is an internal representation of an outline-font of type
// TTF of OTF. It carries the original binary alongside the parsed
// golang.org/x/image/font/sfnt.Font, for the few operations (outline
// segment walking, CFF fallback glyph lookup) that need direct access to
// that lower-level representation rather than ot's own table types.
//
// This type originally lived in the root package (mirroring the font vs.
// face nomenclature discussed there), with Font.F referencing it by
// import. That created an import cycle once Font.F needed to be
// populated from within this package's own loaders, so it was moved
// here; the root package re-exports it as a type alias to keep existing
// call sites (opentype.LoadOpenTypeFont, opentype.ScalableFont) working
// unchanged.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// LoadScalableFont loads an OpenType font (TTF or OTF) from a file.
func LoadScalableFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseScalableFont(bytez)
}

// ParseScalableFont loads an OpenType font (TTF or OTF) from memory.
func ParseScalableFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err == nil {
		tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	}
	return
}

// ParseFont parses raw OpenType bytes into both representations this
// package's clients need: the table-level Font (via Parse) and the
// ScalableFont (via ParseScalableFont), wired together through Font.F.
// Most callers should use this instead of calling Parse
// directly, since several chws components (outline fallback, vertical
// metrics) expect Font.F to be populated.
func ParseFont(fbytes []byte) (*Font, error) {
	sf, err := ParseScalableFont(fbytes)
	if err != nil {
		return nil, err
	}
	otf, err := Parse(fbytes)
	if err != nil {
		return nil, err
	}
	otf.F = sf
	return otf, nil
}
