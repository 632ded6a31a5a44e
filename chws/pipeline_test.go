package chws

import (
	"testing"

	"github.com/npillmayer/chwsgen/ot"
)

func TestCJKScriptTagIsHani(t *testing.T) {
	if got := cjkScriptTag(); got != ot.T("hani") {
		t.Fatalf("expected the hani script tag, got %v", got)
	}
}

func TestLangSysTagMapsResolvedLanguages(t *testing.T) {
	cases := []struct {
		lang Language
		want ot.Tag
	}{
		{JAN, ot.T("JAN")},
		{KOR, ot.T("KOR")},
		{ZHS, ot.T("ZHS")},
		{ZHT, ot.T("ZHT")},
		{LanguageAuto, ot.DFLT},
		{Language(""), ot.DFLT},
	}
	for _, c := range cases {
		if got := langSysTag(c.lang); got != c.want {
			t.Errorf("langSysTag(%q) = %v, want %v", c.lang, got, c.want)
		}
	}
}

func TestFormatGlyphSidecarOrdersClassesAndGlyphs(t *testing.T) {
	cs := ClassifiedSet{
		L: []Candidate{{Glyph: 20}, {Glyph: 10}},
		R: []Candidate{{Glyph: 5}},
		M: nil,
		F: []Candidate{{Glyph: 99}},
	}
	got := FormatGlyphSidecar(cs)
	want := "L 10\nL 20\nR 5\nF 99\n"
	if got != want {
		t.Fatalf("unexpected sidecar output:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatGlyphSidecarEmpty(t *testing.T) {
	if got := FormatGlyphSidecar(ClassifiedSet{}); got != "" {
		t.Fatalf("expected empty output for an empty classified set, got %q", got)
	}
}
