package chws

import (
	"strings"

	"github.com/npillmayer/chwsgen/ot"
	"github.com/npillmayer/chwsgen/otquery"
	"golang.org/x/image/font/sfnt"
)

// OS/2 ulCodePageRange1 bit positions relevant to CJK language detection.
// https://docs.microsoft.com/en-us/typography/opentype/spec/os2#ulcodepagerange1-and-ulcodepagerange2
const (
	codepageBitJapanese          = 17
	codepageBitChineseSimplified = 18
	codepageBitKoreanWansung     = 19
	codepageBitChineseTraditional = 20
	codepageBitKoreanJohab       = 21
)

// ClassifyLanguage resolves the OpenType language tag to use for a face,
// following spec §4.1: an explicit userTag always wins; otherwise the
// font's `name` table and OS/2 codepage-range bits are used to detect a
// single covered CJK block. If Japanese and another block are both
// covered, a family-name substring match on "Jp"/"Japanese" picks JAN.
// Otherwise it returns a *Error with KindLanguageAmbiguous.
func ClassifyLanguage(f *Font, userTag Language) (Language, error) {
	if userTag != "" && userTag != LanguageAuto {
		return userTag, nil
	}
	covered := coveredCodepages(f.OT)
	if len(covered) == 1 {
		tracer().Debugf("single CJK codepage covered: %s", covered[0])
		return covered[0], nil
	}
	if len(covered) == 0 {
		return "", newError(KindLanguageAmbiguous, 0, "no CJK code page detected in OS/2 table", nil)
	}
	hasJapanese := false
	for _, l := range covered {
		if l == JAN {
			hasJapanese = true
		}
	}
	if hasJapanese && familyNameLooksJapanese(f.OT) {
		tracer().Debugf("multiple CJK codepages covered, family name suggests Japanese")
		return JAN, nil
	}
	return "", newError(KindLanguageAmbiguous, 0,
		"font covers multiple CJK languages and family name does not disambiguate", nil)
}

// coveredCodepages inspects the OS/2 table's ulCodePageRange1 bits and
// returns the set of CJK languages this package recognizes as covered, in
// a fixed, deterministic order (JAN, KOR, ZHS, ZHT).
func coveredCodepages(otf *ot.Font) []Language {
	table := otf.Table(ot.T("OS/2"))
	if table == nil {
		return nil
	}
	b := table.Binary()
	// ulCodePageRange1 is a 4-byte field; its offset depends on OS/2
	// version but is stable at byte 78 for version >= 1, which is the
	// minimum version carrying code page ranges at all.
	const ulCodePageRange1Offset = 78
	if len(b) < ulCodePageRange1Offset+4 {
		return nil
	}
	bits := uint32(b[ulCodePageRange1Offset])<<24 | uint32(b[ulCodePageRange1Offset+1])<<16 |
		uint32(b[ulCodePageRange1Offset+2])<<8 | uint32(b[ulCodePageRange1Offset+3])

	var covered []Language
	if bits&(1<<codepageBitJapanese) != 0 {
		covered = append(covered, JAN)
	}
	if bits&(1<<codepageBitKoreanWansung) != 0 || bits&(1<<codepageBitKoreanJohab) != 0 {
		covered = append(covered, KOR)
	}
	if bits&(1<<codepageBitChineseSimplified) != 0 {
		covered = append(covered, ZHS)
	}
	if bits&(1<<codepageBitChineseTraditional) != 0 {
		covered = append(covered, ZHT)
	}
	return covered
}

// familyNameLooksJapanese applies the spec's substring heuristic over the
// font's `name`-table family-name records.
func familyNameLooksJapanese(otf *ot.Font) bool {
	for nameID, value := range otquery.NamesRange(otf) {
		if nameID != sfnt.NameIDFamily && nameID != sfnt.NameIDFull {
			continue
		}
		if strings.Contains(value, "Jp") || strings.Contains(value, "Japanese") ||
			strings.Contains(value, "JP") {
			return true
		}
	}
	return false
}
