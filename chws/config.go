package chws

// Language is an OpenType language-system tag recognized by this package,
// or the sentinel LanguageAuto requesting per-face auto-detection.
type Language string

const (
	LanguageAuto Language = "auto"
	JAN          Language = "JAN" // Japanese
	KOR          Language = "KOR" // Korean
	ZHS          Language = "ZHS" // Simplified Chinese
	ZHT          Language = "ZHT" // Traditional Chinese
)

// PairClass is one of the four glyph classes this package partitions
// candidate punctuation glyphs into.
type PairClass uint8

const (
	ClassNone PairClass = iota
	ClassL              // Left-half: ink sits left, right half empty
	ClassR              // Right-half: ink sits right, left half empty
	ClassM              // Middle-half: ink centered, both halves empty
	ClassF              // Full: fullwidth, never adjusted
)

func (c PairClass) String() string {
	switch c {
	case ClassL:
		return "L"
	case ClassR:
		return "R"
	case ClassM:
		return "M"
	case ClassF:
		return "F"
	default:
		return "-"
	}
}

// PairKey identifies an ordered (left, right) code-point pair; it keys
// Config.SkipPairs.
type PairKey [2]rune

// Config bundles the recognized options for one face's half-width
// spacing build. It is a plain value struct; per-font behavior hooks are
// function-valued fields rather than subclassing.
type Config struct {
	Language Language // OpenType language tag, or LanguageAuto

	Vertical bool // emit vchw/vhal; normally set from the face's vertical-metrics availability

	UseInkBounds bool // if false, trust language convention and skip outline analysis

	FullwidthAdvanceEms float64 // expected em advance of a fullwidth glyph; default 1.0
	FullwidthTolerance  float64 // fraction of UPEM allowed between actual advance and the expected em

	L, R, M, F map[rune]bool // initial candidates by class, keyed by Unicode code point

	SkipPairs map[PairKey]bool // L x R pairs listed for exclusion; not read by pair synthesis, so the generated lookup still covers them

	TestLevel int // 0=off, 1=smoke, 2=exhaustive

	// CustomPairFilter is not consulted by pair synthesis or any other
	// build step; setting it does not change which L x R pairs the
	// chws/vchw lookup covers.
	CustomPairFilter func(left, right rune) bool

	// CustomClassOverride, if set, is consulted after classification and
	// may replace a code point's computed class.
	CustomClassOverride func(cp rune, computed PairClass) PairClass
}

const defaultFullwidthTolerance = 0.05 // 5% of UPEM, per spec rationale on hinting slop

// DefaultConfig returns a Config for lang with the JLREQ/CLREQ-derived
// default code-point sets for that language. lang == LanguageAuto places
// language-conditional code points (see defaultCodepointSets) into every
// plausible class, to be resolved later by ink-bounds filtering and
// classification priority.
func DefaultConfig(lang Language) Config {
	cfg := Config{
		Language:            lang,
		UseInkBounds:        true,
		FullwidthAdvanceEms: 1.0,
		FullwidthTolerance:  defaultFullwidthTolerance,
		TestLevel:           1,
	}
	cfg.L, cfg.R, cfg.M, cfg.F = defaultCodepointSets(lang)
	return cfg
}

// defaultCodepointSets returns the initial L/R/M/F code-point candidate
// sets for a language, per spec §4.3's language-conditional membership
// rule: U+3001/U+3002 (and their fullwidth Latin look-alikes U+FF0C/
// U+FF0E) are L-class in Japanese (ink at left-bottom of the em) but
// M-class in Traditional Chinese (ink centered). When lang is
// LanguageAuto, such code points are placed in every plausible class so
// that InkBoundsAnalyzer and PairClassifier's priority rule settle them.
func defaultCodepointSets(lang Language) (l, r, m, f map[rune]bool) {
	l = map[rune]bool{}
	r = map[rune]bool{}
	m = map[rune]bool{}
	f = map[rune]bool{}

	// Opening brackets: ink sits at the right of the em cell (R-class)
	// across all four languages.
	openers := []rune{
		0x3008, 0x300A, 0x300C, 0x300E, 0x3010, 0x3014, 0x3016, 0x3018,
		0x301A, 0xFF08, 0xFF3B, 0xFF5B,
	}
	for _, cp := range openers {
		r[cp] = true
	}

	// Closing brackets: ink sits at the left of the em cell (L-class)
	// across all four languages.
	closers := []rune{
		0x3009, 0x300B, 0x300D, 0x300F, 0x3011, 0x3015, 0x3017, 0x3019,
		0x301B, 0xFF09, 0xFF3D, 0xFF5D,
	}
	for _, cp := range closers {
		l[cp] = true
	}

	// Middle dot: ink centered, both halves empty, regardless of language.
	m[0x30FB] = true // KATAKANA MIDDLE DOT
	m[0xFF1A] = true // FULLWIDTH COLON (often centered)

	// Language-conditional: comma and full stop.
	jaClosers := []rune{0x3001, 0x3002, 0xFF0C, 0xFF0E}
	switch lang {
	case JAN, KOR:
		for _, cp := range jaClosers {
			l[cp] = true
		}
	case ZHS, ZHT:
		for _, cp := range jaClosers {
			m[cp] = true
		}
	default: // LanguageAuto: claim every plausible class
		for _, cp := range jaClosers {
			l[cp] = true
			m[cp] = true
		}
	}

	return l, r, m, f
}
