/*
Package chws augments OpenType/TrueType fonts covering Japanese, Korean,
Simplified Chinese, or Traditional Chinese with four GPOS features that
implement East Asian contextual half-width spacing: `chws` (horizontal
contextual), `vchw` (vertical contextual), `halt` (horizontal
alternates), and `vhal` (vertical alternates), per JLREQ §3.1.2 and
CLREQ §3.1.6.1.

Given a loaded font face, the package analyzes which punctuation glyphs
have excess sidebearing, computes per-glyph positioning adjustments, and
synthesizes GPOS Lookup/Feature/Script data that a caller merges into
the font's existing layout tables.

# Pipeline

A Build walks, in fixed order: LanguageClassifier (resolve an OpenType
language tag), GlyphSetResolver (candidate glyph IDs per pair class),
InkBoundsAnalyzer (geometry filter), PairClassifier (final L/R/M/F
membership), GPOSBuilder (lookup/feature synthesis and merge against any
pre-existing GPOS content), and FeatureTester (post-build verification).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package chws

import "github.com/npillmayer/schuko/tracing"

func tracer() tracing.Trace {
	return tracing.Select("font.chws")
}
