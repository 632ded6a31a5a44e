package otlayout

import "github.com/npillmayer/chwsgen/ot"

// LayoutTagType classifies a registered OpenType feature tag as belonging
// to GSUB (substitution) or GPOS (positioning).
type LayoutTagType uint8

const (
	GSubFeatureType LayoutTagType = iota + 1
	GPosFeatureType
)

// RegisteredFeatureTags maps registered OpenType feature tags to the layout
// table they belong to. It is not exhaustive; unlisted tags (besides the
// cvNN/ssNN ranges handled separately in identifyFeatureTag) are reported as
// unrecognized.
var RegisteredFeatureTags = map[ot.Tag]LayoutTagType{
	ot.T("liga"): GSubFeatureType,
	ot.T("rlig"): GSubFeatureType,
	ot.T("calt"): GSubFeatureType,
	ot.T("ccmp"): GSubFeatureType,
	ot.T("clig"): GSubFeatureType,
	ot.T("dlig"): GSubFeatureType,
	ot.T("hlig"): GSubFeatureType,
	ot.T("rclt"): GSubFeatureType,
	ot.T("rvrn"): GSubFeatureType,
	ot.T("locl"): GSubFeatureType,
	ot.T("init"): GSubFeatureType,
	ot.T("medi"): GSubFeatureType,
	ot.T("fina"): GSubFeatureType,
	ot.T("isol"): GSubFeatureType,
	ot.T("smcp"): GSubFeatureType,
	ot.T("c2sc"): GSubFeatureType,
	ot.T("frac"): GSubFeatureType,
	ot.T("ordn"): GSubFeatureType,
	ot.T("sups"): GSubFeatureType,
	ot.T("subs"): GSubFeatureType,
	ot.T("aalt"): GSubFeatureType,
	ot.T("vert"): GSubFeatureType,
	ot.T("vrt2"): GSubFeatureType,

	ot.T("kern"): GPosFeatureType,
	ot.T("vkrn"): GPosFeatureType,
	ot.T("mark"): GPosFeatureType,
	ot.T("mkmk"): GPosFeatureType,
	ot.T("curs"): GPosFeatureType,
	ot.T("dist"): GPosFeatureType,
	ot.T("palt"): GPosFeatureType,
	ot.T("vpal"): GPosFeatureType,
	ot.T("halt"): GPosFeatureType,
	ot.T("vhal"): GPosFeatureType,
	ot.T("chws"): GPosFeatureType,
	ot.T("vchw"): GPosFeatureType,
	ot.T("fwid"): GSubFeatureType,
	ot.T("hwid"): GSubFeatureType,
}
