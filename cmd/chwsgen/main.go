// Command chwsgen augments OpenType/TrueType CJK fonts with the chws,
// vchw, halt, and vhal GPOS features for East Asian contextual half-width
// spacing (see the chws package doc).
//
// Usage mirrors the teacher's own `ot-tools` batch style: a default
// command takes font files or directories and flags controlling TTC face
// selection, language override, diagnostics output, and verification
// depth; a `noto` subcommand auto-derives `--index`/`--language` from the
// well-known Noto CJK filename convention.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/chwsgen/chws"
	"github.com/npillmayer/chwsgen/fontio"
	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
)

func main() {
	commando.
		SetExecutableName("chwsgen").
		SetVersion("v0.0.1").
		SetDescription("Add East Asian contextual half-width spacing (chws/vchw/halt/vhal) to CJK OpenType fonts.")

	commando.
		Register(nil).
		SetDescription("Process one or more font files or directories.").
		SetShortDescription("build chws/vchw/halt/vhal into fonts").
		AddArgument("paths...", "font files or directories to scan", "").
		AddFlag("out,o", "output directory", commando.String, "").
		AddFlag("index", "TTC face indices to process, comma-separated; default all", commando.String, "-").
		AddFlag("language,l", "language tag(s) to force, comma-separated (JAN,KOR,ZHS,ZHT); default auto-detect", commando.String, "-").
		AddFlag("glyphs", "directory to dump per-output L/R/M/F glyph sidecar files into", commando.String, "-").
		AddFlag("path-out,p", "print input/output path pairs as TSV to stdout", commando.Bool, nil).
		AddFlag("test", "FeatureTester level: 0=off, 1=smoke, 2=exhaustive", commando.Int, 1).
		SetAction(runDefaultCommand)

	commando.
		Register("noto").
		SetDescription("Process Noto CJK fonts, auto-deriving --index/--language from filenames and skipping Mono variants.").
		SetShortDescription("batch-process Noto CJK fonts").
		AddArgument("paths...", "font files or directories to scan", "").
		AddFlag("out,o", "output directory", commando.String, "").
		AddFlag("glyphs", "directory to dump per-output L/R/M/F glyph sidecar files into", commando.String, "-").
		AddFlag("path-out,p", "print input/output path pairs as TSV to stdout", commando.Bool, nil).
		AddFlag("test", "FeatureTester level: 0=off, 1=smoke, 2=exhaustive", commando.Int, 1).
		SetAction(runNotoCommand)

	commando.Parse(nil)
}

// runOptions is the parsed, validated form of one invocation's flags,
// independent of whether --index/--language came from the user or (for
// the noto subcommand) were derived from a filename.
type runOptions struct {
	outDir    string
	glyphsDir string
	pathOut   bool
	testLevel int
	perFile   func(path string) (indices []int, langs map[int]chws.Language, skip bool)
}

func runDefaultCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	opts := runOptions{
		outDir:    requireString(flags["out"], "out"),
		glyphsDir: optionalString(flags["glyphs"]),
		pathOut:   mustFlagBool(flags["path-out"], "path-out"),
		testLevel: mustFlagInt(flags["test"], "test"),
	}
	indices := parseIndexList(optionalString(flags["index"]))
	langs := parseLanguageList(optionalString(flags["language"]), indices)
	opts.perFile = func(path string) ([]int, map[int]chws.Language, bool) {
		return indices, langs, false
	}
	run(opts, splitPaths(args["paths"].Value))
}

func runNotoCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	opts := runOptions{
		outDir:    requireString(flags["out"], "out"),
		glyphsDir: optionalString(flags["glyphs"]),
		pathOut:   mustFlagBool(flags["path-out"], "path-out"),
		testLevel: mustFlagInt(flags["test"], "test"),
	}
	opts.perFile = notoFaceLayout
	run(opts, splitPaths(args["paths"].Value))
}

func run(opts runOptions, paths []string) {
	// SHAPER, if set, names an out-of-process shaper binary; this build
	// only has the in-process otshape/otcore engine wired, so the request
	// is logged and otherwise ignored.
	warnIfExternalShaperRequested()
	if len(paths) == 0 {
		fatalf("at least one font file or directory is required")
	}
	if opts.outDir == "" {
		fatalf("--out is required")
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		fatalf("cannot create output directory: %v", err)
	}

	files := discoverFonts(paths)
	if len(files) == 0 {
		fatalf("no font files (.ttf/.otf/.ttc) found under %s", strings.Join(paths, ", "))
	}

	exitCode := 0
	for _, path := range files {
		indices, langs, skip := opts.perFile(path)
		if skip {
			pterm.Info.Printf("skipping %s\n", path)
			continue
		}
		if !processOne(path, opts, indices, langs) {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// processOne loads, builds, and saves one font file (whether or not any
// face changed), returning false if the face-level or I/O failure should count
// against the run's exit code (spec §6: exit codes, §7: I/O failures
// propagate).
func processOne(path string, opts runOptions, indices []int, langs map[int]chws.Language) bool {
	font, err := fontio.Open(path)
	if err != nil {
		pterm.Error.Printf("%s: %v\n", path, err)
		return false
	}

	// Clear cfg.L/R/M/F: BuildFace derives the language-specific
	// default code-point sets itself once it has resolved each face's
	// language, which a single shared LanguageAuto Config here would
	// otherwise pre-empt (LanguageAuto's sets place language-conditional
	// code points in every plausible class rather than the one the
	// resolved language actually calls for).
	cfg := chws.DefaultConfig(chws.LanguageAuto)
	cfg.L, cfg.R, cfg.M, cfg.F = nil, nil, nil, nil
	cfg.TestLevel = opts.testLevel
	cfg.Vertical = true // narrowed per-face to HasVerticalMetrics() inside BuildFace

	result := chws.BuildFont(context.Background(), font, cfg, indices, langs)
	ok := true
	for idx, ferr := range result.Failed {
		pterm.Error.Printf("%s face %d: %v\n", path, idx, ferr)
		ok = false
	}
	for _, outcome := range result.Outcomes {
		reportOutcome(path, outcome)
		if opts.glyphsDir != "" && !outcome.Unchanged {
			if err := writeGlyphSidecar(opts.glyphsDir, path, outcome); err != nil {
				pterm.Warning.Printf("%s face %d: writing glyph sidecar: %v\n", path, outcome.Face, err)
			}
		}
	}

	outPath := filepath.Join(opts.outDir, filepath.Base(path))
	if err := font.Save(outPath); err != nil {
		pterm.Error.Printf("%s: saving %s: %v\n", path, outPath, err)
		return false
	}
	if opts.pathOut {
		fmt.Printf("%s\t%s\n", path, outPath)
	}
	return ok
}

func reportOutcome(path string, o *chws.Outcome) {
	for _, w := range o.Warnings {
		pterm.Warning.Printf("%s face %d: %v\n", path, o.Face, w)
	}
	if o.Unchanged {
		pterm.Info.Printf("%s face %d: no applicable adjustments (language=%s)\n", path, o.Face, o.Language)
		return
	}
	pterm.Info.Printf("%s face %d: added %v, skipped %d (language=%s)\n",
		path, o.Face, o.Added, len(o.Skipped), o.Language)
	if o.Test != nil && !o.Test.OK() {
		pterm.Warning.Printf("%s face %d: feature verification failed %d/%d checked pairs\n",
			path, o.Face, len(o.Test.Failed), o.Test.Checked)
	}
}

func writeGlyphSidecar(dir, fontPath string, o *chws.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s.face%d.glyphs.txt", filepath.Base(fontPath), o.Face)
	return os.WriteFile(filepath.Join(dir, name), []byte(chws.FormatGlyphSidecar(o.Glyphs)), 0o644)
}

// discoverFonts expands paths (files or directories) into a sorted,
// deduplicated list of font files, recursing into directories. This is
// the recursive discovery collaborator the core module map assigns to
// this command rather than to fontio, which only opens a single already-
// located file.
func discoverFonts(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			pterm.Warning.Printf("cannot stat %s: %v\n", p, err)
			continue
		}
		if !info.IsDir() {
			if isFontFile(p) {
				add(p)
			}
			continue
		}
		_ = filepath.WalkDir(p, func(sub string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if isFontFile(sub) {
				add(sub)
			}
			return nil
		})
	}
	sort.Strings(out)
	return out
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc":
		return true
	default:
		return false
	}
}

func splitPaths(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIndexList(raw string) []int {
	if raw == "" || raw == "-" {
		return nil
	}
	var out []int
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			fatalf("invalid --index value %q: %v", tok, err)
		}
		out = append(out, n)
	}
	return out
}

// parseLanguageList turns --language's value into a face-index -> Language
// map. A single token with no --index given is a broadcast override,
// stored under key -1 (chws.BuildFont falls back to it for any face with
// no index-specific entry); multiple tokens pair positionally with
// indices (or, absent --index, with face position 0, 1, 2, ...).
func parseLanguageList(raw string, indices []int) map[int]chws.Language {
	if raw == "" || raw == "-" {
		return nil
	}
	toks := strings.Split(raw, ",")
	if len(indices) == 0 && len(toks) == 1 {
		tok := strings.TrimSpace(toks[0])
		if tok == "" {
			return nil
		}
		return map[int]chws.Language{-1: chws.Language(tok)}
	}
	langs := map[int]chws.Language{}
	for i, tok := range toks {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx := i
		if i < len(indices) {
			idx = indices[i]
		}
		langs[idx] = chws.Language(tok)
	}
	return langs
}

// notoLanguageSuffix maps the filename suffix the Noto CJK distribution
// uses for per-language single-face builds (e.g. "NotoSansCJKjp-Regular.otf")
// to this package's resolved Language.
var notoLanguageSuffix = map[string]chws.Language{
	"jp": chws.JAN,
	"kr": chws.KOR,
	"sc": chws.ZHS,
	"tc": chws.ZHT,
}

// notoTTCFaceOrder is the documented face order of the combined Noto
// Sans/Serif CJK `.ttc` release (e.g. "NotoSansCJK-Regular.ttc"): four
// language faces, JP/KR/SC/TC. Every `.ttc` file gets this mapping,
// including the distribution's five- and seven-face variants (adding HK
// and/or additional weights per face): faces 0-3 are assigned these
// languages as listed, and faces past index 3 get no entry and have
// their language auto-detected.
var notoTTCFaceOrder = []chws.Language{chws.JAN, chws.KOR, chws.ZHS, chws.ZHT}

// notoFaceLayout implements the --noto subcommand's auto-derivation: skip
// "Mono" variants outright (spec §6), and otherwise infer face indices
// and languages either from a per-language filename suffix or, for a
// combined TTC, from the fixed face order above.
func notoFaceLayout(path string) (indices []int, langs map[int]chws.Language, skip bool) {
	base := filepath.Base(path)
	if strings.Contains(base, "Mono") {
		return nil, nil, true
	}
	lower := strings.ToLower(base)
	for suffix, lang := range notoLanguageSuffix {
		if strings.Contains(lower, "cjk"+suffix+"-") {
			return nil, map[int]chws.Language{0: lang}, false
		}
	}
	if strings.HasSuffix(lower, ".ttc") {
		langs = make(map[int]chws.Language, len(notoTTCFaceOrder))
		for i, lang := range notoTTCFaceOrder {
			langs[i] = lang
		}
		return nil, langs, false
	}
	pterm.Warning.Printf("%s: filename does not match a known Noto CJK convention, skipping\n", path)
	return nil, nil, true
}

func warnIfExternalShaperRequested() {
	if shaper := strings.TrimSpace(os.Getenv("SHAPER")); shaper != "" {
		pterm.Warning.Printf("SHAPER=%s set, but this build only has the in-process shaping engine wired; ignoring\n", shaper)
	}
}

func requireString(flag commando.FlagValue, name string) string {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return strings.TrimSpace(s)
}

func optionalString(flag commando.FlagValue) string {
	s, err := flag.GetString()
	if err != nil || s == "-" {
		return ""
	}
	return strings.TrimSpace(s)
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func fatalf(format string, args ...interface{}) {
	pterm.Error.Printf(format+"\n", args...)
	os.Exit(1)
}
