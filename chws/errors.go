package chws

import "fmt"

// Kind identifies one of the error-taxonomy members this package reports.
// Kind is not a sentinel error itself; wrap it in an Error for errors.Is
// matching via Error.Is.
type Kind int

const (
	// KindLanguageAmbiguous: auto-detect could not pick a single language
	// tag. Fatal for the affected face.
	KindLanguageAmbiguous Kind = iota
	// KindNoApplicableGlyphs: after classification, both L and R are empty.
	// Non-fatal; the face is emitted unchanged.
	KindNoApplicableGlyphs
	// KindShaperUnavailable: the shaping capability could not be reached.
	// Fatal for the affected face.
	KindShaperUnavailable
	// KindShaperTimeout: a shaper invocation did not return in time. Fatal
	// for the affected face.
	KindShaperTimeout
	// KindOutlineMalformed: a glyph outline could not be parsed. The
	// affected glyph is excluded from its class; not fatal.
	KindOutlineMalformed
	// KindGPOSConflict: the font already defines a same-named feature with
	// an incompatible lookup. The new feature is skipped; not fatal.
	KindGPOSConflict
	// KindIOError: a read or write of font data failed. Fatal for the run.
	KindIOError
)

func (k Kind) String() string {
	switch k {
	case KindLanguageAmbiguous:
		return "LanguageAmbiguous"
	case KindNoApplicableGlyphs:
		return "NoApplicableGlyphs"
	case KindShaperUnavailable:
		return "ShaperUnavailable"
	case KindShaperTimeout:
		return "ShaperTimeout"
	case KindOutlineMalformed:
		return "OutlineMalformed"
	case KindGPOSConflict:
		return "GPOSConflict"
	case KindIOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Fatal reports whether an error of this Kind aborts the affected face
// (true) or is merely recorded and recovered from locally (false).
func (k Kind) Fatal() bool {
	switch k {
	case KindNoApplicableGlyphs, KindOutlineMalformed, KindGPOSConflict:
		return false
	default:
		return true
	}
}

// Error is a taxonomy error carrying a Kind, following the severity-graded
// design of ot.FontError without reusing its Table/Section/Offset shape,
// which is specific to binary table parsing.
type Error struct {
	Kind    Kind
	Face    int    // TTC face index, or 0 for a single-font file
	Message string // human-readable detail
	Cause   error  // wrapped underlying error, if any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chws: %s (face %d): %s: %v", e.Kind, e.Face, e.Message, e.Cause)
	}
	return fmt.Sprintf("chws: %s (face %d): %s", e.Kind, e.Face, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, &Error{Kind: KindGPOSConflict}) works for callers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, face int, msg string, cause error) *Error {
	return &Error{Kind: kind, Face: face, Message: msg, Cause: cause}
}
