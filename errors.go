package retouch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorKind classifies engine errors. The values are the wire names used in
// serialized errors.
type ErrorKind string

// Error kinds.
const (
	// KindLoad: the source could not be read or decoded.
	KindLoad ErrorKind = "image_load_error"

	// KindSave: the export destination could not be written or encoded.
	KindSave ErrorKind = "image_save_error"

	// KindUnsupportedFormat: the codec is unknown for decode or encode.
	KindUnsupportedFormat ErrorKind = "unsupported_format"

	// KindAccessDenied: the OS refused access to a path.
	KindAccessDenied ErrorKind = "file_access_denied"

	// KindInvalidOperation: an operation or request failed validation.
	// Nothing was mutated.
	KindInvalidOperation ErrorKind = "invalid_operation"

	// KindResourceExhausted: the source exceeds the size or dimension limits.
	KindResourceExhausted ErrorKind = "resource_exhausted"

	// KindProcessing: an operation failed while rendering. History, the
	// current image and the preview cache are unchanged.
	KindProcessing ErrorKind = "processing_error"

	// KindState: the request does not fit the session state (no image
	// loaded, nothing to undo or redo).
	KindState ErrorKind = "state_error"
)

// Error is the error type returned by the engine.
type Error struct {
	// Kind is the classification.
	Kind ErrorKind

	// Op is the engine call that failed ("load", "apply", "export", ...).
	Op string

	// Path is the file involved, if any.
	Path string

	// OpID is the edit operation involved, if any.
	OpID string

	// Detail is a human-readable description.
	Detail string

	// Err is the underlying error.
	Err error
}

// Sentinel errors for errors.Is. A sentinel matches every *Error of its
// kind; ErrNothingToUndo, ErrNothingToRedo and ErrNoImage additionally
// require the same detail.
var (
	ErrLoad              = &Error{Kind: KindLoad}
	ErrSave              = &Error{Kind: KindSave}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrInvalidOperation  = &Error{Kind: KindInvalidOperation}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
	ErrProcessing        = &Error{Kind: KindProcessing}
	ErrState             = &Error{Kind: KindState}

	ErrNoImage       = &Error{Kind: KindState, Detail: "no image loaded"}
	ErrNothingToUndo = &Error{Kind: KindState, Detail: "nothing to undo"}
	ErrNothingToRedo = &Error{Kind: KindState, Detail: "nothing to redo"}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("retouch: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if msg := e.message(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// message is the error text without the kind and op prefix.
func (e *Error) message() string {
	parts := make([]string, 0, 4)
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.OpID != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.OpID))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Detail == "" || t.Detail == e.Detail)
}

// MarshalJSON encodes the error as {"type": kind, "message": text}.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorKind `json:"type"`
		Message string    `json:"message"`
	}{e.Kind, e.message()})
}

// KindOf returns the kind of the first *Error in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// fsError classifies a filesystem error: permission problems become
// KindAccessDenied, everything else the fallback kind.
func fsError(op, path string, err error, fallback ErrorKind) *Error {
	kind := fallback
	if errors.Is(err, fs.ErrPermission) {
		kind = KindAccessDenied
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
