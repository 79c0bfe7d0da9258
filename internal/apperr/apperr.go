// Package apperr defines the error taxonomy shared by the extension
// lifecycle: every failure that reaches a user boundary carries one Kind so
// the CLI and the HTTP layer can render it consistently.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPoisonedLock means a writer panicked while holding the
	// preferences lock. It is never recovered from.
	KindPoisonedLock
	KindChecksum
	KindNoAssets
	KindFileSystem
	KindLibLoading
	KindConversion
	KindSerialization
	KindNetwork
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindPoisonedLock:  "poisoned_lock",
	KindChecksum:      "checksum",
	KindNoAssets:      "no_assets",
	KindFileSystem:    "file_system",
	KindLibLoading:    "lib_loading",
	KindConversion:    "conversion",
	KindSerialization: "serialization",
	KindNetwork:       "network",
}

// String returns the snake_case name used in JSON error bodies.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure. Op names the operation that failed
// (e.g. "install qr"); Err is the underlying cause and may be nil.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrPoisonedLock  = &Error{Kind: KindPoisonedLock}
	ErrChecksum      = &Error{Kind: KindChecksum}
	ErrNoAssets      = &Error{Kind: KindNoAssets}
	ErrFileSystem    = &Error{Kind: KindFileSystem}
	ErrLibLoading    = &Error{Kind: KindLibLoading}
	ErrConversion    = &Error{Kind: KindConversion}
	ErrSerialization = &Error{Kind: KindSerialization}
	ErrNetwork       = &Error{Kind: KindNetwork}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindPoisonedLock:
		msg = "internal lock was poisoned"
	case KindChecksum:
		msg = "checksum verification failed"
	case KindNoAssets:
		msg = "no assets found for this platform"
	case KindFileSystem:
		msg = "file system error"
	case KindLibLoading:
		msg = "library loading error"
	case KindConversion:
		msg = "conversion error"
	case KindSerialization:
		msg = "JSON serialization/deserialization error"
	case KindNetwork:
		msg = "network request error"
	default:
		msg = "error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any *Error) of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// New wraps err with a kind and operation name.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// KindUnknown when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text of err. For LibLoading errors whose
// cause is an extension's own error string, that string is returned as-is.
func Message(err error) string {
	var ext *ExtensionError
	if errors.As(err, &ext) {
		return ext.Message
	}
	return err.Error()
}

// ExtensionError carries the non-empty string an extension returned from
// its entry point.
type ExtensionError struct {
	ID      string
	Message string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %s failed: %s", e.ID, e.Message)
}
