// Package errs defines the error-kind taxonomy shared across the indexing
// pipeline: validation failures, not-found lookups, transient/permanent
// provider errors, cancellation, and uncategorized I/O.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and reporting purposes.
type Kind string

const (
	Validation Kind = "validation"
	NotFound   Kind = "not_found"
	Transient  Kind = "transient"
	Permanent  Kind = "permanent"
	Cancelled  Kind = "cancelled"
	Io         Kind = "io"
)

// Error wraps a cause with a Kind so callers can branch on retry policy
// without string-matching messages.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an *Error of the given kind from a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind carried by err, or Io if err does not wrap an
// *Error. A nil error has no kind and returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Io
}

// IsTransient reports whether err is classified Transient.
func IsTransient(err error) bool { return KindOf(err) == Transient }

// IsPermanent reports whether err is classified Permanent.
func IsPermanent(err error) bool { return KindOf(err) == Permanent }
