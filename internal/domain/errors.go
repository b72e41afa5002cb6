package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the report packages matches exactly
// one of them with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrMalformed  = errors.New("malformed data")
	ErrDegenerate = errors.New("degenerate input")
)

// Error describes a failed operation on a report, stats table or derived value.
type Error struct {
	Op   string // operation, e.g. "load report"
	Path string // file or entity involved, may be empty
	Kind error  // one of ErrNotFound, ErrMalformed, ErrDegenerate
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound builds an ErrNotFound error.
func NotFound(op, path string, err error) error {
	return &Error{Op: op, Path: path, Kind: ErrNotFound, Err: err}
}

// Malformed builds an ErrMalformed error with a formatted cause.
func Malformed(op, path, format string, args ...any) error {
	return &Error{Op: op, Path: path, Kind: ErrMalformed, Err: fmt.Errorf(format, args...)}
}

// Degenerate builds an ErrDegenerate error with a formatted cause.
func Degenerate(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrDegenerate, Err: fmt.Errorf(format, args...)}
}

// KindName returns a short label for the failure kind of err, suitable for
// metric labels and API payloads.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrDegenerate):
		return "degenerate"
	default:
		return "internal"
	}
}
