// Package apperr holds the error kinds shared by the server and the client.
// Every error that reaches a transport boundary is matched against these
// kinds with errors.Is; anything unmatched is treated as internal.
package apperr

import (
	"errors"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("permission denied")
	ErrIntegrity      = errors.New("integrity check failed")
	ErrValidation     = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// Error couples a kind with a message that is safe to show to the caller.
// Err is the underlying cause; it is for logs only.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Authentication(msg string) *Error { return New(ErrAuthentication, msg) }
func Forbidden(msg string) *Error      { return New(ErrForbidden, msg) }
func Validation(msg string) *Error     { return New(ErrValidation, msg) }
func Conflict(msg string) *Error       { return New(ErrConflict, msg) }
func NotFound(msg string) *Error       { return New(ErrNotFound, msg) }

// Kind returns the sentinel err belongs to, or ErrInternal.
func Kind(err error) error {
	for _, k := range []error{ErrAuthentication, ErrForbidden, ErrIntegrity, ErrValidation, ErrConflict, ErrNotFound} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// KindOf returns the machine-readable name of err's kind.
func KindOf(err error) string {
	switch Kind(err) {
	case ErrAuthentication:
		return "authentication"
	case ErrForbidden:
		return "forbidden"
	case ErrIntegrity:
		return "integrity"
	case ErrValidation:
		return "validation"
	case ErrConflict:
		return "conflict"
	case ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// PublicMessage returns the text that may leave the process.
// Authentication, forbidden and internal failures always collapse to the kind text;
// validation and conflict keep their message so the caller can correct input.
func PublicMessage(err error) string {
	kind := Kind(err)
	switch kind {
	case ErrAuthentication, ErrForbidden, ErrIntegrity, ErrInternal:
		return kind.Error()
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return kind.Error()
}
