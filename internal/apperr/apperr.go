package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. Handlers map kinds to HTTP statuses.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindAuth        Kind = "auth"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// Error is the structured error returned by services.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind and Code so sentinel errors can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Auth(code, message string) *Error {
	return New(KindAuth, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Unavailable(code, message string) *Error {
	return New(KindUnavailable, code, message)
}

// Internal wraps an infrastructure error. The message shown to clients stays generic.
func Internal(code string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
