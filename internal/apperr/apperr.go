// Package apperr defines the error kinds shared by the account services.
//
// Services return *Error values; only the HTTP layer turns a Kind into a
// status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport boundary.
type Kind string

const (
	Validation Kind = "validation"
	Conflict   Kind = "conflict"
	NotFound   Kind = "not_found"
	Auth       Kind = "auth"
	Unexpected Kind = "unexpected"
)

// Error is a typed operation error with a stable Kind.
// Message is safe to show to clients; Err is the internal cause, if any.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

func NewValidation(op, msg string, details ...string) *Error {
	e := newError(Validation, op, msg)
	e.Details = details
	return e
}

func NewConflict(op, msg string) *Error { return newError(Conflict, op, msg) }

func NewNotFound(op, msg string) *Error { return newError(NotFound, op, msg) }

func NewAuth(op, msg string) *Error { return newError(Auth, op, msg) }

// Wrap marks err as an unexpected failure (store, codec or media host).
func Wrap(op string, err error) *Error {
	return &Error{Kind: Unexpected, Op: op, Message: "something went wrong", Err: err}
}

// WithCause attaches an internal cause without changing the kind.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// KindOf returns the kind carried by err, or Unexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
