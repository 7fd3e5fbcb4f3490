// Package apperr defines the typed error taxonomy shared by the store,
// the tracker, and the HTTP layer. Every core operation fails fast with
// one of these kinds so handlers can map it to a status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is an unexpected storage or connectivity failure.
	KindInternal Kind = iota

	// KindValidation is a malformed or missing required field.
	KindValidation

	// KindNotFound is an operation on a missing task/assignment/session.
	KindNotFound

	// KindInvalidTransition is a state-invariant violation, e.g.
	// un-completing a completed assignment.
	KindInvalidTransition

	// KindConflict is a storage-level uniqueness violation; the caller
	// may retry.
	KindConflict
)

// Error is a typed application error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a typed error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns a typed error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message, preserving the cause for
// errors.Is/As chains.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation returns a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound returns a KindNotFound error.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// InvalidTransition returns a KindInvalidTransition error.
func InvalidTransition(message string) *Error { return New(KindInvalidTransition, message) }

// Conflict returns a KindConflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// KindOf extracts the kind from err, defaulting to KindInternal for
// untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the API surfaces it with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message safe to show to API callers. Internal
// errors collapse to a generic message so storage details never leak.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return "internal server error"
}
