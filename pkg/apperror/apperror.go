// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values with a Kind; handlers map kinds to
// HTTP status codes without inspecting message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for boundary handling.
type Kind int

const (
	KindValidation Kind = iota + 1 // bad input or business-rule violation, user-correctable
	KindNotFound                   // invoice/document missing
	KindConflict                   // already submitted, attempt cap exceeded
	KindDependency                 // external collaborator unavailable or timed out
	KindInternal                   // unexpected failure, details logged server-side
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Validation builds a user-correctable input/business-rule error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-entity error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a state-conflict error (idempotent guard, attempt cap).
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Dependency wraps a failure of an external collaborator.
func Dependency(err error, message string) *Error {
	return &Error{Kind: KindDependency, Message: message, err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, err: err}
}

// KindOf extracts the Kind from an error chain; unclassified errors are
// treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code surfaced at the transport
// boundary.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to surface to callers. Internal
// errors collapse to a generic message so wrapped details stay server-side.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Error interno del servidor"
}
