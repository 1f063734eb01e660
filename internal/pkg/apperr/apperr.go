// Package apperr classifies failures so the transport layer can report them
// without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Error carries a caller-facing message and the kind it belongs to.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// NotFound is also returned for records owned by someone else.
func NotFound(what string) error {
	return newError(ErrNotFound, "%s not found", what)
}

func Conflict(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func Unauthenticated(msg string) error {
	return newError(ErrUnauthenticated, "%s", msg)
}

func Forbidden(msg string) error {
	return newError(ErrForbidden, "%s", msg)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

// HTTPStatus maps an error to the status code reported to clients.
// Anything unclassified is an infrastructure failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client. Infrastructure details stay in the logs.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}
	return "internal error"
}
