package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindBadRequest      ErrorKind = "bad_request"
	KindConflict        ErrorKind = "conflict"
	KindGone            ErrorKind = "gone"
	KindTooManyRequests ErrorKind = "too_many_requests"
	KindUnauthorized    ErrorKind = "unauthorized"
)

// AppError is an error the caller is expected to see as-is.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Status maps the kind to its HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ErrNotFound(format string, args ...interface{}) error {
	return newAppError(KindNotFound, format, args...)
}

func ErrForbidden(format string, args ...interface{}) error {
	return newAppError(KindForbidden, format, args...)
}

func ErrBadRequest(format string, args ...interface{}) error {
	return newAppError(KindBadRequest, format, args...)
}

func ErrConflict(format string, args ...interface{}) error {
	return newAppError(KindConflict, format, args...)
}

func ErrGone(format string, args ...interface{}) error {
	return newAppError(KindGone, format, args...)
}

func ErrTooManyRequests(format string, args ...interface{}) error {
	return newAppError(KindTooManyRequests, format, args...)
}

func ErrUnauthorized(format string, args ...interface{}) error {
	return newAppError(KindUnauthorized, format, args...)
}

// IsKind reports whether err (or anything it wraps) is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
