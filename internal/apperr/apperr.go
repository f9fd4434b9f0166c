// Package apperr defines the error taxonomy shared by the study service and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Code represents a class of failure.
type Code string

const (
	// CodeInvalidArgument indicates malformed input rejected before any work.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeNotFound indicates a referenced entity does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeUnavailable indicates a transient storage failure; the call can be retried.
	CodeUnavailable Code = "UNAVAILABLE"
	// CodeInternal indicates an unexpected failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a structured error carrying a Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a storage failure.
func Unavailable(cause error, msg string) *Error {
	return &Error{Code: CodeUnavailable, Message: msg, Cause: cause}
}

// CodeOf extracts the code from err, or CodeInternal if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
