// Package fault defines the typed errors the queue core raises. The
// boundary layer maps codes to transport statuses; messages for
// not_found, unauthorized, and validation_error are safe to surface,
// the rest must be logged and masked.
package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeUnauthorized    Code = "unauthorized"
	CodeValidation      Code = "validation_error"
	CodeOperationFailed Code = "operation_failed"
	CodeUnknown         Code = "unknown"
)

type Error struct {
	Code    Code
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(op, format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(op, format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func OperationFailed(op string, err error, format string, args ...any) *Error {
	return &Error{Code: CodeOperationFailed, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// Unknown wraps an unanticipated failure, preserving the cause for
// logging.
func Unknown(op string, err error) *Error {
	return &Error{Code: CodeUnknown, Op: op, Message: "unexpected failure", Err: err}
}

// CodeOf extracts the code from err, or CodeUnknown for anything the
// core did not classify.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}
