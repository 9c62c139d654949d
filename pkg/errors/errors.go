package errors

import (
	"errors"
	"fmt"
)

// Standard error codes shared across packages.
const (
	CodeInternal        = "INTERNAL"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeNotFound         = "NOT_FOUND"
	CodeUnavailable      = "UNAVAILABLE"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
)

// AppError is the structured error type used throughout this codebase.
// It carries a stable Code for programmatic handling, a human Message,
// and an optional wrapped Err for chaining.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to traverse into the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New constructs an AppError with the given code, message, and optional
// wrapped error.
func New(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrap wraps err in an AppError with CodeInternal, preserving its code if
// it is already an AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if As(err, &ae) {
		return New(ae.Code, message+": "+ae.Message, ae.Err)
	}
	return New(CodeInternal, message, err)
}

// Is and As re-export the standard library helpers so callers only need
// to import this package.
func Is(err error, target error) bool { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }
