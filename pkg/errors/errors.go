// Package errors provides coded errors for tierplan.
//
// Every failure that crosses a package boundary towards a user (CLI output,
// HTTP responses) carries a [Code] so callers can branch on the category
// without string matching:
//   - INVALID_*: the request or catalog is malformed; fix the input
//   - NOT_FOUND: a referenced good, recipe, job or file does not exist
//   - NO_SOLUTION: the optimization model has no usable solution
//   - INTERNAL_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGoal, "unknown good %d", id)
//	if errors.Is(err, errors.ErrCodeInvalidGoal) {
//	    // reject the request
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidCatalog, cause, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// Input errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidGoal    Code = "INVALID_GOAL"
	ErrCodeInvalidCatalog Code = "INVALID_CATALOG"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Solve errors
	ErrCodeNoSolution Code = "NO_SOLUTION"
	ErrCodeCanceled   Code = "CANCELED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the first *Error in err's chain, or "" when
// there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the first *Error in err's chain, with
// the cause appended when present. Other errors print as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidGoal, ErrCodeInvalidFormat, ErrCodeInvalidPath:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeNoSolution, ErrCodeInvalidCatalog:
		return 422
	case ErrCodeCanceled:
		return 499
	default:
		return 500
	}
}
