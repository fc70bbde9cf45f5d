// Package errors provides structured error types for the dot2bgraph application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the conversion pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - STRUCTURAL_*: The input graph names relationships that cannot be built
//   - INTERNAL_*: Defects in the conversion stages themselves
//
// Structural errors mean the input is at fault; internal errors mean the
// converter is. Both are fatal: no partial block graph is ever returned.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDanglingEdge, "edge references unknown node %q", name)
//	if errors.Is(err, errors.ErrCodeDanglingEdge) {
//	    // Handle structural error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Structural errors: the input graph is malformed
	ErrCodeDanglingEdge     Code = "STRUCTURAL_DANGLING_EDGE"
	ErrCodeContainmentCycle Code = "STRUCTURAL_CONTAINMENT_CYCLE"
	ErrCodeUnknownParent    Code = "STRUCTURAL_UNKNOWN_PARENT"

	// Internal errors: converter invariants were violated
	ErrCodePortExhaustion Code = "INTERNAL_PORT_EXHAUSTION"
	ErrCodeInvariant      Code = "INTERNAL_INVARIANT"
	ErrCodeInternal       Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStructural reports whether err carries a STRUCTURAL_* code, i.e. the
// input graph is at fault rather than the converter.
func IsStructural(err error) bool {
	switch GetCode(err) {
	case ErrCodeDanglingEdge, ErrCodeContainmentCycle, ErrCodeUnknownParent:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
