// Package errors provides structured error types for autotag.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (snapshots, geometry, config)
//   - MISSING_*: Required configuration that could not be resolved
//   - *_FAILED: Host-side failures that abort a run
//   - INTERNAL_*: Unexpected internal errors
//
// Element-level conditions that are expected in practice (an element without
// geometry, a category the active view never tags) are not errors. They are
// reported as skips by the pipeline.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingSymbol, "no tag family for %s", cat)
//	if errors.Is(err, errors.ErrCodeMissingSymbol) {
//	    // Abort the run before anything is placed
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMaterialize, origErr, "place tag for %s", id)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidGeometry Code = "INVALID_GEOMETRY"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeUnknownCategory Code = "UNKNOWN_CATEGORY"

	// Configuration resolution errors
	ErrCodeMissingSymbol Code = "MISSING_SYMBOL_MAPPING"

	// Host errors
	ErrCodeMaterialize Code = "MATERIALIZE_FAILED"
	ErrCodeScript      Code = "SCRIPT_ERROR"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsFatal reports whether err must abort a whole run.
// Every coded error is fatal except the input codes that the pipeline can
// downgrade to a per-element skip (invalid geometry).
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return GetCode(err) != ErrCodeInvalidGeometry
}
