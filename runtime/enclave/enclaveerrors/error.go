// Package enclaveerrors provides the structured error taxonomy surfaced by
// the Enclave. It mirrors runtime/agent/toolerrors: errors preserve message
// and causal chains while still implementing the standard error interface.
package enclaveerrors

import (
	"errors"
	"fmt"
)

// Code identifies the category of an Enclave failure. Callers should switch
// on Code rather than parsing Message, which is intended for humans.
type Code string

// Error codes surfaced to callers, per the Enclave's error taxonomy.
const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeScoringBlocked   Code = "SCORING_BLOCKED"
	CodeExecution        Code = "EXECUTION_ERROR"
	CodeEnclave          Code = "ENCLAVE_ERROR"
	CodeTimeout          Code = "TIMEOUT"
	CodeIterationLimit   Code = "ITERATION_LIMIT"
	CodeToolLimit        Code = "TOOL_LIMIT"
	CodeConsoleLimit     Code = "CONSOLE_LIMIT"
	CodeToolInvalidArgs  Code = "TOOL_CALL_INVALID_ARGS"
	CodeReferenceMissing Code = "REFERENCE_NOT_FOUND"
	CodeReferenceTooBig  Code = "REFERENCE_SIZE_EXCEEDED"
	CodeReferenceDepth   Code = "REFERENCE_DEPTH_EXCEEDED"
	CodeConcatLimit      Code = "CONCAT_LIMIT"
)

// Error represents a structured Enclave failure. It preserves the original
// error name/message (as produced inside AgentScript or by a Go collaborator)
// and an optional causal chain via Cause, supporting errors.Is/As.
type Error struct {
	// Code classifies the failure for programmatic handling.
	Code Code
	// Name is the original error constructor name when known (e.g. "TypeError").
	Name string
	// Message is the human-readable failure description.
	Message string
	// Stack is an optional, possibly-sanitized stack trace.
	Stack string
	// Data carries code-specific diagnostic payloads (e.g. scoring signals,
	// validation issues).
	Data any
	// Cause links to the underlying error, if any.
	Cause error
}

// New constructs an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf formats according to a format specifier and returns an *Error.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap constructs an Error that wraps an underlying error under the given code.
func Wrap(code Code, cause error) *Error {
	if cause == nil {
		return New(code, "")
	}
	return &Error{Code: code, Message: cause.Error(), Cause: cause}
}

// WithData attaches a diagnostic payload and returns the receiver for chaining.
func (e *Error) WithData(data any) *Error {
	e.Data = data
	return e
}

// WithStack attaches a (possibly sanitized) stack trace and returns the
// receiver for chaining.
func (e *Error) WithStack(stack string) *Error {
	e.Stack = stack
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// As reports whether err is an *Error and, if so, whether its code matches.
func As(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
