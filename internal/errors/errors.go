// Package errors provides the structured error type shared by the stores,
// services and HTTP handlers. Each error carries a Code that the API layer
// maps onto a status, a user-facing Message, and an optional Cause that
// keeps domain sentinels reachable through errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a StructuredError.
type ErrorCode string

const (
	// ErrCodeInvalidRequest marks malformed or missing input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeUnauthorized marks a missing, invalid or expired credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeNotFound marks a referenced record that does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict marks a uniqueness violation (username, recipe name).
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeUnavailable marks an external collaborator that could not answer.
	ErrCodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeRateLimited marks a request rejected by the rate limiter.
	ErrCodeRateLimited ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInternal marks everything else.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError is an error with a code, a safe message and a cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Wrap creates a StructuredError around cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WithContext attaches key/value detail and returns the receiver.
func (e *StructuredError) WithContext(key string, value any) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As returns the first StructuredError in err's chain.
func As(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of the first StructuredError in err's chain, or
// ErrCodeInternal when the chain has none.
func CodeOf(err error) ErrorCode {
	if se, ok := As(err); ok {
		return se.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the user-facing message of err, falling back to fallback
// for errors that are not structured.
func MessageOf(err error, fallback string) string {
	if se, ok := As(err); ok && se.Message != "" {
		return se.Message
	}
	return fallback
}
