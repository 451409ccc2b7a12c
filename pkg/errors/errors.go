package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a channel-layer error
type ErrorType string

const (
	// ErrorTypeConstruction means a builder rejected its configuration.
	ErrorTypeConstruction ErrorType = "construction"
	// ErrorTypeReadiness means the channel cannot currently serve calls.
	ErrorTypeReadiness ErrorType = "readiness"
	// ErrorTypeCall means a specific issued call failed.
	ErrorTypeCall ErrorType = "call"
	// ErrorTypeUnavailable means no endpoints are available to serve.
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeTimeout means a call exceeded its deadline.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInternal is a fault in this layer itself.
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with additional context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]any
}

// NewError creates a new structured error
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithCause adds the underlying cause to the error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsType reports whether err is, or wraps, an Error of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
