package models

import (
	"errors"
	"fmt"
)

// ErrorType categorizes assistant failures.
type ErrorType int

const (
	ErrorTypeTransient       ErrorType = iota // Network, timeout, 5xx
	ErrorTypeRateLimit                        // 429 from the provider
	ErrorTypeInvalidResponse                  // Output did not match the schema
	ErrorTypeFatal                            // Auth, bad request, unknown provider
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypeRateLimit:
		return "RateLimit"
	case ErrorTypeInvalidResponse:
		return "InvalidResponse"
	case ErrorTypeFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// AssistantError is a classified failure from a language-model call.
type AssistantError struct {
	Type      ErrorType `json:"type"`
	Retryable bool      `json:"retryable"`
	Message   string    `json:"message"`
}

// Error implements the error interface
func (e *AssistantError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// NewTransientError creates a retryable transient error
func NewTransientError(message string) *AssistantError {
	return &AssistantError{Type: ErrorTypeTransient, Retryable: true, Message: message}
}

// NewRateLimitError creates a provider rate limit error
func NewRateLimitError(message string) *AssistantError {
	return &AssistantError{Type: ErrorTypeRateLimit, Retryable: true, Message: message}
}

// NewInvalidResponseError creates an error for output that could not be decoded
func NewInvalidResponseError(message string) *AssistantError {
	return &AssistantError{Type: ErrorTypeInvalidResponse, Message: message}
}

// NewFatalError creates a fatal error
func NewFatalError(message string) *AssistantError {
	return &AssistantError{Type: ErrorTypeFatal, Message: message}
}

// ErrorTypeOf returns the classification of err, or ErrorTypeFatal when
// err is not an *AssistantError.
func ErrorTypeOf(err error) ErrorType {
	var ae *AssistantError
	if errors.As(err, &ae) {
		return ae.Type
	}
	return ErrorTypeFatal
}

// ParseErrorType is the inverse of ErrorType.String.
func ParseErrorType(s string) (ErrorType, bool) {
	for _, t := range []ErrorType{ErrorTypeTransient, ErrorTypeRateLimit, ErrorTypeInvalidResponse, ErrorTypeFatal} {
		if t.String() == s {
			return t, true
		}
	}
	return ErrorTypeFatal, false
}
