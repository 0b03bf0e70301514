// Package apierr defines the error kinds surfaced by the Open To Close
// client. Transport failures map onto these types by HTTP status; callers
// discriminate with errors.As.
package apierr

import (
	"fmt"
	"time"
)

// APIError carries the context shared by every error kind: what was asked,
// what came back. Message alone is the human-readable part.
type APIError struct {
	Message    string
	StatusCode int
	Method     string
	Endpoint   string
	Body       map[string]any
}

func (e *APIError) Error() string { return e.Message }

// AuthenticationError: missing, malformed or rejected API key.
type AuthenticationError struct {
	APIError
}

func NewAuthenticationError(msg string) *AuthenticationError {
	return &AuthenticationError{APIError{Message: msg}}
}

// ValidationError: bad input, either caught locally (unknown field name,
// unmatched choice option, malformed payload shape) or reported by the
// vendor as a 400.
type ValidationError struct {
	APIError
	FieldErrors map[string]any
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{APIError: APIError{Message: msg}}
}

func Validationf(format string, args ...any) *ValidationError {
	return NewValidationError(fmt.Sprintf(format, args...))
}

// NotFoundError: 404 for a concrete resource.
type NotFoundError struct {
	APIError
}

// RateLimitError: 429. RetryAfter is zero when the server gave no hint.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

// ServerError: any 5xx, or an HTML error page served on a 2xx.
type ServerError struct {
	APIError
}

// NetworkError wraps a transport-level failure (DNS, connect, timeout).
type NetworkError struct {
	APIError
	Err error
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataFormatError: the response decoded fine but had a shape the client
// cannot interpret.
type DataFormatError struct {
	APIError
	Expected string
	Actual   string
}

// ConfigurationError: invalid client construction parameters.
type ConfigurationError struct {
	APIError
}

func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{APIError{Message: msg}}
}
