// Package errors defines the unified error type for provider executions and
// the permanent/temporary classification that drives the circuit breaker.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ProviderError represents a standardized error from a model provider.
// Adapters map vendor-specific failures into this shape so the router can
// classify them uniformly.
type ProviderError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (provider=%s, model=%s, code=%d)",
		e.Type, e.Message, e.Provider, e.Model, e.StatusCode)
}

// Common error types as constants for consistency.
const (
	TypeAuthentication     = "authentication_error"
	TypeRateLimit          = "rate_limit_error"
	TypeInvalidRequest     = "invalid_request_error"
	TypeNotFound           = "not_found_error"
	TypeTimeout            = "timeout_error"
	TypeServiceUnavailable = "service_unavailable_error"
	TypeInternalError      = "internal_error"
)

// NewAuthenticationError creates an authentication error (401).
func NewAuthenticationError(provider, model, message string) *ProviderError {
	return &ProviderError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Type:       TypeAuthentication,
		Provider:   provider,
		Model:      model,
	}
}

// NewRateLimitError creates a rate limit error (429).
func NewRateLimitError(provider, model, message string) *ProviderError {
	return &ProviderError{
		StatusCode: http.StatusTooManyRequests,
		Message:    message,
		Type:       TypeRateLimit,
		Provider:   provider,
		Model:      model,
	}
}

// NewTimeoutError creates a timeout error (408).
func NewTimeoutError(provider, model, message string) *ProviderError {
	return &ProviderError{
		StatusCode: http.StatusRequestTimeout,
		Message:    message,
		Type:       TypeTimeout,
		Provider:   provider,
		Model:      model,
	}
}

// NewStatusError maps an HTTP status and body into a ProviderError.
func NewStatusError(provider, model string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		StatusCode: statusCode,
		Message:    message,
		Type:       typeForStatus(statusCode),
		Provider:   provider,
		Model:      model,
	}
}

func typeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return TypeAuthentication
	case statusCode == http.StatusTooManyRequests:
		return TypeRateLimit
	case statusCode == http.StatusNotFound:
		return TypeNotFound
	case statusCode == http.StatusRequestTimeout:
		return TypeTimeout
	case statusCode == http.StatusServiceUnavailable:
		return TypeServiceUnavailable
	case statusCode >= 400 && statusCode < 500:
		return TypeInvalidRequest
	default:
		return TypeInternalError
	}
}

// Class partitions execution failures for the circuit breaker.
type Class int

const (
	// ClassTemporary failures count toward the consecutive-failure
	// threshold: network errors, 5xx, timeouts, transient rate limits.
	ClassTemporary Class = iota
	// ClassPermanent failures disable a model immediately: credential,
	// authorization, quota, or billing problems, and unknown models.
	ClassPermanent
)

func (c Class) String() string {
	if c == ClassPermanent {
		return "permanent"
	}
	return "temporary"
}

// permanentPatterns match error text that indicates the failure will not go
// away on retry, regardless of status code.
var permanentPatterns = []string{
	"unauthorized",
	"authorization",
	"authentication",
	"permission",
	"forbidden",
	"invalid api key",
	"api key",
	"quota",
	"billing",
	"insufficient funds",
	"model not found",
	"model_not_found",
	"no such model",
}

// Classify determines whether an execution failure is permanent or
// temporary. Status codes in the 400-403 range are permanent; everything
// else falls back to text pattern matching, defaulting to temporary.
func Classify(err error) Class {
	if err == nil {
		return ClassTemporary
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.StatusCode >= 400 && pe.StatusCode <= 403 {
			return ClassPermanent
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return ClassPermanent
		}
	}
	return ClassTemporary
}
