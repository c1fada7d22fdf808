// Package errors defines the classified error taxonomy for the fact-check
// invocation layer. Error types drive retry decisions in the transport
// retry middleware and the model cascade, and determine which failures are
// allowed to cross the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType categorizes invocation failures for retry classification.
// Types determine whether operations should be retried and with what
// backoff strategy, enabling resilient handling of transient vs. permanent
// failures.
type ErrorType string

const (
	// ErrorTypeTimeout indicates request timeout or deadline exceeded (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates rate limit exceeded, retry with backoff (retryable).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeNetwork indicates network connectivity issues (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates provider service unavailable (retryable).
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeCircuitBreaker indicates circuit breaker protection activated
	// (fails fast, no network call is made).
	ErrorTypeCircuitBreaker ErrorType = "circuit_breaker"

	// ErrorTypeProtocol indicates the model reply violated the structured
	// response contract (retried as a model attempt failure).
	ErrorTypeProtocol ErrorType = "protocol"

	// ErrorTypeValidation indicates input validation failed (never retried,
	// never reaches the model layer).
	ErrorTypeValidation ErrorType = "validation_failed"

	// ErrorTypeAuth indicates authentication failed (non-retryable).
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypePermission indicates insufficient permissions (non-retryable).
	ErrorTypePermission ErrorType = "permission_denied"

	// ErrorTypeQuota indicates account quota exceeded (non-retryable).
	ErrorTypeQuota ErrorType = "quota_exceeded"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common invocation errors for consistent error handling.
var (
	// ErrProviderUnavailable indicates the provider service is down or unreachable.
	ErrProviderUnavailable = errors.New("provider service unavailable")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrUnknownProvider indicates an unknown or unsupported provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty provider response")

	// ErrCascadeExhausted indicates every candidate model and retry failed.
	ErrCascadeExhausted = errors.New("all candidate models exhausted")
)

// ProviderError captures structured error responses from LLM providers.
// Includes HTTP status codes, provider-specific error codes, and retry
// timing to enable appropriate retry behavior and error diagnosis.
type ProviderError struct {
	Provider   string    `json:"provider"`    // Provider name
	StatusCode int       `json:"status_code"` // HTTP status code
	Message    string    `json:"message"`     // Error message
	Code       string    `json:"code"`        // Provider error code
	Type       ErrorType `json:"type"`        // Classified error type
	RetryAfter int       `json:"retry_after"` // Retry-After header value in seconds
}

// Error returns formatted provider error with status code context.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable determines if the provider error warrants a retry attempt.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeProvider:
		return true
	default:
		return false
	}
}

// GetRetryAfter implements the RetryAfterProvider interface consumed by the
// retry middleware.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// RateLimitError provides detailed rate limit context for backoff calculation.
type RateLimitError struct {
	Provider   string `json:"provider"`
	RetryAfter int    `json:"retry_after"` // Seconds to wait before retry
	Limit      int    `json:"limit"`       // Rate limit
	Remaining  int    `json:"remaining"`   // Remaining requests
}

// Error returns formatted rate limit error with retry guidance.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %d seconds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Provider)
}

// GetRetryAfter implements the RetryAfterProvider interface.
func (e *RateLimitError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// CircuitBreakerError indicates the breaker refused an attempt for an
// operation class. No network call is made when this error is returned.
type CircuitBreakerError struct {
	Class   string `json:"class"`    // Operation class owning the breaker
	State   string `json:"state"`    // "open" or "half-open"
	ResetAt int64  `json:"reset_at"` // Unix timestamp when the breaker may admit a trial
}

// Error returns formatted circuit breaker error with state context.
func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker %s for %s", e.State, e.Class)
}

// Unwrap allows errors.Is(err, ErrCircuitOpen) checks.
func (e *CircuitBreakerError) Unwrap() error { return ErrCircuitOpen }

// ValidationError captures input validation failures with structured context.
// Validation errors are terminal: they are never retried and never reach the
// model layer.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Message string `json:"message"` // Validation message
}

// Error returns formatted validation error with field-specific context.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ProtocolErrorKind identifies which part of the structured response
// contract a model reply violated.
type ProtocolErrorKind string

const (
	// ProtocolMissingSections means one or more required tagged sections
	// were absent from the reply.
	ProtocolMissingSections ProtocolErrorKind = "missing_sections"

	// ProtocolBadInteger means a numeric section did not parse as an integer.
	ProtocolBadInteger ProtocolErrorKind = "bad_integer"

	// ProtocolOutOfRange means a numeric section parsed but fell outside [0,100].
	ProtocolOutOfRange ProtocolErrorKind = "out_of_range"
)

// ProtocolError reports a model reply that violated the structured response
// contract. It carries the full set of missing sections (not just the first)
// and a bounded sample of the reply head to aid diagnosis. Protocol errors
// are retried exactly like transport failures: the model may produce a
// conforming reply on the next attempt.
type ProtocolError struct {
	Kind    ProtocolErrorKind `json:"kind"`
	Missing []string          `json:"missing,omitempty"` // Missing section names, reply order
	Field   string            `json:"field,omitempty"`   // Offending numeric section
	Value   string            `json:"value,omitempty"`   // Raw offending value
	Sample  string            `json:"sample,omitempty"`  // Truncated reply head
}

// Error returns a diagnosis-oriented message naming every missing section
// or the offending numeric value.
func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ProtocolMissingSections:
		return fmt.Sprintf("reply missing required sections [%s]; head: %q",
			strings.Join(e.Missing, ", "), e.Sample)
	case ProtocolBadInteger:
		return fmt.Sprintf("section %s is not an integer: %q", e.Field, e.Value)
	case ProtocolOutOfRange:
		return fmt.Sprintf("section %s out of range [0,100]: %s", e.Field, e.Value)
	default:
		return fmt.Sprintf("protocol violation: %s", e.Kind)
	}
}

// IsRetryable reports true: a fresh attempt may yield a conforming reply.
func (e *ProtocolError) IsRetryable() bool { return true }

// CascadeError is the terminal aggregate returned when every candidate
// model and every retry failed. It names the total attempt count and the
// distinct models tried in order; the full attempt ledger travels to the
// error-tracking collaborator separately and never to the caller.
type CascadeError struct {
	Attempts int      `json:"attempts"` // Total attempts across all candidates
	Models   []string `json:"models"`   // Distinct models tried, in order
	Last     error    `json:"-"`        // Final attempt's error
}

// Error names the attempt count and every model tried.
func (e *CascadeError) Error() string {
	return fmt.Sprintf("fact check failed after %d attempts across models [%s]: %v",
		e.Attempts, strings.Join(e.Models, ", "), e.Last)
}

// Unwrap exposes the terminal sentinel and the last attempt error.
func (e *CascadeError) Unwrap() []error { return []error{ErrCascadeExhausted, e.Last} }
