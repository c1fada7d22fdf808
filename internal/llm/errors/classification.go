package errors

import (
	"context"
	"errors"
	"net/http"
)

// IsRetryableError determines if an error warrants a retry attempt.
// Examines error types, HTTP status codes, and sentinel errors to provide
// consistent retry decisions across the transport chain and the cascade.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Breaker rejections fail fast; retrying them locally defeats the breaker.
	var cbErr *CircuitBreakerError
	if errors.As(err, &cbErr) {
		return false
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return false
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.IsRetryable()
	}

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrProviderUnavailable) {
		return true
	}

	// Examine HTTP status codes for retry classification.
	type statusCoder interface {
		StatusCode() int
	}
	if sc, ok := err.(statusCoder); ok {
		code := sc.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code == http.StatusGatewayTimeout ||
			code >= 500
	}

	// Conservative default to avoid retry loops for unknown errors.
	return false
}

// IsCircuitOpen reports whether err is a breaker rejection.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsValidation reports whether err is a client-input validation failure.
// Validation failures are the only non-terminal errors allowed to cross the
// HTTP boundary.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// GetRetryAfter extracts the retry-after duration in seconds from rate
// limit and provider errors, or 0 if no guidance is available.
func GetRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.RetryAfter
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.RetryAfter
	}

	return 0
}
