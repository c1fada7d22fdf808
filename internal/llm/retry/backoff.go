package retry

import (
	"errors"
	"math/rand/v2"
	"time"
)

// calculateBackoff computes the retry delay using exponential backoff with
// full jitter, preferring provider Retry-After guidance when present.
// Thread-safe via math/rand/v2.
func (r *retryMiddleware) calculateBackoff(attempt int, err error) time.Duration {
	if after := extractRetryAfter(err); after > 0 {
		return after
	}
	return Backoff(attempt, r.config.InitialInterval, r.config.MaxInterval, r.config.Multiplier, r.config.UseJitter)
}

// Backoff computes the delay before the given 1-based attempt's retry:
// initial * multiplier^(attempt-1), capped at max, with optional full
// jitter (uniform in [0, delay]).
func Backoff(attempt int, initial, maxInterval time.Duration, multiplier float64, jitter bool) time.Duration {
	base := initial
	if base <= 0 {
		base = time.Millisecond // Minimum to prevent hot looping
	}
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	for i := 1; i < attempt; i++ {
		base = time.Duration(float64(base) * multiplier)
		if maxInterval > 0 && base > maxInterval {
			base = maxInterval
			break
		}
	}

	if jitter && base > 0 {
		return time.Duration(rand.Int64N(int64(base) + 1)) // #nosec G404 -- non-cryptographic jitter
	}
	return base
}

// extractRetryAfter pulls provider-specified retry delays from error types.
func extractRetryAfter(err error) time.Duration {
	var after AfterProvider
	if errors.As(err, &after) {
		return after.GetRetryAfter()
	}
	return 0
}
