// Package retry provides the low-level transient-retry middleware owned by
// each single model attempt. It absorbs network blips, timeouts, and
// provider 5xx responses with exponential backoff so the cascade above only
// sees attempts that genuinely failed.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/ahrav/go-checkmate/internal/configuration"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/llm/transport"
)

var (
	// Configuration validation errors.
	errMaxAttemptsInvalid     = errors.New("maxAttempts must be greater than 0")
	errInitialIntervalInvalid = errors.New("initialInterval must be greater than 0")
	errMaxIntervalInvalid     = errors.New("maxInterval must be >= initialInterval")
	errMultiplierInvalid      = errors.New("multiplier must be >= 1.0")

	// Runtime errors.
	errContextCancelledBeforeRetry = errors.New("context cancelled before retry")
	errContextCancelledDuringRetry = errors.New("context cancelled during retry")
	errAllRetriesExhausted         = errors.New("all retries exhausted")
)

// AfterProvider is implemented by error types that carry provider
// backpressure guidance (Retry-After).
type AfterProvider interface {
	// GetRetryAfter returns the recommended wait before the next attempt,
	// or zero when no guidance is available.
	GetRetryAfter() time.Duration
}

// retryMiddleware implements transient retry with exponential backoff.
type retryMiddleware struct {
	config configuration.RetryConfig
	logger *slog.Logger
}

// NewMiddleware creates retry middleware with the given configuration.
// Implements exponential backoff with full jitter and respects provider
// Retry-After guidance.
func NewMiddleware(cfg configuration.RetryConfig) (transport.Middleware, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.InitialInterval <= 0 {
		return nil, fmt.Errorf("%w, got %v", errInitialIntervalInvalid, cfg.InitialInterval)
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		return nil, fmt.Errorf("%w, MaxInterval: %v, InitialInterval: %v",
			errMaxIntervalInvalid, cfg.MaxInterval, cfg.InitialInterval)
	}
	if cfg.Multiplier < 1.0 {
		return nil, fmt.Errorf("%w, got %f", errMultiplierInvalid, cfg.Multiplier)
	}

	rm := &retryMiddleware{
		config: cfg,
		logger: slog.Default().With("component", "retry"),
	}
	return rm.middleware(), nil
}

// middleware returns the retry middleware function.
func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			var lastErr error

			// Fail fast if the context is already cancelled.
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", errContextCancelledBeforeRetry, ctx.Err())
			default:
			}

			maxAttempts := r.config.MaxAttempts
			for attempt := 1; attempt <= maxAttempts; attempt++ {
				resp, err := next.Handle(ctx, req)
				if err == nil {
					if attempt > 1 {
						r.logger.Info("request succeeded after retry",
							"attempt", attempt,
							"provider", req.Provider,
							"model", req.Model)
					}
					return resp, nil
				}

				if !r.isRetryable(err) {
					r.logger.Debug("non-retryable error",
						"error", err,
						"attempt", attempt,
						"provider", req.Provider)
					return nil, err
				}

				lastErr = err
				if attempt == maxAttempts {
					break
				}

				backoff := r.calculateBackoff(attempt, err)
				r.logger.Debug("retrying after backoff",
					"attempt", attempt,
					"backoff", backoff,
					"error", err,
					"provider", req.Provider)

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", errContextCancelledDuringRetry, ctx.Err())
				}
			}

			return nil, fmt.Errorf("%w after %d attempts: %w", errAllRetriesExhausted, maxAttempts, lastErr)
		})
	}
}

// isRetryable evaluates error types to determine retry eligibility.
// Transport-level failures retry; protocol and validation failures never
// reach this layer, and breaker rejections must not be retried locally.
func (r *retryMiddleware) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cbErr *llmerrors.CircuitBreakerError
	if errors.As(err, &cbErr) {
		return false
	}

	var rateErr *llmerrors.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}

	var provErr *llmerrors.ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	var after AfterProvider
	if errors.As(err, &after) {
		return true
	}

	return false
}

// isNetworkError checks for network-related errors using type assertions
// before falling back to string patterns.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var netErr net.Error
		if errors.As(urlErr.Err, &netErr) {
			return netErr.Timeout()
		}
		return isNetworkErrorByString(urlErr.Err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return isNetworkErrorByString(err.Error())
}

// isNetworkErrorByString checks for network errors using string patterns.
func isNetworkErrorByString(errStr string) bool {
	lowered := strings.ToLower(errStr)
	for _, indicator := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
