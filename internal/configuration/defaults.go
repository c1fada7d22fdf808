package configuration

import "time"

// Operation classes with dedicated circuit breakers. Classes never share
// failure counters.
const (
	// ClassFactCheck covers interactive fact-check requests.
	ClassFactCheck = "factcheck"

	// ClassFactCheckQuick covers the more expensive background quick-run
	// requests, which trip earlier and recover sooner.
	ClassFactCheckQuick = "factcheck-quick"
)

// HTTP and connection constants.
const (
	DefaultMaxIdleConns       = 100
	DefaultIdleTimeoutSeconds = 90
	DefaultTLSTimeoutSeconds  = 10
	DefaultHTTPTimeout        = 90 * time.Second
	DefaultServerPort         = 8080
	DefaultBodyLimit          = 1 << 20 // 1 MiB
)

// Retry constants for the per-attempt transient budget.
const (
	DefaultRetryMaxAttempts     = 3
	DefaultRetryInitialInterval = 250 * time.Millisecond
	DefaultRetryMaxInterval     = 5 * time.Second
	DefaultRetryMultiplier      = 2.0
)

// Circuit breaker constants per operation class.
const (
	DefaultFailureThreshold      = 3
	DefaultOpenTimeout           = 60 * time.Second
	DefaultQuickFailureThreshold = 2
	DefaultQuickOpenTimeout      = 30 * time.Second
)

// Cascade constants.
const (
	DefaultRetriesPerModel = 2
	DefaultInitialBackoff  = time.Second
	DefaultMaxBackoff      = 8 * time.Second
	DefaultCascadeMult     = 2.0
	DefaultAttemptTimeout  = 60 * time.Second
	DefaultMaxTokens       = 1024
)

// Fact-check constants.
const (
	DefaultMaxClaimChars = 5000
	DefaultTemperature   = 0.1
)

// DefaultConfig returns production-ready configuration with a ranked
// two-model fallback pair and the stock breaker classes.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // Cascade worst case spans several attempt timeouts
			BodyLimit:    DefaultBodyLimit,
		},
		Providers: map[string]ProviderConfig{
			"openai":    {APIKeyEnv: "OPENAI_API_KEY"},
			"anthropic": {APIKeyEnv: "ANTHROPIC_API_KEY"},
			"google":    {APIKeyEnv: "GOOGLE_API_KEY"},
		},
		HTTPTimeout: DefaultHTTPTimeout,
		Retry: RetryConfig{
			MaxAttempts:     DefaultRetryMaxAttempts,
			InitialInterval: DefaultRetryInitialInterval,
			MaxInterval:     DefaultRetryMaxInterval,
			Multiplier:      DefaultRetryMultiplier,
			UseJitter:       true,
		},
		Breakers: map[string]BreakerConfig{
			ClassFactCheck: {
				FailureThreshold: DefaultFailureThreshold,
				OpenTimeout:      DefaultOpenTimeout,
			},
			ClassFactCheckQuick: {
				FailureThreshold: DefaultQuickFailureThreshold,
				OpenTimeout:      DefaultQuickOpenTimeout,
			},
		},
		Cascade: CascadeConfig{
			RetriesPerModel: DefaultRetriesPerModel,
			InitialBackoff:  DefaultInitialBackoff,
			MaxBackoff:      DefaultMaxBackoff,
			Multiplier:      DefaultCascadeMult,
			UseJitter:       true,
		},
		FactCheck: FactCheckConfig{
			Candidates: []CandidateConfig{
				{Model: "gpt-4o", MaxTokens: DefaultMaxTokens, Timeout: DefaultAttemptTimeout},
				{Model: "claude-3-5-sonnet-20241022", MaxTokens: DefaultMaxTokens, Timeout: DefaultAttemptTimeout},
			},
			MaxClaimChars: DefaultMaxClaimChars,
			Temperature:   DefaultTemperature,
		},
	}
}
