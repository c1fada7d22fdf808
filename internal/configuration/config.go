// Package configuration holds the service configuration for the fact-check
// invocation layer: provider credentials, resilience parameters, candidate
// model ranking, and the HTTP server surface.
package configuration

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Configuration validation errors.
var (
	ErrNoProviders    = errors.New("at least one provider must be configured")
	ErrNoCandidates   = errors.New("at least one candidate model must be configured")
	ErrBadThreshold   = errors.New("failure threshold must be greater than 0")
	ErrBadOpenTimeout = errors.New("open timeout must be greater than 0")
	ErrBadRetries     = errors.New("retries per model must be greater than 0")
)

// Config holds the full configuration for the fact-check service.
type Config struct {
	// Server configures the HTTP surface.
	Server ServerConfig `mapstructure:"server"`

	// Providers maps provider name to provider-specific settings.
	Providers map[string]ProviderConfig `mapstructure:"providers"`

	// HTTPTimeout bounds the shared HTTP client.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	// HTTPClient overrides the default pooled client (tests).
	HTTPClient *http.Client `mapstructure:"-"`

	// Retry configures the low-level transient-retry middleware that each
	// single model attempt owns.
	Retry RetryConfig `mapstructure:"retry"`

	// Breakers maps operation class to circuit breaker settings.
	Breakers map[string]BreakerConfig `mapstructure:"breakers"`

	// Cascade configures the multi-model fallback invoker.
	Cascade CascadeConfig `mapstructure:"cascade"`

	// FactCheck configures the orchestrator.
	FactCheck FactCheckConfig `mapstructure:"factcheck"`

	// Development enables stack detail in HTTP error responses.
	Development bool `mapstructure:"development"`
}

// ServerConfig configures the fiber HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	BodyLimit       int           `mapstructure:"body_limit"`
	BackgroundToken string        `mapstructure:"-"` // From env only
}

// ProviderConfig holds provider-specific configuration and authentication.
type ProviderConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	APIKey    string            `mapstructure:"-"` // Sensitive, resolved from env
	APIKeyEnv string            `mapstructure:"api_key_env"`
	Headers   map[string]string `mapstructure:"headers"`
}

// RetryConfig controls the transient-retry budget of one model attempt.
// This layer absorbs network blips and provider 5xx responses; protocol
// failures are never retried here, they bubble up to the cascade.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	UseJitter       bool          `mapstructure:"use_jitter"`
}

// BreakerConfig controls one operation class's circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// CascadeConfig controls the multi-model fallback invoker.
type CascadeConfig struct {
	// RetriesPerModel is the attempt budget per candidate before falling
	// through to the next one.
	RetriesPerModel int `mapstructure:"retries_per_model"`

	// Backoff between attempts on the same model. Exponential with full
	// jitter; switching candidates adds no delay.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
	UseJitter      bool          `mapstructure:"use_jitter"`
}

// CandidateConfig declares one ranked fallback candidate.
type CandidateConfig struct {
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FactCheckConfig configures the orchestrator.
type FactCheckConfig struct {
	// Candidates is the default ranked fallback list, highest priority first.
	Candidates []CandidateConfig `mapstructure:"candidates"`

	// MaxClaimChars bounds claim length; longer claims are rejected before
	// any model is contacted.
	MaxClaimChars int `mapstructure:"max_claim_chars"`

	// Temperature for fact-check completions.
	Temperature float64 `mapstructure:"temperature"`
}

// Validate checks configuration invariants before the service starts.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return ErrNoProviders
	}
	if len(c.FactCheck.Candidates) == 0 {
		return ErrNoCandidates
	}
	for class, bc := range c.Breakers {
		if bc.FailureThreshold <= 0 {
			return fmt.Errorf("%w: class %s", ErrBadThreshold, class)
		}
		if bc.OpenTimeout <= 0 {
			return fmt.Errorf("%w: class %s", ErrBadOpenTimeout, class)
		}
	}
	if c.Cascade.RetriesPerModel <= 0 {
		return ErrBadRetries
	}
	return nil
}
