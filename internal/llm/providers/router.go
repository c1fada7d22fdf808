// Package providers implements provider-specific HTTP adapters for the
// transport layer. Each adapter translates the normalized transport.Request
// into the provider's wire format and normalizes the reply back.
package providers

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-checkmate/internal/configuration"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/llm/transport"
)

// Supported LLM provider identifiers.
// These constants must match the provider names used in configuration.
const (
	ProviderOpenAI    = "openai"    // OpenAI GPT models
	ProviderAnthropic = "anthropic" // Anthropic Claude models
	ProviderGoogle    = "google"    // Google Gemini models
)

// InferProvider maps a model id to its provider by prefix. Cascade
// candidates carry only model ids; routing derives the provider so a
// caller-pinned model outside the candidate table still finds an adapter.
func InferProvider(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "gpt-"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"):
		return ProviderOpenAI
	case strings.HasPrefix(lower, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(lower, "gemini-"):
		return ProviderGoogle
	default:
		return ""
	}
}

// NewRouter creates a router with configured provider adapters.
func NewRouter(configs map[string]configuration.ProviderConfig) (transport.Router, error) {
	adapters := make(map[string]transport.ProviderAdapter)

	for name, cfg := range configs {
		var adapter transport.ProviderAdapter
		switch name {
		case ProviderOpenAI:
			adapter = NewOpenAIAdapter(cfg)
		case ProviderAnthropic:
			adapter = NewAnthropicAdapter(cfg)
		case ProviderGoogle:
			adapter = NewGoogleAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, name)
		}
		adapters[name] = adapter
	}

	return &router{adapters: adapters}, nil
}

// router implements transport.Router with a provider adapter registry.
type router struct {
	adapters map[string]transport.ProviderAdapter
}

// Pick selects the adapter for the given provider, inferring the provider
// from the model id when the request leaves it empty. Returns
// ErrUnknownProvider when no configured adapter matches.
func (r *router) Pick(provider, model string) (transport.ProviderAdapter, error) {
	if provider == "" {
		provider = InferProvider(model)
	}
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q (model %q)", llmerrors.ErrUnknownProvider, provider, model)
	}
	return adapter, nil
}
