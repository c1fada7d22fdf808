// Package transport defines the normalized single-model request pipeline.
// A Request travels through a composable middleware chain (logging, retry)
// to a core handler that speaks the provider's HTTP dialect; the Response
// carries the raw model text back up for protocol parsing.
package transport

import (
	"net/http"
	"time"
)

// FinishReason indicates why a model stopped generating.
type FinishReason string

const (
	// FinishStop indicates natural completion.
	FinishStop FinishReason = "stop"
	// FinishLength indicates the token limit was hit.
	FinishLength FinishReason = "length"
	// FinishContentFilter indicates the provider filtered the output.
	FinishContentFilter FinishReason = "content_filter"
)

// Request represents a normalized request across all LLM providers.
// Contains everything needed for provider-specific HTTP request
// construction, middleware processing, and response correlation.
type Request struct {
	// Provider identifies which LLM service to use ("openai"|"anthropic"|"google").
	Provider string `json:"provider"`

	// Model specifies the exact model version to use.
	Model string `json:"model"`

	// Prompt is the fully assembled structured prompt.
	Prompt string `json:"prompt"`

	// SystemPrompt provides instructions to the model, sent via the
	// provider's system channel where one exists.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Generation parameters.
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// Timeout bounds this single attempt end to end.
	Timeout time.Duration `json:"timeout"`

	// TraceID correlates attempts across the cascade and the ledger.
	TraceID string `json:"trace_id"`
}

// Response represents normalized output from any LLM provider.
type Response struct {
	// Content is the raw model text, parsed by the protocol layer above.
	Content string `json:"content"`

	// FinishReason indicates why generation stopped.
	FinishReason FinishReason `json:"finish_reason"`

	// ProviderRequestIDs enables cross-system correlation.
	ProviderRequestIDs []string `json:"provider_request_ids"`

	// Usage tracks resource consumption.
	Usage NormalizedUsage `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`

	// RawBody preserves the original response for diagnostics.
	RawBody []byte `json:"raw_body"`
}

// NormalizedUsage provides consistent usage metrics across all providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}
