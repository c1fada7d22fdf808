// Package llm provides the unified, resilient single-model RPC used by the
// fact-check cascade. A Client wraps one HTTP call to one model in the
// middleware chain (logging, transient retry); multi-model fallback and
// circuit breaking live above this layer.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/llm/providers"
	"github.com/ahrav/go-checkmate/internal/llm/retry"
	"github.com/ahrav/go-checkmate/internal/llm/transport"
)

// Client performs one model completion per call. Implementations carry
// their own bounded timeout and low-level transient-retry budget; callers
// treat each Complete as a single logical attempt.
type Client interface {
	Complete(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

type client struct {
	handler transport.Handler
}

// NewClient builds the single-model RPC from configuration: a pooled HTTP
// client, the provider router, and the middleware chain with logging
// outermost and transient retry wrapping the core HTTP handler.
func NewClient(cfg *configuration.Config) (Client, error) {
	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider router: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        configuration.DefaultMaxIdleConns,
				MaxIdleConnsPerHost: configuration.DefaultMaxIdleConns,
				IdleConnTimeout:     configuration.DefaultIdleTimeoutSeconds * time.Second,
				TLSHandshakeTimeout: configuration.DefaultTLSTimeoutSeconds * time.Second,
			},
		}
	}

	retryMW, err := retry.NewMiddleware(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to build retry middleware: %w", err)
	}

	handler := transport.Chain(
		transport.NewHTTPHandler(httpClient, router),
		transport.NewLoggingMiddleware(nil),
		retryMW,
	)

	return &client{handler: handler}, nil
}

// Complete implements Client. The request's provider is inferred from the
// model id when unset, so callers only deal in model ids.
func (c *client) Complete(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if req.Provider == "" {
		req.Provider = providers.InferProvider(req.Model)
	}
	return c.handler.Handle(ctx, req)
}
