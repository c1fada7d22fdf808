package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NewLoggingMiddleware returns middleware that logs each model attempt with
// latency and outcome. Prompts are never logged, only their length; raw
// model text stays out of logs and is surfaced through the attempt ledger
// instead.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llm")

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			traceID := req.TraceID
			if traceID == "" {
				traceID = uuid.NewString()
				req.TraceID = traceID
			}

			start := time.Now()
			resp, err := next.Handle(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Warn("model attempt failed",
					"trace_id", traceID,
					"provider", req.Provider,
					"model", req.Model,
					"prompt_chars", len(req.Prompt),
					"elapsed", elapsed,
					"error", err)
				return resp, err
			}

			logger.Debug("model attempt succeeded",
				"trace_id", traceID,
				"provider", req.Provider,
				"model", req.Model,
				"prompt_chars", len(req.Prompt),
				"completion_tokens", resp.Usage.CompletionTokens,
				"latency_ms", resp.Usage.LatencyMs,
				"elapsed", elapsed)
			return resp, nil
		})
	}
}
