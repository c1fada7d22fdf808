package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-checkmate/internal/configuration"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/llm/retry"
	"github.com/ahrav/go-checkmate/internal/llm/transport"
	"github.com/ahrav/go-checkmate/internal/metrics"
	"github.com/ahrav/go-checkmate/internal/protocol"
)

// Attempt outcome labels for metrics.
const (
	outcomeSuccess        = "success"
	outcomeTransportError = "transport_error"
	outcomeProtocolError  = "protocol_error"
)

// Completer performs one single-model completion per call. Implemented by
// llm.Client; each call owns its own timeout and low-level transient-retry
// budget.
type Completer interface {
	Complete(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Invoker drives the fallback cascade across ranked candidates. Attempts
// run strictly in sequence: at most one model call is in flight per
// invocation, which keeps billed quota bounded and the ledger order
// deterministic.
type Invoker struct {
	client      Completer
	cfg         configuration.CascadeConfig
	temperature float64
	logger      *slog.Logger
}

// NewInvoker creates an invoker over the given single-model client.
func NewInvoker(client Completer, cfg configuration.CascadeConfig, temperature float64) *Invoker {
	return &Invoker{
		client:      client,
		cfg:         cfg,
		temperature: temperature,
		logger:      slog.Default().With("component", "cascade"),
	}
}

// Do tries each candidate in order, up to RetriesPerModel attempts per
// candidate, with exponential backoff between attempts on the same model
// and no delay when falling through to the next. A parse or validation
// failure counts exactly like an RPC failure. The first fully validated
// result short-circuits the cascade.
//
// The ledger records every attempt, success or failure, and is returned in
// both cases. On exhaustion, the error is a *llmerrors.CascadeError naming
// the attempt count and the models tried; per-attempt errors live only in
// the ledger.
func (iv *Invoker) Do(ctx context.Context, candidates []Candidate, prompt string) (*protocol.Result, *Ledger, error) {
	ledger := NewLedger()
	digest := promptDigest(prompt)
	var lastErr error

	for _, cand := range candidates {
		for attempt := 1; attempt <= iv.cfg.RetriesPerModel; attempt++ {
			req := &transport.Request{
				Model:       cand.Model,
				Prompt:      prompt,
				MaxTokens:   cand.MaxTokens,
				Temperature: iv.temperature,
				Timeout:     cand.Timeout,
				TraceID:     ledger.InvocationID,
			}

			rec := Attempt{
				Model:        cand.Model,
				Timestamp:    time.Now(),
				PromptDigest: digest,
			}

			resp, err := iv.client.Complete(ctx, req)
			if err == nil {
				rec.ResponseSample = responseSample(resp.Content)
				var result *protocol.Result
				result, err = protocol.Parse(resp.Content)
				if err == nil {
					rec.ParseOK = true
					rec.Result = result
					ledger.Record(rec)
					metrics.AttemptsTotal.WithLabelValues(cand.Model, outcomeSuccess).Inc()
					iv.logger.Info("cascade succeeded",
						"invocation_id", ledger.InvocationID,
						"model", cand.Model,
						"attempt", len(ledger.Attempts),
						"score", result.Score,
						"confidence", result.Confidence)
					return result, ledger, nil
				}
				metrics.AttemptsTotal.WithLabelValues(cand.Model, outcomeProtocolError).Inc()
			} else {
				metrics.AttemptsTotal.WithLabelValues(cand.Model, outcomeTransportError).Inc()
			}

			rec.ErrMessage = err.Error()
			ledger.Record(rec)
			lastErr = err

			iv.logger.Debug("cascade attempt failed",
				"invocation_id", ledger.InvocationID,
				"model", cand.Model,
				"model_attempt", attempt,
				"total_attempts", len(ledger.Attempts),
				"error", err)

			// Back off before retrying the same model; switching candidates
			// happens immediately.
			if attempt < iv.cfg.RetriesPerModel {
				delay := retry.Backoff(attempt, iv.cfg.InitialBackoff, iv.cfg.MaxBackoff, iv.cfg.Multiplier, iv.cfg.UseJitter)
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ledger, fmt.Errorf("cascade interrupted: %w", ctx.Err())
				}
			}
		}
	}

	cascErr := &llmerrors.CascadeError{
		Attempts: len(ledger.Attempts),
		Models:   ledger.Models(),
		Last:     lastErr,
	}
	iv.logger.Warn("cascade exhausted",
		"invocation_id", ledger.InvocationID,
		"attempts", cascErr.Attempts,
		"models", cascErr.Models,
		"last_error", lastErr)
	return nil, ledger, cascErr
}
