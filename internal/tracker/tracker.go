// Package tracker is the boundary to the external error-tracking
// collaborator. The full attempt ledger crosses this boundary and nothing
// else: callers of the HTTP API only ever see the stable terminal message.
package tracker

import (
	"context"
	"log/slog"

	"github.com/ahrav/go-checkmate/internal/cascade"
)

// Tracker receives terminal cascade failures with their full diagnostic
// payload.
type Tracker interface {
	ReportCascadeFailure(ctx context.Context, class string, ledger *cascade.Ledger, err error)
}

// LogTracker reports failures through structured logging, one record per
// attempt. It is the default implementation when no external tracking
// service is wired.
type LogTracker struct {
	logger *slog.Logger
}

// NewLogTracker creates a tracker backed by the given logger.
func NewLogTracker(logger *slog.Logger) *LogTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTracker{logger: logger.With("component", "tracker")}
}

// ReportCascadeFailure logs the terminal error and every ledger entry.
func (t *LogTracker) ReportCascadeFailure(ctx context.Context, class string, ledger *cascade.Ledger, err error) {
	t.logger.ErrorContext(ctx, "fact check cascade failed",
		"class", class,
		"invocation_id", ledger.InvocationID,
		"attempts", len(ledger.Attempts),
		"error", err)

	for _, a := range ledger.Attempts {
		t.logger.ErrorContext(ctx, "cascade attempt",
			"invocation_id", ledger.InvocationID,
			"attempt", a.Number,
			"model", a.Model,
			"timestamp", a.Timestamp,
			"prompt", a.PromptDigest,
			"response_sample", a.ResponseSample,
			"parse_ok", a.ParseOK,
			"error", a.ErrMessage)
	}
}

// NoopTracker discards all reports. Useful in tests.
type NoopTracker struct{}

// ReportCascadeFailure implements Tracker.
func (NoopTracker) ReportCascadeFailure(context.Context, string, *cascade.Ledger, error) {}
