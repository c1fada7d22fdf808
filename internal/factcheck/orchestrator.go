package factcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-checkmate/internal/cascade"
	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/llm/circuitbreaker"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/metrics"
	"github.com/ahrav/go-checkmate/internal/protocol"
	"github.com/ahrav/go-checkmate/internal/tracker"
)

// scoreScale converts the protocol's 0-100 score to the [0,1] response range.
const scoreScale = 100.0

// Invoker drives one multi-model cascade. Implemented by cascade.Invoker.
type Invoker interface {
	Do(ctx context.Context, candidates []cascade.Candidate, prompt string) (*protocol.Result, *cascade.Ledger, error)
}

// Orchestrator runs fact-check invocations: validate, build the sanitized
// prompt, resolve candidates, and drive the breaker-gated cascade. The
// breaker wraps the whole cascade for a call, not individual attempts, so
// one exhausted cascade counts as one failure against the operation class.
type Orchestrator struct {
	invoker  Invoker
	breakers *circuitbreaker.Registry
	tracker  tracker.Tracker
	cfg      configuration.FactCheckConfig
	logger   *slog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(inv Invoker, breakers *circuitbreaker.Registry, trk tracker.Tracker, cfg configuration.FactCheckConfig) *Orchestrator {
	if trk == nil {
		trk = tracker.NewLogTracker(nil)
	}
	return &Orchestrator{
		invoker:  inv,
		breakers: breakers,
		tracker:  trk,
		cfg:      cfg,
		logger:   slog.Default().With("component", "factcheck"),
	}
}

// Check runs one fact-check invocation under the given operation class.
// Either a fully validated result comes back or a terminal error; there are
// no partial results. The attempt ledger goes to the error tracker on
// exhaustion and never to the caller.
func (o *Orchestrator) Check(ctx context.Context, class string, req *Request) (*Response, error) {
	if err := validate(req, o.maxClaimChars()); err != nil {
		return nil, err
	}

	prompt := protocol.BuildPrompt(promptInput(req))
	candidates := o.resolveCandidates(req)

	// An abandoned caller must not abort an in-flight model call: the
	// cascade runs on a detached context and the result is simply discarded
	// by the caller's layer.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	var (
		result *protocol.Result
		ledger *cascade.Ledger
	)
	err := o.breakers.Get(class).Execute(ctx, func(ctx context.Context) error {
		var doErr error
		result, ledger, doErr = o.invoker.Do(ctx, candidates, prompt)
		return doErr
	})
	metrics.CascadeDuration.WithLabelValues(class).Observe(time.Since(start).Seconds())

	if err != nil {
		var cascErr *llmerrors.CascadeError
		if errors.As(err, &cascErr) && ledger != nil {
			metrics.CascadesExhausted.WithLabelValues(class).Inc()
			o.tracker.ReportCascadeFailure(ctx, class, ledger, err)
		}
		return nil, err
	}

	resp := &Response{
		Score:   float64(result.Score) / scoreScale,
		Explain: composeExplain(result),
	}
	if req.IncludeRaw {
		resp.Raw = result
	}
	return resp, nil
}

// maxClaimChars applies the configured bound with the stock default.
func (o *Orchestrator) maxClaimChars() int {
	if o.cfg.MaxClaimChars > 0 {
		return o.cfg.MaxClaimChars
	}
	return configuration.DefaultMaxClaimChars
}

// resolveCandidates returns the ordered fallback list for this request:
// the configured ranked candidates, or a single pinned candidate when the
// caller names a model. A pinned model outside the candidate table is
// still attempted as a single-candidate list with stock tuning.
func (o *Orchestrator) resolveCandidates(req *Request) []cascade.Candidate {
	if req.Model != "" {
		for _, c := range o.cfg.Candidates {
			if c.Model == req.Model {
				return []cascade.Candidate{o.candidate(c, req.MaxTokens)}
			}
		}
		return []cascade.Candidate{{
			Model:     req.Model,
			MaxTokens: tokensOrDefault(req.MaxTokens, configuration.DefaultMaxTokens),
			Timeout:   configuration.DefaultAttemptTimeout,
		}}
	}

	candidates := make([]cascade.Candidate, 0, len(o.cfg.Candidates))
	for _, c := range o.cfg.Candidates {
		candidates = append(candidates, o.candidate(c, req.MaxTokens))
	}
	return candidates
}

// candidate maps a configured candidate, honoring a per-request token
// override.
func (o *Orchestrator) candidate(c configuration.CandidateConfig, maxTokens int64) cascade.Candidate {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = configuration.DefaultAttemptTimeout
	}
	return cascade.Candidate{
		Model:     c.Model,
		MaxTokens: tokensOrDefault(maxTokens, c.MaxTokens),
		Timeout:   timeout,
	}
}

func tokensOrDefault(override, fallback int64) int64 {
	if override > 0 {
		return override
	}
	if fallback > 0 {
		return fallback
	}
	return configuration.DefaultMaxTokens
}

// composeExplain renders the human-readable explanation from the truth and
// resource analyses, annotated with the model's confidence and score.
func composeExplain(r *protocol.Result) string {
	return fmt.Sprintf("%s\n\nEvidence: %s\n\n(confidence %d/100, score %d/100)",
		r.TruthAnalysis, r.ResourceAnalysis, r.Confidence, r.Score)
}
