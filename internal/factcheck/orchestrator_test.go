package factcheck

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-checkmate/internal/cascade"
	"github.com/ahrav/go-checkmate/internal/configuration"
	"github.com/ahrav/go-checkmate/internal/llm/circuitbreaker"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/protocol"
)

// stubInvoker returns a canned result or error and records the inputs it
// was handed.
type stubInvoker struct {
	result     *protocol.Result
	ledger     *cascade.Ledger
	err        error
	calls      int
	candidates []cascade.Candidate
	prompt     string
}

func (s *stubInvoker) Do(ctx context.Context, candidates []cascade.Candidate, prompt string) (*protocol.Result, *cascade.Ledger, error) {
	s.calls++
	s.candidates = candidates
	s.prompt = prompt
	ledger := s.ledger
	if ledger == nil {
		ledger = cascade.NewLedger()
	}
	return s.result, ledger, s.err
}

// recordingTracker captures cascade failure reports.
type recordingTracker struct {
	class  string
	ledger *cascade.Ledger
	err    error
	calls  int
}

func (r *recordingTracker) ReportCascadeFailure(ctx context.Context, class string, ledger *cascade.Ledger, err error) {
	r.calls++
	r.class = class
	r.ledger = ledger
	r.err = err
}

func goodResult() *protocol.Result {
	return &protocol.Result{
		ResourceAnalysis: "Two primary sources agree.",
		TruthAnalysis:    "The claim holds.",
		Confidence:       90,
		Score:            85,
	}
}

func testFactCheckConfig() configuration.FactCheckConfig {
	return configuration.FactCheckConfig{
		Candidates: []configuration.CandidateConfig{
			{Model: "model-a", MaxTokens: 1024, Timeout: time.Second},
			{Model: "model-b", MaxTokens: 2048, Timeout: time.Second},
		},
		MaxClaimChars: 100,
		Temperature:   0.1,
	}
}

func newTestOrchestrator(inv Invoker, trk *recordingTracker) (*Orchestrator, *circuitbreaker.Registry) {
	breakers := circuitbreaker.NewRegistry(map[string]configuration.BreakerConfig{
		configuration.ClassFactCheck: {FailureThreshold: 2, OpenTimeout: time.Minute},
	})
	return NewOrchestrator(inv, breakers, trk, testFactCheckConfig()), breakers
}

func TestCheck_ScoreMapping(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	resp, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "the sky is blue"})
	require.NoError(t, err)

	assert.Equal(t, 0.85, resp.Score)
	assert.Contains(t, resp.Explain, "The claim holds.")
	assert.Contains(t, resp.Explain, "Evidence: Two primary sources agree.")
	assert.Contains(t, resp.Explain, "confidence 90/100")
	assert.Nil(t, resp.Raw)
}

func TestCheck_IncludeRaw(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	resp, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim:      "the sky is blue",
		IncludeRaw: true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Raw)
	assert.Equal(t, 85, resp.Raw.Score)
}

func TestCheck_ValidationRejectsBeforeInvoking(t *testing.T) {
	tests := []struct {
		name      string
		req       *Request
		wantField string
	}{
		{
			name:      "empty_claim",
			req:       &Request{Claim: "   "},
			wantField: "claim",
		},
		{
			name:      "claim_over_limit",
			req:       &Request{Claim: strings.Repeat("x", 101)},
			wantField: "claim",
		},
		{
			name: "conversation_without_generated_turn",
			req: &Request{
				Messages: []Message{{Role: "user", Content: "hello"}},
			},
			wantField: "messages",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &stubInvoker{result: goodResult()}
			o, _ := newTestOrchestrator(inv, &recordingTracker{})

			_, err := o.Check(context.Background(), configuration.ClassFactCheck, tt.req)
			require.Error(t, err)
			assert.True(t, llmerrors.IsValidation(err))

			var valErr *llmerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantField, valErr.Field)

			// No model was contacted.
			assert.Zero(t, inv.calls)
		})
	}
}

func TestCheck_StockClaimLengthBound(t *testing.T) {
	cfg := testFactCheckConfig()
	cfg.MaxClaimChars = 0 // Stock bound applies when unconfigured.
	inv := &stubInvoker{result: goodResult()}
	o := NewOrchestrator(inv, circuitbreaker.NewRegistry(nil), &recordingTracker{}, cfg)

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim: strings.Repeat("x", configuration.DefaultMaxClaimChars),
	})
	require.NoError(t, err)

	_, err = o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim: strings.Repeat("x", configuration.DefaultMaxClaimChars+1),
	})
	require.Error(t, err)
	assert.True(t, llmerrors.IsValidation(err))
	assert.Equal(t, 1, inv.calls)
}

func TestCheck_DefaultCandidateList(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "x"})
	require.NoError(t, err)

	require.Len(t, inv.candidates, 2)
	assert.Equal(t, "model-a", inv.candidates[0].Model)
	assert.Equal(t, "model-b", inv.candidates[1].Model)
	assert.Equal(t, int64(1024), inv.candidates[0].MaxTokens)
}

func TestCheck_PinnedModelDisablesFallback(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim: "x",
		Model: "model-b",
	})
	require.NoError(t, err)

	require.Len(t, inv.candidates, 1)
	assert.Equal(t, "model-b", inv.candidates[0].Model)
	assert.Equal(t, int64(2048), inv.candidates[0].MaxTokens)
}

func TestCheck_PinnedUnknownModelStillAttempted(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim: "x",
		Model: "experimental-model",
	})
	require.NoError(t, err)

	require.Len(t, inv.candidates, 1)
	assert.Equal(t, "experimental-model", inv.candidates[0].Model)
	assert.Equal(t, int64(configuration.DefaultMaxTokens), inv.candidates[0].MaxTokens)
	assert.Equal(t, configuration.DefaultAttemptTimeout, inv.candidates[0].Timeout)
}

func TestCheck_MaxTokensOverride(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim:     "x",
		MaxTokens: 256,
	})
	require.NoError(t, err)

	for _, c := range inv.candidates {
		assert.Equal(t, int64(256), c.MaxTokens)
	}
}

func TestCheck_ExhaustionReportsToTracker(t *testing.T) {
	ledger := cascade.NewLedger()
	ledger.Record(cascade.Attempt{Model: "model-a", ErrMessage: "boom"})
	cascErr := &llmerrors.CascadeError{Attempts: 1, Models: []string{"model-a"}}

	trk := &recordingTracker{}
	inv := &stubInvoker{ledger: ledger, err: cascErr}
	o, _ := newTestOrchestrator(inv, trk)

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrCascadeExhausted)

	require.Equal(t, 1, trk.calls)
	assert.Equal(t, configuration.ClassFactCheck, trk.class)
	assert.Same(t, ledger, trk.ledger)
}

func TestCheck_BreakerOpensAfterRepeatedExhaustion(t *testing.T) {
	cascErr := &llmerrors.CascadeError{Attempts: 2, Models: []string{"model-a"}}
	trk := &recordingTracker{}
	inv := &stubInvoker{ledger: cascade.NewLedger(), err: cascErr}
	o, breakers := newTestOrchestrator(inv, trk)

	// Threshold is 2 for the factcheck class.
	for i := 0; i < 2; i++ {
		_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "x"})
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breakers.Get(configuration.ClassFactCheck).State())

	// The next call fails fast without driving the cascade.
	before := inv.calls
	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "x"})
	require.Error(t, err)
	assert.True(t, llmerrors.IsCircuitOpen(err))
	assert.Equal(t, before, inv.calls)
	// Fail-fast rejections are not cascade failures; the tracker saw only
	// the real exhaustions.
	assert.Equal(t, 2, trk.calls)
}

func TestCheck_ClassesIsolateFailures(t *testing.T) {
	cascErr := &llmerrors.CascadeError{Attempts: 2, Models: []string{"model-a"}}
	inv := &stubInvoker{ledger: cascade.NewLedger(), err: cascErr}
	o, breakers := newTestOrchestrator(inv, &recordingTracker{})

	for i := 0; i < 2; i++ {
		_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{Claim: "x"})
		require.Error(t, err)
	}
	require.Equal(t, circuitbreaker.StateOpen, breakers.Get(configuration.ClassFactCheck).State())

	// The quick class is untouched and still drives the cascade.
	inv.err = nil
	inv.result = goodResult()
	resp, err := o.Check(context.Background(), configuration.ClassFactCheckQuick, &Request{Claim: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0.85, resp.Score)
}

func TestCheck_PromptCarriesClaim(t *testing.T) {
	inv := &stubInvoker{result: goodResult()}
	o, _ := newTestOrchestrator(inv, &recordingTracker{})

	_, err := o.Check(context.Background(), configuration.ClassFactCheck, &Request{
		Claim:       "water is wet",
		Instruction: "be strict",
	})
	require.NoError(t, err)

	assert.Contains(t, inv.prompt, "water is wet")
	assert.Contains(t, inv.prompt, "be strict")
	assert.Contains(t, inv.prompt, "<CLAIM>")
	assert.Contains(t, inv.prompt, "<INSTRUCTION>")
}
