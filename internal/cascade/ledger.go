// Package cascade implements the resilient multi-model invoker: ordered
// fallback across ranked candidates, per-model retry with backoff, and an
// append-only attempt ledger that is the primary debugging surface for
// swallowed attempt errors.
package cascade

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-checkmate/internal/protocol"
)

// promptInlineLimit is the prompt length above which ledger entries carry a
// digest instead of the full text.
const promptInlineLimit = 256

// responseSampleLen bounds the raw-response sample stored per attempt.
const responseSampleLen = 200

// Candidate is one ranked fallback model. The ordered candidate list
// defines fallback priority and is immutable for the invocation.
type Candidate struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Attempt records one try against one model. Entries are append-only,
// owned by a single invocation, and never shared across concurrent
// requests.
type Attempt struct {
	Number         int              `json:"number"`
	Model          string           `json:"model"`
	Timestamp      time.Time        `json:"timestamp"`
	PromptDigest   string           `json:"prompt_digest"`
	ResponseSample string           `json:"response_sample,omitempty"`
	ErrMessage     string           `json:"error,omitempty"`
	ParseOK        bool             `json:"parse_ok"`
	Result         *protocol.Result `json:"result,omitempty"`
}

// Ledger is the per-invocation diagnostic record of every attempt. It
// exists only for telemetry: on exhaustion it travels to the error-tracking
// collaborator, and it is discarded once the invocation returns.
type Ledger struct {
	InvocationID string    `json:"invocation_id"`
	Attempts     []Attempt `json:"attempts"`
}

// NewLedger creates an empty ledger with a fresh invocation id.
func NewLedger() *Ledger {
	return &Ledger{InvocationID: uuid.NewString()}
}

// Record appends an attempt, assigning its 1-based sequence number.
func (l *Ledger) Record(a Attempt) {
	a.Number = len(l.Attempts) + 1
	l.Attempts = append(l.Attempts, a)
}

// Models returns the distinct models tried, in first-attempt order.
func (l *Ledger) Models() []string {
	seen := make(map[string]bool, len(l.Attempts))
	var models []string
	for _, a := range l.Attempts {
		if !seen[a.Model] {
			seen[a.Model] = true
			models = append(models, a.Model)
		}
	}
	return models
}

// promptDigest stores short prompts verbatim and long ones as a sha256
// prefix with the original length, keeping ledger entries bounded.
func promptDigest(prompt string) string {
	if len(prompt) <= promptInlineLimit {
		return prompt
	}
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("sha256:%x (%d chars)", sum[:12], len(prompt))
}

// responseSample truncates raw model output for ledger storage.
func responseSample(content string) string {
	if len(content) > responseSampleLen {
		return content[:responseSampleLen]
	}
	return content
}
