// Package factcheck composes the circuit breaker, the model cascade, and
// the structured response protocol into the fact-check operation: one
// validated claim in, one normalized score and explanation out.
package factcheck

import (
	"strings"

	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/protocol"
)

// Message is one conversation turn in a conversation-form request.
// Generated marks the turns to fact-check; the rest are context only.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Generated bool   `json:"generated,omitempty"`
}

// Request is a fact-check invocation. Claim is required in simple form;
// conversation form additionally carries the turns, of which the generated
// ones are evaluated.
type Request struct {
	Claim       string    `json:"claim"`
	Instruction string    `json:"instruction,omitempty"`
	Messages    []Message `json:"messages,omitempty"`
	Model       string    `json:"modelId,omitempty"`
	MaxTokens   int64     `json:"maxTokens,omitempty"`
	IncludeRaw  bool      `json:"includeRaw,omitempty"`
}

// Response is the normalized fact-check outcome. Score maps the model's
// 0-100 score onto [0,1]; Raw carries the structured sections when the
// caller asked for them.
type Response struct {
	Score   float64          `json:"score"`
	Explain string           `json:"explain"`
	Raw     *protocol.Result `json:"raw,omitempty"`
}

// validate enforces request invariants before any model is contacted.
func validate(req *Request, maxClaimChars int) error {
	if strings.TrimSpace(req.Claim) == "" && len(req.Messages) == 0 {
		return &llmerrors.ValidationError{Field: "claim", Message: "claim is required"}
	}
	if len(req.Claim) > maxClaimChars {
		return &llmerrors.ValidationError{
			Field:   "claim",
			Message: "claim exceeds maximum length",
		}
	}
	if len(req.Messages) > 0 {
		generated := 0
		for _, m := range req.Messages {
			if m.Generated {
				generated++
			}
		}
		if generated == 0 {
			return &llmerrors.ValidationError{
				Field:   "messages",
				Message: "conversation form requires at least one generated turn to evaluate",
			}
		}
	}
	return nil
}

// promptInput converts the request into protocol input.
func promptInput(req *Request) protocol.Input {
	in := protocol.Input{
		Claim:       req.Claim,
		Instruction: req.Instruction,
	}
	for _, m := range req.Messages {
		in.Messages = append(in.Messages, protocol.Message{
			Role:      m.Role,
			Content:   m.Content,
			Generated: m.Generated,
		})
	}
	return in
}
