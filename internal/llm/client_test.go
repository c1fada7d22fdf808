package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-checkmate/internal/configuration"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
	"github.com/ahrav/go-checkmate/internal/llm/transport"
)

// scriptedTransport serves canned HTTP responses in order and records the
// requests it sees.
type scriptedTransport struct {
	responses []*http.Response
	requests  []*http.Request
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

const openAIReply = `{
	"id": "chatcmpl-1",
	"choices": [{"message": {"role": "assistant", "content": "model says hi"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 4, "completion_tokens": 3, "total_tokens": 7}
}`

func newTestClient(t *testing.T, rt *scriptedTransport) Client {
	t.Helper()
	cfg := configuration.DefaultConfig()
	cfg.Providers = map[string]configuration.ProviderConfig{
		"openai": {APIKey: "test-key"},
	}
	cfg.HTTPClient = &http.Client{Transport: rt}
	cfg.Retry = configuration.RetryConfig{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2.0,
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestClient_CompleteInfersProvider(t *testing.T) {
	rt := &scriptedTransport{responses: []*http.Response{jsonResponse(http.StatusOK, openAIReply)}}
	client := newTestClient(t, rt)

	resp, err := client.Complete(context.Background(), &transport.Request{
		Model:     "gpt-4o",
		Prompt:    "hello",
		MaxTokens: 64,
	})
	require.NoError(t, err)

	assert.Equal(t, "model says hi", resp.Content)
	assert.Equal(t, int64(7), resp.Usage.TotalTokens)

	require.Len(t, rt.requests, 1)
	assert.Equal(t, "api.openai.com", rt.requests[0].URL.Host)
	assert.Equal(t, "Bearer test-key", rt.requests[0].Header.Get("Authorization"))
}

func TestClient_RetriesTransientServerError(t *testing.T) {
	rt := &scriptedTransport{responses: []*http.Response{
		jsonResponse(http.StatusServiceUnavailable, `{"error": {"message": "overloaded", "type": "server_error"}}`),
		jsonResponse(http.StatusOK, openAIReply),
	}}
	client := newTestClient(t, rt)

	resp, err := client.Complete(context.Background(), &transport.Request{
		Model:  "gpt-4o",
		Prompt: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "model says hi", resp.Content)
	assert.Len(t, rt.requests, 2)
}

func TestClient_AuthErrorNotRetried(t *testing.T) {
	rt := &scriptedTransport{responses: []*http.Response{
		jsonResponse(http.StatusUnauthorized, `{"error": {"message": "invalid key", "type": "invalid_request_error"}}`),
		jsonResponse(http.StatusOK, openAIReply),
	}}
	client := newTestClient(t, rt)

	_, err := client.Complete(context.Background(), &transport.Request{
		Model:  "gpt-4o",
		Prompt: "hello",
	})
	require.Error(t, err)

	var provErr *llmerrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, llmerrors.ErrorTypeAuth, provErr.Type)
	assert.Len(t, rt.requests, 1)
}

func TestClient_UnroutableModel(t *testing.T) {
	rt := &scriptedTransport{}
	client := newTestClient(t, rt)

	_, err := client.Complete(context.Background(), &transport.Request{
		Model:  "claude-3-5-sonnet-20241022",
		Prompt: "hello",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
	assert.Empty(t, rt.requests)
}
