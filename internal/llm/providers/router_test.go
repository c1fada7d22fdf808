package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-checkmate/internal/configuration"
	llmerrors "github.com/ahrav/go-checkmate/internal/llm/errors"
)

func testProviderConfigs() map[string]configuration.ProviderConfig {
	return map[string]configuration.ProviderConfig{
		ProviderOpenAI:    {APIKey: "test-key"},
		ProviderAnthropic: {APIKey: "test-key"},
		ProviderGoogle:    {APIKey: "test-key"},
	}
}

func TestInferProvider(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{model: "gpt-4o", want: ProviderOpenAI},
		{model: "GPT-4o-mini", want: ProviderOpenAI},
		{model: "o1-preview", want: ProviderOpenAI},
		{model: "o3-mini", want: ProviderOpenAI},
		{model: "claude-3-5-sonnet-20241022", want: ProviderAnthropic},
		{model: "gemini-1.5-pro", want: ProviderGoogle},
		{model: "llama-3-70b", want: ""},
		{model: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, InferProvider(tt.model))
		})
	}
}

func TestNewRouter_RejectsUnknownProvider(t *testing.T) {
	_, err := NewRouter(map[string]configuration.ProviderConfig{
		"mystery": {APIKey: "k"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}

func TestRouter_PickByProviderName(t *testing.T) {
	r, err := NewRouter(testProviderConfigs())
	require.NoError(t, err)

	adapter, err := r.Pick(ProviderAnthropic, "claude-3-5-sonnet-20241022")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, adapter.Name())
}

func TestRouter_PickInfersFromModel(t *testing.T) {
	r, err := NewRouter(testProviderConfigs())
	require.NoError(t, err)

	adapter, err := r.Pick("", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, adapter.Name())
}

func TestRouter_PickUnknownModel(t *testing.T) {
	r, err := NewRouter(testProviderConfigs())
	require.NoError(t, err)

	_, err = r.Pick("", "llama-3-70b")
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}

func TestRouter_UnconfiguredProviderIsUnknown(t *testing.T) {
	r, err := NewRouter(map[string]configuration.ProviderConfig{
		ProviderOpenAI: {APIKey: "k"},
	})
	require.NoError(t, err)

	_, err = r.Pick("", "claude-3-5-sonnet-20241022")
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}
