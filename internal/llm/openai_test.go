package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/vetting"
)

func testUsage() vetting.Usage {
	return vetting.Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500}
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAI(config.ProviderConfig{Type: config.ProviderOpenAI})
	require.Error(t, err)
}

func TestOpenAIModelAliases(t *testing.T) {
	provider, err := NewOpenAI(config.ProviderConfig{APIKey: "sk-test123"})
	require.NoError(t, err)

	aliases := provider.ModelAliases()
	assert.Equal(t, "gpt-4o-mini", aliases["viable-3"])
}

func TestOpenAICalculateCost(t *testing.T) {
	provider, err := NewOpenAI(config.ProviderConfig{APIKey: "sk-test123"})
	require.NoError(t, err)

	cost := provider.CalculateCost("gpt-4o-mini", testUsage())
	assert.Greater(t, cost, 0.0)
	// 1000 prompt tokens at $0.15/M plus 500 completion tokens at $0.60/M.
	assert.InDelta(t, 0.00045, cost, 1e-9)

	// Aliases price the same as their canonical model.
	assert.Equal(t, cost, provider.CalculateCost("viable-3", testUsage()))
}

func TestOpenAICalculateCostUnknownModelFallsBack(t *testing.T) {
	provider, err := NewOpenAI(config.ProviderConfig{APIKey: "sk-test123"})
	require.NoError(t, err)

	cost := provider.CalculateCost("unknown-model", testUsage())
	assert.Greater(t, cost, 0.0)
}

func TestOpenAISupportedModels(t *testing.T) {
	provider, err := NewOpenAI(config.ProviderConfig{APIKey: "sk-test123"})
	require.NoError(t, err)

	models := provider.SupportedModels()
	assert.Contains(t, models, "gpt-4o-mini")
	assert.Contains(t, models, "gpt-4")
	assert.Contains(t, models, "viable-3")
}

func TestOpenAIGenerateResponse(t *testing.T) {
	mockResponse := `{
  "id": "chatcmpl-test",
  "object": "chat.completion",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "Let's think about it together."}, "finish_reason": "stop"}
  ],
  "usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mockResponse))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(config.ProviderConfig{APIKey: "sk-test123", BaseURL: ts.URL + "/"})
	require.NoError(t, err)

	messages := []vetting.ChatMessage{{Role: vetting.RoleUser, Content: "What is 2+2?"}}
	content, usage, safety, err := provider.GenerateResponse(context.Background(), messages, vetting.DefaultModelConfig("gpt-4o-mini"), "You are helpful.")
	require.NoError(t, err)

	assert.Equal(t, "Let's think about it together.", content)
	assert.Equal(t, 150, usage.TotalTokens)
	assert.False(t, safety)
}

func TestNewProviderFactory(t *testing.T) {
	base := config.ProviderConfig{APIKey: "test-key"}

	for _, providerType := range []string{config.ProviderOpenAI, config.ProviderClaude, config.ProviderGemini} {
		cfg := base
		cfg.Type = providerType
		provider, err := NewProvider(cfg)
		require.NoError(t, err, providerType)
		assert.NotNil(t, provider)
	}

	base.Type = "cohere"
	_, err := NewProvider(base)
	require.Error(t, err)
}
