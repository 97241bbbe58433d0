package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettingai/vetting-go/apimodels"
	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/vetting"
)

// stubProvider replays a fixed sequence of responses.
type stubProvider struct {
	responses []string
	err       error
	calls     int
}

func (p *stubProvider) GenerateResponse(ctx context.Context, messages []vetting.ChatMessage, modelConfig vetting.ModelConfig, systemPrompt string) (string, vetting.Usage, bool, error) {
	if p.err != nil {
		return "", vetting.Usage{}, false, p.err
	}
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	content := p.responses[idx]
	_, safety := vetting.ExtractSafetyPrefix(content)
	return content, vetting.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}, safety, nil
}

func (p *stubProvider) CalculateCost(modelID string, usage vetting.Usage) float64 {
	return 0.001
}

func (p *stubProvider) ModelAliases() map[string]string {
	return map[string]string{"viable-3": "gpt-4o-mini"}
}

func (p *stubProvider) SupportedModels() []string {
	return []string{"gpt-4o-mini", "viable-3"}
}

func newTestServer(t *testing.T, provider vetting.Provider) *Server {
	t.Helper()
	s := &Server{
		cfg: &config.Config{
			Server: config.ServerConfig{WriteTimeout: 30 * time.Second},
			Vetting: config.VettingSettings{
				DefaultProvider:        config.ProviderOpenAI,
				DefaultChatModel:       "gpt-4o-mini",
				MaxAttempts:            3,
				EnableSafetyPrefix:     true,
				EnableEducationalRules: true,
			},
		},
		router:    chi.NewRouter(),
		providers: map[string]vetting.Provider{config.ProviderOpenAI: provider},
	}
	s.setupRoutes()
	return s
}

func postVet(t *testing.T, s *Server, req apimodels.VetRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/vet", bytes.NewReader(body)))
	return rec
}

func decodeVet(t *testing.T, rec *httptest.ResponseRecorder) apimodels.VetResponse {
	t.Helper()
	var resp apimodels.VetResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp apimodels.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, Version, resp.Version)
}

func TestHandleModels(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp apimodels.ModelsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Contains(t, resp.Providers, "openai")
	assert.Contains(t, resp.Providers["openai"].Models, "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", resp.Providers["openai"].Aliases["viable-3"])
}

func TestHandleVetChatMode(t *testing.T) {
	s := newTestServer(t, &stubProvider{responses: []string{"Here is a hint."}})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages:  []apimodels.Message{{Role: "user", Content: "What is 2+2?"}},
		Mode:      "chat",
		SessionID: "session_abc",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeVet(t, rec)
	assert.Equal(t, "Here is a hint.", resp.Content)
	assert.Equal(t, "chat", resp.Mode)
	assert.Equal(t, "NOT_APPLICABLE_CHAT_MODE", resp.StopReason)
	assert.Nil(t, resp.VerificationPassed)
	assert.Equal(t, "session_abc", resp.SessionID)
	assert.Equal(t, "gpt-4o-mini", resp.Metadata.ChatModel)
}

func TestHandleVetVettingModePasses(t *testing.T) {
	provider := &stubProvider{responses: []string{"Think about groups of two.", "PASS - guides without revealing"}}
	s := newTestServer(t, provider)

	rec := postVet(t, s, apimodels.VetRequest{
		Messages: []apimodels.Message{{Role: "user", Content: "What is 2+2?"}},
		ContextItems: []apimodels.ContextItem{{
			Question:  map[string]any{"text": "What is 2+2?"},
			AnswerKey: map[string]any{"correctAnswer": "4"},
		}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeVet(t, rec)
	assert.Equal(t, "vetting", resp.Mode)
	assert.Equal(t, "VERIFICATION_PASSED", resp.StopReason)
	require.NotNil(t, resp.VerificationPassed)
	assert.True(t, *resp.VerificationPassed)
	assert.Equal(t, 1, resp.AttemptCount)
	assert.Equal(t, 2, provider.calls)
	assert.InDelta(t, 0.002, resp.Metadata.TotalCost, 1e-9)
}

func TestHandleVetGeneratesSessionID(t *testing.T) {
	s := newTestServer(t, &stubProvider{responses: []string{"hello"}})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages: []apimodels.Message{{Role: "user", Content: "hi"}},
		Mode:     "chat",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeVet(t, rec)
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleVetUnknownProvider(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages: []apimodels.Message{{Role: "user", Content: "hi"}},
		Provider: "cohere",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVetInvalidBody(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/vet", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVetEmptyMessages(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := postVet(t, s, apimodels.VetRequest{Mode: "chat"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apimodels.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Error)
}

func TestHandleVetInvalidContextItem(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages:     []apimodels.Message{{Role: "user", Content: "hi"}},
		ContextItems: []apimodels.ContextItem{{Question: map[string]any{"no": "text"}}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVetUnknownMode(t *testing.T) {
	s := newTestServer(t, &stubProvider{})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages: []apimodels.Message{{Role: "user", Content: "hi"}},
		Mode:     "review",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVetProviderError(t *testing.T) {
	s := newTestServer(t, &stubProvider{err: errors.New("upstream unavailable")})

	rec := postVet(t, s, apimodels.VetRequest{
		Messages: []apimodels.Message{{Role: "user", Content: "hi"}},
		Mode:     "chat",
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp apimodels.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "upstream unavailable")
}
