package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vettingai/vetting-go/apimodels"
	"github.com/vettingai/vetting-go/internal/vetting"
)

func (s *Server) handleVet(w http.ResponseWriter, r *http.Request) {
	var req apimodels.VetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	defer r.Body.Close()

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	providerName := req.Provider
	if providerName == "" {
		providerName = s.cfg.Vetting.DefaultProvider
	}
	provider, ok := s.providers[providerName]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("provider %q is not configured", providerName))
		return
	}

	cfg, err := s.buildConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	messages := toChatMessages(req.Messages)

	slog.Debug("received vet request", "sessionId", req.SessionID, "mode", cfg.Mode, "provider", providerName)

	framework := vetting.New(provider, nil)
	result, err := framework.Process(r.Context(), messages, cfg)
	if err != nil {
		slog.Error("vet request failed", "sessionId", req.SessionID, "error", err)
		if errors.Is(err, vetting.ErrValidation) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, toVetResponse(result))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.HealthResponse{Status: "ok", Version: Version})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	resp := apimodels.ModelsResponse{Providers: make(map[string]apimodels.ProviderModels)}
	for name, provider := range s.providers {
		resp.Providers[name] = apimodels.ProviderModels{
			Models:  provider.SupportedModels(),
			Aliases: provider.ModelAliases(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// buildConfig maps request fields onto a vetting config, applying service
// defaults for anything the request leaves out.
func (s *Server) buildConfig(req apimodels.VetRequest) (vetting.VettingConfig, error) {
	mode := vetting.ModeVetting
	if req.Mode != "" {
		mode = vetting.Mode(req.Mode)
	}
	if mode != vetting.ModeChat && mode != vetting.ModeVetting {
		return vetting.VettingConfig{}, fmt.Errorf("%w: unknown mode %q", vetting.ErrValidation, req.Mode)
	}

	chatModelID := req.Options.ChatModel
	if chatModelID == "" {
		chatModelID = s.cfg.Vetting.DefaultChatModel
	}
	chatModel := vetting.DefaultModelConfig(chatModelID)
	if req.Options.Temperature != nil {
		chatModel.Temperature = *req.Options.Temperature
	}
	if req.Options.MaxTokens > 0 {
		chatModel.MaxTokens = req.Options.MaxTokens
	}

	cfg := vetting.VettingConfig{
		Mode:                   mode,
		ChatModel:              chatModel,
		MaxAttempts:            s.cfg.Vetting.MaxAttempts,
		EnableSafetyPrefix:     s.cfg.Vetting.EnableSafetyPrefix,
		EnableEducationalRules: s.cfg.Vetting.EnableEducationalRules,
		SessionID:              req.SessionID,
		UserID:                 req.UserID,
	}
	if req.Options.VerificationModel != "" {
		derived := vetting.DefaultModelConfig(req.Options.VerificationModel)
		cfg.VerificationModel = &derived
	}
	if req.Options.MaxAttempts > 0 {
		cfg.MaxAttempts = req.Options.MaxAttempts
	}
	if req.Options.EnableSafetyPrefix != nil {
		cfg.EnableSafetyPrefix = *req.Options.EnableSafetyPrefix
	}
	if req.Options.EnableEducationalRules != nil {
		cfg.EnableEducationalRules = *req.Options.EnableEducationalRules
	}

	for _, item := range req.ContextItems {
		ci, err := vetting.NewContextItem(item.Question, item.AnswerKey)
		if err != nil {
			return vetting.VettingConfig{}, err
		}
		cfg.ContextItems = append(cfg.ContextItems, ci)
	}
	return cfg, nil
}

func toChatMessages(messages []apimodels.Message) []vetting.ChatMessage {
	out := make([]vetting.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, vetting.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toVetResponse(result *vetting.VettingResponse) apimodels.VetResponse {
	resp := apimodels.VetResponse{
		Content:            result.Content,
		Mode:               string(result.Mode),
		StopReason:         string(result.StopReason),
		VerificationPassed: result.VerificationPassed,
		RequiresAttention:  result.RequiresAttention,
		AttemptCount:       result.AttemptCount,
		Metadata: apimodels.VetMetadata{
			Duration:          fmt.Sprintf("%.1fms", result.ProcessingTimeMs),
			ChatModel:         result.ChatModelUsed,
			VerificationModel: result.VerificationModelUsed,
			TotalCost:         result.TotalCost,
			TotalUsage:        toUsage(result.TotalUsage),
		},
		SessionID: result.SessionID,
		UserID:    result.UserID,
	}
	for _, a := range result.Attempts {
		resp.Attempts = append(resp.Attempts, apimodels.Attempt{
			ChatResponse:       a.ChatResponse,
			VerificationOutput: a.VerificationOutput,
			VerificationPassed: a.VerificationPassed,
			ChatUsage:          toUsage(a.ChatUsage),
			VerificationUsage:  toUsage(a.VerificationUsage),
			ChatCost:           a.ChatCost,
			VerificationCost:   a.VerificationCost,
		})
	}
	return resp
}

func toUsage(u vetting.Usage) apimodels.Usage {
	return apimodels.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apimodels.ErrorResponse{Error: err.Error()})
}
