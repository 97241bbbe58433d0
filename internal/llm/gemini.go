package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/vetting"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

var geminiAliases = map[string]string{
	"gemini-pro":   "gemini-1.0-pro",
	"gemini-flash": "gemini-1.5-flash",
}

var geminiPricing = map[string]modelPricing{
	"gemini-1.5-flash": {InputPerMtok: 0.075, OutputPerMtok: 0.30},
	"gemini-1.5-pro":   {InputPerMtok: 1.25, OutputPerMtok: 5.00},
	"gemini-1.0-pro":   {InputPerMtok: 0.50, OutputPerMtok: 1.50},
}

var geminiDefaultPricing = modelPricing{InputPerMtok: 0.50, OutputPerMtok: 1.50}

// Gemini adapts the generateContent REST API. Gemini has no system role and
// calls the assistant role "model", so the system prompt is prepended as an
// instructions turn and roles are remapped during conversion.
type Gemini struct {
	apiKey     string
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

func NewGemini(cfg config.ProviderConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key cannot be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            *float64 `json:"topP,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Gemini) GenerateResponse(ctx context.Context, messages []vetting.ChatMessage, modelConfig vetting.ModelConfig, systemPrompt string) (string, vetting.Usage, bool, error) {
	reqBody := geminiRequest{
		Contents: toGeminiContents(messages, systemPrompt),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     modelConfig.Temperature,
			MaxOutputTokens: modelConfig.MaxTokens,
			TopP:            modelConfig.TopP,
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.resolveModel(modelConfig.ModelID))
	var parsed geminiResponse
	if err := g.post(ctx, path, reqBody, &parsed); err != nil {
		return "", vetting.Usage{}, false, err
	}
	if parsed.Error != nil {
		return "", vetting.Usage{}, false, fmt.Errorf("gemini api error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	content := ""
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			content += part.Text
		}
	}
	usage := vetting.Usage{
		PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
		CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
	}

	_, safetyTriggered := vetting.ExtractSafetyPrefix(content)
	return content, usage, safetyTriggered, nil
}

func (g *Gemini) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal gemini request: %w", err)
	}
	url := fmt.Sprintf("%s%s?key=%s", g.baseURL, path, g.apiKey)

	attempts := g.maxRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = err
			slog.Warn("gemini request failed", "attempt", i+1, "error", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("gemini api returned status %d", resp.StatusCode)
			slog.Warn("gemini request retriable failure", "attempt", i+1, "status", resp.StatusCode)
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			var apiErr geminiResponse
			_ = json.NewDecoder(resp.Body).Decode(&apiErr)
			if apiErr.Error != nil {
				return fmt.Errorf("gemini api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
			}
			return fmt.Errorf("gemini api returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return fmt.Errorf("gemini unreachable after %d attempts: %w", attempts, lastErr)
}

func (g *Gemini) CalculateCost(modelID string, usage vetting.Usage) float64 {
	resolved := g.resolveModel(modelID)
	return lookupPricing(geminiPricing, geminiDefaultPricing, resolved).cost(usage)
}

func (g *Gemini) ModelAliases() map[string]string {
	return geminiAliases
}

func (g *Gemini) SupportedModels() []string {
	return supportedModels(geminiPricing, geminiAliases)
}

func (g *Gemini) resolveModel(modelID string) string {
	return resolveAlias(geminiAliases, modelID)
}

// toGeminiContents remaps roles for the Gemini wire format. The system
// prompt becomes a leading instructions turn because the API has no system
// role of its own.
func toGeminiContents(messages []vetting.ChatMessage, systemPrompt string) []geminiContent {
	out := make([]geminiContent, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: "System Instructions:\n" + systemPrompt}},
		})
	}
	for _, msg := range vetting.RemoveSystemMessages(messages) {
		role := "user"
		if msg.Role == vetting.RoleAssistant {
			role = "model"
		}
		out = append(out, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
	}
	return out
}
