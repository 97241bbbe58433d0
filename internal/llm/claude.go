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

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	claudeAPIVersion     = "2023-06-01"
)

var claudeAliases = map[string]string{
	"claude-sonnet": "claude-3-5-sonnet-20241022",
	"claude-haiku":  "claude-3-haiku-20240307",
	"claude-opus":   "claude-3-opus-20240229",
}

var claudePricing = map[string]modelPricing{
	"claude-3-5-sonnet-20241022": {InputPerMtok: 3.00, OutputPerMtok: 15.00},
	"claude-3-haiku-20240307":    {InputPerMtok: 0.25, OutputPerMtok: 1.25},
	"claude-3-opus-20240229":     {InputPerMtok: 15.00, OutputPerMtok: 75.00},
}

var claudeDefaultPricing = modelPricing{InputPerMtok: 3.00, OutputPerMtok: 15.00}

// Claude adapts the Anthropic Messages REST API. The API takes the system
// prompt as a top-level field and requires strictly alternating user and
// assistant turns, so conversion filters system messages and merges
// consecutive same-role messages.
type Claude struct {
	apiKey     string
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

func NewClaude(cfg config.ProviderConfig) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude api key cannot be empty")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Claude{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	TopP        *float64        `json:"top_p,omitempty"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Claude) GenerateResponse(ctx context.Context, messages []vetting.ChatMessage, modelConfig vetting.ModelConfig, systemPrompt string) (string, vetting.Usage, bool, error) {
	reqBody := claudeRequest{
		Model:       c.resolveModel(modelConfig.ModelID),
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
		System:      systemPrompt,
		Messages:    toClaudeMessages(messages),
	}

	var parsed claudeResponse
	if err := c.post(ctx, "/v1/messages", reqBody, &parsed); err != nil {
		return "", vetting.Usage{}, false, err
	}
	if parsed.Error != nil {
		return "", vetting.Usage{}, false, fmt.Errorf("claude api error: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	content := ""
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	usage := vetting.Usage{
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
		TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
	}

	_, safetyTriggered := vetting.ExtractSafetyPrefix(content)
	return content, usage, safetyTriggered, nil
}

func (c *Claude) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal claude request: %w", err)
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", claudeAPIVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			slog.Warn("claude request failed", "attempt", i+1, "error", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("claude api returned status %d", resp.StatusCode)
			slog.Warn("claude request retriable failure", "attempt", i+1, "status", resp.StatusCode)
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			var apiErr claudeResponse
			_ = json.NewDecoder(resp.Body).Decode(&apiErr)
			if apiErr.Error != nil {
				return fmt.Errorf("claude api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
			}
			return fmt.Errorf("claude api returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return fmt.Errorf("claude unreachable after %d attempts: %w", attempts, lastErr)
}

func (c *Claude) CalculateCost(modelID string, usage vetting.Usage) float64 {
	resolved := c.resolveModel(modelID)
	return lookupPricing(claudePricing, claudeDefaultPricing, resolved).cost(usage)
}

func (c *Claude) ModelAliases() map[string]string {
	return claudeAliases
}

func (c *Claude) SupportedModels() []string {
	return supportedModels(claudePricing, claudeAliases)
}

func (c *Claude) resolveModel(modelID string) string {
	return resolveAlias(claudeAliases, modelID)
}

// toClaudeMessages drops system messages (the system prompt travels out of
// band) and merges consecutive same-role turns into one.
func toClaudeMessages(messages []vetting.ChatMessage) []claudeMessage {
	out := make([]claudeMessage, 0, len(messages))
	for _, msg := range vetting.RemoveSystemMessages(messages) {
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out[n-1].Content += "\n\n" + msg.Content
			continue
		}
		out = append(out, claudeMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
