package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/vetting"
)

var openAIAliases = map[string]string{
	"viable-3": "gpt-4o-mini",
}

// Rates in USD per 1M tokens.
var openAIPricing = map[string]modelPricing{
	"gpt-4o-mini":   {InputPerMtok: 0.15, OutputPerMtok: 0.60},
	"gpt-4o":        {InputPerMtok: 2.50, OutputPerMtok: 10.00},
	"gpt-4":         {InputPerMtok: 30.00, OutputPerMtok: 60.00},
	"gpt-3.5-turbo": {InputPerMtok: 0.50, OutputPerMtok: 1.50},
}

var openAIDefaultPricing = modelPricing{InputPerMtok: 0.50, OutputPerMtok: 1.50}

// OpenAI adapts the official SDK to the vetting.Provider contract.
type OpenAI struct {
	client *openai.Client
}

func NewOpenAI(cfg config.ProviderConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &OpenAI{client: openai.NewClient(opts...)}, nil
}

func (o *OpenAI) GenerateResponse(ctx context.Context, messages []vetting.ChatMessage, modelConfig vetting.ModelConfig, systemPrompt string) (string, vetting.Usage, bool, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.F(o.resolveModel(modelConfig.ModelID)),
		Messages:    openai.F(toOpenAIMessages(messages, systemPrompt)),
		Temperature: openai.F(modelConfig.Temperature),
		MaxTokens:   openai.F(int64(modelConfig.MaxTokens)),
	}
	if modelConfig.TopP != nil {
		params.TopP = openai.F(*modelConfig.TopP)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("openai chat completion failed", "model", modelConfig.ModelID, "error", err)
		return "", vetting.Usage{}, false, err
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	usage := vetting.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	_, safetyTriggered := vetting.ExtractSafetyPrefix(content)
	return content, usage, safetyTriggered, nil
}

func (o *OpenAI) CalculateCost(modelID string, usage vetting.Usage) float64 {
	resolved := o.resolveModel(modelID)
	return lookupPricing(openAIPricing, openAIDefaultPricing, resolved).cost(usage)
}

func (o *OpenAI) ModelAliases() map[string]string {
	return openAIAliases
}

func (o *OpenAI) SupportedModels() []string {
	return supportedModels(openAIPricing, openAIAliases)
}

func (o *OpenAI) resolveModel(modelID string) string {
	return resolveAlias(openAIAliases, modelID)
}

func toOpenAIMessages(messages []vetting.ChatMessage, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range messages {
		switch msg.Role {
		case vetting.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case vetting.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
