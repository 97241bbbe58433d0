// Package llm implements the provider adapters the vetting framework calls
// into: OpenAI through the official SDK, Claude and Gemini through their
// REST endpoints. Each adapter satisfies vetting.Provider.
package llm

import (
	"fmt"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/vetting"
)

// modelPricing holds USD rates per one million tokens.
type modelPricing struct {
	InputPerMtok  float64
	OutputPerMtok float64
}

// cost prices a call at per-million-token rates. Never negative.
func (p modelPricing) cost(usage vetting.Usage) float64 {
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 {
		return 0
	}
	return float64(usage.PromptTokens)/1_000_000*p.InputPerMtok +
		float64(usage.CompletionTokens)/1_000_000*p.OutputPerMtok
}

// resolveAlias maps a friendly alias to its canonical model ID, passing
// unknown IDs through unchanged.
func resolveAlias(aliases map[string]string, modelID string) string {
	if canonical, ok := aliases[modelID]; ok {
		return canonical
	}
	return modelID
}

// lookupPricing finds the rate for a model, falling back to the provider's
// default rate for unrecognized IDs rather than failing.
func lookupPricing(table map[string]modelPricing, fallback modelPricing, modelID string) modelPricing {
	if pricing, ok := table[modelID]; ok {
		return pricing
	}
	return fallback
}

// supportedModels lists a provider's canonical model IDs plus its aliases.
func supportedModels(table map[string]modelPricing, aliases map[string]string) []string {
	models := make([]string, 0, len(table)+len(aliases))
	for id := range table {
		models = append(models, id)
	}
	for alias := range aliases {
		models = append(models, alias)
	}
	return models
}

// NewProvider builds the adapter matching cfg.Type.
func NewProvider(cfg config.ProviderConfig) (vetting.Provider, error) {
	switch cfg.Type {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg)
	case config.ProviderClaude:
		return NewClaude(cfg)
	case config.ProviderGemini:
		return NewGemini(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
