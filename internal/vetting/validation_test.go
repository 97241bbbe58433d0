package vetting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessages(t *testing.T) {
	valid := []ChatMessage{
		{Role: RoleSystem, Content: "You are a helpful assistant."},
		{Role: RoleUser, Content: "Hello!"},
		{Role: RoleAssistant, Content: "Hi there!"},
	}
	assert.NoError(t, ValidateMessages(valid))

	err := ValidateMessages(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	err = ValidateMessages([]ChatMessage{{Role: "moderator", Content: "hi"}})
	require.Error(t, err)

	err = ValidateMessages([]ChatMessage{{Role: RoleUser, Content: ""}})
	require.Error(t, err)
}

func TestValidateModelConfig(t *testing.T) {
	assert.NoError(t, ValidateModelConfig(DefaultModelConfig("gpt-4o-mini"), "chat"))

	tests := []struct {
		name   string
		config ModelConfig
	}{
		{"empty model id", ModelConfig{Temperature: 0.7, MaxTokens: 100}},
		{"temperature too high", ModelConfig{ModelID: "m", Temperature: 2.5, MaxTokens: 100}},
		{"negative temperature", ModelConfig{ModelID: "m", Temperature: -0.1, MaxTokens: 100}},
		{"zero max tokens", ModelConfig{ModelID: "m", Temperature: 0.7}},
		{"top_p out of range", ModelConfig{ModelID: "m", Temperature: 0.7, MaxTokens: 100, TopP: floatPtr(1.5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModelConfig(tt.config, "chat")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	config := VettingConfig{Mode: ModeVetting, ChatModel: DefaultModelConfig("gpt-4o-mini")}
	config.Normalize()
	assert.NoError(t, ValidateConfig(config))

	bad := VettingConfig{Mode: "grading", ChatModel: DefaultModelConfig("gpt-4o-mini")}
	err := ValidateConfig(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	// Vetting mode without normalization lacks a verification model.
	raw := VettingConfig{Mode: ModeVetting, ChatModel: DefaultModelConfig("gpt-4o-mini"), MaxAttempts: 3}
	require.Error(t, ValidateConfig(raw))
}

func TestValidateUsage(t *testing.T) {
	assert.NoError(t, ValidateUsage(Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}))

	// Mismatched total warns but does not reject.
	assert.NoError(t, ValidateUsage(Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 200}))

	err := ValidateUsage(Usage{PromptTokens: -10, CompletionTokens: 50, TotalTokens: 40})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func floatPtr(v float64) *float64 { return &v }
