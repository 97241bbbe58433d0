package vetting

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrValidation wraps every eagerly-detected configuration or input problem
// so callers can distinguish bad requests from upstream failures.
var ErrValidation = errors.New("validation error")

// ValidateMessages checks the conversation the caller supplied. An empty
// list or an unknown role is rejected before any provider call is made.
func ValidateMessages(messages []ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: message list cannot be empty", ErrValidation)
	}
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has invalid role %q", ErrValidation, i, msg.Role)
		}
		if msg.Content == "" {
			return fmt.Errorf("%w: message %d has empty content", ErrValidation, i)
		}
	}
	return nil
}

// ValidateModelConfig checks generation parameter ranges.
func ValidateModelConfig(config ModelConfig, label string) error {
	if config.ModelID == "" {
		return fmt.Errorf("%w: %s model id cannot be empty", ErrValidation, label)
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("%w: %s temperature %.2f outside [0, 2]", ErrValidation, label, config.Temperature)
	}
	if config.MaxTokens <= 0 {
		return fmt.Errorf("%w: %s max tokens must be positive, got %d", ErrValidation, label, config.MaxTokens)
	}
	if config.TopP != nil && (*config.TopP <= 0 || *config.TopP > 1) {
		return fmt.Errorf("%w: %s top_p %.2f outside (0, 1]", ErrValidation, label, *config.TopP)
	}
	return nil
}

// ValidateConfig checks a VettingConfig after normalization.
func ValidateConfig(config VettingConfig) error {
	switch config.Mode {
	case ModeChat, ModeVetting:
	default:
		return fmt.Errorf("%w: invalid mode %q", ErrValidation, config.Mode)
	}
	if err := ValidateModelConfig(config.ChatModel, "chat"); err != nil {
		return err
	}
	if config.Mode == ModeVetting {
		if config.VerificationModel == nil {
			return fmt.Errorf("%w: vetting mode requires a verification model", ErrValidation)
		}
		if err := ValidateModelConfig(*config.VerificationModel, "verification"); err != nil {
			return err
		}
		if config.MaxAttempts <= 0 {
			return fmt.Errorf("%w: max attempts must be positive, got %d", ErrValidation, config.MaxAttempts)
		}
	}
	return nil
}

// ValidateUsage warns when reported token counts look inconsistent. The
// total/sum mismatch is expected to hold but providers occasionally report
// otherwise, so this logs rather than rejects.
func ValidateUsage(usage Usage) error {
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		return fmt.Errorf("%w: token counts cannot be negative", ErrValidation)
	}
	if usage.TotalTokens != usage.PromptTokens+usage.CompletionTokens {
		slog.Warn("usage total does not match prompt+completion sum",
			"promptTokens", usage.PromptTokens,
			"completionTokens", usage.CompletionTokens,
			"totalTokens", usage.TotalTokens,
		)
	}
	return nil
}
