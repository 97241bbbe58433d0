package config

import (
	"github.com/vettingai/vetting-go/internal/vetting"
)

// Builder assembles a vetting.VettingConfig step by step and validates it
// once at Build time, so no partially-valid config is ever observed by the
// framework.
type Builder struct {
	config vetting.VettingConfig
	errs   []error
}

// NewBuilder starts a builder in chat mode with framework defaults.
func NewBuilder() *Builder {
	return &Builder{
		config: vetting.VettingConfig{
			Mode:                   vetting.ModeChat,
			EnableSafetyPrefix:     true,
			EnableEducationalRules: true,
		},
	}
}

// ChatMode selects single-call chat processing.
func (b *Builder) ChatMode() *Builder {
	b.config.Mode = vetting.ModeChat
	return b
}

// VettingMode selects the full chat/verify/retry cycle.
func (b *Builder) VettingMode() *Builder {
	b.config.Mode = vetting.ModeVetting
	return b
}

// ChatModel sets the user-facing model.
func (b *Builder) ChatModel(modelConfig vetting.ModelConfig) *Builder {
	b.config.ChatModel = modelConfig
	return b
}

// VerificationModel sets an explicit verification model. Without one, Build
// derives a low-temperature short-output verifier from the chat model.
func (b *Builder) VerificationModel(modelConfig vetting.ModelConfig) *Builder {
	b.config.VerificationModel = &modelConfig
	return b
}

// MaxAttempts bounds the vetting retry loop.
func (b *Builder) MaxAttempts(n int) *Builder {
	b.config.MaxAttempts = n
	return b
}

// AddContextItem appends a question/answer-key pair. Validation errors are
// collected and surfaced by Build.
func (b *Builder) AddContextItem(question, answerKey map[string]any) *Builder {
	item, err := vetting.NewContextItem(question, answerKey)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.config.ContextItems = append(b.config.ContextItems, item)
	return b
}

// SessionInfo attaches opaque correlation identifiers.
func (b *Builder) SessionInfo(sessionID, userID string) *Builder {
	b.config.SessionID = sessionID
	b.config.UserID = userID
	return b
}

// SafetyFeatures toggles the safety prefix and educational rules.
func (b *Builder) SafetyFeatures(enableSafetyPrefix, enableEducationalRules bool) *Builder {
	b.config.EnableSafetyPrefix = enableSafetyPrefix
	b.config.EnableEducationalRules = enableEducationalRules
	return b
}

// Build normalizes and validates the assembled configuration.
func (b *Builder) Build() (vetting.VettingConfig, error) {
	if len(b.errs) > 0 {
		return vetting.VettingConfig{}, b.errs[0]
	}
	config := b.config
	config.Normalize()
	if err := vetting.ValidateConfig(config); err != nil {
		return vetting.VettingConfig{}, err
	}
	return config, nil
}

// QuickChatConfig builds a ready-to-use chat-mode config for one model.
func QuickChatConfig(modelConfig vetting.ModelConfig) (vetting.VettingConfig, error) {
	return NewBuilder().ChatMode().ChatModel(modelConfig).Build()
}

// QuickVettingConfig builds a vetting-mode config with a derived
// verification model.
func QuickVettingConfig(chatModel vetting.ModelConfig, maxAttempts int) (vetting.VettingConfig, error) {
	return NewBuilder().VettingMode().ChatModel(chatModel).MaxAttempts(maxAttempts).Build()
}
