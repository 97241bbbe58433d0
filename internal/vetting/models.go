// Package vetting implements the dual-LLM vetting core: a user-facing chat
// model paired with an independent verification model that judges policy
// compliance of each chat response.
package vetting

import "fmt"

// Role values accepted in a ChatMessage.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Usage holds token counts for a single provider call. Values are additive;
// the zero Usage is the identity for Add.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add returns the pairwise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// ModelConfig bundles the generation parameters for one model call.
type ModelConfig struct {
	ModelID     string   `json:"modelId"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"maxTokens"`
	TopP        *float64 `json:"topP,omitempty"`
}

// DefaultModelConfig returns a ModelConfig with the defaults the framework
// assumes when a caller only names a model.
func DefaultModelConfig(modelID string) ModelConfig {
	return ModelConfig{
		ModelID:     modelID,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

// ContextItem pairs a question with its answer key. The question is visible
// to the chat model; the answer key is only ever shown to the verification
// model.
type ContextItem struct {
	Question  map[string]any `json:"question"`
	AnswerKey map[string]any `json:"answerKey,omitempty"`
}

// NewContextItem validates and builds a ContextItem. The question must carry
// a non-empty "text" field; everything else is free-form metadata.
func NewContextItem(question, answerKey map[string]any) (ContextItem, error) {
	text, ok := question["text"].(string)
	if !ok || text == "" {
		return ContextItem{}, fmt.Errorf("%w: context item question must be a map with a 'text' field", ErrValidation)
	}
	return ContextItem{Question: question, AnswerKey: answerKey}, nil
}

// QuestionText returns the question's required text field.
func (c ContextItem) QuestionText() string {
	text, _ := c.Question["text"].(string)
	return text
}

// Mode selects how the framework processes a call.
type Mode string

const (
	// ModeChat performs a single chat call with no verification cycle.
	ModeChat Mode = "chat"
	// ModeVetting runs the full chat/verify/retry cycle.
	ModeVetting Mode = "vetting"
)

// Verification model defaults applied when a vetting-mode config omits an
// explicit verification model. Verification must be low-variance and short.
const (
	verificationTemperature = 0.1
	verificationMaxTokens   = 512
)

// DefaultMaxAttempts bounds the vetting retry loop when the config does not
// set its own limit.
const DefaultMaxAttempts = 3

// VettingConfig carries everything one Process call needs beyond the
// messages themselves.
type VettingConfig struct {
	Mode              Mode          `json:"mode"`
	ChatModel         ModelConfig   `json:"chatModel"`
	VerificationModel *ModelConfig  `json:"verificationModel,omitempty"`
	ContextItems      []ContextItem `json:"contextItems,omitempty"`

	// MaxAttempts bounds the chat/verify cycle. Only meaningful in vetting
	// mode.
	MaxAttempts int `json:"maxAttempts,omitempty"`

	EnableEducationalRules bool `json:"enableEducationalRules"`
	EnableSafetyPrefix     bool `json:"enableSafetyPrefix"`

	// Opaque correlation identifiers echoed back in the response.
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// Normalize fills derived fields in place: vetting mode without an explicit
// verification model gets one derived from the chat model with low
// temperature and a short token budget, chat mode drops any verification
// model, and MaxAttempts falls back to the default.
func (c *VettingConfig) Normalize() {
	switch c.Mode {
	case ModeVetting:
		if c.VerificationModel == nil {
			derived := c.ChatModel
			derived.Temperature = verificationTemperature
			derived.MaxTokens = verificationMaxTokens
			c.VerificationModel = &derived
		}
	case ModeChat:
		c.VerificationModel = nil
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

// StopReason classifies why Process stopped. The values are mutually
// exclusive terminal states, not errors.
type StopReason string

const (
	StopVerificationPassed StopReason = "VERIFICATION_PASSED"
	StopMaxAttemptsReached StopReason = "MAX_ATTEMPTS_REACHED"
	StopSafetyTriggered    StopReason = "SAFETY_TRIGGERED"
	StopNotApplicableChat  StopReason = "NOT_APPLICABLE_CHAT_MODE"
	StopGenerationError    StopReason = "GENERATION_ERROR"
	StopVerificationError  StopReason = "VERIFICATION_ERROR"
)

// Attempt records one chat/verify cycle. Immutable once appended to the
// response's attempt log.
type Attempt struct {
	ChatResponse       string  `json:"chatResponse"`
	VerificationOutput string  `json:"verificationOutput,omitempty"`
	ChatUsage          Usage   `json:"chatUsage"`
	VerificationUsage  Usage   `json:"verificationUsage"`
	ChatCost           float64 `json:"chatCost"`
	VerificationCost   float64 `json:"verificationCost"`
	VerificationPassed bool    `json:"verificationPassed"`
}

// VettingResponse is the aggregated result of one Process call. Built once
// at the end of the call and never mutated after return.
type VettingResponse struct {
	// Content is the final, safety-filtered text.
	Content string `json:"content"`

	Mode Mode `json:"mode"`

	// RequiresAttention flags outcomes a human should review.
	RequiresAttention bool `json:"requiresAttention"`

	// VerificationPassed is nil in chat mode where no verdict exists.
	VerificationPassed *bool `json:"verificationPassed,omitempty"`

	AttemptCount int        `json:"attemptCount"`
	Attempts     []Attempt  `json:"attempts,omitempty"`
	StopReason   StopReason `json:"stopReason"`

	// Totals cover every chat and verification call made across all
	// attempts, not just the winning one.
	TotalCost  float64 `json:"totalCost"`
	TotalUsage Usage   `json:"totalUsage"`

	ChatModelUsed         string `json:"chatModelUsed"`
	VerificationModelUsed string `json:"verificationModelUsed,omitempty"`

	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`

	ProcessingTimeMs float64 `json:"processingTimeMs"`
}
