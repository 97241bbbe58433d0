package apimodels

// VetRequest is the body of POST /api/v1/vet.
type VetRequest struct {
	// Messages is the conversation to process, oldest first
	Messages []Message `json:"messages"`

	// Mode selects "chat" or "vetting"; defaults to "vetting"
	Mode string `json:"mode,omitempty"`

	// Provider names the backend family (e.g. "openai", "claude", "gemini");
	// defaults to the service default
	Provider string `json:"provider,omitempty"`

	// Optional parameters to control processing behavior
	Options VetOptions `json:"options,omitempty"`

	// ContextItems are the assigned questions and their answer keys
	ContextItems []ContextItem `json:"contextItems,omitempty"`

	// SessionID and UserID are opaque correlation identifiers; a missing
	// SessionID is filled with a generated one
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// Message is a single conversation turn.
type Message struct {
	// Role is one of "system", "user" or "assistant"
	Role string `json:"role"`

	// Content is the turn text
	Content string `json:"content"`
}

type VetOptions struct {
	// ChatModel specifies which model answers the user (e.g. "gpt-4o-mini")
	ChatModel string `json:"chatModel,omitempty"`

	// VerificationModel specifies which model judges responses; derived from
	// the chat model when omitted
	VerificationModel string `json:"verificationModel,omitempty"`

	// Temperature controls chat randomness (0.0-2.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens limits the chat response length
	MaxTokens int `json:"maxTokens,omitempty"`

	// MaxAttempts bounds the chat/verify retry cycle
	MaxAttempts int `json:"maxAttempts,omitempty"`

	// EnableSafetyPrefix and EnableEducationalRules toggle the behavioral
	// policy blocks of the system prompt; both default to true
	EnableSafetyPrefix     *bool `json:"enableSafetyPrefix,omitempty"`
	EnableEducationalRules *bool `json:"enableEducationalRules,omitempty"`
}

// ContextItem pairs an assigned question with its answer key. The answer key
// is only ever shown to the verification model.
type ContextItem struct {
	// Question must carry at least a "text" field
	Question map[string]any `json:"question"`

	// AnswerKey is free-form grading material (e.g. "correctAnswer",
	// "keyConcepts", "explanation")
	AnswerKey map[string]any `json:"answerKey,omitempty"`
}
