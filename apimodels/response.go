package apimodels

// VetResponse is the body returned by POST /api/v1/vet.
type VetResponse struct {
	// Content is the final, safety-filtered response text
	Content string `json:"content"`

	// Mode echoes the processing mode that ran
	Mode string `json:"mode"`

	// StopReason classifies why processing stopped
	StopReason string `json:"stopReason"`

	// VerificationPassed is null in chat mode where no verdict exists
	VerificationPassed *bool `json:"verificationPassed,omitempty"`

	// RequiresAttention flags outcomes a human should review
	RequiresAttention bool `json:"requiresAttention"`

	// Attempts is the per-cycle log, oldest first
	AttemptCount int       `json:"attemptCount"`
	Attempts     []Attempt `json:"attempts,omitempty"`

	// Metadata about the processing run
	Metadata VetMetadata `json:"metadata"`

	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// Attempt records one chat/verify cycle.
type Attempt struct {
	// ChatResponse is the unfiltered candidate response
	ChatResponse string `json:"chatResponse"`

	// VerificationOutput is the verifier's raw verdict text; empty when the
	// cycle was cut short by a safety trigger
	VerificationOutput string `json:"verificationOutput,omitempty"`

	VerificationPassed bool `json:"verificationPassed"`

	ChatUsage         Usage   `json:"chatUsage"`
	VerificationUsage Usage   `json:"verificationUsage"`
	ChatCost          float64 `json:"chatCost"`
	VerificationCost  float64 `json:"verificationCost"`
}

// Usage holds token counts for one or more provider calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

type VetMetadata struct {
	// Time taken for processing
	Duration string `json:"duration"`

	// Models used for chat and verification
	ChatModel         string `json:"chatModel"`
	VerificationModel string `json:"verificationModel,omitempty"`

	// Aggregate cost and tokens across every call made
	TotalCost  float64 `json:"totalCost"`
	TotalUsage Usage   `json:"totalUsage"`
}

// ErrorResponse is the body returned on any non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ModelsResponse is the body of GET /api/v1/models.
type ModelsResponse struct {
	// Providers maps each configured provider family to its model catalog
	Providers map[string]ProviderModels `json:"providers"`
}

type ProviderModels struct {
	// Models lists known model IDs, aliases included
	Models []string `json:"models"`

	// Aliases maps friendly names to canonical model IDs
	Aliases map[string]string `json:"aliases"`
}
