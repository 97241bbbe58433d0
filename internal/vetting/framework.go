package vetting

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provider is the contract the framework places on its model backends. One
// implementation exists per provider family; the framework never depends on
// a concrete provider type. Implementations must be safe for concurrent
// calls. Transport and auth failures are returned as errors and propagate to
// the caller unmodified; the framework never retries them on its own.
type Provider interface {
	// GenerateResponse performs one chat completion. systemPrompt may be
	// empty. The bool reports whether the provider itself flagged the
	// response as safety-triggered.
	GenerateResponse(ctx context.Context, messages []ChatMessage, modelConfig ModelConfig, systemPrompt string) (string, Usage, bool, error)

	// CalculateCost prices a call. Never negative; unrecognized model IDs
	// fall back to a default rate rather than failing.
	CalculateCost(modelID string, usage Usage) float64

	// ModelAliases maps friendly aliases to canonical model IDs.
	ModelAliases() map[string]string

	// SupportedModels lists known model IDs, aliases included.
	SupportedModels() []string
}

// Framework coordinates the chat and verification providers. Both may be the
// same instance; a single Process call is strictly sequential either way.
type Framework struct {
	chatProvider         Provider
	verificationProvider Provider
}

// New builds a Framework. A nil verificationProvider defaults to the chat
// provider.
func New(chatProvider Provider, verificationProvider Provider) *Framework {
	if verificationProvider == nil {
		verificationProvider = chatProvider
	}
	return &Framework{
		chatProvider:         chatProvider,
		verificationProvider: verificationProvider,
	}
}

// Process runs one vetting call: validate, then drive the chat/safety/
// verify/retry cycle until a terminal state is reached. Provider errors are
// wrapped with call-site context but otherwise propagate to the caller;
// policy outcomes (safety trigger, attempts exhausted) are normal results
// reported through StopReason, not errors.
func (f *Framework) Process(ctx context.Context, messages []ChatMessage, config VettingConfig) (*VettingResponse, error) {
	startTime := time.Now()

	config.Normalize()
	if err := ValidateMessages(messages); err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Info("starting vetting process",
		"mode", config.Mode,
		"chatModel", config.ChatModel.ModelID,
		"maxAttempts", config.MaxAttempts,
		"sessionId", config.SessionID,
	)

	if config.Mode == ModeChat {
		return f.processChat(ctx, messages, config, startTime)
	}
	return f.processVetting(ctx, messages, config, startTime)
}

// processChat performs exactly one chat call with only the safety check.
func (f *Framework) processChat(ctx context.Context, messages []ChatMessage, config VettingConfig, startTime time.Time) (*VettingResponse, error) {
	systemPrompt := BuildSystemPrompt(config, config.ContextItems, 1)

	content, usage, providerFlag, err := f.chatProvider.GenerateResponse(ctx, messages, config.ChatModel, systemPrompt)
	if err != nil {
		slog.Error("chat generation failed", "model", config.ChatModel.ModelID, "error", err)
		return nil, fmt.Errorf("chat generation failed: %w", err)
	}
	_ = ValidateUsage(usage)
	cost := f.chatProvider.CalculateCost(config.ChatModel.ModelID, usage)

	filtered, triggered := ExtractSafetyPrefix(content)
	triggered = triggered || providerFlag

	resp := &VettingResponse{
		Content:          filtered,
		Mode:             ModeChat,
		AttemptCount:     1,
		StopReason:       StopNotApplicableChat,
		TotalCost:        cost,
		TotalUsage:       usage,
		ChatModelUsed:    config.ChatModel.ModelID,
		SessionID:        config.SessionID,
		UserID:           config.UserID,
		ProcessingTimeMs: msSince(startTime),
	}
	if triggered {
		resp.StopReason = StopSafetyTriggered
		resp.RequiresAttention = true
		slog.Warn("safety prefix triggered in chat mode", "sessionId", config.SessionID)
	}
	return resp, nil
}

// processVetting drives the bounded chat/verify loop.
func (f *Framework) processVetting(ctx context.Context, messages []ChatMessage, config VettingConfig, startTime time.Time) (*VettingResponse, error) {
	verificationModel := *config.VerificationModel
	verificationPrompt := BuildVerificationPrompt(config)

	attempts := make([]Attempt, 0, config.MaxAttempts)
	totalCost := 0.0
	var totalUsage Usage

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		systemPrompt := BuildSystemPrompt(config, config.ContextItems, attempt)

		chatContent, chatUsage, providerFlag, err := f.chatProvider.GenerateResponse(ctx, messages, config.ChatModel, systemPrompt)
		if err != nil {
			slog.Error("chat generation failed", "attempt", attempt, "model", config.ChatModel.ModelID, "error", err)
			return nil, fmt.Errorf("chat generation failed on attempt %d: %w", attempt, err)
		}
		_ = ValidateUsage(chatUsage)
		chatCost := f.chatProvider.CalculateCost(config.ChatModel.ModelID, chatUsage)
		totalCost += chatCost
		totalUsage = totalUsage.Add(chatUsage)

		filtered, triggered := ExtractSafetyPrefix(chatContent)
		if triggered || providerFlag {
			// Safety short-circuits verification entirely, whatever
			// attempts remain.
			attempts = append(attempts, Attempt{
				ChatResponse: chatContent,
				ChatUsage:    chatUsage,
				ChatCost:     chatCost,
			})
			slog.Warn("safety prefix triggered, aborting vetting loop", "attempt", attempt, "sessionId", config.SessionID)
			return f.buildResponse(config, filtered, StopSafetyTriggered, attempts, totalCost, totalUsage, nil, startTime), nil
		}

		verOutput, verUsage, _, err := f.verificationProvider.GenerateResponse(
			ctx,
			verificationMessages(messages, chatContent),
			verificationModel,
			verificationPrompt,
		)
		if err != nil {
			slog.Error("verification failed", "attempt", attempt, "model", verificationModel.ModelID, "error", err)
			return nil, fmt.Errorf("verification failed on attempt %d: %w", attempt, err)
		}
		_ = ValidateUsage(verUsage)
		verCost := f.verificationProvider.CalculateCost(verificationModel.ModelID, verUsage)
		totalCost += verCost
		totalUsage = totalUsage.Add(verUsage)

		passed := CheckVerification(verOutput)
		attempts = append(attempts, Attempt{
			ChatResponse:       chatContent,
			VerificationOutput: verOutput,
			ChatUsage:          chatUsage,
			VerificationUsage:  verUsage,
			ChatCost:           chatCost,
			VerificationCost:   verCost,
			VerificationPassed: passed,
		})

		slog.Info("verification verdict", "attempt", attempt, "passed", passed)

		if passed {
			return f.buildResponse(config, filtered, StopVerificationPassed, attempts, totalCost, totalUsage, boolPtr(true), startTime), nil
		}
		if attempt == config.MaxAttempts {
			// Exhausted: return the last attempt's response as-is for
			// human review, never a synthesized best-of.
			return f.buildResponse(config, filtered, StopMaxAttemptsReached, attempts, totalCost, totalUsage, boolPtr(false), startTime), nil
		}
	}

	// Unreachable: the loop always terminates on its final iteration.
	return nil, fmt.Errorf("vetting loop exited without a terminal state")
}

func (f *Framework) buildResponse(config VettingConfig, content string, reason StopReason, attempts []Attempt, totalCost float64, totalUsage Usage, passed *bool, startTime time.Time) *VettingResponse {
	resp := &VettingResponse{
		Content:            content,
		Mode:               ModeVetting,
		RequiresAttention:  reason == StopSafetyTriggered || reason == StopMaxAttemptsReached,
		VerificationPassed: passed,
		AttemptCount:       len(attempts),
		Attempts:           attempts,
		StopReason:         reason,
		TotalCost:          totalCost,
		TotalUsage:         totalUsage,
		ChatModelUsed:      config.ChatModel.ModelID,
		SessionID:          config.SessionID,
		UserID:             config.UserID,
		ProcessingTimeMs:   msSince(startTime),
	}
	if config.VerificationModel != nil {
		resp.VerificationModelUsed = config.VerificationModel.ModelID
	}
	return resp
}

// verificationMessages builds the conversation shown to the verifier: the
// student's last question plus the chat model's candidate response.
func verificationMessages(messages []ChatMessage, chatResponse string) []ChatMessage {
	lastUser := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUser = messages[i].Content
			break
		}
	}
	return []ChatMessage{
		{
			Role: RoleUser,
			Content: fmt.Sprintf("Student question:\n%s\n\nAssistant response to review:\n%s\n\nVerdict?",
				lastUser, chatResponse),
		},
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func boolPtr(v bool) *bool { return &v }
