package vetting

// Conversation helpers shared by the provider adapters and the HTTP edge.

// ExtractSystemPrompt returns the content of the first system message, or
// an empty string when the conversation has none.
func ExtractSystemPrompt(messages []ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// RemoveSystemMessages returns the conversation with all system messages
// filtered out. Providers that take the system prompt out of band need this.
func RemoveSystemMessages(messages []ChatMessage) []ChatMessage {
	filtered := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != RoleSystem {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// NewConversation interleaves user and assistant turns, optionally led by a
// system prompt. User messages may outnumber assistant messages by one.
func NewConversation(userMessages, assistantMessages []string, systemPrompt string) []ChatMessage {
	conversation := make([]ChatMessage, 0, len(userMessages)+len(assistantMessages)+1)
	if systemPrompt != "" {
		conversation = append(conversation, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	}
	for i, user := range userMessages {
		conversation = append(conversation, ChatMessage{Role: RoleUser, Content: user})
		if i < len(assistantMessages) {
			conversation = append(conversation, ChatMessage{Role: RoleAssistant, Content: assistantMessages[i]})
		}
	}
	return conversation
}

// EstimateTokens gives a rough token count for a conversation using the
// usual four-characters-per-token heuristic. Good enough for budgeting, not
// for billing.
func EstimateTokens(messages []ChatMessage) int {
	chars := 0
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	return chars / 4
}
