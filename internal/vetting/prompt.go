package vetting

import (
	"fmt"
	"strings"
)

// chatPersona is the base system prompt for the user-facing chat model.
const chatPersona = `You are a helpful AI assistant supporting a student's learning.
Be accurate, encouraging, and concise. When the conversation concerns an
assigned question, your goal is to deepen the student's understanding.`

// educationalRules is appended when educational rules are enabled. It refers
// to the assigned question only; answer-key contents are never interpolated
// into any chat-facing prompt.
const educationalRules = `EDUCATIONAL GUIDANCE RULES:
- Guide the student toward the answer instead of revealing it directly.
- Ask leading questions, suggest strategies, and explain underlying concepts.
- Do not state the final answer to the assigned question, even if asked directly.
- If the student presents their own answer, help them check their reasoning.`

// retryNotice is added on attempts after the first. The verifier's failure
// rationale is deliberately not included: re-injecting it could leak answer
// key contents back to the chat model.
const retryNotice = `NOTE: Your previous response to this conversation was rejected by a review
step for giving away too much. Take a different approach this time and focus
on guiding rather than telling.`

// safetyInstruction tells the chat model how to flag unsafe requests so the
// orchestrator can detect the case programmatically instead of parsing a
// free-form refusal.
const safetyInstruction = `SAFETY: If the user's request is harmful, dangerous, or inappropriate,
begin your response with the exact marker "` + SafetySentinel + `: " followed by a brief
explanation of why you cannot help.`

// BuildSystemPrompt assembles the chat-role system prompt for the given
// attempt. Question fields from the context items are interpolated; answer
// keys never are.
func BuildSystemPrompt(config VettingConfig, contextItems []ContextItem, attemptNumber int) string {
	var b strings.Builder
	b.WriteString(chatPersona)

	if config.EnableEducationalRules && len(contextItems) > 0 {
		b.WriteString("\n\n")
		b.WriteString(educationalRules)
		b.WriteString("\n\nASSIGNED QUESTION CONTEXT:")
		for i, item := range contextItems {
			b.WriteString(fmt.Sprintf("\n%d. Question: %s", i+1, item.QuestionText()))
			for _, field := range []string{"subject", "gradeLevel", "difficulty", "id"} {
				if v, ok := item.Question[field]; ok {
					b.WriteString(fmt.Sprintf("\n   %s: %v", field, v))
				}
			}
		}
	}

	if attemptNumber > 1 {
		b.WriteString("\n\n")
		b.WriteString(retryNotice)
	}

	if config.EnableSafetyPrefix {
		b.WriteString("\n\n")
		b.WriteString(safetyInstruction)
	}

	return b.String()
}

// BuildVerificationPrompt assembles the verification-role system prompt.
// This is the only place the answer key is ever transmitted; the verifier
// needs it to judge whether the chat response gave the answer away.
func BuildVerificationPrompt(config VettingConfig) string {
	var b strings.Builder
	b.WriteString(`You are a strict verification reviewer. You will be shown an AI assistant's
response to a student. Check whether the response complies with the policy:
it must guide the student without directly revealing the correct answer to
the assigned question.

Your verdict MUST start with the single word PASS or FAIL, optionally
followed by a colon and a short rationale.`)

	if len(config.ContextItems) > 0 {
		b.WriteString("\n\nASSIGNED QUESTIONS AND ANSWER KEYS:")
		for i, item := range config.ContextItems {
			b.WriteString(fmt.Sprintf("\n%d. Question: %s", i+1, item.QuestionText()))
			if item.AnswerKey == nil {
				continue
			}
			if v, ok := item.AnswerKey["correctAnswer"]; ok {
				b.WriteString(fmt.Sprintf("\n   Correct answer: %v", v))
			}
			if concepts := stringList(item.AnswerKey["keyConcepts"]); len(concepts) > 0 {
				b.WriteString("\n   Key concepts: " + strings.Join(concepts, ", "))
			}
			if v, ok := item.AnswerKey["explanation"]; ok {
				b.WriteString(fmt.Sprintf("\n   Explanation: %v", v))
			}
		}
	}

	b.WriteString(`

FAIL the response if it states the correct answer, makes it trivially
derivable, or otherwise defeats the purpose of the exercise. PASS it if it
guides without revealing. When in doubt, FAIL.`)

	return b.String()
}

// stringList coerces an answer-key field into strings. JSON-decoded keys
// arrive as []any while programmatic callers pass []string.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}
