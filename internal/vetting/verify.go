package vetting

import "strings"

// SafetySentinel is the literal marker a chat model is instructed to emit at
// the start of its output when it judges the request unsafe. Detection is
// case-sensitive so ordinary prose mentioning safety never trips it.
const SafetySentinel = "SAFETY_PREFIX"

// ExtractSafetyPrefix reports whether text begins with the safety sentinel
// and, if so, returns the text with the sentinel and its trailing separator
// stripped. Text without the sentinel comes back unchanged.
func ExtractSafetyPrefix(text string) (string, bool) {
	trimmed := strings.TrimLeft(text, " \t\n")
	if !strings.HasPrefix(trimmed, SafetySentinel) {
		return text, false
	}
	rest := strings.TrimPrefix(trimmed, SafetySentinel)
	rest = strings.TrimLeft(rest, ":.,;- \t\n")
	return rest, true
}

// CheckVerification interprets a verification model's output as a verdict.
// The policy is fail-closed: empty output fails, a FAIL token fails even if
// PASS also appears, a PASS token passes, and anything ambiguous fails.
// Verification is a safety gate, so ambiguity must never count as success.
func CheckVerification(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	upper := strings.ToUpper(trimmed)
	if strings.Contains(upper, "FAIL") {
		return false
	}
	if strings.Contains(upper, "PASS") {
		return true
	}
	return false
}
