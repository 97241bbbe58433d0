package vetting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVerification(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace only", "   \n\t  ", false},
		{"pass with rationale", "PASS: good educational approach", true},
		{"bare pass", "PASS", true},
		{"lowercase pass", "the response passes all checks.", true},
		{"fail with rationale", "FAIL: direct answer provided", false},
		{"lowercase fail", "this response fails verification", false},
		{"fail takes precedence over later pass", "FAIL on rule one, though it would PASS rule two", false},
		{"ambiguous", "this is an ambiguous response", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckVerification(tt.text))
		})
	}
}

func TestExtractSafetyPrefixTriggered(t *testing.T) {
	filtered, triggered := ExtractSafetyPrefix("SAFETY_PREFIX: This involves harmful content. I cannot help with this.")
	assert.True(t, triggered)
	assert.NotContains(t, filtered, SafetySentinel)
	assert.Contains(t, filtered, "I cannot help with this.")
}

func TestExtractSafetyPrefixLeadingWhitespace(t *testing.T) {
	filtered, triggered := ExtractSafetyPrefix("  \nSAFETY_PREFIX - request refused")
	assert.True(t, triggered)
	assert.Equal(t, "request refused", filtered)
}

func TestExtractSafetyPrefixNotTriggered(t *testing.T) {
	filtered, triggered := ExtractSafetyPrefix("This is a normal response without safety concerns.")
	assert.False(t, triggered)
	assert.Equal(t, "This is a normal response without safety concerns.", filtered)
}

func TestExtractSafetyPrefixCaseSensitive(t *testing.T) {
	// Lowercase mentions of the sentinel are ordinary text, not a trigger.
	text := "safety_prefix handling is discussed in the docs."
	filtered, triggered := ExtractSafetyPrefix(text)
	assert.False(t, triggered)
	assert.Equal(t, text, filtered)
}

func TestExtractSafetyPrefixMidText(t *testing.T) {
	// The sentinel only counts at the start of the response.
	text := "Here is why SAFETY_PREFIX exists as a marker."
	filtered, triggered := ExtractSafetyPrefix(text)
	assert.False(t, triggered)
	assert.Equal(t, text, filtered)
}
