package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePromptAcceptsNormalPrompt(t *testing.T) {
	result := ValidatePrompt("a red fox in snow")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Error)
}

func TestValidatePromptRejectsEmpty(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\t\n"} {
		result := ValidatePrompt(prompt)
		assert.False(t, result.Valid, "prompt %q should be rejected", prompt)
	}
}

func TestValidatePromptRejectsTooLong(t *testing.T) {
	result := ValidatePrompt(strings.Repeat("a", 1001))
	assert.False(t, result.Valid)

	result = ValidatePrompt(strings.Repeat("a", 1000))
	assert.True(t, result.Valid, "exactly 1000 characters is allowed")
}

func TestValidatePromptRejectsForbiddenTerms(t *testing.T) {
	for _, prompt := range []string{
		"explicit nude content",
		"NUDE statue",
		"a scene of Violence",
		"pornography",
	} {
		result := ValidatePrompt(prompt)
		assert.False(t, result.Valid, "prompt %q should be rejected", prompt)
		assert.Equal(t, "Prompt contains forbidden content", result.Error)
	}
}

func TestPromptPreviewTruncates(t *testing.T) {
	assert.Equal(t, "short", PromptPreview("short"))
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa...", PromptPreview(strings.Repeat("a", 30)))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "undefined", MaskAPIKey(""))
	assert.Equal(t, "***", MaskAPIKey("sk-abc"))
	assert.Equal(t, "sk-...6789", MaskAPIKey("sk-123456789"))
}
