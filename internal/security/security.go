// Package security holds prompt validation and the security event log.
package security

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const maxPromptLength = 1000

// forbiddenTerms are rejected by case-insensitive substring match before the
// prompt ever reaches the provider.
var forbiddenTerms = []string{"explicit", "nude", "pornography", "violence"}

type ValidationResult struct {
	Valid bool
	Error string
}

// ValidatePrompt applies the basic content rules: non-empty after trimming,
// bounded length, no forbidden term.
func ValidatePrompt(prompt string) ValidationResult {
	if strings.TrimSpace(prompt) == "" {
		return ValidationResult{Valid: false, Error: "Prompt cannot be empty"}
	}

	if len(prompt) > maxPromptLength {
		return ValidationResult{Valid: false, Error: "Prompt is too long (max 1000 characters)"}
	}

	lower := strings.ToLower(prompt)
	for _, term := range forbiddenTerms {
		if strings.Contains(lower, term) {
			return ValidationResult{Valid: false, Error: "Prompt contains forbidden content"}
		}
	}

	return ValidationResult{Valid: true}
}

// PromptPreview truncates a prompt for logging so full prompts never land in
// the logs or the database.
func PromptPreview(prompt string) string {
	if len(prompt) > 20 {
		return prompt[:20] + "..."
	}
	return prompt
}

// MaskAPIKey keeps only the first 3 and last 4 characters of a key.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "undefined"
	}
	if len(apiKey) <= 7 {
		return "***"
	}
	return apiKey[:3] + "..." + apiKey[len(apiKey)-4:]
}

// LogEvent writes a structured security event. Any api_key field is masked
// before it is logged.
func LogEvent(logger *logrus.Logger, event string, details logrus.Fields) {
	if details == nil {
		details = logrus.Fields{}
	}
	if key, ok := details["api_key"].(string); ok {
		details["api_key"] = MaskAPIKey(key)
	}
	logger.WithField("component", "security").WithFields(details).Info(event)
}
