package gemini

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// MaxCommandLength is the maximum length of a natural-language command sent to the model.
const MaxCommandLength = 500

// MaxTitleLength is the maximum length of a boleto title embedded in a prompt.
const MaxTitleLength = 200

// MaxCategoryNameLength is the maximum length of a category name embedded in a prompt.
const MaxCategoryNameLength = 50

// extractJSON extracts a JSON object from text that may contain preamble.
// Gemini sometimes returns responses like "Here is the JSON:\n{...}" even
// when ResponseMIMEType is set to application/json.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// SanitizeForPrompt sanitizes user input to prevent prompt injection attacks.
// Quotes are replaced and whitespace collapsed before the result is cut to
// maxLength bytes on a rune boundary.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Splitting on any whitespace also removes newline injection.
	input = strings.Join(strings.Fields(input), " ")

	return truncate(input, maxLength)
}

// SanitizeCategoryName sanitizes a category name for safe embedding in prompts.
func SanitizeCategoryName(name string) string {
	return SanitizeForPrompt(name, MaxCategoryNameLength)
}

// sanitizeModelText normalizes free text produced by the model before it is
// shown to the user or persisted.
func sanitizeModelText(text string, maxLength int) string {
	return truncate(strings.Join(strings.Fields(text), " "), maxLength)
}

// truncate cuts s to at most maxLength bytes without splitting a rune.
func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	n := maxLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}

// hashText creates a short SHA256 hash of user text for secure logging.
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8])
}
