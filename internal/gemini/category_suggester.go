package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"google.golang.org/genai"
)

const suggestTimeout = 10 * time.Second

// CategorySuggestion represents a suggested category for a boleto title.
type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestCategory asks Gemini to pick the category from the owner's vocabulary
// that best fits a boleto title.
func (c *Client) SuggestCategory(ctx context.Context, title string, availableCategories []string) (*CategorySuggestion, error) {
	titleHash := hashText(title)
	logger.Log.Debug().
		Str("title_hash", titleHash).
		Int("category_count", len(availableCategories)).
		Msg("SuggestCategory called")

	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(availableCategories) == 0 {
		return nil, fmt.Errorf("no categories available")
	}

	allowed := make([]string, len(availableCategories))
	for i, cat := range availableCategories {
		allowed[i] = SanitizeCategoryName(cat)
	}

	prompt := buildCategorySuggestionPrompt(SanitizeForPrompt(title, MaxTitleLength), allowed)

	timeoutCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(500),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Enum:        allowed,
					Description: "The most appropriate category from the provided list",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Brief explanation for the categorization",
				},
			},
			Required: []string{"category", "confidence", "reasoning"},
		},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("title_hash", titleHash).
			Msg("SuggestCategory: Gemini API call failed")
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	jsonText := extractJSON(resp.Text())
	if jsonText == "" {
		logger.Log.Warn().
			Str("title_hash", titleHash).
			Msg("SuggestCategory: no JSON found in Gemini response")
		return nil, fmt.Errorf("no JSON found in response")
	}

	var suggestion CategorySuggestion
	if err := json.Unmarshal([]byte(jsonText), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	matched := ""
	for _, cat := range availableCategories {
		if strings.EqualFold(cat, suggestion.Category) {
			matched = cat
			break
		}
	}
	if matched == "" {
		logger.Log.Warn().
			Str("title_hash", titleHash).
			Str("suggested_category", suggestion.Category).
			Msg("SuggestCategory: suggested category not in available list")
		return nil, fmt.Errorf("suggested category '%s' not in available categories", suggestion.Category)
	}
	suggestion.Category = matched

	if suggestion.Confidence < 0.0 || suggestion.Confidence > 1.0 {
		return nil, fmt.Errorf("confidence out of range: %f", suggestion.Confidence)
	}

	suggestion.Reasoning = sanitizeModelText(suggestion.Reasoning, 500)

	logger.Log.Debug().
		Str("title_hash", titleHash).
		Str("category", suggestion.Category).
		Float64("confidence", suggestion.Confidence).
		Msg("SuggestCategory: matched category")

	return &suggestion, nil
}

// buildCategorySuggestionPrompt creates the prompt for category suggestion.
func buildCategorySuggestionPrompt(title string, categories []string) string {
	categoriesList := strings.Join(categories, "\n- ")

	return fmt.Sprintf(`Categorize this Brazilian bill (boleto): "%s"

Available categories:
- %s

Rules:
- Choose the MOST appropriate category from the list
- "Habitação" for rent, condo fees, electricity, water and gas
- "Saúde" for health plans, pharmacies and clinics
- "Educação" for school, courses and books
- "Outros" only when nothing else fits
- Higher confidence (0.8-1.0) for obvious categories, lower (0.5-0.7) for ambiguous ones

Return JSON only:
{"category": "exact category name", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`, title, categoriesList)
}
