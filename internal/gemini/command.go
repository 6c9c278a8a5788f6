package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"google.golang.org/genai"
)

const commandTimeout = 30 * time.Second

// maxMessageLength bounds the model's reply shown to the user.
const maxMessageLength = 1000

// FallbackMessage is shown when the model output cannot be understood.
const FallbackMessage = "Não consegui processar seu comando. Tente novamente."

// Action is the kind of change the model proposes.
type Action string

// Actions returned by ProcessCommand.
const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionReport Action = "REPORT"
	ActionError  Action = "ERROR"
)

// ProposedBoleto is a boleto as described by the model. It is untrusted and
// must be converted with Input or Patch before use.
type ProposedBoleto struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	Subcategory string           `json:"subcategory"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     string           `json:"dueDate"`
	PaidDate    string           `json:"paidDate"`
	Status      string           `json:"status"`
	Notes       string           `json:"notes"`
}

// ProposedCategoryTotal is one row of the model's report.
type ProposedCategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// ProposedReport is the model's own summary. Callers recompute totals locally.
type ProposedReport struct {
	ByCategory     []ProposedCategoryTotal `json:"byCategory"`
	TotalProjected float64                 `json:"totalProjected"`
	TotalPaid      float64                 `json:"totalPaid"`
	PaidPercent    float64                 `json:"paidPercent"`
}

// CommandResult is the parsed answer to a natural-language command.
type CommandResult struct {
	Action       Action           `json:"action"`
	UpdatedItems []ProposedBoleto `json:"updatedItems"`
	Message      string           `json:"message"`
	Report       *ProposedReport  `json:"report,omitempty"`
}

// CommandContext is the owner data the model may refer to.
type CommandContext struct {
	Categories    []string
	ReferenceDate time.Time
}

// promptBoleto is the JSON shape of current items embedded in the prompt.
type promptBoleto struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Amount      string `json:"amount"`
	DueDate     string `json:"dueDate"`
	PaidDate    string `json:"paidDate,omitempty"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`
}

// ProcessCommand sends a natural-language command together with the current
// boletos to Gemini and returns the proposed action. Output the model cannot
// express as valid JSON is reported as ActionError with FallbackMessage.
func (c *Client) ProcessCommand(ctx context.Context, command string, items []models.Boleto, cc CommandContext) (*CommandResult, error) {
	cmdHash := hashText(command)
	logger.Log.Debug().
		Str("command_hash", cmdHash).
		Int("item_count", len(items)).
		Msg("ProcessCommand called")

	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	sanitized := SanitizeForPrompt(command, MaxCommandLength)
	if sanitized == "" {
		return nil, fmt.Errorf("command is required")
	}

	stateJSON, err := encodePromptState(items)
	if err != nil {
		return nil, err
	}

	categories := make([]string, len(cc.Categories))
	for i, cat := range cc.Categories {
		categories[i] = SanitizeCategoryName(cat)
	}
	if len(categories) == 0 {
		categories = models.DefaultCategories
	}

	refDate := cc.ReferenceDate
	if refDate.IsZero() {
		refDate = models.DefaultReferenceDate
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildCommandPrompt(sanitized, stateJSON)}},
		},
	}

	temp := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(8192),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: buildSystemInstruction(refDate, categories)}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   commandSchema(),
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		logger.Log.Error().Err(err).
			Str("command_hash", cmdHash).
			Msg("ProcessCommand: Gemini API call failed")
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	result, ok := parseCommandResult(resp.Text())
	if !ok {
		logger.Log.Warn().
			Str("command_hash", cmdHash).
			Msg("ProcessCommand: unusable Gemini response")
		return &CommandResult{Action: ActionError, Message: FallbackMessage}, nil
	}

	logger.Log.Debug().
		Str("command_hash", cmdHash).
		Str("action", string(result.Action)).
		Int("proposed_items", len(result.UpdatedItems)).
		Msg("ProcessCommand: parsed Gemini response")

	return result, nil
}

func parseCommandResult(text string) (*CommandResult, bool) {
	jsonText := extractJSON(text)
	if jsonText == "" {
		return nil, false
	}

	var result CommandResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, false
	}

	result.Action = Action(strings.ToUpper(strings.TrimSpace(string(result.Action))))
	switch result.Action {
	case ActionAdd, ActionUpdate, ActionReport, ActionError:
	default:
		return nil, false
	}

	result.Message = sanitizeModelText(result.Message, maxMessageLength)
	if result.Action == ActionError && result.Message == "" {
		result.Message = FallbackMessage
	}
	return &result, true
}

func encodePromptState(items []models.Boleto) (string, error) {
	out := make([]promptBoleto, 0, len(items))
	for _, b := range items {
		pb := promptBoleto{
			ID:          strconv.FormatInt(b.ID, 10),
			Title:       SanitizeForPrompt(b.Title, MaxTitleLength),
			Category:    SanitizeCategoryName(b.Category),
			Subcategory: SanitizeCategoryName(b.Subcategory),
			Amount:      b.Amount.StringFixed(2),
			DueDate:     b.DueDate.Format(models.DateLayout),
			Status:      string(b.Status),
			Notes:       SanitizeForPrompt(b.Notes, MaxCommandLength),
		}
		if b.PaidDate != nil {
			pb.PaidDate = b.PaidDate.Format(models.DateLayout)
		}
		out = append(out, pb)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode boletos for prompt: %w", err)
	}
	return string(data), nil
}

func buildSystemInstruction(referenceDate time.Time, categories []string) string {
	return fmt.Sprintf(`You manage Brazilian bills (boletos) for a personal finance tracker. You are a JSON API and MUST respond with ONLY a single JSON object.

Reference date (today): %s

Actions:
- ADD: the user forecasts a new bill. Return only the new items in updatedItems with an empty id and status PENDING unless they say it was paid.
- UPDATE: the user changes or pays existing bills (a "baixa"). Return only the changed items with their existing id. A paid bill has status PAID and paidDate set; use the reference date when no date is given.
- REPORT: the user asks for a summary. Fill report and leave updatedItems empty.
- ERROR: the command cannot be understood or refers to unknown bills.

Rules:
- Dates use YYYY-MM-DD. Amounts are numbers in BRL with two decimals.
- Categories must be one of: %s
- A PENDING bill whose due date is before the reference date is overdue; mention it in message and add "🚨 ATRASADO" to its notes when you return it.
- Never delete bills.
- message is a short reply in Brazilian Portuguese.`,
		referenceDate.Format(models.DateLayout), strings.Join(categories, ", "))
}

func buildCommandPrompt(command, stateJSON string) string {
	return fmt.Sprintf("CURRENT BOLETOS: %s\n\nUSER COMMAND: \"%s\"", stateJSON, command)
}

func commandSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	num := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {
				Type: genai.TypeString,
				Enum: []string{string(ActionAdd), string(ActionUpdate), string(ActionReport), string(ActionError)},
			},
			"updatedItems": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          str("Existing id, or empty for a new bill"),
						"title":       str("Bill title"),
						"category":    str("Category from the allowed list"),
						"subcategory": str("Optional subcategory"),
						"amount":      num("Amount in BRL"),
						"dueDate":     str("Due date, YYYY-MM-DD"),
						"paidDate":    str("Payment date, YYYY-MM-DD, empty when pending"),
						"status":      {Type: genai.TypeString, Enum: []string{string(models.StatusPending), string(models.StatusPaid)}},
						"notes":       str("Free-form notes"),
					},
					Required: []string{"id", "title", "category", "amount", "dueDate", "status"},
				},
			},
			"message": str("Short reply to the user in Brazilian Portuguese"),
			"report": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"byCategory": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"category": str("Category name"),
								"total":    num("Sum of amounts in the category"),
							},
						},
					},
					"totalProjected": num("Sum of all amounts"),
					"totalPaid":      num("Sum of paid amounts"),
					"paidPercent":    num("Paid share of the total, 0 to 100"),
				},
			},
		},
		Required: []string{"action", "message"},
	}
}
