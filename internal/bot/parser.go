package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
)

// Argument errors.
var (
	ErrInvalidID      = errors.New("boleto id must be a positive number")
	ErrUnknownField   = errors.New("unknown field")
	ErrMissingFields  = errors.New("missing required fields")
	ErrTooManyFields  = errors.New("too many fields")
	ErrInvalidPaidArg = errors.New("paid must be yes, no or a date")
)

const (
	fieldSeparator      = "|"
	assignmentSeparator = ";"
	maxAddFields        = 7
)

// amountRegex matches a normalized amount like "5", "5.5" or "1234.56".
var amountRegex = regexp.MustCompile(`^\d+(\.\d+)?$`)

// extractCommandArgs strips the leading command (and any @botname suffix) from a message.
func extractCommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if idx := strings.IndexAny(text, " \n\t"); idx != -1 {
		return strings.TrimSpace(text[idx:])
	}
	return ""
}

// ParseAmount parses an amount written the Brazilian way ("1.234,56", "99,90")
// or with a decimal point ("1234.56"). A currency prefix is ignored. A single
// dot followed by exactly three digits is a thousands separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "r$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, models.ErrInvalidAmount
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, models.ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case lastDot >= 0 && len(s)-lastDot-1 == 3:
		s = strings.Replace(s, ".", "", 1)
	}

	if !amountRegex.MatchString(s) {
		return decimal.Zero, models.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, models.ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ParseDateArg parses YYYY-MM-DD, DD/MM/YYYY or DD/MM. The short form takes
// the reference year; "hoje" and "today" mean the reference date.
func ParseDateArg(s string, referenceDate time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "hoje", "today":
		return models.TruncateDate(referenceDate), nil
	}

	if t, err := models.ParseDate(s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2/1/2006", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2/1", s); err == nil {
		d := time.Date(referenceDate.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if d.Month() != t.Month() || d.Day() != t.Day() {
			return time.Time{}, models.ErrInvalidDate
		}
		return d, nil
	}
	return time.Time{}, models.ErrInvalidDate
}

// parsePaidArg interprets a paid flag. It returns the payment date for a paid
// value, clear=true for an explicit "not paid", and neither for an empty value.
func parsePaidArg(s string, referenceDate time.Time) (paidDate *time.Time, clear bool, err error) {
	switch foldName(s) {
	case "":
		return nil, false, nil
	case "sim", "s", "yes", "y", "true", "pago", "paid":
		d := models.TruncateDate(referenceDate)
		return &d, false, nil
	case "nao", "n", "no", "false", "pendente", "pending":
		return nil, true, nil
	}
	d, err := ParseDateArg(s, referenceDate)
	if err != nil {
		return nil, false, ErrInvalidPaidArg
	}
	return &d, false, nil
}

// ParseAddCommand parses
//
//	Title | amount | due date [| category [| subcategory [| notes [| paid]]]]
//
// The category is returned as typed; resolving it against the vocabulary is
// up to the caller.
func ParseAddCommand(args string, referenceDate time.Time) (models.BoletoInput, error) {
	var in models.BoletoInput

	parts := strings.Split(args, fieldSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return in, ErrMissingFields
	}
	if len(parts) > maxAddFields {
		return in, ErrTooManyFields
	}

	in.Title = parts[0]

	amount, err := ParseAmount(parts[1])
	if err != nil {
		return in, err
	}
	in.Amount = amount

	due, err := ParseDateArg(parts[2], referenceDate)
	if err != nil {
		return in, err
	}
	in.DueDate = due

	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	in.Category = field(3)
	in.Subcategory = field(4)
	in.Notes = field(5)

	paidDate, _, err := parsePaidArg(field(6), referenceDate)
	if err != nil {
		return in, err
	}
	in.PaidDate = paidDate

	return in, nil
}

type assignment struct {
	key   string
	value string
}

// parseAssignments splits "key=value; key=value". Keys are folded.
func parseAssignments(s string) ([]assignment, error) {
	var out []assignment
	for part := range strings.SplitSeq(s, assignmentSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, part)
		}
		out = append(out, assignment{key: foldName(key), value: strings.TrimSpace(value)})
	}
	return out, nil
}

// parseID parses a boleto id written as "12" or "#12".
func parseID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseEditCommand parses "<id> field=value; field=value". Recognized fields
// are titulo, valor, vencimento, categoria, sub, obs and pago (with English
// aliases). The category is returned as typed.
func ParseEditCommand(args string, referenceDate time.Time) (int64, models.BoletoPatch, error) {
	var patch models.BoletoPatch

	args = strings.TrimSpace(args)
	idStr, rest, _ := strings.Cut(args, " ")
	id, err := parseID(idStr)
	if err != nil {
		return 0, patch, err
	}

	fields, err := parseAssignments(rest)
	if err != nil {
		return 0, patch, err
	}
	if len(fields) == 0 {
		return 0, patch, ErrMissingFields
	}

	for _, f := range fields {
		v := f.value
		switch f.key {
		case "titulo", "title":
			patch.Title = &v
		case "valor", "amount":
			amount, err := ParseAmount(v)
			if err != nil {
				return 0, patch, err
			}
			patch.Amount = &amount
		case "vencimento", "due":
			due, err := ParseDateArg(v, referenceDate)
			if err != nil {
				return 0, patch, err
			}
			patch.DueDate = &due
		case "categoria", "category":
			patch.Category = &v
		case "sub", "subcategoria", "subcategory":
			patch.Subcategory = &v
		case "obs", "notas", "notes":
			patch.Notes = &v
		case "pago", "paid", "status":
			paidDate, clear, err := parsePaidArg(v, referenceDate)
			if err != nil {
				return 0, patch, err
			}
			patch.PaidDate = paidDate
			patch.ClearPaidDate = clear
		default:
			return 0, patch, fmt.Errorf("%w: %q", ErrUnknownField, f.key)
		}
	}

	return id, patch, nil
}

// ParseFilterArgs parses "q=term; status=pendente; de=date; ate=date".
// Text without any assignment is taken as the search term.
func ParseFilterArgs(args string, referenceDate time.Time) (report.Filter, error) {
	f := report.Filter{Status: report.StatusAll}

	args = strings.TrimSpace(args)
	if !strings.Contains(args, "=") {
		f.Term = args
		return f, nil
	}

	fields, err := parseAssignments(args)
	if err != nil {
		return f, err
	}

	for _, a := range fields {
		switch a.key {
		case "q", "busca", "termo", "term":
			f.Term = a.value
		case "status":
			st, err := report.ParseStatusFilter(a.value)
			if err != nil {
				return f, err
			}
			f.Status = st
		case "de", "inicio", "from":
			d, err := ParseDateArg(a.value, referenceDate)
			if err != nil {
				return f, err
			}
			f.Start = &d
		case "ate", "fim", "to":
			d, err := ParseDateArg(a.value, referenceDate)
			if err != nil {
				return f, err
			}
			f.End = &d
		default:
			return f, fmt.Errorf("%w: %q", ErrUnknownField, a.key)
		}
	}

	return f, nil
}

// parseCallbackID extracts the boleto id from callback data like "paid_12".
func parseCallbackID(data, prefix string) (int64, error) {
	if !strings.HasPrefix(data, prefix) {
		return 0, ErrInvalidID
	}
	return parseID(strings.TrimPrefix(data, prefix))
}
