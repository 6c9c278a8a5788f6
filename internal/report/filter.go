// Package report provides the filtering and aggregation views over boletos.
package report

import (
	"errors"
	"slices"
	"strings"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

// StatusFilter restricts boletos by payment status.
type StatusFilter string

// Status filters.
const (
	StatusAll     StatusFilter = "ALL"
	StatusPaid    StatusFilter = StatusFilter(models.StatusPaid)
	StatusPending StatusFilter = StatusFilter(models.StatusPending)
)

// ErrInvalidStatusFilter is returned for unknown status filter names.
var ErrInvalidStatusFilter = errors.New("status must be ALL, PAID or PENDING")

// ParseStatusFilter parses a status filter name. Empty means ALL.
func ParseStatusFilter(s string) (StatusFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(StatusAll)) || strings.EqualFold(s, "todos") {
		return StatusAll, nil
	}
	st, err := models.ParseStatus(s)
	if err != nil {
		return "", ErrInvalidStatusFilter
	}
	return StatusFilter(st), nil
}

// Filter narrows a list of boletos. The zero value matches everything.
type Filter struct {
	Term   string
	Status StatusFilter
	Start  *time.Time
	End    *time.Time

	// SearchNotes and SearchSubcategory extend the term match beyond title and category.
	SearchNotes       bool
	SearchSubcategory bool
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Term) == "" &&
		(f.Status == "" || f.Status == StatusAll) &&
		f.Start == nil && f.End == nil
}

// Matches reports whether a boleto passes every predicate of the filter.
func (f Filter) Matches(b models.Boleto) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		if !f.matchesTerm(b, term) {
			return false
		}
	}

	if f.Status != "" && f.Status != StatusAll && string(b.Status) != string(f.Status) {
		return false
	}

	due := models.TruncateDate(b.DueDate)
	if f.Start != nil && due.Before(models.TruncateDate(*f.Start)) {
		return false
	}
	if f.End != nil && due.After(models.TruncateDate(*f.End)) {
		return false
	}
	return true
}

func (f Filter) matchesTerm(b models.Boleto, term string) bool {
	fields := []string{b.Title, b.Category}
	if f.SearchNotes {
		fields = append(fields, b.Notes)
	}
	if f.SearchSubcategory {
		fields = append(fields, b.Subcategory)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Apply returns the boletos that match the filter, preserving their order.
// The input slice is never modified.
func Apply(items []models.Boleto, f Filter) []models.Boleto {
	if f.IsZero() {
		return slices.Clone(items)
	}
	out := make([]models.Boleto, 0, len(items))
	for _, b := range items {
		if f.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}
