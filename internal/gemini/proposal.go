package gemini

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

// ErrInvalidProposalID is returned when a proposed item does not name a valid id.
var ErrInvalidProposalID = errors.New("proposed item has no valid id")

// BoletoID parses the id of a proposed item.
func (p *ProposedBoleto) BoletoID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(p.ID), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidProposalID
	}
	return id, nil
}

// Input converts a proposed new item into a validated BoletoInput. A PAID
// item without a payment date is recorded as paid on referenceDate.
func (p *ProposedBoleto) Input(referenceDate time.Time) (models.BoletoInput, error) {
	if p.Amount == nil {
		return models.BoletoInput{}, models.ErrInvalidAmount
	}
	if strings.TrimSpace(p.DueDate) == "" {
		return models.BoletoInput{}, models.ErrMissingDueDate
	}
	due, err := models.ParseDate(p.DueDate)
	if err != nil {
		return models.BoletoInput{}, err
	}

	in := models.BoletoInput{
		Title:       p.Title,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Amount:      p.Amount.Round(2),
		DueDate:     due,
		Notes:       sanitizeModelText(p.Notes, maxMessageLength),
	}

	paid, err := p.paidDate(referenceDate)
	if err != nil {
		return models.BoletoInput{}, err
	}
	in.PaidDate = paid

	in.Normalize()
	if err := in.Validate(); err != nil {
		return models.BoletoInput{}, err
	}
	return in, nil
}

// Patch diffs a proposed item against the current boleto. Empty proposed
// fields leave the current value untouched, so the result may be empty.
func (p *ProposedBoleto) Patch(current models.Boleto, referenceDate time.Time) (models.BoletoPatch, error) {
	var patch models.BoletoPatch

	if t := strings.TrimSpace(p.Title); t != "" && t != current.Title {
		patch.Title = &t
	}
	if c := strings.TrimSpace(p.Category); c != "" && c != current.Category {
		patch.Category = &c
	}
	if s := strings.TrimSpace(p.Subcategory); s != "" && s != current.Subcategory {
		patch.Subcategory = &s
	}
	if p.Amount != nil {
		if a := p.Amount.Round(2); !a.Equal(current.Amount) {
			patch.Amount = &a
		}
	}
	if strings.TrimSpace(p.DueDate) != "" {
		due, err := models.ParseDate(p.DueDate)
		if err != nil {
			return models.BoletoPatch{}, err
		}
		if !due.Equal(current.DueDate) {
			patch.DueDate = &due
		}
	}
	if n := sanitizeModelText(p.Notes, maxMessageLength); n != "" && n != current.Notes {
		patch.Notes = &n
	}

	paid, err := p.paidDate(referenceDate)
	if err != nil {
		return models.BoletoPatch{}, err
	}
	switch {
	case paid == nil && current.IsPaid() && strings.TrimSpace(p.Status) != "":
		patch.ClearPaidDate = true
	case paid != nil && (current.PaidDate == nil || !paid.Equal(*current.PaidDate)):
		patch.PaidDate = paid
	}

	if patch.IsEmpty() {
		return patch, nil
	}
	if err := patch.Validate(); err != nil {
		return models.BoletoPatch{}, err
	}
	return patch, nil
}

// paidDate resolves the payment date implied by status and paidDate. A nil
// result means the item is pending.
func (p *ProposedBoleto) paidDate(referenceDate time.Time) (*time.Time, error) {
	status := models.StatusPending
	if strings.TrimSpace(p.PaidDate) != "" {
		status = models.StatusPaid
	}
	if s := strings.TrimSpace(p.Status); s != "" {
		parsed, err := models.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	if status == models.StatusPending {
		return nil, nil
	}

	if strings.TrimSpace(p.PaidDate) == "" {
		d := models.TruncateDate(referenceDate)
		return &d, nil
	}
	d, err := models.ParseDate(p.PaidDate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
