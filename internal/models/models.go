// Package models defines the domain entities for the boleto tracker.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for due and payment dates.
const DateLayout = "2006-01-02"

// MaxCategoryNameLength is the maximum allowed length for category and subcategory names.
const MaxCategoryNameLength = 50

// MaxTitleLength is the maximum allowed length for a boleto title.
const MaxTitleLength = 120

// DefaultReferenceDate is the date recorded when a boleto is marked paid.
var DefaultReferenceDate = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

// DefaultCategories seed every owner's category vocabulary.
var DefaultCategories = []string{
	"Habitação",
	"Lazer",
	"Saúde",
	"Educação",
	"Transporte",
	"Tecnologia",
	"Outros",
}

// Status is the payment status of a boleto.
type Status string

// Payment statuses.
const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Validation errors.
var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrTitleTooLong    = fmt.Errorf("title is too long (max %d characters)", MaxTitleLength)
	ErrInvalidAmount   = errors.New("amount must be a non-negative number")
	ErrMissingDueDate  = errors.New("due date is required")
	ErrEmptyCategory   = errors.New("category is required")
	ErrInvalidName     = errors.New("name must not be empty or contain control characters")
	ErrNameTooLong     = fmt.Errorf("name is too long (max %d characters)", MaxCategoryNameLength)
	ErrInvalidStatus   = errors.New("status must be PENDING or PAID")
	ErrStatusMismatch  = errors.New("status PAID requires a payment date")
	ErrEmptyPatch      = errors.New("nothing to update")
	ErrInvalidDate     = errors.New("dates must use the YYYY-MM-DD format")
	ErrInvalidPassword = errors.New("password must have at least 8 characters")
	ErrNotFound        = errors.New("boleto not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// Account is an authenticated user of the tracker.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Boleto is a single billable or payable record.
type Boleto struct {
	ID          int64
	OwnerID     string
	Title       string
	Category    string
	Subcategory string
	Amount      decimal.Decimal
	DueDate     time.Time
	PaidDate    *time.Time
	Status      Status
	Notes       string
	CreatedAt   time.Time
}

// IsPaid reports whether the boleto has been settled.
func (b *Boleto) IsPaid() bool {
	return b.Status == StatusPaid
}

// IsOverdue reports whether a pending boleto was due before the reference date.
func (b *Boleto) IsOverdue(referenceDate time.Time) bool {
	return !b.IsPaid() && TruncateDate(b.DueDate).Before(TruncateDate(referenceDate))
}

// BoletoInput carries the writable fields of a new boleto.
type BoletoInput struct {
	Title       string
	Category    string
	Subcategory string
	Amount      decimal.Decimal
	DueDate     time.Time
	PaidDate    *time.Time
	Notes       string
}

// Status derives the payment status from the presence of a payment date.
func (in *BoletoInput) Status() Status {
	if in.PaidDate != nil {
		return StatusPaid
	}
	return StatusPending
}

// Normalize trims free-text fields and truncates dates to calendar days.
func (in *BoletoInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Subcategory = strings.TrimSpace(in.Subcategory)
	in.Notes = strings.TrimSpace(in.Notes)
	in.DueDate = TruncateDate(in.DueDate)
	if in.PaidDate != nil {
		d := TruncateDate(*in.PaidDate)
		in.PaidDate = &d
	}
}

// Validate checks the input the same way for user and AI-proposed writes.
func (in *BoletoInput) Validate() error {
	if in.Title == "" {
		return ErrEmptyTitle
	}
	if len(in.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if in.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if in.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if in.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Boleto builds the entity for an owner from the input.
func (in *BoletoInput) Boleto(ownerID string) Boleto {
	return Boleto{
		OwnerID:     ownerID,
		Title:       in.Title,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		PaidDate:    in.PaidDate,
		Status:      in.Status(),
		Notes:       in.Notes,
	}
}

// BoletoPatch holds the mutable fields of an update; nil fields are left untouched.
type BoletoPatch struct {
	Title       *string
	Category    *string
	Subcategory *string
	Amount      *decimal.Decimal
	DueDate     *time.Time
	PaidDate    *time.Time
	Notes       *string

	// ClearPaidDate resets the boleto to PENDING.
	ClearPaidDate bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *BoletoPatch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Subcategory == nil &&
		p.Amount == nil && p.DueDate == nil && p.PaidDate == nil &&
		p.Notes == nil && !p.ClearPaidDate
}

// Validate checks the patched fields.
func (p *BoletoPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return ErrEmptyTitle
		}
		if len(t) > MaxTitleLength {
			return ErrTitleTooLong
		}
		p.Title = &t
	}
	if p.Category != nil {
		c := strings.TrimSpace(*p.Category)
		if c == "" {
			return ErrEmptyCategory
		}
		p.Category = &c
	}
	if p.Subcategory != nil {
		s := strings.TrimSpace(*p.Subcategory)
		p.Subcategory = &s
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if p.DueDate != nil {
		d := TruncateDate(*p.DueDate)
		p.DueDate = &d
	}
	if p.PaidDate != nil {
		if p.ClearPaidDate {
			return ErrStatusMismatch
		}
		d := TruncateDate(*p.PaidDate)
		p.PaidDate = &d
	}
	return nil
}

// WithoutSubcategory returns a copy of the patch that leaves the subcategory untouched.
func (p BoletoPatch) WithoutSubcategory() BoletoPatch {
	p.Subcategory = nil
	return p
}

// Apply shallow-merges the patch over a boleto, keeping its identity.
func (p *BoletoPatch) Apply(b Boleto) Boleto {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Subcategory != nil {
		b.Subcategory = *p.Subcategory
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.DueDate != nil {
		b.DueDate = *p.DueDate
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	switch {
	case p.ClearPaidDate:
		b.PaidDate = nil
		b.Status = StatusPending
	case p.PaidDate != nil:
		d := *p.PaidDate
		b.PaidDate = &d
		b.Status = StatusPaid
	}
	return b
}

// Subcategory is a user-added name scoped under a category.
type Subcategory struct {
	Category string
	Name     string
}

// Capabilities describes optional schema features detected on the store.
type Capabilities struct {
	Subcategories bool
}

// ValidateName checks a category or subcategory name and returns it trimmed.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", ErrInvalidName
		}
	}
	if len(name) > MaxCategoryNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// ParseStatus parses a status name, accepting the Portuguese labels too.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING", "PENDENTE":
		return StatusPending, nil
	case "PAID", "PAGO":
		return StatusPaid, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// TruncateDate drops the time-of-day component, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
