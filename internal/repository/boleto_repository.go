package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/boleto-bot/internal/database"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

const boletoColumns = `id, owner_id, title, category, amount, due_date, paid_date, status, notes, created_at`

// BoletoRepository handles boleto database operations.
type BoletoRepository struct {
	db database.PGXDB
}

// NewBoletoRepository creates a new BoletoRepository.
func NewBoletoRepository(db database.PGXDB) *BoletoRepository {
	return &BoletoRepository{db: db}
}

// returning builds the column list read back from the store. Without the
// subcategory column an empty string is selected in its place.
func returning(caps models.Capabilities) string {
	if caps.Subcategories {
		return boletoColumns + `, COALESCE(subcategory, '')`
	}
	return boletoColumns + `, ''::text`
}

// ProbeSubcategoryColumn reports whether boletos has the subcategory column.
func (r *BoletoRepository) ProbeSubcategoryColumn(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema()
			  AND table_name = 'boletos'
			  AND column_name = 'subcategory'
		)
	`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to probe subcategory column: %w", err)
	}
	return exists, nil
}

// ListByOwner returns every boleto of an owner ordered by due date.
func (r *BoletoRepository) ListByOwner(ctx context.Context, ownerID string, caps models.Capabilities) ([]models.Boleto, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+returning(caps)+`
		FROM boletos
		WHERE owner_id = $1
		ORDER BY due_date ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boletos: %w", err)
	}
	defer rows.Close()

	return scanBoletos(rows)
}

// Create inserts a boleto and returns the row as stored.
func (r *BoletoRepository) Create(ctx context.Context, b models.Boleto, caps models.Capabilities) (models.Boleto, error) {
	cols := []string{"owner_id", "title", "category", "amount", "due_date", "paid_date", "status", "notes"}
	args := []any{b.OwnerID, b.Title, b.Category, b.Amount, b.DueDate, b.PaidDate, string(b.Status), b.Notes}
	if caps.Subcategories {
		cols = append(cols, "subcategory")
		args = append(args, nullIfEmpty(b.Subcategory))
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO boletos (%s) VALUES (%s) RETURNING %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), returning(caps))

	created, err := scanBoleto(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Boleto{}, fmt.Errorf("failed to create boleto: %w", err)
	}
	return created, nil
}

// Update writes only the fields set in the patch. The subcategory is left out
// when the store does not support it.
func (r *BoletoRepository) Update(
	ctx context.Context,
	ownerID string,
	id int64,
	patch models.BoletoPatch,
	caps models.Capabilities,
) error {
	if !caps.Subcategories {
		patch = patch.WithoutSubcategory()
	}

	args := []any{id, ownerID}
	var sets []string
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Subcategory != nil {
		set("subcategory", nullIfEmpty(*patch.Subcategory))
	}
	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	switch {
	case patch.ClearPaidDate:
		set("paid_date", nil)
		set("status", string(models.StatusPending))
	case patch.PaidDate != nil:
		set("paid_date", *patch.PaidDate)
		set("status", string(models.StatusPaid))
	}

	if len(sets) == 0 {
		// Only an unsupported field was patched; confirm the row exists.
		return r.exists(ctx, ownerID, id)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE boletos SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND owner_id = $2`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to update boleto: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update boleto %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// MarkPaid sets a pending boleto to PAID with the given payment date.
func (r *BoletoRepository) MarkPaid(ctx context.Context, ownerID string, id int64, paidDate time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE boletos SET status = 'PAID', paid_date = $3
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, paidDate)
	if err != nil {
		return fmt.Errorf("failed to mark boleto paid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark boleto %d paid: %w", id, models.ErrNotFound)
	}
	return nil
}

// Delete removes a boleto.
func (r *BoletoRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM boletos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete boleto: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete boleto %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *BoletoRepository) exists(ctx context.Context, ownerID string, id int64) error {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM boletos WHERE id = $1 AND owner_id = $2`, id, ownerID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update boleto %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up boleto: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanBoleto(row pgx.Row) (models.Boleto, error) {
	var b models.Boleto
	var status string
	if err := row.Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.Category, &b.Amount, &b.DueDate, &b.PaidDate,
		&status, &b.Notes, &b.CreatedAt, &b.Subcategory,
	); err != nil {
		return models.Boleto{}, err
	}
	b.Status = models.Status(status)
	b.DueDate = models.TruncateDate(b.DueDate)
	if b.PaidDate != nil {
		d := models.TruncateDate(*b.PaidDate)
		b.PaidDate = &d
	}
	return b, nil
}

// scanBoletos is a helper to scan boleto rows.
func scanBoletos(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Boleto, error) {
	var boletos []models.Boleto
	for rows.Next() {
		b, err := scanBoleto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boleto: %w", err)
		}
		boletos = append(boletos, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boletos: %w", err)
	}
	return boletos, nil
}
