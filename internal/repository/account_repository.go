package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/boleto-bot/internal/database"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

const uniqueViolation = "23505"

// AccountRepository handles account database operations.
type AccountRepository struct {
	db database.PGXDB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db database.PGXDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create registers a new account.
func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	var acc models.Account
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash) VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`, email, passwordHash).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, models.ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &acc, nil
}

// GetByEmail retrieves an account by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1
	`, email).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acc, nil
}
