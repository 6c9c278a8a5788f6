package database

import (
	"context"
	"fmt"
)

// Migrations holds the schema statements in application order.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS boletos (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
		due_date DATE NOT NULL,
		paid_date DATE,
		status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'PAID')),
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT boletos_paid_date_matches_status CHECK ((status = 'PAID') = (paid_date IS NOT NULL))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_boletos_owner_due ON boletos(owner_id, due_date)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS subcategories (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		category_name TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (owner_id, category_name, name)
	)`,

	// Older deployments created boletos without this column; the bot
	// probes for it at session start and runs degraded when it is missing.
	`ALTER TABLE boletos ADD COLUMN IF NOT EXISTS subcategory TEXT`,
}

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	for i, migration := range Migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
