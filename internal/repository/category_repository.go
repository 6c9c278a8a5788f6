// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/boleto-bot/internal/database"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

// CategoryRepository handles the per-owner category and subcategory vocabularies.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByOwner retrieves the custom categories of an owner in insertion order.
func (r *CategoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name FROM categories WHERE owner_id = $1 ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return names, nil
}

// Create adds a category for an owner. Existing names are left as they are.
func (r *CategoryRepository) Create(ctx context.Context, ownerID, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO categories (owner_id, name) VALUES ($1, $2)
		ON CONFLICT (owner_id, name) DO NOTHING
	`, ownerID, name)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListSubcategoriesByOwner retrieves every subcategory of an owner in insertion order.
func (r *CategoryRepository) ListSubcategoriesByOwner(ctx context.Context, ownerID string) ([]models.Subcategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_name, name FROM subcategories WHERE owner_id = $1 ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer rows.Close()

	var subs []models.Subcategory
	for rows.Next() {
		var s models.Subcategory
		if err := rows.Scan(&s.Category, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subcategories: %w", err)
	}
	return subs, nil
}

// CreateSubcategory adds a subcategory under a category for an owner.
func (r *CategoryRepository) CreateSubcategory(ctx context.Context, ownerID, category, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subcategories (owner_id, category_name, name) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, category_name, name) DO NOTHING
	`, ownerID, category, name)
	if err != nil {
		return fmt.Errorf("failed to create subcategory: %w", err)
	}
	return nil
}
