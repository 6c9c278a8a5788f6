package repository

import (
	"context"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/database"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

var _ state.Store = (*Store)(nil)

// Store bundles the repositories backing a session's state.
type Store struct {
	Boletos    *BoletoRepository
	Categories *CategoryRepository
}

// NewStore creates a Store over a pool or transaction.
func NewStore(db database.PGXDB) *Store {
	return &Store{
		Boletos:    NewBoletoRepository(db),
		Categories: NewCategoryRepository(db),
	}
}

func (s *Store) ProbeSubcategoryColumn(ctx context.Context) (bool, error) {
	return s.Boletos.ProbeSubcategoryColumn(ctx)
}

func (s *Store) ListBoletos(ctx context.Context, ownerID string, caps models.Capabilities) ([]models.Boleto, error) {
	return s.Boletos.ListByOwner(ctx, ownerID, caps)
}

func (s *Store) CreateBoleto(ctx context.Context, b models.Boleto, caps models.Capabilities) (models.Boleto, error) {
	return s.Boletos.Create(ctx, b, caps)
}

func (s *Store) UpdateBoleto(
	ctx context.Context,
	ownerID string,
	id int64,
	patch models.BoletoPatch,
	caps models.Capabilities,
) error {
	return s.Boletos.Update(ctx, ownerID, id, patch, caps)
}

func (s *Store) MarkPaid(ctx context.Context, ownerID string, id int64, paidDate time.Time) error {
	return s.Boletos.MarkPaid(ctx, ownerID, id, paidDate)
}

func (s *Store) DeleteBoleto(ctx context.Context, ownerID string, id int64) error {
	return s.Boletos.Delete(ctx, ownerID, id)
}

func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	return s.Categories.ListByOwner(ctx, ownerID)
}

func (s *Store) CreateCategory(ctx context.Context, ownerID, name string) error {
	return s.Categories.Create(ctx, ownerID, name)
}

func (s *Store) ListSubcategories(ctx context.Context, ownerID string) ([]models.Subcategory, error) {
	return s.Categories.ListSubcategoriesByOwner(ctx, ownerID)
}

func (s *Store) CreateSubcategory(ctx context.Context, ownerID, category, name string) error {
	return s.Categories.CreateSubcategory(ctx, ownerID, category, name)
}
