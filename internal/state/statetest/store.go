// Package statetest provides an in-memory Store for tests.
package statetest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

// ErrUnavailable is returned by every call while the store is down.
var ErrUnavailable = errors.New("store unavailable")

// Call records a single store invocation.
type Call struct {
	Method  string
	OwnerID string
	ID      int64
	Patch   models.BoletoPatch
	Caps    models.Capabilities
}

// MemoryStore is an in-memory implementation of state.Store.
type MemoryStore struct {
	mu sync.Mutex

	// NoSubcategoryColumn makes the probe report a missing column.
	NoSubcategoryColumn bool
	// Down makes every call fail with ErrUnavailable.
	Down bool
	// ProbeErr makes only the subcategory probe fail.
	ProbeErr error

	nextID        int64
	boletos       []models.Boleto
	categories    map[string][]string
	subcategories map[string][]models.Subcategory
	calls         []Call
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories:    make(map[string][]string),
		subcategories: make(map[string][]models.Subcategory),
	}
}

// SetDown toggles store availability.
func (m *MemoryStore) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Down = down
}

// Seed inserts boletos directly, assigning ids when missing.
func (m *MemoryStore) Seed(boletos ...models.Boleto) []models.Boleto {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Boleto, 0, len(boletos))
	for _, b := range boletos {
		if b.ID == 0 {
			m.nextID++
			b.ID = m.nextID
		} else if b.ID > m.nextID {
			m.nextID = b.ID
		}
		m.boletos = append(m.boletos, b)
		out = append(out, b)
	}
	return out
}

// Boletos returns a copy of the stored boletos of an owner.
func (m *MemoryStore) Boletos(ownerID string) []models.Boleto {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Boleto
	for _, b := range m.boletos {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out
}

// Calls returns every recorded invocation.
func (m *MemoryStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many times a method was invoked.
func (m *MemoryStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MemoryStore) record(c Call) error {
	m.calls = append(m.calls, c)
	if m.Down {
		return ErrUnavailable
	}
	return nil
}

func (m *MemoryStore) index(ownerID string, id int64) int {
	return slices.IndexFunc(m.boletos, func(b models.Boleto) bool {
		return b.ID == id && b.OwnerID == ownerID
	})
}

func (m *MemoryStore) ProbeSubcategoryColumn(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "ProbeSubcategoryColumn"}); err != nil {
		return false, err
	}
	if m.ProbeErr != nil {
		return false, m.ProbeErr
	}
	return !m.NoSubcategoryColumn, nil
}

func (m *MemoryStore) ListBoletos(_ context.Context, ownerID string, caps models.Capabilities) ([]models.Boleto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "ListBoletos", OwnerID: ownerID, Caps: caps}); err != nil {
		return nil, err
	}
	var out []models.Boleto
	for _, b := range m.boletos {
		if b.OwnerID != ownerID {
			continue
		}
		if !caps.Subcategories {
			b.Subcategory = ""
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b models.Boleto) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *MemoryStore) CreateBoleto(_ context.Context, b models.Boleto, caps models.Capabilities) (models.Boleto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "CreateBoleto", OwnerID: b.OwnerID, Caps: caps}); err != nil {
		return models.Boleto{}, err
	}
	m.nextID++
	b.ID = m.nextID
	b.CreatedAt = time.Now()
	if !caps.Subcategories || m.NoSubcategoryColumn {
		b.Subcategory = ""
	}
	m.boletos = append(m.boletos, b)
	return b, nil
}

func (m *MemoryStore) UpdateBoleto(
	_ context.Context,
	ownerID string,
	id int64,
	patch models.BoletoPatch,
	caps models.Capabilities,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "UpdateBoleto", OwnerID: ownerID, ID: id, Patch: patch, Caps: caps}); err != nil {
		return err
	}
	i := m.index(ownerID, id)
	if i < 0 {
		return models.ErrNotFound
	}
	if !caps.Subcategories {
		patch = patch.WithoutSubcategory()
	}
	m.boletos[i] = patch.Apply(m.boletos[i])
	return nil
}

func (m *MemoryStore) MarkPaid(_ context.Context, ownerID string, id int64, paidDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "MarkPaid", OwnerID: ownerID, ID: id}); err != nil {
		return err
	}
	i := m.index(ownerID, id)
	if i < 0 {
		return models.ErrNotFound
	}
	m.boletos[i].Status = models.StatusPaid
	m.boletos[i].PaidDate = &paidDate
	return nil
}

func (m *MemoryStore) DeleteBoleto(_ context.Context, ownerID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "DeleteBoleto", OwnerID: ownerID, ID: id}); err != nil {
		return err
	}
	i := m.index(ownerID, id)
	if i < 0 {
		return models.ErrNotFound
	}
	m.boletos = slices.Delete(m.boletos, i, i+1)
	return nil
}

func (m *MemoryStore) ListCategories(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "ListCategories", OwnerID: ownerID}); err != nil {
		return nil, err
	}
	return slices.Clone(m.categories[ownerID]), nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, ownerID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "CreateCategory", OwnerID: ownerID}); err != nil {
		return err
	}
	if !slices.Contains(m.categories[ownerID], name) {
		m.categories[ownerID] = append(m.categories[ownerID], name)
	}
	return nil
}

func (m *MemoryStore) ListSubcategories(_ context.Context, ownerID string) ([]models.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "ListSubcategories", OwnerID: ownerID}); err != nil {
		return nil, err
	}
	return slices.Clone(m.subcategories[ownerID]), nil
}

func (m *MemoryStore) CreateSubcategory(_ context.Context, ownerID, category, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Call{Method: "CreateSubcategory", OwnerID: ownerID}); err != nil {
		return err
	}
	sub := models.Subcategory{Category: category, Name: name}
	if !slices.Contains(m.subcategories[ownerID], sub) {
		m.subcategories[ownerID] = append(m.subcategories[ownerID], sub)
	}
	return nil
}
