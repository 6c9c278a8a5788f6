// Package state holds the in-memory view of a signed-in owner's boletos and
// keeps it in step with the remote store.
package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
)

// Errors returned by State operations.
var (
	ErrNotFound        = models.ErrNotFound
	ErrAlreadyPaid     = errors.New("boleto is already paid")
	ErrNotLoaded       = errors.New("boletos are not loaded yet")
	ErrUnknownCategory = errors.New("unknown category")
)

// Connectivity describes the last known reachability of the store.
type Connectivity string

// Connectivity states.
const (
	Checking Connectivity = "checking"
	Online   Connectivity = "online"
	Offline  Connectivity = "offline"
)

// Store is the remote persistence used by State.
type Store interface {
	ProbeSubcategoryColumn(ctx context.Context) (bool, error)
	ListBoletos(ctx context.Context, ownerID string, caps models.Capabilities) ([]models.Boleto, error)
	CreateBoleto(ctx context.Context, b models.Boleto, caps models.Capabilities) (models.Boleto, error)
	UpdateBoleto(ctx context.Context, ownerID string, id int64, patch models.BoletoPatch, caps models.Capabilities) error
	MarkPaid(ctx context.Context, ownerID string, id int64, paidDate time.Time) error
	DeleteBoleto(ctx context.Context, ownerID string, id int64) error
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
	CreateCategory(ctx context.Context, ownerID, name string) error
	ListSubcategories(ctx context.Context, ownerID string) ([]models.Subcategory, error)
	CreateSubcategory(ctx context.Context, ownerID, category, name string) error
}

// Options configures a State.
type Options struct {
	// ReferenceDate is recorded as the payment date by MarkPaid.
	ReferenceDate time.Time
	StoreTimeout  time.Duration

	SearchNotes       bool
	SearchSubcategory bool
}

// State is the session state of one owner. It is safe for concurrent use.
// Every mutation is written to the store before the local copy changes, and
// the lock is never held across a store call.
type State struct {
	store   Store
	ownerID string
	opts    Options

	mu            sync.Mutex
	loaded        bool
	items         []models.Boleto
	categories    []string
	subcategories map[string][]string
	filter        report.Filter
	caps          models.Capabilities
	status        Connectivity
	lastSync      time.Time
}

// New creates an unloaded State for an owner.
func New(store Store, ownerID string, opts Options) *State {
	if opts.ReferenceDate.IsZero() {
		opts.ReferenceDate = models.DefaultReferenceDate
	}
	return &State{
		store:         store,
		ownerID:       ownerID,
		opts:          opts,
		categories:    slices.Clone(models.DefaultCategories),
		subcategories: make(map[string][]string),
		filter: report.Filter{
			Status:            report.StatusAll,
			SearchNotes:       opts.SearchNotes,
			SearchSubcategory: opts.SearchSubcategory,
		},
		status: Checking,
	}
}

// OwnerID returns the owner this state belongs to.
func (s *State) OwnerID() string {
	return s.ownerID
}

func (s *State) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

func (s *State) setStatus(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.status = Offline
		return
	}
	s.status = Online
}

// Load replaces the local state with a fresh copy from the store.
// The subcategory capability is resolved here and kept until the next Load.
func (s *State) Load(ctx context.Context) (err error) {
	ctx, end := startSpan(ctx, "state.Load", s.ownerID)
	defer func() { end(err) }()

	s.mu.Lock()
	s.status = Checking
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	hasSub, err := s.store.ProbeSubcategoryColumn(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Subcategory probe failed, running without subcategories")
		hasSub = false
	}
	caps := models.Capabilities{Subcategories: hasSub}

	items, err := s.store.ListBoletos(ctx, s.ownerID, caps)
	if err != nil {
		s.setStatus(err)
		return fmt.Errorf("failed to load boletos: %w", err)
	}
	custom, err := s.store.ListCategories(ctx, s.ownerID)
	if err != nil {
		s.setStatus(err)
		return fmt.Errorf("failed to load categories: %w", err)
	}
	subs, err := s.store.ListSubcategories(ctx, s.ownerID)
	if err != nil {
		s.setStatus(err)
		return fmt.Errorf("failed to load subcategories: %w", err)
	}

	categories := slices.Clone(models.DefaultCategories)
	for _, name := range custom {
		if !slices.Contains(categories, name) {
			categories = append(categories, name)
		}
	}
	subcategories := make(map[string][]string)
	for _, sub := range subs {
		if !slices.Contains(subcategories[sub.Category], sub.Name) {
			subcategories[sub.Category] = append(subcategories[sub.Category], sub.Name)
		}
	}

	s.mu.Lock()
	s.items = items
	s.categories = categories
	s.subcategories = subcategories
	s.caps = caps
	s.loaded = true
	s.status = Online
	s.lastSync = time.Now()
	s.mu.Unlock()

	logger.Log.Debug().
		Str("owner_hash", logger.HashOwnerID(s.ownerID)).
		Int("boletos", len(items)).
		Bool("subcategories", caps.Subcategories).
		Msg("Session state loaded")
	return nil
}

// Loaded reports whether Load has completed at least once.
func (s *State) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Items returns a copy of every boleto in store order.
func (s *State) Items() []models.Boleto {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Item returns the boleto with the given id.
func (s *State) Item(id int64) (models.Boleto, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Boleto{}, false
	}
	return s.items[i], true
}

// Visible returns the boletos matching the current filter.
func (s *State) Visible() []models.Boleto {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Apply(s.items, s.filter)
}

// Report aggregates the full list of boletos regardless of the filter.
func (s *State) Report() report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Aggregate(s.items)
}

// Filter returns the current filter.
func (s *State) Filter() report.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the filter. Which text fields the term searches is
// decided by the state's options.
func (s *State) SetFilter(f report.Filter) {
	f.SearchNotes = s.opts.SearchNotes
	f.SearchSubcategory = s.opts.SearchSubcategory
	if f.Status == "" {
		f.Status = report.StatusAll
	}
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

// ClearFilter resets the filter so every boleto is visible.
func (s *State) ClearFilter() {
	s.SetFilter(report.Filter{})
}

// Categories returns the category vocabulary, defaults first.
func (s *State) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

// Subcategories returns the subcategories known for a category.
func (s *State) Subcategories(category string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subcategories[category])
}

// Capabilities returns the store features resolved by the last Load.
func (s *State) Capabilities() models.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// Status returns the last known store connectivity.
func (s *State) Status() Connectivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSync returns when the state was last loaded.
func (s *State) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *State) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(b models.Boleto) bool { return b.ID == id })
}

// snapshot returns the local copy of a boleto and the store capabilities.
func (s *State) snapshot(id int64) (models.Boleto, models.Capabilities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.Boleto{}, s.caps, ErrNotLoaded
	}
	i := s.indexOf(id)
	if i < 0 {
		return models.Boleto{}, s.caps, ErrNotFound
	}
	return s.items[i], s.caps, nil
}

// Create validates and inserts a new boleto, then appends the row returned by the store.
func (s *State) Create(ctx context.Context, in models.BoletoInput) (created models.Boleto, err error) {
	ctx, end := startSpan(ctx, "state.Create", s.ownerID)
	defer func() { end(err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return models.Boleto{}, err
	}

	s.mu.Lock()
	loaded, caps := s.loaded, s.caps
	s.mu.Unlock()
	if !loaded {
		return models.Boleto{}, ErrNotLoaded
	}

	b := in.Boleto(s.ownerID)
	if !caps.Subcategories {
		b.Subcategory = ""
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	created, err = s.store.CreateBoleto(ctx, b, caps)
	s.setStatus(err)
	if err != nil {
		return models.Boleto{}, fmt.Errorf("failed to save boleto: %w", err)
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()

	recordMutation(ctx, "create")
	return created, nil
}

// Update sends only the patched fields, then merges them over the local entry.
func (s *State) Update(ctx context.Context, id int64, patch models.BoletoPatch) (updated models.Boleto, err error) {
	ctx, end := startSpan(ctx, "state.Update", s.ownerID)
	defer func() { end(err) }()

	if err := patch.Validate(); err != nil {
		return models.Boleto{}, err
	}

	_, caps, err := s.snapshot(id)
	if err != nil {
		return models.Boleto{}, err
	}
	if !caps.Subcategories {
		patch = patch.WithoutSubcategory()
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = s.store.UpdateBoleto(ctx, s.ownerID, id, patch, caps)
	s.setStatus(err)
	if err != nil {
		return models.Boleto{}, fmt.Errorf("failed to update boleto: %w", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i] = patch.Apply(s.items[i])
		updated = s.items[i]
	}
	s.mu.Unlock()

	recordMutation(ctx, "update")
	return updated, nil
}

// MarkPaid settles a pending boleto with the configured reference date.
func (s *State) MarkPaid(ctx context.Context, id int64) (paid models.Boleto, err error) {
	ctx, end := startSpan(ctx, "state.MarkPaid", s.ownerID)
	defer func() { end(err) }()

	current, _, err := s.snapshot(id)
	if err != nil {
		return models.Boleto{}, err
	}
	if current.IsPaid() {
		return models.Boleto{}, ErrAlreadyPaid
	}

	paidDate := models.TruncateDate(s.opts.ReferenceDate)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = s.store.MarkPaid(ctx, s.ownerID, id, paidDate)
	s.setStatus(err)
	if err != nil {
		return models.Boleto{}, fmt.Errorf("failed to mark boleto paid: %w", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		d := paidDate
		s.items[i].Status = models.StatusPaid
		s.items[i].PaidDate = &d
		paid = s.items[i]
	}
	s.mu.Unlock()

	recordMutation(ctx, "mark_paid")
	return paid, nil
}

// Delete removes a boleto from the store and then from the local list.
// Callers are expected to confirm with the user first.
func (s *State) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := startSpan(ctx, "state.Delete", s.ownerID)
	defer func() { end(err) }()

	if _, _, err := s.snapshot(id); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = s.store.DeleteBoleto(ctx, s.ownerID, id)
	s.setStatus(err)
	if err != nil {
		return fmt.Errorf("failed to delete boleto: %w", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()

	recordMutation(ctx, "delete")
	return nil
}

// AddCategory adds a name to the category vocabulary. It reports false
// without touching the store when the name is already known.
func (s *State) AddCategory(ctx context.Context, name string) (added bool, err error) {
	ctx, end := startSpan(ctx, "state.AddCategory", s.ownerID)
	defer func() { end(err) }()

	name, err = models.ValidateName(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	exists := slices.Contains(s.categories, name)
	s.mu.Unlock()
	if exists {
		return false, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = s.store.CreateCategory(ctx, s.ownerID, name)
	s.setStatus(err)
	if err != nil {
		return false, fmt.Errorf("failed to save category: %w", err)
	}

	s.mu.Lock()
	if !slices.Contains(s.categories, name) {
		s.categories = append(s.categories, name)
	}
	s.mu.Unlock()

	recordMutation(ctx, "add_category")
	return true, nil
}

// AddSubcategory adds a name under a known category.
func (s *State) AddSubcategory(ctx context.Context, category, name string) (added bool, err error) {
	ctx, end := startSpan(ctx, "state.AddSubcategory", s.ownerID)
	defer func() { end(err) }()

	category, err = models.ValidateName(category)
	if err != nil {
		return false, err
	}
	name, err = models.ValidateName(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	known := slices.Contains(s.categories, category)
	exists := slices.Contains(s.subcategories[category], name)
	s.mu.Unlock()
	if !known {
		return false, ErrUnknownCategory
	}
	if exists {
		return false, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = s.store.CreateSubcategory(ctx, s.ownerID, category, name)
	s.setStatus(err)
	if err != nil {
		return false, fmt.Errorf("failed to save subcategory: %w", err)
	}

	s.mu.Lock()
	if !slices.Contains(s.subcategories[category], name) {
		s.subcategories[category] = append(s.subcategories[category], name)
	}
	s.mu.Unlock()

	recordMutation(ctx, "add_subcategory")
	return true, nil
}
