// Package auth manages accounts and the per-chat sign-in sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Authentication errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNotSignedIn        = errors.New("not signed in")
)

// AccountStore persists accounts.
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Session is a signed-in chat.
type Session struct {
	ChatID    int64
	OwnerID   string
	Email     string
	StartedAt time.Time
}

// EventKind tells subscribers what happened to a session.
type EventKind int

// Session events.
const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on every session change.
type Event struct {
	Kind    EventKind
	Session Session
}

// Listener receives session events.
type Listener func(ctx context.Context, ev Event)

// Service signs accounts up and in. Sessions are kept in memory per chat.
type Service struct {
	accounts AccountStore
	cost     int

	// dummyHash is compared against when the email is unknown so lookups
	// take the same time either way.
	dummyHash []byte

	mu        sync.RWMutex
	sessions  map[int64]Session
	listeners map[int]Listener
	nextID    int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService creates a Service.
func NewService(accounts AccountStore, opts ...Option) *Service {
	s := &Service{
		accounts:  accounts,
		cost:      bcrypt.DefaultCost,
		sessions:  make(map[int64]Session),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), s.cost)
	return s
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp registers a new account. It does not sign the caller in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, models.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, email, string(hash))
	if errors.Is(err, models.ErrAccountExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.Log.Info().
		Str("owner_hash", logger.HashOwnerID(acc.ID)).
		Str("email", logger.RedactEmail(email)).
		Msg("Account created")
	return acc, nil
}

// SignIn verifies the credentials and opens a session for the chat,
// replacing any previous one.
func (s *Service) SignIn(ctx context.Context, chatID int64, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrAccountNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	sess := Session{ChatID: chatID, OwnerID: acc.ID, Email: acc.Email, StartedAt: time.Now()}

	s.mu.Lock()
	s.sessions[chatID] = sess
	s.mu.Unlock()

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("owner_hash", logger.HashOwnerID(acc.ID)).
		Msg("Signed in")
	s.emit(ctx, Event{Kind: SignedIn, Session: sess})
	return sess, nil
}

// SignOut closes the session of a chat.
func (s *Service) SignOut(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	sess, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	s.mu.Unlock()

	if !ok {
		return ErrNotSignedIn
	}

	logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID)).Msg("Signed out")
	s.emit(ctx, Event{Kind: SignedOut, Session: sess})
	return nil
}

// Current returns the session of a chat.
func (s *Service) Current(chatID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// Subscribe registers a listener for session events and returns a func that
// removes it. Listeners run synchronously in registration order.
func (s *Service) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(ctx context.Context, ev Event) {
	s.mu.RLock()
	ids := slices.Sorted(maps.Keys(s.listeners))
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
}
