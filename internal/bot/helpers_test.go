package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/auth"
	"gitlab.com/yelinaung/boleto-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/boleto-bot/internal/config"
	"gitlab.com/yelinaung/boleto-bot/internal/gemini"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
	"gitlab.com/yelinaung/boleto-bot/internal/state/statetest"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/genai"
)

const (
	testChatID   int64 = 4242
	testEmail          = "ana@example.com"
	testPassword       = "segredo123"
)

type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*models.Account
	next    int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]*models.Account)}
}

func (f *fakeAccounts) Create(_ context.Context, email, hash string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return nil, models.ErrAccountExists
	}
	f.next++
	acc := &models.Account{ID: fmt.Sprintf("acc-%d", f.next), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byEmail[email] = acc
	return acc, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return acc, nil
}

// fakeGenerator answers every Gemini call with a canned response.
type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (g *fakeGenerator) GenerateContent(
	_ context.Context,
	_ string,
	_ []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: g.response}}},
		}},
	}, nil
}

func (g *fakeGenerator) respond(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.response = text
	g.err = nil
}

type testEnv struct {
	bot     *Bot
	tg      *mocks.MockBot
	store   *statetest.MemoryStore
	auth    *auth.Service
	gen     *fakeGenerator
	ownerID string
}

func testConfig() *config.Config {
	return &config.Config{
		TelegramBotToken:   "test-token",
		ReferenceDate:      models.DefaultReferenceDate,
		MessageTTL:         time.Hour,
		StoreTimeout:       time.Second,
		SearchNotes:        true,
		SearchSubcategory:  true,
		DueReminderEnabled: true,
		ReminderHour:       9,
		ReminderTimezone:   "UTC",
	}
}

type envOption func(*envSetup)

type envSetup struct {
	cfg *config.Config
	ai  bool
}

func withAI() envOption {
	return func(s *envSetup) { s.ai = true }
}

func withConfig(fn func(*config.Config)) envOption {
	return func(s *envSetup) { fn(s.cfg) }
}

// newTestEnv builds a Bot over an in-memory store with one signed-up account.
// Nobody is signed in yet.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	logger.InitHashSaltForTesting("test-salt")

	setup := &envSetup{cfg: testConfig()}
	for _, opt := range opts {
		opt(setup)
	}

	env := &testEnv{
		tg:    mocks.NewMockBot(),
		store: statetest.NewMemoryStore(),
		auth:  auth.NewService(newFakeAccounts(), auth.WithBcryptCost(bcrypt.MinCost)),
	}

	var gc *gemini.Client
	if setup.ai {
		env.gen = &fakeGenerator{}
		gc = gemini.NewClientWithGenerator(env.gen)
	}

	env.bot = newBot(setup.cfg, env.store, env.auth, gc)
	env.bot.messageSender = env.tg
	t.Cleanup(env.bot.unsubscribe)

	acc, err := env.auth.SignUp(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	env.ownerID = acc.ID

	return env
}

// seed stores boletos for the test account. Call before signIn.
func (e *testEnv) seed(boletos ...models.Boleto) []models.Boleto {
	for i := range boletos {
		boletos[i].OwnerID = e.ownerID
	}
	return e.store.Seed(boletos...)
}

// signIn opens a session for testChatID and returns its loaded state.
func (e *testEnv) signIn(t *testing.T) *state.State {
	t.Helper()
	_, err := e.auth.SignIn(context.Background(), testChatID, testEmail, testPassword)
	require.NoError(t, err)
	st, ok := e.bot.sessions.Get(testChatID)
	require.True(t, ok)
	return st
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func boleto(title, category, amount string, due time.Time) models.Boleto {
	return models.Boleto{
		Title:    title,
		Category: category,
		Amount:   mustParseDecimal(amount),
		DueDate:  due,
		Status:   models.StatusPending,
	}
}

func paidBoleto(title, category, amount string, due, paid time.Time) models.Boleto {
	b := boleto(title, category, amount, due)
	b.Status = models.StatusPaid
	b.PaidDate = &paid
	return b
}

// mustParseDecimal parses a decimal string or panics (for test data).
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}
