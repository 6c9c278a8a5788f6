package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	mu       sync.Mutex
	byEmail  map[string]*models.Account
	next     int
	failWith error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]*models.Account)}
}

func (f *fakeAccounts) Create(_ context.Context, email, hash string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
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
	if f.failWith != nil {
		return nil, f.failWith
	}
	acc, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return acc, nil
}

func newTestService(t *testing.T) (*Service, *fakeAccounts) {
	t.Helper()
	accounts := newFakeAccounts()
	return NewService(accounts, WithBcryptCost(bcrypt.MinCost)), accounts
}

func TestSignUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores a bcrypt hash", func(t *testing.T) {
		t.Parallel()
		svc, accounts := newTestService(t)

		acc, err := svc.SignUp(ctx, "  Ana@Example.com ", "segredo123")
		require.NoError(t, err)
		require.Equal(t, "ana@example.com", acc.Email)

		stored := accounts.byEmail["ana@example.com"]
		require.NotEqual(t, "segredo123", stored.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("segredo123")))
	})

	t.Run("does not sign in", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.NoError(t, err)
		_, ok := svc.Current(1)
		require.False(t, ok)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.NoError(t, err)
		_, err = svc.SignUp(ctx, "ANA@example.com", "outrasenha")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.SignUp(ctx, "not-an-email", "segredo123")
		require.ErrorIs(t, err, ErrInvalidEmail)
		_, err = svc.SignUp(ctx, "Ana <ana@example.com>", "segredo123")
		require.ErrorIs(t, err, ErrInvalidEmail)
		_, err = svc.SignUp(ctx, "ana@example.com", "curta")
		require.ErrorIs(t, err, models.ErrInvalidPassword)
	})

	t.Run("wraps store errors", func(t *testing.T) {
		t.Parallel()
		svc, accounts := newTestService(t)
		boom := errors.New("boom")
		accounts.failWith = boom
		_, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.ErrorIs(t, err, boom)
	})
}

func TestSignInAndOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("opens a session and notifies listeners", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		acc, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.NoError(t, err)

		var events []Event
		unsubscribe := svc.Subscribe(func(_ context.Context, ev Event) {
			events = append(events, ev)
		})

		sess, err := svc.SignIn(ctx, 42, "ANA@example.com", "segredo123")
		require.NoError(t, err)
		require.Equal(t, acc.ID, sess.OwnerID)
		require.Equal(t, int64(42), sess.ChatID)

		current, ok := svc.Current(42)
		require.True(t, ok)
		require.Equal(t, acc.ID, current.OwnerID)

		require.NoError(t, svc.SignOut(ctx, 42))
		_, ok = svc.Current(42)
		require.False(t, ok)

		require.Len(t, events, 2)
		require.Equal(t, SignedIn, events[0].Kind)
		require.Equal(t, SignedOut, events[1].Kind)
		require.Equal(t, acc.ID, events[1].Session.OwnerID)

		unsubscribe()
		_, err = svc.SignIn(ctx, 42, "ana@example.com", "segredo123")
		require.NoError(t, err)
		require.Len(t, events, 2)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.NoError(t, err)

		_, err = svc.SignIn(ctx, 1, "ana@example.com", "errada123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.SignIn(ctx, 1, "ghost@example.com", "segredo123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.SignIn(ctx, 1, "garbage", "segredo123")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, ok := svc.Current(1)
		require.False(t, ok)
	})

	t.Run("sign out without a session", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		require.ErrorIs(t, svc.SignOut(ctx, 7), ErrNotSignedIn)
	})

	t.Run("sessions are per chat", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTestService(t)
		_, err := svc.SignUp(ctx, "ana@example.com", "segredo123")
		require.NoError(t, err)
		_, err = svc.SignUp(ctx, "bia@example.com", "segredo456")
		require.NoError(t, err)

		a, err := svc.SignIn(ctx, 1, "ana@example.com", "segredo123")
		require.NoError(t, err)
		b, err := svc.SignIn(ctx, 2, "bia@example.com", "segredo456")
		require.NoError(t, err)
		require.NotEqual(t, a.OwnerID, b.OwnerID)

		require.NoError(t, svc.SignOut(ctx, 1))
		_, ok := svc.Current(2)
		require.True(t, ok)
	})
}

func TestEventKindString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "signed_in", SignedIn.String())
	require.Equal(t, "signed_out", SignedOut.String())
	require.Equal(t, "unknown", EventKind(0).String())
}
