package bot

import (
	"context"
	"testing"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/boleto-bot/internal/config"
)

func TestCommandName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"/add Luz | 10 | hoje", "/add"},
		{"/addcategory Pets", "/addcategory"},
		{"/List", "/list"},
		{"/report@boleto_bot", "/report"},
		{"/", "/"},
		{"paguei a luz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, commandName(tt.text))
		})
	}
}

func TestCommandMatcher(t *testing.T) {
	t.Parallel()

	add := commandMatcher("/add")
	require.True(t, add(mocks.CommandUpdate(1, "/add Luz | 10 | hoje")))
	require.False(t, add(mocks.CommandUpdate(1, "/addcategory Pets")))
	require.False(t, add(mocks.CallbackQueryUpdate(1, 1, 10, "paid_1")))
}

func TestExtractChatID(t *testing.T) {
	t.Parallel()

	t.Run("extracts from message", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int64(12345), extractChatID(mocks.MessageUpdate(12345, 1, "oi")))
	})

	t.Run("extracts from callback query", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int64(67890), extractChatID(mocks.CallbackQueryUpdate(67890, 1, 5, "paid_1")))
	})

	t.Run("returns zero for empty update", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, int64(0), extractChatID(&tgmodels.Update{}))
	})
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("public commands pass without a session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		for _, cmd := range []string{"/start", "/help", "/signup a b", "/login a b"} {
			called := false
			env.bot.authorize(ctx, env.tg, mocks.CommandUpdate(testChatID, cmd), func() { called = true })
			require.True(t, called, cmd)
		}
		require.Equal(t, 0, env.tg.SentMessageCount())
	})

	t.Run("blocks other messages until sign-in", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		called := false
		env.bot.authorize(ctx, env.tg, mocks.CommandUpdate(testChatID, "/list"), func() { called = true })
		require.False(t, called)
		require.Contains(t, env.tg.LastSentMessage().Text, "/login")

		env.signIn(t)
		env.bot.authorize(ctx, env.tg, mocks.CommandUpdate(testChatID, "/list"), func() { called = true })
		require.True(t, called)
	})

	t.Run("blocked callbacks get an alert", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		called := false
		env.bot.authorize(ctx, env.tg, mocks.CallbackQueryUpdate(testChatID, testChatID, 10, "paid_1"), func() { called = true })
		require.False(t, called)
		require.Len(t, env.tg.AnsweredCallbacks, 1)
		require.True(t, env.tg.AnsweredCallbacks[0].ShowAlert)
		require.Equal(t, 0, env.tg.SentMessageCount())
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t)
	env.seed(boleto("Aluguel", "Habitação", "1500", date(2026, 1, 10)))

	st := env.signIn(t)
	require.True(t, st.Loaded())
	require.Len(t, st.Items(), 1)
	require.Equal(t, env.ownerID, st.OwnerID())
	require.Equal(t, 1, env.bot.sessions.Len())

	require.NoError(t, env.auth.SignOut(ctx, testChatID))
	_, ok := env.bot.sessions.Get(testChatID)
	require.False(t, ok)
}

func TestSessionLoadFailureKeepsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.SetDown(true)

	st := env.signIn(t)
	require.False(t, st.Loaded())

	env.store.SetDown(false)
	require.NoError(t, st.Load(context.Background()))
	require.True(t, st.Loaded())
}

func TestNewBotFallsBackToUTC(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, withConfig(func(c *config.Config) { c.ReminderTimezone = "Nowhere/Invalid" }))
	require.Equal(t, "UTC", env.bot.displayLocation.String())
}
