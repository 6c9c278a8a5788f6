// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/boleto-bot/internal/auth"
	"gitlab.com/yelinaung/boleto-bot/internal/config"
	"gitlab.com/yelinaung/boleto-bot/internal/gemini"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/repository"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// pollTimeout is the long-polling timeout for getUpdates.
const pollTimeout = time.Minute

// publicCommands are served without a signed-in session.
var publicCommands = map[string]bool{
	"/start":  true,
	"/help":   true,
	"/signup": true,
	"/login":  true,
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot          *bot.Bot
	cfg          *config.Config
	store        state.Store
	auth         *auth.Service
	sessions     *state.Registry
	geminiClient *gemini.Client

	// messageSender sends messages outside an update, such as reminders.
	messageSender   TelegramAPI
	displayLocation *time.Location
	unsubscribe     func()
}

// New creates a new Bot instance backed by the pool.
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*Bot, error) {
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	var geminiClient *gemini.Client
	if cfg.AIEnabled() {
		gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, httpClient)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Gemini client unavailable, AI commands disabled")
		} else {
			geminiClient = gc
		}
	}

	authSvc := auth.NewService(repository.NewAccountRepository(pool))
	b := newBot(cfg, repository.NewStore(pool), authSvc, geminiClient)

	opts := []bot.Option{
		bot.WithMiddlewares(b.authMiddleware),
		bot.WithDefaultHandler(b.handleFreeText),
		bot.WithHTTPClient(pollTimeout, httpClient),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		b.unsubscribe()
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// newBot wires the dependencies shared by New and tests.
func newBot(cfg *config.Config, store state.Store, authSvc *auth.Service, geminiClient *gemini.Client) *Bot {
	loc, err := time.LoadLocation(cfg.ReminderTimezone)
	if err != nil {
		loc = time.UTC
	}

	b := &Bot{
		cfg:             cfg,
		store:           store,
		auth:            authSvc,
		sessions:        state.NewRegistry(),
		geminiClient:    geminiClient,
		displayLocation: loc,
	}
	b.unsubscribe = authSvc.Subscribe(b.onAuthEvent)
	return b
}

// Start begins polling for updates and runs the due reminder loop.
func (b *Bot) Start(ctx context.Context) {
	defer b.unsubscribe()

	go b.startDueReminderLoop(ctx)

	logger.Log.Info().Bool("ai_enabled", b.geminiClient != nil).Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	commands := map[string]bot.HandlerFunc{
		"/start":          b.handleStart,
		"/help":           b.handleHelp,
		"/signup":         b.handleSignUp,
		"/login":          b.handleLogin,
		"/logout":         b.handleLogout,
		"/add":            b.handleAdd,
		"/edit":           b.handleEdit,
		"/paid":           b.handlePaid,
		"/delete":         b.handleDelete,
		"/list":           b.handleList,
		"/filter":         b.handleFilter,
		"/clearfilter":    b.handleClearFilter,
		"/report":         b.handleReport,
		"/chart":          b.handleChart,
		"/export":         b.handleExport,
		"/categories":     b.handleCategories,
		"/addcategory":    b.handleAddCategory,
		"/subcategories":  b.handleSubcategories,
		"/addsubcategory": b.handleAddSubcategory,
		"/sync":           b.handleSync,
	}
	for name, handler := range commands {
		b.bot.RegisterHandlerMatchFunc(commandMatcher(name), handler)
	}

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackPaidPrefix, bot.MatchTypePrefix, b.handlePaidCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackDeletePrefix, bot.MatchTypePrefix, b.handleDeleteCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackConfirmDeletePrefix, bot.MatchTypePrefix, b.handleConfirmDeleteCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackCancelDeletePrefix, bot.MatchTypePrefix, b.handleCancelDeleteCallback)
}

// commandMatcher matches text messages whose command is exactly name.
func commandMatcher(name string) bot.MatchFunc {
	return func(update *tgmodels.Update) bool {
		return update.Message != nil && commandName(update.Message.Text) == name
	}
}

// commandName returns the leading /command of a message without any @botname suffix.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	return strings.ToLower(name)
}

// authMiddleware lets public commands through and requires a signed-in
// session with loaded state for everything else.
func (b *Bot) authMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		b.authorize(ctx, tgBot, update, func() { next(ctx, tgBot, update) })
	}
}

// authorize runs next when the update may proceed.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update, next func()) {
	chatID := extractChatID(update)
	if chatID == 0 {
		return
	}

	logUserAction(chatID, update)

	if update.Message != nil && publicCommands[commandName(update.Message.Text)] {
		next()
		return
	}

	if _, ok := b.sessions.Get(chatID); ok {
		next()
		return
	}

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(chatID)).Msg("Blocked update without session")
	if update.CallbackQuery != nil {
		_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            "🔒 Sessão encerrada. Entre novamente com /login.",
			ShowAlert:       true,
		})
		return
	}
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "🔒 Entre com <code>/login &lt;email&gt; &lt;senha&gt;</code> ou crie uma conta com <code>/signup &lt;email&gt; &lt;senha&gt;</code>.",
		ParseMode: tgmodels.ParseModeHTML,
	})
}

// onAuthEvent creates session state on sign-in and tears it down on sign-out.
func (b *Bot) onAuthEvent(ctx context.Context, ev auth.Event) {
	chatID := ev.Session.ChatID
	switch ev.Kind {
	case auth.SignedIn:
		st := state.New(b.store, ev.Session.OwnerID, state.Options{
			ReferenceDate:     b.cfg.ReferenceDate,
			StoreTimeout:      b.cfg.StoreTimeout,
			SearchNotes:       b.cfg.SearchNotes,
			SearchSubcategory: b.cfg.SearchSubcategory,
		})
		b.sessions.Put(chatID, st)
		if err := st.Load(ctx); err != nil {
			logger.Log.Error().Err(err).
				Str("owner_hash", logger.HashOwnerID(ev.Session.OwnerID)).
				Msg("Failed to load boletos after sign-in")
		}
	case auth.SignedOut:
		b.sessions.Remove(chatID)
	}

	logger.Log.Info().
		Str("event", ev.Kind.String()).
		Str("chat_hash", logger.HashChatID(chatID)).
		Int("sessions", b.sessions.Len()).
		Msg("Session changed")
}

// logUserAction logs the update kind without exposing free text or credentials.
func logUserAction(chatID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		event := logger.Log.Info().Str("chat_hash", logger.HashChatID(chatID))
		if cmd := commandName(update.Message.Text); cmd != "" {
			event = event.Str("command", cmd)
		} else {
			event = event.Str("text", logger.SanitizeText(update.Message.Text))
		}
		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("chat_hash", logger.HashChatID(chatID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractChatID gets the chat ID from the update types the bot handles.
func extractChatID(update *tgmodels.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		return update.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}
