package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

const (
	// ReminderCheckInterval is how often the reminder loop checks whether to send reminders.
	ReminderCheckInterval = 30 * time.Minute
	// ReminderTimeout is the maximum time a single reminder check can take.
	ReminderTimeout = 2 * time.Minute
	// maxReminderItems caps how many boletos one reminder lists.
	maxReminderItems = 10
)

// startDueReminderLoop periodically tells signed-in chats about pending
// boletos that are due today or overdue.
func (b *Bot) startDueReminderLoop(ctx context.Context) {
	if !b.cfg.DueReminderEnabled {
		logger.Log.Info().Msg("Due reminder is disabled")
		return
	}

	logger.Log.Info().
		Int("hour", b.cfg.ReminderHour).
		Str("timezone", b.displayLocation.String()).
		Msg("Due reminder loop started")

	reminded := make(map[int64]string)
	ticker := time.NewTicker(ReminderCheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Due reminder loop stopped")
		return
	default:
	}

	// Run one check immediately so reminders aren't skipped when the process
	// starts during the configured reminder hour.
	b.checkAndSendReminders(ctx, reminded, time.Now().In(b.displayLocation))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Due reminder loop stopped")
			return
		case <-ticker.C:
			b.checkAndSendReminders(ctx, reminded, time.Now().In(b.displayLocation))
		}
	}
}

// dueBoletos returns the pending boletos due on or before today.
func dueBoletos(items []models.Boleto, today time.Time) []models.Boleto {
	var due []models.Boleto
	for _, it := range items {
		if !it.IsPaid() && !it.DueDate.After(today) {
			due = append(due, it)
		}
	}
	return due
}

// checkAndSendReminders sends one reminder per chat and day. The reminded map
// tracks which chats were already reminded today.
func (b *Bot) checkAndSendReminders(ctx context.Context, reminded map[int64]string, now time.Time) {
	if now.Hour() != b.cfg.ReminderHour {
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	todayStr := now.Format(models.DateLayout)
	today := models.TruncateDate(now)

	// Prune entries from previous days so the map doesn't grow unbounded.
	for chatID, dateStr := range reminded {
		if dateStr != todayStr {
			delete(reminded, chatID)
		}
	}

	for _, chatID := range b.sessions.ChatIDs() {
		if reminded[chatID] == todayStr {
			continue
		}
		st, ok := b.sessions.Get(chatID)
		if !ok || !st.Loaded() {
			continue
		}

		due := dueBoletos(st.Items(), today)
		if len(due) == 0 {
			continue
		}

		_, err := b.messageSender.SendMessage(checkCtx, &tgbot.SendMessageParams{
			ChatID:    chatID,
			Text:      formatReminder(due, today),
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send due reminder")
			continue
		}

		reminded[chatID] = todayStr
		logger.Log.Debug().Str("chat_hash", logger.HashChatID(chatID)).Int("due", len(due)).Msg("Sent due reminder")
	}
}

func formatReminder(due []models.Boleto, today time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 <b>Você tem %d boleto(s) para pagar</b>\n\n", len(due))
	for i := range due {
		if i == maxReminderItems {
			fmt.Fprintf(&sb, "… e mais %d\n", len(due)-maxReminderItems)
			break
		}
		b := &due[i]
		label := "vence hoje"
		if b.DueDate.Before(today) {
			label = "🚨 atrasado desde " + formatDate(b.DueDate)
		}
		fmt.Fprintf(&sb, "• #%d %s · %s · %s\n", b.ID, escapeHTML(b.Title), formatMoney(b.Amount), label)
	}
	sb.WriteString("\nUse /paid &lt;id&gt; para dar baixa.")
	return sb.String()
}
