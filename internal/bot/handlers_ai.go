package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/gemini"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

const aiDisabledText = "🤖 Comandos em linguagem natural estão desativados. Use /help para ver os comandos."

// aiOutcome collects what happened to each proposed item.
type aiOutcome struct {
	lines        []string
	storeFailure bool
}

func (o *aiOutcome) add(format string, args ...any) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

// handleFreeText is the default handler for messages that match no command.
func (b *Bot) handleFreeText(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleFreeTextCore(ctx, tgBot, update)
}

// handleFreeTextCore sends free text to Gemini and applies the proposed
// changes through the session state. Proposals are validated like user input.
func (b *Bot) handleFreeTextCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if strings.HasPrefix(text, "/") {
		b.reply(ctx, tg, chatID, "❓ Comando desconhecido. Use /help para ver os comandos.")
		return
	}
	if b.geminiClient == nil {
		b.reply(ctx, tg, chatID, aiDisabledText)
		return
	}

	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	if !st.Loaded() {
		b.replyError(ctx, tg, chatID, state.ErrNotLoaded)
		return
	}

	result, err := b.geminiClient.ProcessCommand(ctx, text, st.Items(), gemini.CommandContext{
		Categories:    st.Categories(),
		ReferenceDate: b.cfg.ReferenceDate,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("AI command failed")
		b.sendTransient(ctx, tg, chatID, "⚠️ Não consegui falar com a IA agora. Tente novamente.")
		return
	}

	logger.Log.Info().
		Str("chat_hash", logger.HashChatID(chatID)).
		Str("action", string(result.Action)).
		Int("items", len(result.UpdatedItems)).
		Msg("AI command processed")

	var out aiOutcome
	switch result.Action {
	case gemini.ActionAdd:
		b.applyAIAdds(ctx, st, result.UpdatedItems, &out)
	case gemini.ActionUpdate:
		b.applyAIUpdates(ctx, st, result.UpdatedItems, &out)
	case gemini.ActionReport:
		msg := "🤖 " + escapeHTML(result.Message) + "\n\n" + b.reportText(st)
		b.reply(ctx, tg, chatID, strings.TrimSpace(msg))
		return
	default:
		b.reply(ctx, tg, chatID, "🤖 "+escapeHTML(result.Message))
		return
	}

	var sb strings.Builder
	if result.Message != "" {
		sb.WriteString("🤖 " + escapeHTML(result.Message) + "\n\n")
	}
	if len(out.lines) == 0 {
		sb.WriteString("ℹ️ Nenhuma alteração foi feita.")
	} else {
		sb.WriteString(strings.Join(out.lines, "\n"))
	}
	b.reply(ctx, tg, chatID, sb.String())

	if out.storeFailure {
		b.sendTransient(ctx, tg, chatID, storeFailureText)
	}
}

// applyAIAdds creates each proposed boleto. A store failure stops the batch.
func (b *Bot) applyAIAdds(ctx context.Context, st *state.State, proposals []gemini.ProposedBoleto, out *aiOutcome) {
	for _, p := range proposals {
		if strings.TrimSpace(p.Category) == "" {
			p.Category = fallbackCategory
		}

		in, err := p.Input(b.cfg.ReferenceDate)
		if err != nil {
			b.reject(out, p.Title, err)
			continue
		}

		category := MatchCategory(in.Category, st.Categories())
		if category == "" {
			b.reject(out, in.Title, state.ErrUnknownCategory)
			continue
		}
		in.Category = category

		created, err := st.Create(ctx, in)
		if err != nil {
			if b.reject(out, in.Title, err) {
				return
			}
			continue
		}
		out.add("✅ #%d <b>%s</b> adicionado · %s · vence %s",
			created.ID, escapeHTML(created.Title), formatMoney(created.Amount), formatDate(created.DueDate))
	}
}

// applyAIUpdates patches each proposed boleto with the fields that changed.
func (b *Bot) applyAIUpdates(ctx context.Context, st *state.State, proposals []gemini.ProposedBoleto, out *aiOutcome) {
	for _, p := range proposals {
		id, err := p.BoletoID()
		if err != nil {
			b.reject(out, p.Title, err)
			continue
		}
		current, ok := st.Item(id)
		if !ok {
			b.reject(out, p.Title, state.ErrNotFound)
			continue
		}

		patch, err := p.Patch(current, b.cfg.ReferenceDate)
		if err != nil {
			b.reject(out, current.Title, err)
			continue
		}
		if patch.IsEmpty() {
			continue
		}
		if patch.Category != nil {
			c := MatchCategory(*patch.Category, st.Categories())
			if c == "" {
				b.reject(out, current.Title, state.ErrUnknownCategory)
				continue
			}
			patch.Category = &c
		}

		updated, err := st.Update(ctx, id, patch)
		if err != nil {
			if b.reject(out, current.Title, err) {
				return
			}
			continue
		}
		out.add("✏️ #%d <b>%s</b> atualizado · %s", updated.ID, escapeHTML(updated.Title), statusLabel(&updated, b.cfg.ReferenceDate))
	}
}

// reject records a skipped proposal and reports whether it was a store failure.
func (b *Bot) reject(out *aiOutcome, title string, err error) bool {
	text, known := userMessage(err)
	if !known {
		logger.Log.Error().Err(err).Msg("Failed to apply AI proposal")
		out.storeFailure = true
		return true
	}
	if title == "" {
		title = "sem título"
	}
	out.add("⚠️ Ignorado (%s): %s", escapeHTML(title), text)
	return false
}
