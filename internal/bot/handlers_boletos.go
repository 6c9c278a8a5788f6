package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

// Callback data prefixes; the boleto id follows.
const (
	callbackPaidPrefix          = "paid_"
	callbackDeletePrefix        = "delete_"
	callbackConfirmDeletePrefix = "confirm_delete_"
	callbackCancelDeletePrefix  = "cancel_delete_"
)

const (
	// fallbackCategory is used when no category is given and none can be suggested.
	fallbackCategory = "Outros"
	// maxListItems caps how many boletos one /list message shows.
	maxListItems = 20
	// maxListButtons caps the keyboard rows of a /list message.
	maxListButtons = 10
)

const addUsage = "Uso: <code>/add Título | valor | vencimento | categoria | subcategoria | obs | pago</code>\n" +
	"Exemplo: <code>/add Aluguel | 1.500,00 | 10/02/2026 | Habitação</code>\n" +
	"Só título, valor e vencimento são obrigatórios."

const editUsage = "Uso: <code>/edit &lt;id&gt; campo=valor; campo=valor</code>\n" +
	"Campos: titulo, valor, vencimento, categoria, sub, obs, pago"

// boletoKeyboard offers the actions available for one boleto.
func boletoKeyboard(b *models.Boleto) *tgmodels.InlineKeyboardMarkup {
	var row []tgmodels.InlineKeyboardButton
	if !b.IsPaid() {
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         "✅ Dar baixa",
			CallbackData: fmt.Sprintf("%s%d", callbackPaidPrefix, b.ID),
		})
	}
	row = append(row, tgmodels.InlineKeyboardButton{
		Text:         "🗑 Excluir",
		CallbackData: fmt.Sprintf("%s%d", callbackDeletePrefix, b.ID),
	})
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: [][]tgmodels.InlineKeyboardButton{row}}
}

// listKeyboard offers one row of actions per listed boleto.
func listKeyboard(items []models.Boleto) *tgmodels.InlineKeyboardMarkup {
	var rows [][]tgmodels.InlineKeyboardButton
	for i := range items {
		if i == maxListButtons {
			break
		}
		it := &items[i]
		var row []tgmodels.InlineKeyboardButton
		if !it.IsPaid() {
			row = append(row, tgmodels.InlineKeyboardButton{
				Text:         fmt.Sprintf("✅ #%d", it.ID),
				CallbackData: fmt.Sprintf("%s%d", callbackPaidPrefix, it.ID),
			})
		}
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         fmt.Sprintf("🗑 #%d", it.ID),
			CallbackData: fmt.Sprintf("%s%d", callbackDeletePrefix, it.ID),
		})
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func deleteConfirmKeyboard(id int64) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{{
			{Text: "🗑 Sim, excluir", CallbackData: fmt.Sprintf("%s%d", callbackConfirmDeletePrefix, id)},
			{Text: "↩️ Manter", CallbackData: fmt.Sprintf("%s%d", callbackCancelDeletePrefix, id)},
		}},
	}
}

// requireState returns the session state of a chat or tells the user to sign in.
func (b *Bot) requireState(ctx context.Context, tg TelegramAPI, chatID int64) (*state.State, bool) {
	st, ok := b.sessions.Get(chatID)
	if !ok {
		b.reply(ctx, tg, chatID, "🔒 Entre com <code>/login &lt;email&gt; &lt;senha&gt;</code> primeiro.")
		return nil, false
	}
	return st, true
}

// resolveCategory maps a typed category onto the vocabulary. An empty one is
// suggested from the title. It reports whether the category was suggested.
func (b *Bot) resolveCategory(ctx context.Context, st *state.State, title, typed string) (string, bool, error) {
	categories := st.Categories()
	if strings.TrimSpace(typed) != "" {
		if c := MatchCategory(typed, categories); c != "" {
			return c, false, nil
		}
		return "", false, state.ErrUnknownCategory
	}
	return b.suggestCategory(ctx, title, categories), true, nil
}

// suggestCategory asks Gemini for a category and falls back to Outros.
func (b *Bot) suggestCategory(ctx context.Context, title string, categories []string) string {
	if b.geminiClient == nil {
		return fallbackCategory
	}
	suggestion, err := b.geminiClient.SuggestCategory(ctx, title, categories)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Category suggestion failed")
		return fallbackCategory
	}
	if c := MatchCategory(suggestion.Category, categories); c != "" {
		return c
	}
	return fallbackCategory
}

// handleAdd handles the /add command.
func (b *Bot) handleAdd(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleAddCore(ctx, tgBot, update)
}

// handleAddCore is the testable implementation of handleAdd.
func (b *Bot) handleAddCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	in, err := ParseAddCommand(extractCommandArgs(update.Message.Text), b.cfg.ReferenceDate)
	if errors.Is(err, ErrMissingFields) {
		b.reply(ctx, tg, chatID, addUsage)
		return
	}
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	category, suggested, err := b.resolveCategory(ctx, st, in.Title, in.Category)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	in.Category = category

	created, err := st.Create(ctx, in)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("✅ <b>Boleto adicionado</b>\n\n")
	sb.WriteString(formatBoleto(&created, b.cfg.ReferenceDate))
	if suggested {
		fmt.Fprintf(&sb, "\n\n🏷 Categoria escolhida automaticamente: %s. Mude com <code>/edit %d categoria=...</code>", escapeHTML(category), created.ID)
	}
	if in.Subcategory != "" && created.Subcategory == "" {
		sb.WriteString("\n\n" + degradedNotice)
	}

	b.replyWithMarkup(ctx, tg, chatID, sb.String(), boletoKeyboard(&created))
}

// handleEdit handles the /edit command.
func (b *Bot) handleEdit(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleEditCore(ctx, tgBot, update)
}

// handleEditCore is the testable implementation of handleEdit.
func (b *Bot) handleEditCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	args := extractCommandArgs(update.Message.Text)
	if args == "" {
		b.reply(ctx, tg, chatID, editUsage)
		return
	}

	id, patch, err := ParseEditCommand(args, b.cfg.ReferenceDate)
	if errors.Is(err, ErrMissingFields) {
		b.reply(ctx, tg, chatID, editUsage)
		return
	}
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	if patch.Category != nil {
		c := MatchCategory(*patch.Category, st.Categories())
		if c == "" {
			b.replyError(ctx, tg, chatID, state.ErrUnknownCategory)
			return
		}
		patch.Category = &c
	}

	updated, err := st.Update(ctx, id, patch)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	text := "✏️ <b>Boleto atualizado</b>\n\n" + formatBoleto(&updated, b.cfg.ReferenceDate)
	if patch.Subcategory != nil && !st.Capabilities().Subcategories {
		text += "\n\n" + degradedNotice
	}
	b.replyWithMarkup(ctx, tg, chatID, text, boletoKeyboard(&updated))
}

// handlePaid handles the /paid command.
func (b *Bot) handlePaid(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handlePaidCore(ctx, tgBot, update)
}

// handlePaidCore is the testable implementation of handlePaid.
func (b *Bot) handlePaidCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	id, err := parseID(extractCommandArgs(update.Message.Text))
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.markPaid(ctx, tg, chatID, st, id)
}

func (b *Bot) markPaid(ctx context.Context, tg TelegramAPI, chatID int64, st *state.State, id int64) {
	paid, err := st.MarkPaid(ctx, id)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.reply(ctx, tg, chatID, "💰 <b>Baixa registrada</b>\n\n"+formatBoleto(&paid, b.cfg.ReferenceDate))
}

// handleDelete handles the /delete command.
func (b *Bot) handleDelete(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleDeleteCore(ctx, tgBot, update)
}

// handleDeleteCore is the testable implementation of handleDelete.
func (b *Bot) handleDeleteCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	id, err := parseID(extractCommandArgs(update.Message.Text))
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.confirmDelete(ctx, tg, chatID, st, id)
}

// confirmDelete asks before deleting; nothing changes until the user confirms.
func (b *Bot) confirmDelete(ctx context.Context, tg TelegramAPI, chatID int64, st *state.State, id int64) {
	item, ok := st.Item(id)
	if !ok {
		b.replyError(ctx, tg, chatID, state.ErrNotFound)
		return
	}
	text := "⚠️ <b>Excluir este boleto?</b>\n\n" + formatBoleto(&item, b.cfg.ReferenceDate)
	b.replyWithMarkup(ctx, tg, chatID, text, deleteConfirmKeyboard(id))
}

// handleList handles the /list command.
func (b *Bot) handleList(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleListCore(ctx, tgBot, update)
}

// handleListCore is the testable implementation of handleList.
func (b *Bot) handleListCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	b.sendBoletoList(ctx, tg, chatID, st)
}

// sendBoletoList shows the boletos that pass the active filter.
func (b *Bot) sendBoletoList(ctx context.Context, tg TelegramAPI, chatID int64, st *state.State) {
	if !st.Loaded() {
		b.replyError(ctx, tg, chatID, state.ErrNotLoaded)
		return
	}

	items := st.Visible()
	filterLine := formatFilter(st.Filter())

	var sb strings.Builder
	fmt.Fprintf(&sb, "📒 <b>Seus boletos</b> (%d)\n", len(items))
	if filterLine != "" {
		sb.WriteString(filterLine + "\n")
	}
	sb.WriteString("\n")

	if len(items) == 0 {
		sb.WriteString("Nenhum boleto encontrado.")
		if filterLine != "" {
			sb.WriteString(" Use /clearfilter para ver todos.")
		}
		b.reply(ctx, tg, chatID, sb.String())
		return
	}

	shown := items[:min(len(items), maxListItems)]
	for i := range shown {
		sb.WriteString(formatBoleto(&shown[i], b.cfg.ReferenceDate))
		sb.WriteString("\n\n")
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "… e mais %d. Use /filter para refinar.", rest)
	}

	var markup tgmodels.ReplyMarkup
	if kb := listKeyboard(shown); kb != nil {
		markup = kb
	}
	b.replyWithMarkup(ctx, tg, chatID, strings.TrimSpace(sb.String()), markup)
}

// callbackTarget extracts the chat and message a callback query came from.
func callbackTarget(update *tgmodels.Update) (chatID int64, messageID int, ok bool) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return 0, 0, false
	}
	msg := update.CallbackQuery.Message.Message
	return msg.Chat.ID, msg.ID, true
}

func answerCallback(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if _, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	}); err != nil {
		logger.Log.Debug().Err(err).Msg("Failed to answer callback query")
	}
}

// handlePaidCallback handles the mark-paid button.
func (b *Bot) handlePaidCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handlePaidCallbackCore(ctx, tgBot, update)
}

// handlePaidCallbackCore is the testable implementation of handlePaidCallback.
func (b *Bot) handlePaidCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, _, ok := callbackTarget(update)
	if !ok {
		return
	}
	answerCallback(ctx, tg, update)

	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	id, err := parseCallbackID(update.CallbackQuery.Data, callbackPaidPrefix)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.markPaid(ctx, tg, chatID, st, id)
}

// handleDeleteCallback handles the delete button.
func (b *Bot) handleDeleteCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleDeleteCallbackCore(ctx, tgBot, update)
}

// handleDeleteCallbackCore is the testable implementation of handleDeleteCallback.
func (b *Bot) handleDeleteCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, _, ok := callbackTarget(update)
	if !ok {
		return
	}
	answerCallback(ctx, tg, update)

	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	id, err := parseCallbackID(update.CallbackQuery.Data, callbackDeletePrefix)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.confirmDelete(ctx, tg, chatID, st, id)
}

// handleConfirmDeleteCallback handles the delete confirmation button.
func (b *Bot) handleConfirmDeleteCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleConfirmDeleteCallbackCore(ctx, tgBot, update)
}

// handleConfirmDeleteCallbackCore is the testable implementation of handleConfirmDeleteCallback.
func (b *Bot) handleConfirmDeleteCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, messageID, ok := callbackTarget(update)
	if !ok {
		return
	}
	answerCallback(ctx, tg, update)

	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	id, err := parseCallbackID(update.CallbackQuery.Data, callbackConfirmDeletePrefix)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	if err := st.Delete(ctx, id); err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	b.editMessage(ctx, tg, chatID, messageID, fmt.Sprintf("🗑 Boleto #%d excluído.", id))
}

// handleCancelDeleteCallback handles the keep button of a delete confirmation.
func (b *Bot) handleCancelDeleteCallback(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleCancelDeleteCallbackCore(ctx, tgBot, update)
}

// handleCancelDeleteCallbackCore is the testable implementation of handleCancelDeleteCallback.
func (b *Bot) handleCancelDeleteCallbackCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	chatID, messageID, ok := callbackTarget(update)
	if !ok {
		return
	}
	answerCallback(ctx, tg, update)

	id, err := parseCallbackID(update.CallbackQuery.Data, callbackCancelDeletePrefix)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.editMessage(ctx, tg, chatID, messageID, fmt.Sprintf("👍 Boleto #%d mantido.", id))
}

func (b *Bot) editMessage(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, text string) {
	if _, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to edit message")
	}
}
