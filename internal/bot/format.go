package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/boleto-bot/internal/auth"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

// displayDateLayout is the Brazilian calendar date format.
const displayDateLayout = "02/01/2006"

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatMoney renders an amount as Brazilian reais, e.g. R$ 1.234,56.
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")

	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}

	return fmt.Sprintf("%sR$ %s,%s", sign, sb.String(), frac)
}

func formatDate(t time.Time) string {
	return t.Format(displayDateLayout)
}

func statusLabel(b *models.Boleto, referenceDate time.Time) string {
	if b.IsPaid() && b.PaidDate != nil {
		return "✅ Pago em " + formatDate(*b.PaidDate)
	}
	if b.IsOverdue(referenceDate) {
		return "🚨 ATRASADO"
	}
	return "⏳ Pendente"
}

func connectivityLabel(c state.Connectivity) string {
	switch c {
	case state.Online:
		return "🟢 online"
	case state.Offline:
		return "🔴 offline"
	default:
		return "🟡 verificando"
	}
}

// formatBoleto renders one boleto as an HTML block. Pending items due before
// referenceDate are flagged as overdue.
func formatBoleto(b *models.Boleto, referenceDate time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🆔 #%d <b>%s</b> · %s\n", b.ID, escapeHTML(b.Title), formatMoney(b.Amount))

	category := escapeHTML(b.Category)
	if b.Subcategory != "" {
		category += " › " + escapeHTML(b.Subcategory)
	}
	fmt.Fprintf(&sb, "📁 %s · 📅 %s\n%s", category, formatDate(b.DueDate), statusLabel(b, referenceDate))

	if b.Notes != "" {
		fmt.Fprintf(&sb, "\n📝 %s", escapeHTML(b.Notes))
	}
	return sb.String()
}

// formatReport renders the summary cards of a report.
func formatReport(r report.Report) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Relatório</b>\n\n")
	fmt.Fprintf(&sb, "💼 Total previsto: <b>%s</b>\n", formatMoney(r.TotalProjected))
	fmt.Fprintf(&sb, "✅ Total pago: <b>%s</b>\n", formatMoney(r.TotalPaid))
	fmt.Fprintf(&sb, "⏳ Saldo pendente: <b>%s</b>\n", formatMoney(r.PendingBalance()))
	fmt.Fprintf(&sb, "📈 Liquidado: <b>%.1f%%</b> (%d de %d boletos)\n", r.PaidRatio, r.PaidCount, r.Count)

	if len(r.ByCategory) > 0 {
		sb.WriteString("\n<b>Por categoria</b>\n")
		for _, c := range r.ByCategory {
			fmt.Fprintf(&sb, "• %s: %s\n", escapeHTML(c.Category), formatMoney(c.Total))
		}
	}
	return sb.String()
}

// formatFilter describes the active filter, or "" when nothing is filtered.
func formatFilter(f report.Filter) string {
	if f.IsZero() {
		return ""
	}
	var parts []string
	if t := strings.TrimSpace(f.Term); t != "" {
		parts = append(parts, fmt.Sprintf("busca “%s”", escapeHTML(t)))
	}
	switch f.Status {
	case report.StatusPaid:
		parts = append(parts, "pagos")
	case report.StatusPending:
		parts = append(parts, "pendentes")
	}
	if f.Start != nil {
		parts = append(parts, "de "+formatDate(*f.Start))
	}
	if f.End != nil {
		parts = append(parts, "até "+formatDate(*f.End))
	}
	return "🔎 Filtro: " + strings.Join(parts, ", ")
}

const degradedNotice = "ℹ️ O banco de dados não tem a coluna de subcategoria. Subcategorias são ignoradas até a próxima sincronização."

const storeFailureText = "⚠️ Não foi possível falar com o banco de dados. Nada foi alterado, tente novamente."

// userMessages maps known errors to user-facing text.
var userMessages = []struct {
	err  error
	text string
}{
	{models.ErrEmptyTitle, "❌ O título é obrigatório."},
	{models.ErrTitleTooLong, fmt.Sprintf("❌ O título pode ter no máximo %d caracteres.", models.MaxTitleLength)},
	{models.ErrInvalidAmount, "❌ Valor inválido. Use um número não negativo, por exemplo <code>150,90</code>."},
	{models.ErrMissingDueDate, "❌ A data de vencimento é obrigatória."},
	{models.ErrInvalidDate, "❌ Data inválida. Use <code>AAAA-MM-DD</code> ou <code>DD/MM/AAAA</code>."},
	{models.ErrEmptyCategory, "❌ A categoria é obrigatória."},
	{models.ErrInvalidName, "❌ O nome não pode ser vazio nem conter quebras de linha."},
	{models.ErrNameTooLong, fmt.Sprintf("❌ O nome pode ter no máximo %d caracteres.", models.MaxCategoryNameLength)},
	{models.ErrInvalidStatus, "❌ Status inválido. Use <code>pago</code> ou <code>pendente</code>."},
	{models.ErrStatusMismatch, "❌ Um boleto pago precisa de data de pagamento."},
	{models.ErrEmptyPatch, "❌ Nada para alterar."},
	{models.ErrInvalidPassword, fmt.Sprintf("❌ A senha precisa ter pelo menos %d caracteres.", auth.MinPasswordLength)},
	{state.ErrNotFound, "❌ Boleto não encontrado."},
	{state.ErrAlreadyPaid, "ℹ️ Esse boleto já está pago."},
	{state.ErrNotLoaded, "⏳ Seus boletos ainda não foram carregados. Use /sync."},
	{state.ErrUnknownCategory, "❌ Categoria desconhecida. Veja /categories."},
	{report.ErrInvalidStatusFilter, "❌ Status inválido. Use <code>todos</code>, <code>pago</code> ou <code>pendente</code>."},
	{auth.ErrInvalidEmail, "❌ E-mail inválido."},
	{auth.ErrInvalidCredentials, "❌ E-mail ou senha incorretos."},
	{auth.ErrEmailTaken, "❌ Já existe uma conta com esse e-mail."},
	{auth.ErrNotSignedIn, "ℹ️ Você não está conectado."},
	{ErrInvalidID, "❌ Informe o número do boleto, por exemplo <code>#12</code>."},
	{ErrUnknownField, "❌ Campo desconhecido."},
	{ErrMissingFields, "❌ Faltam campos obrigatórios."},
	{ErrTooManyFields, "❌ Campos demais. Use <code>|</code> apenas entre os campos."},
	{ErrInvalidPaidArg, "❌ Use <code>sim</code>, <code>não</code> ou uma data para o pagamento."},
}

// userMessage returns the text for a known error and whether it was known.
// Unknown errors are store failures.
func userMessage(err error) (string, bool) {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.text, true
		}
	}
	return storeFailureText, false
}

// sendTransient sends a notice that is deleted after the configured message TTL.
func (b *Bot) sendTransient(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	msg, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send transient message")
		return
	}

	deleteCtx := context.WithoutCancel(ctx)
	time.AfterFunc(b.cfg.MessageTTL, func() {
		ctx, cancel := context.WithTimeout(deleteCtx, 10*time.Second)
		defer cancel()
		if _, err := tg.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: msg.ID}); err != nil {
			logger.Log.Debug().Err(err).Msg("Failed to delete transient message")
		}
	})
}

// replyError reports a failed operation. Store failures are transient notices;
// validation problems stay in the chat.
func (b *Bot) replyError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	text, known := userMessage(err)
	if !known {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Store operation failed")
		b.sendTransient(ctx, tg, chatID, text)
		return
	}
	b.reply(ctx, tg, chatID, text)
}

// reply sends an HTML message.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	b.replyWithMarkup(ctx, tg, chatID, text, nil)
}

func (b *Bot) replyWithMarkup(ctx context.Context, tg TelegramAPI, chatID int64, text string, markup tgmodels.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send message")
	}
}
