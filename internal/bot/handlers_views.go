package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

const filterUsage = "Uso: <code>/filter q=luz; status=pendente; de=01/01/2026; ate=31/01/2026</code>\n" +
	"Status: todos, pago ou pendente. O período vale para o vencimento."

const chartTitle = "Boletos por categoria"

// handleFilter handles the /filter command.
func (b *Bot) handleFilter(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleFilterCore(ctx, tgBot, update)
}

// handleFilterCore is the testable implementation of handleFilter.
func (b *Bot) handleFilterCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
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
		current := formatFilter(st.Filter())
		if current == "" {
			current = "🔎 Nenhum filtro ativo."
		}
		b.reply(ctx, tg, chatID, current+"\n\n"+filterUsage)
		return
	}

	f, err := ParseFilterArgs(args, b.cfg.ReferenceDate)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	st.SetFilter(f)
	b.sendBoletoList(ctx, tg, chatID, st)
}

// handleClearFilter handles the /clearfilter command.
func (b *Bot) handleClearFilter(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleClearFilterCore(ctx, tgBot, update)
}

// handleClearFilterCore is the testable implementation of handleClearFilter.
func (b *Bot) handleClearFilterCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	st.ClearFilter()
	b.sendTransient(ctx, tg, chatID, "🔎 Filtro removido.")
}

// handleReport handles the /report command.
func (b *Bot) handleReport(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleReportCore(ctx, tgBot, update)
}

// handleReportCore is the testable implementation of handleReport.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	if !st.Loaded() {
		b.replyError(ctx, tg, chatID, state.ErrNotLoaded)
		return
	}
	b.reply(ctx, tg, chatID, b.reportText(st))
}

// reportText renders the report cards plus connectivity for a session.
func (b *Bot) reportText(st *state.State) string {
	var sb strings.Builder
	sb.WriteString(formatReport(st.Report()))
	fmt.Fprintf(&sb, "\n🗄 Banco: %s", connectivityLabel(st.Status()))
	if last := st.LastSync(); !last.IsZero() {
		fmt.Fprintf(&sb, " · sincronizado em %s", last.In(b.displayLocation).Format("02/01/2006 15:04"))
	}
	if !st.Capabilities().Subcategories {
		sb.WriteString("\n\n" + degradedNotice)
	}
	return sb.String()
}

// handleChart handles the /chart command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	if !st.Loaded() {
		b.replyError(ctx, tg, chatID, state.ErrNotLoaded)
		return
	}

	r := st.Report()
	png, err := report.Chart(r, chartTitle)
	if errors.Is(err, report.ErrNothingToChart) {
		b.reply(ctx, tg, chatID, "📊 Ainda não há valores para mostrar no gráfico.")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to render chart")
		b.sendTransient(ctx, tg, chatID, "⚠️ Não consegui gerar o gráfico agora.")
		return
	}

	_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &tgmodels.InputFileUpload{
			Filename: "boletos.png",
			Data:     bytes.NewReader(png),
		},
		Caption:   fmt.Sprintf("📊 Total previsto %s · pago %s", formatMoney(r.TotalProjected), formatMoney(r.TotalPaid)),
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart")
	}
}

// handleExport handles the /export command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
// It exports the boletos visible under the active filter.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}
	if !st.Loaded() {
		b.replyError(ctx, tg, chatID, state.ErrNotLoaded)
		return
	}

	items := st.Visible()
	data, err := report.ExportCSV(items)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to export boletos")
		b.sendTransient(ctx, tg, chatID, "⚠️ Não consegui gerar a planilha agora.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &tgmodels.InputFileUpload{
			Filename: "boletos.csv",
			Data:     bytes.NewReader(data),
		},
		Caption:   fmt.Sprintf("📄 %d boleto(s) exportado(s)", len(items)),
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send export")
	}
}

// handleSync handles the /sync command.
func (b *Bot) handleSync(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleSyncCore(ctx, tgBot, update)
}

// handleSyncCore is the testable implementation of handleSync.
func (b *Bot) handleSyncCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	if err := st.Load(ctx); err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	text := fmt.Sprintf("🔄 %d boleto(s) sincronizado(s) · banco %s", len(st.Items()), connectivityLabel(st.Status()))
	if !st.Capabilities().Subcategories {
		text += "\n\n" + degradedNotice
	}
	b.reply(ctx, tg, chatID, text)
}
