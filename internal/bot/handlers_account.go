package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/logger"
)

const helpText = `📒 <b>Controle de boletos</b>

<b>Conta</b>
/signup &lt;email&gt; &lt;senha&gt; · criar conta
/login &lt;email&gt; &lt;senha&gt; · entrar
/logout · sair

<b>Boletos</b>
/add Título | valor | vencimento | categoria | subcategoria | obs | pago
/edit &lt;id&gt; valor=150,90; vencimento=10/02/2026; pago=sim
/paid &lt;id&gt; · dar baixa
/delete &lt;id&gt; · excluir
/list · listar

<b>Consultas</b>
/filter q=luz; status=pendente; de=01/01/2026; ate=31/01/2026
/clearfilter · limpar filtro
/report · totais
/chart · gráfico por categoria
/export · planilha CSV
/sync · recarregar do banco

<b>Categorias</b>
/categories · /addcategory &lt;nome&gt;
/subcategories [categoria] · /addsubcategory &lt;categoria&gt; | &lt;nome&gt;`

const aiHelpText = "\n\n🤖 Você também pode escrever em português, por exemplo: <i>paguei a conta de luz hoje</i>."

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf("👋 Olá%s! Eu controlo os seus boletos: vencimentos, pagamentos e relatórios.\n\n", formatGreeting(firstName))
	if sess, ok := b.auth.Current(chatID); ok {
		text += fmt.Sprintf("Você está conectado como <b>%s</b>. Use /list para ver seus boletos.", escapeHTML(sess.Email))
	} else {
		text += "Crie uma conta com <code>/signup &lt;email&gt; &lt;senha&gt;</code> ou entre com <code>/login &lt;email&gt; &lt;senha&gt;</code>."
	}
	text += "\n\nDigite /help para ver todos os comandos."

	b.reply(ctx, tg, chatID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	text := helpText
	if b.geminiClient != nil {
		text += aiHelpText
	}
	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

// credentialArgs splits "email password". Passwords may not contain spaces.
func credentialArgs(text string) (email, password string, ok bool) {
	fields := strings.Fields(extractCommandArgs(text))
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// hideCredentials removes the message that carried a password.
func hideCredentials(ctx context.Context, tg TelegramAPI, msg *tgmodels.Message) {
	if _, err := tg.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: msg.Chat.ID, MessageID: msg.ID}); err != nil {
		logger.Log.Debug().Err(err).Msg("Failed to delete credentials message")
	}
}

// handleSignUp handles the /signup command.
func (b *Bot) handleSignUp(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleSignUpCore(ctx, tgBot, update)
}

// handleSignUpCore is the testable implementation of handleSignUp.
func (b *Bot) handleSignUpCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	email, password, ok := credentialArgs(update.Message.Text)
	if !ok {
		b.reply(ctx, tg, chatID, "Uso: <code>/signup &lt;email&gt; &lt;senha&gt;</code>")
		return
	}
	hideCredentials(ctx, tg, update.Message)

	acc, err := b.auth.SignUp(ctx, email, password)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf(
		"✅ Conta criada para <b>%s</b>. Agora entre com <code>/login &lt;email&gt; &lt;senha&gt;</code>.",
		escapeHTML(acc.Email),
	))
}

// handleLogin handles the /login command.
func (b *Bot) handleLogin(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleLoginCore(ctx, tgBot, update)
}

// handleLoginCore is the testable implementation of handleLogin.
func (b *Bot) handleLoginCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	email, password, ok := credentialArgs(update.Message.Text)
	if !ok {
		b.reply(ctx, tg, chatID, "Uso: <code>/login &lt;email&gt; &lt;senha&gt;</code>")
		return
	}
	hideCredentials(ctx, tg, update.Message)

	sess, err := b.auth.SignIn(ctx, chatID, email, password)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Conectado como <b>%s</b>.\n", escapeHTML(sess.Email))

	st, ok := b.sessions.Get(chatID)
	switch {
	case !ok || !st.Loaded():
		sb.WriteString("⚠️ Não consegui carregar seus boletos agora. Tente /sync em instantes.")
	default:
		fmt.Fprintf(&sb, "📒 %d boleto(s) carregado(s) · banco %s", len(st.Items()), connectivityLabel(st.Status()))
		if !st.Capabilities().Subcategories {
			sb.WriteString("\n\n" + degradedNotice)
		}
	}

	b.reply(ctx, tg, chatID, sb.String())
}

// handleLogout handles the /logout command.
func (b *Bot) handleLogout(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleLogoutCore(ctx, tgBot, update)
}

// handleLogoutCore is the testable implementation of handleLogout.
func (b *Bot) handleLogoutCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := b.auth.SignOut(ctx, chatID); err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	b.reply(ctx, tg, chatID, "👋 Sessão encerrada. Até logo!")
}
