package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

// handleCategories handles the /categories command.
func (b *Bot) handleCategories(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleCategoriesCore(ctx, tgBot, update)
}

// handleCategoriesCore is the testable implementation of handleCategories.
func (b *Bot) handleCategoriesCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	var sb strings.Builder
	sb.WriteString("🏷 <b>Categorias</b>\n\n")
	for _, c := range st.Categories() {
		sb.WriteString("• " + escapeHTML(c))
		if subs := st.Subcategories(c); len(subs) > 0 {
			fmt.Fprintf(&sb, " (%d subcategoria(s))", len(subs))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nAdicione com <code>/addcategory &lt;nome&gt;</code>.")

	b.reply(ctx, tg, chatID, sb.String())
}

// handleAddCategory handles the /addcategory command.
func (b *Bot) handleAddCategory(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleAddCategoryCore(ctx, tgBot, update)
}

// handleAddCategoryCore is the testable implementation of handleAddCategory.
func (b *Bot) handleAddCategoryCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	name := extractCommandArgs(update.Message.Text)
	if name == "" {
		b.reply(ctx, tg, chatID, "Uso: <code>/addcategory &lt;nome&gt;</code>")
		return
	}

	added, err := st.AddCategory(ctx, name)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	if !added {
		b.reply(ctx, tg, chatID, fmt.Sprintf("ℹ️ A categoria <b>%s</b> já existe.", escapeHTML(strings.TrimSpace(name))))
		return
	}
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Categoria <b>%s</b> criada.", escapeHTML(strings.TrimSpace(name))))
}

// handleSubcategories handles the /subcategories command.
func (b *Bot) handleSubcategories(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleSubcategoriesCore(ctx, tgBot, update)
}

// handleSubcategoriesCore is the testable implementation of handleSubcategories.
// Without an argument it lists every category that has subcategories.
func (b *Bot) handleSubcategoriesCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	categories := st.Categories()
	if typed := extractCommandArgs(update.Message.Text); typed != "" {
		c := MatchCategory(typed, categories)
		if c == "" {
			b.replyError(ctx, tg, chatID, state.ErrUnknownCategory)
			return
		}
		categories = []string{c}
	}

	var sb strings.Builder
	sb.WriteString("🗂 <b>Subcategorias</b>\n")
	found := false
	for _, c := range categories {
		subs := st.Subcategories(c)
		if len(subs) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", escapeHTML(c))
		for _, s := range subs {
			sb.WriteString("• " + escapeHTML(s) + "\n")
		}
	}
	if !found {
		sb.WriteString("\nNenhuma subcategoria cadastrada.")
	}
	sb.WriteString("\nAdicione com <code>/addsubcategory &lt;categoria&gt; | &lt;nome&gt;</code>.")
	if !st.Capabilities().Subcategories {
		sb.WriteString("\n\n" + degradedNotice)
	}

	b.reply(ctx, tg, chatID, sb.String())
}

// handleAddSubcategory handles the /addsubcategory command.
func (b *Bot) handleAddSubcategory(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleAddSubcategoryCore(ctx, tgBot, update)
}

// handleAddSubcategoryCore is the testable implementation of handleAddSubcategory.
func (b *Bot) handleAddSubcategoryCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	st, ok := b.requireState(ctx, tg, chatID)
	if !ok {
		return
	}

	typed, name, found := strings.Cut(extractCommandArgs(update.Message.Text), fieldSeparator)
	name = strings.TrimSpace(name)
	if !found || strings.TrimSpace(typed) == "" || name == "" {
		b.reply(ctx, tg, chatID, "Uso: <code>/addsubcategory &lt;categoria&gt; | &lt;nome&gt;</code>")
		return
	}

	category := MatchCategory(typed, st.Categories())
	if category == "" {
		b.replyError(ctx, tg, chatID, state.ErrUnknownCategory)
		return
	}

	added, err := st.AddSubcategory(ctx, category, name)
	if err != nil {
		b.replyError(ctx, tg, chatID, err)
		return
	}
	if !added {
		b.reply(ctx, tg, chatID, fmt.Sprintf("ℹ️ <b>%s</b> já existe em %s.", escapeHTML(name), escapeHTML(category)))
		return
	}
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Subcategoria <b>%s</b> criada em %s.", escapeHTML(name), escapeHTML(category)))
}
