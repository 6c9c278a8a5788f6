package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

func TestHandleCategoriesCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("lists defaults", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleCategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/categories"))

		text := env.tg.LastSentMessage().Text
		for _, c := range models.DefaultCategories {
			require.Contains(t, text, c)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		env.bot.handleCategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/categories"))
		require.Contains(t, env.tg.LastSentMessage().Text, "/login")
	})
}

func TestHandleAddCategoryCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates and persists", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		st := env.signIn(t)

		env.bot.handleAddCategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addcategory  Pets "))

		require.Contains(t, env.tg.LastSentMessage().Text, "Categoria <b>Pets</b> criada")
		require.Contains(t, st.Categories(), "Pets")
		require.Equal(t, 1, env.store.CallCount("CreateCategory"))
	})

	t.Run("existing category is not saved again", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleAddCategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addcategory Lazer"))

		require.Contains(t, env.tg.LastSentMessage().Text, "já existe")
		require.Zero(t, env.store.CallCount("CreateCategory"))
	})

	t.Run("usage without a name", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleAddCategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addcategory"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Uso:")
	})

	t.Run("name too long", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		name := strings.Repeat("x", models.MaxCategoryNameLength+1)
		env.bot.handleAddCategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addcategory "+name))
		require.Contains(t, env.tg.LastSentMessage().Text, "no máximo")
	})

	t.Run("store failure leaves the vocabulary alone", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		st := env.signIn(t)
		env.store.SetDown(true)

		env.bot.handleAddCategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addcategory Pets"))

		require.Equal(t, storeFailureText, env.tg.LastSentMessage().Text)
		require.NotContains(t, st.Categories(), "Pets")
	})
}

func TestHandleSubcategoriesCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty vocabulary", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleSubcategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/subcategories"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Nenhuma subcategoria")
	})

	t.Run("filters by category", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		st := env.signIn(t)
		_, err := st.AddSubcategory(ctx, "Saúde", "Farmácia")
		require.NoError(t, err)
		_, err = st.AddSubcategory(ctx, "Lazer", "Cinema")
		require.NoError(t, err)

		env.bot.handleSubcategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/subcategories saude"))

		text := env.tg.LastSentMessage().Text
		require.Contains(t, text, "Farmácia")
		require.NotContains(t, text, "Cinema")
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleSubcategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/subcategories xyzzy"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Categoria desconhecida")
	})

	t.Run("degraded store is flagged", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.store.NoSubcategoryColumn = true
		env.signIn(t)

		env.bot.handleSubcategoriesCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/subcategories"))
		require.Contains(t, env.tg.LastSentMessage().Text, degradedNotice)
	})
}

func TestHandleAddSubcategoryCore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("matches the category loosely", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		st := env.signIn(t)

		env.bot.handleAddSubcategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addsubcategory saude | Farmácia"))

		require.Contains(t, env.tg.LastSentMessage().Text, "Subcategoria <b>Farmácia</b> criada em Saúde")
		require.Equal(t, []string{"Farmácia"}, st.Subcategories("Saúde"))
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		update := mocks.CommandUpdate(testChatID, "/addsubcategory Lazer | Cinema")
		env.bot.handleAddSubcategoryCore(ctx, env.tg, update)
		env.bot.handleAddSubcategoryCore(ctx, env.tg, update)

		require.Contains(t, env.tg.LastSentMessage().Text, "já existe em Lazer")
		require.Equal(t, 1, env.store.CallCount("CreateSubcategory"))
	})

	t.Run("usage without separator", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleAddSubcategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addsubcategory Lazer Cinema"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Uso:")
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.signIn(t)

		env.bot.handleAddSubcategoryCore(ctx, env.tg, mocks.CommandUpdate(testChatID, "/addsubcategory xyzzy | Cinema"))
		require.Contains(t, env.tg.LastSentMessage().Text, "Categoria desconhecida")
		require.Zero(t, env.store.CallCount("CreateSubcategory"))
	})
}
