package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

func TestMatchCategory(t *testing.T) {
	t.Parallel()

	categories := append([]string{"Plano de Saúde", "Contas da Casa"}, models.DefaultCategories...)

	tests := []struct {
		name      string
		suggested string
		want      string
	}{
		{"exact", "Lazer", "Lazer"},
		{"case insensitive", "LAZER", "Lazer"},
		{"accent insensitive", "saude", "Saúde"},
		{"accent insensitive upper", "EDUCACAO", "Educação"},
		{"shortest containing category", "educ", "Educação"},
		{"category inside suggestion", "Transporte público", "Transporte"},
		{"significant word", "casa nova", "Contas da Casa"},
		{"trimmed", "  Outros ", "Outros"},
		{"no match", "Pets", ""},
		{"empty", "", ""},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, MatchCategory(tt.suggested, categories))
		})
	}
}

func TestMatchCategoryEmptyVocabulary(t *testing.T) {
	t.Parallel()
	require.Empty(t, MatchCategory("Lazer", nil))
}

func TestFoldName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "habitacao", foldName(" Habitação "))
	require.Equal(t, "saude", foldName("SAÚDE"))
	require.Equal(t, "", foldName(""))
}
