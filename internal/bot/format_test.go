package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
	"gitlab.com/yelinaung/boleto-bot/internal/state"
)

func TestEscapeHTML(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a &amp; b &lt;i&gt;", escapeHTML("a & b <i>"))
	require.Equal(t, "Saúde", escapeHTML("Saúde"))
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"0", "R$ 0,00"},
		{"5.5", "R$ 5,50"},
		{"999.99", "R$ 999,99"},
		{"1000", "R$ 1.000,00"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-1500", "-R$ 1.500,00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestFormatBoleto(t *testing.T) {
	t.Parallel()

	b := paidBoleto("Consulta", "Saúde", "250", date(2026, 1, 20), date(2026, 1, 18))
	b.ID = 9
	b.Subcategory = "Dentista"
	b.Notes = "retorno <urgente>"

	text := formatBoleto(&b, models.DefaultReferenceDate)
	require.Contains(t, text, "#9 <b>Consulta</b> · R$ 250,00")
	require.Contains(t, text, "Saúde › Dentista")
	require.Contains(t, text, "📅 20/01/2026")
	require.Contains(t, text, "Pago em 18/01/2026")
	require.Contains(t, text, "retorno &lt;urgente&gt;")

	pending := boleto("Luz", "Habitação", "200", date(2026, 1, 15))
	text = formatBoleto(&pending, models.DefaultReferenceDate)
	require.Contains(t, text, "Pendente")
	require.NotContains(t, text, "ATRASADO")
	require.NotContains(t, text, "📝")

	overdue := boleto("Água", "Habitação", "90", date(2026, 1, 14))
	require.Contains(t, formatBoleto(&overdue, models.DefaultReferenceDate), "🚨 ATRASADO")

	paidLate := paidBoleto("Gás", "Habitação", "60", date(2026, 1, 5), date(2026, 1, 8))
	require.NotContains(t, formatBoleto(&paidLate, models.DefaultReferenceDate), "ATRASADO")
}

func TestFormatFilter(t *testing.T) {
	t.Parallel()

	require.Empty(t, formatFilter(report.Filter{Status: report.StatusAll}))

	start := date(2026, 1, 1)
	text := formatFilter(report.Filter{Term: "luz", Status: report.StatusPaid, Start: &start})
	require.Equal(t, "🔎 Filtro: busca “luz”, pagos, de 01/01/2026", text)
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	text, known := userMessage(fmt.Errorf("wrapped: %w", state.ErrNotFound))
	require.True(t, known)
	require.Contains(t, text, "não encontrado")

	text, known = userMessage(models.ErrInvalidAmount)
	require.True(t, known)
	require.Contains(t, text, "Valor inválido")

	text, known = userMessage(errors.New("connection refused"))
	require.False(t, known)
	require.Equal(t, storeFailureText, text)
}
