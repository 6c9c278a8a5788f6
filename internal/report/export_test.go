package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

func TestExportCSV(t *testing.T) {
	t.Parallel()

	paid := boleto(2, "Cinema", "Lazer", 25, models.StatusPaid)
	paid.Notes = "estreia, sábado"
	pending := boleto(1, "Consulta", "Saúde", 150, models.StatusPending)
	pending.Subcategory = "Dentista"
	pending.Amount = decimal.RequireFromString("150.5")

	data, err := ExportCSV([]models.Boleto{pending, paid})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"ID", "Title", "Category", "Subcategory", "Amount", "Due Date", "Paid Date", "Status", "Notes"}, records[0])
	require.Equal(t, []string{"1", "Consulta", "Saúde", "Dentista", "150.50", "2026-01-10", "", "PENDING", ""}, records[1])
	require.Equal(t, []string{"2", "Cinema", "Lazer", "", "25.00", "2026-01-10", "2026-01-15", "PAID", "estreia, sábado"}, records[2])
}

func TestChart(t *testing.T) {
	t.Parallel()

	t.Run("renders a PNG", func(t *testing.T) {
		t.Parallel()
		r := Aggregate(scenarioItems())
		png, err := Chart(r, "Boletos por categoria")
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	})

	t.Run("nothing to chart", func(t *testing.T) {
		t.Parallel()
		_, err := Chart(Aggregate(nil), "vazio")
		require.ErrorIs(t, err, ErrNothingToChart)

		_, err = Chart(Aggregate([]models.Boleto{boleto(1, "Grátis", "Outros", 0, models.StatusPending)}), "zero")
		require.ErrorIs(t, err, ErrNothingToChart)
	})
}
