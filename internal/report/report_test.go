package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func boleto(id int64, title, category string, amount int64, status models.Status) models.Boleto {
	b := models.Boleto{
		ID:       id,
		Title:    title,
		Category: category,
		Amount:   decimal.NewFromInt(amount),
		DueDate:  date(2026, 1, 10),
		Status:   status,
	}
	if status == models.StatusPaid {
		b.PaidDate = ptr(models.DefaultReferenceDate)
	}
	return b
}

var boletoGen = rapid.Custom(func(t *rapid.T) models.Boleto {
	status := rapid.SampledFrom([]models.Status{models.StatusPending, models.StatusPaid}).Draw(t, "status")
	b := models.Boleto{
		ID:          rapid.Int64Range(1, 1_000_000).Draw(t, "id"),
		Title:       rapid.SampledFrom([]string{"Aluguel", "Luz", "Consulta", "Cinema", "Internet"}).Draw(t, "title"),
		Category:    rapid.SampledFrom(models.DefaultCategories).Draw(t, "category"),
		Subcategory: rapid.SampledFrom([]string{"", "Dentista", "Plano"}).Draw(t, "subcategory"),
		Amount:      decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "cents"), -2),
		DueDate:     date(2026, time.Month(rapid.IntRange(1, 12).Draw(t, "month")), rapid.IntRange(1, 28).Draw(t, "day")),
		Status:      status,
		Notes:       rapid.SampledFrom([]string{"", "fibra", "retorno", "reajuste"}).Draw(t, "notes"),
	}
	if status == models.StatusPaid {
		b.PaidDate = ptr(models.DefaultReferenceDate)
	}
	return b
})

var filterGen = rapid.Custom(func(t *rapid.T) Filter {
	f := Filter{
		Term:              rapid.SampledFrom([]string{"", "lu", "SAÚDE", "fib", "plano", "x"}).Draw(t, "term"),
		Status:            rapid.SampledFrom([]StatusFilter{"", StatusAll, StatusPaid, StatusPending}).Draw(t, "status"),
		SearchNotes:       rapid.Bool().Draw(t, "notes"),
		SearchSubcategory: rapid.Bool().Draw(t, "sub"),
	}
	if rapid.Bool().Draw(t, "hasStart") {
		f.Start = ptr(date(2026, time.Month(rapid.IntRange(1, 12).Draw(t, "startMonth")), 1))
	}
	if rapid.Bool().Draw(t, "hasEnd") {
		f.End = ptr(date(2026, time.Month(rapid.IntRange(1, 12).Draw(t, "endMonth")), 28))
	}
	return f
})

func TestAggregate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(boletoGen).Draw(t, "items")
		r := Aggregate(items)

		projected, paid := decimal.Zero, decimal.Zero
		for _, b := range items {
			projected = projected.Add(b.Amount)
			if b.Status == models.StatusPaid {
				paid = paid.Add(b.Amount)
			}
		}
		if !r.TotalProjected.Equal(projected) {
			t.Fatalf("projected %s, want %s", r.TotalProjected, projected)
		}
		if !r.TotalPaid.Equal(paid) {
			t.Fatalf("paid %s, want %s", r.TotalPaid, paid)
		}
		if r.TotalPaid.GreaterThan(r.TotalProjected) {
			t.Fatalf("paid %s exceeds projected %s", r.TotalPaid, r.TotalProjected)
		}

		byCategory := decimal.Zero
		for _, c := range r.ByCategory {
			byCategory = byCategory.Add(c.Total)
		}
		if !byCategory.Equal(r.TotalProjected) {
			t.Fatalf("category sum %s, want %s", byCategory, r.TotalProjected)
		}

		if r.TotalProjected.IsZero() && r.PaidRatio != 0 {
			t.Fatalf("ratio %v with nothing projected", r.PaidRatio)
		}
		if r.PaidRatio < 0 || r.PaidRatio > 100 {
			t.Fatalf("ratio %v out of range", r.PaidRatio)
		}
	})
}

func TestApply_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(boletoGen).Draw(t, "items")
		f := filterGen.Draw(t, "filter")

		snapshot := make([]models.Boleto, len(items))
		copy(snapshot, items)

		once := Apply(items, f)
		twice := Apply(once, f)

		if len(twice) != len(once) {
			t.Fatalf("filter is not idempotent: %d then %d", len(once), len(twice))
		}
		for i := range items {
			if items[i].ID != snapshot[i].ID || items[i].Title != snapshot[i].Title {
				t.Fatalf("input modified at %d", i)
			}
		}

		// Output is an ordered subsequence of the input.
		j := 0
		for _, b := range once {
			for j < len(items) && items[j].ID != b.ID {
				j++
			}
			if j == len(items) {
				t.Fatalf("output is not a subsequence of the input")
			}
			j++
		}

		if len(Apply(items, Filter{})) != len(items) {
			t.Fatalf("zero filter dropped items")
		}
	})
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("paid and pending items across categories", func(t *testing.T) {
		t.Parallel()
		items := []models.Boleto{
			boleto(1, "Consulta", "Saúde", 150, models.StatusPending),
			boleto(2, "Cinema", "Lazer", 25, models.StatusPaid),
			boleto(3, "Farmácia", "Saúde", 25, models.StatusPaid),
		}

		r := Aggregate(items)
		require.True(t, decimal.NewFromInt(200).Equal(r.TotalProjected))
		require.True(t, decimal.NewFromInt(50).Equal(r.TotalPaid))
		require.True(t, decimal.NewFromInt(150).Equal(r.PendingBalance()))
		require.InDelta(t, 25.0, r.PaidRatio, 0.001)
		require.Equal(t, 3, r.Count)
		require.Equal(t, 2, r.PaidCount)

		require.Len(t, r.ByCategory, 2)
		require.Equal(t, "Saúde", r.ByCategory[0].Category)
		require.True(t, decimal.NewFromInt(175).Equal(r.ByCategory[0].Total))
		require.Equal(t, "Lazer", r.ByCategory[1].Category)
		require.True(t, decimal.NewFromInt(25).Equal(r.ByCategory[1].Total))
	})

	t.Run("marking the pending item paid", func(t *testing.T) {
		t.Parallel()
		items := []models.Boleto{
			boleto(1, "Consulta", "Saúde", 150, models.StatusPending),
			boleto(2, "Cinema", "Lazer", 25, models.StatusPaid),
		}

		before := Aggregate(items)
		require.True(t, decimal.NewFromInt(175).Equal(before.TotalProjected))
		require.True(t, decimal.NewFromInt(25).Equal(before.TotalPaid))
		require.InDelta(t, 14.2857, before.PaidRatio, 0.001)

		items[0].Status = models.StatusPaid
		items[0].PaidDate = ptr(models.DefaultReferenceDate)

		after := Aggregate(items)
		require.True(t, decimal.NewFromInt(175).Equal(after.TotalPaid))
		require.InDelta(t, 100.0, after.PaidRatio, 0.001)
		require.True(t, after.PendingBalance().IsZero())
	})

	t.Run("empty list has zero ratio", func(t *testing.T) {
		t.Parallel()
		r := Aggregate(nil)
		require.True(t, r.TotalProjected.IsZero())
		require.Zero(t, r.PaidRatio)
		require.Empty(t, r.ByCategory)
	})

	t.Run("zero amounts only have zero ratio", func(t *testing.T) {
		t.Parallel()
		r := Aggregate([]models.Boleto{boleto(1, "Grátis", "Outros", 0, models.StatusPaid)})
		require.Zero(t, r.PaidRatio)
	})

	t.Run("category keys are case sensitive", func(t *testing.T) {
		t.Parallel()
		r := Aggregate([]models.Boleto{
			boleto(1, "A", "Lazer", 10, models.StatusPending),
			boleto(2, "B", "lazer", 5, models.StatusPending),
		})
		require.Len(t, r.ByCategory, 2)
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	consulta := boleto(1, "Consulta", "Saúde", 150, models.StatusPending)
	consulta.Subcategory = "Dentista"
	consulta.DueDate = date(2026, 2, 10)
	cinema := boleto(2, "Cinema", "Lazer", 25, models.StatusPaid)
	cinema.Notes = "estreia"
	cinema.DueDate = date(2026, 1, 5)
	items := []models.Boleto{consulta, cinema}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "zero filter", filter: Filter{}, want: []int64{1, 2}},
		{name: "term matches title case-insensitively", filter: Filter{Term: "CONS"}, want: []int64{1}},
		{name: "term matches category", filter: Filter{Term: "lazer"}, want: []int64{2}},
		{name: "notes ignored unless enabled", filter: Filter{Term: "estreia"}, want: []int64{}},
		{name: "notes searched when enabled", filter: Filter{Term: "estreia", SearchNotes: true}, want: []int64{2}},
		{name: "subcategory searched when enabled", filter: Filter{Term: "dent", SearchSubcategory: true}, want: []int64{1}},
		{name: "status paid", filter: Filter{Status: StatusPaid}, want: []int64{2}},
		{name: "status pending", filter: Filter{Status: StatusPending}, want: []int64{1}},
		{name: "status all", filter: Filter{Status: StatusAll}, want: []int64{1, 2}},
		{name: "start bound is inclusive", filter: Filter{Start: ptr(date(2026, 2, 10))}, want: []int64{1}},
		{name: "end bound is inclusive", filter: Filter{End: ptr(date(2026, 1, 5))}, want: []int64{2}},
		{
			name:   "bounds ignore time of day",
			filter: Filter{End: ptr(time.Date(2026, 2, 10, 0, 0, 1, 0, time.UTC))},
			want:   []int64{1, 2},
		},
		{name: "predicates are combined", filter: Filter{Term: "c", Status: StatusPaid}, want: []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Apply(items, tt.filter)
			ids := make([]int64, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]StatusFilter{
		"": StatusAll, "all": StatusAll, "todos": StatusAll, "pago": StatusPaid, "PENDING": StatusPending,
	} {
		got, err := ParseStatusFilter(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseStatusFilter("late")
	require.ErrorIs(t, err, ErrInvalidStatusFilter)
}

func scenarioItems() []models.Boleto {
	return []models.Boleto{
		boleto(1, "Consulta", "Saúde", 100, models.StatusPending),
		boleto(2, "Exame", "Saúde", 50, models.StatusPaid),
		boleto(3, "Cinema", "Lazer", 25, models.StatusPending),
	}
}

func TestScenario_HealthAndLeisure(t *testing.T) {
	t.Parallel()

	items := scenarioItems()
	r := Aggregate(items)
	require.True(t, decimal.NewFromInt(175).Equal(r.TotalProjected))
	require.True(t, decimal.NewFromInt(50).Equal(r.TotalPaid))
	require.InDelta(t, 28.57, r.PaidRatio, 0.01)
	require.Len(t, r.ByCategory, 2)
	require.Equal(t, "Saúde", r.ByCategory[0].Category)
	require.True(t, decimal.NewFromInt(150).Equal(r.ByCategory[0].Total))
	require.Equal(t, "Lazer", r.ByCategory[1].Category)
	require.True(t, decimal.NewFromInt(25).Equal(r.ByCategory[1].Total))

	paidOnly := Apply(items, Filter{Status: StatusPaid})
	require.Len(t, paidOnly, 1)
	require.Equal(t, int64(2), paidOnly[0].ID)

	none := Apply(items, Filter{Start: ptr(date(2027, 1, 1))})
	require.Empty(t, none)

	// Reports are computed over the full list, not the filtered view.
	require.True(t, Aggregate(items).TotalProjected.Equal(r.TotalProjected))
}
