package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBoletoInput(t *testing.T) {
	t.Parallel()

	t.Run("derives pending status without payment date", func(t *testing.T) {
		t.Parallel()
		in := BoletoInput{Title: "Luz", Category: "Habitação", Amount: decimal.NewFromInt(120), DueDate: date(2026, 2, 10)}
		require.Equal(t, StatusPending, in.Status())
		require.NoError(t, in.Validate())
	})

	t.Run("derives paid status from payment date", func(t *testing.T) {
		t.Parallel()
		paid := date(2026, 2, 9)
		in := BoletoInput{Title: "Luz", Category: "Habitação", DueDate: date(2026, 2, 10), PaidDate: &paid}
		b := in.Boleto("owner-1")
		require.Equal(t, StatusPaid, b.Status)
		require.Equal(t, "owner-1", b.OwnerID)
		require.True(t, b.IsPaid())
	})

	t.Run("normalize trims text and truncates dates", func(t *testing.T) {
		t.Parallel()
		paid := time.Date(2026, 2, 9, 15, 30, 0, 0, time.UTC)
		in := BoletoInput{
			Title:    "  Internet  ",
			Category: " Tecnologia ",
			Notes:    " fibra ",
			DueDate:  time.Date(2026, 2, 10, 23, 59, 0, 0, time.UTC),
			PaidDate: &paid,
		}
		in.Normalize()
		require.Equal(t, "Internet", in.Title)
		require.Equal(t, "Tecnologia", in.Category)
		require.Equal(t, "fibra", in.Notes)
		require.Equal(t, date(2026, 2, 10), in.DueDate)
		require.Equal(t, date(2026, 2, 9), *in.PaidDate)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()
		valid := BoletoInput{Title: "Aluguel", Category: "Habitação", Amount: decimal.NewFromInt(1), DueDate: date(2026, 1, 5)}

		noTitle := valid
		noTitle.Title = ""
		require.ErrorIs(t, noTitle.Validate(), ErrEmptyTitle)

		negative := valid
		negative.Amount = decimal.NewFromInt(-1)
		require.ErrorIs(t, negative.Validate(), ErrInvalidAmount)

		noDue := valid
		noDue.DueDate = time.Time{}
		require.ErrorIs(t, noDue.Validate(), ErrMissingDueDate)

		noCategory := valid
		noCategory.Category = ""
		require.ErrorIs(t, noCategory.Validate(), ErrEmptyCategory)
	})
}

func TestBoletoPatch(t *testing.T) {
	t.Parallel()

	base := Boleto{
		ID:       7,
		OwnerID:  "owner-1",
		Title:    "Escola",
		Category: "Educação",
		Amount:   decimal.NewFromInt(800),
		DueDate:  date(2026, 3, 1),
		Status:   StatusPending,
		Notes:    "março",
	}

	t.Run("empty patch is rejected", func(t *testing.T) {
		t.Parallel()
		p := BoletoPatch{}
		require.True(t, p.IsEmpty())
		require.ErrorIs(t, p.Validate(), ErrEmptyPatch)
	})

	t.Run("apply merges only set fields and keeps identity", func(t *testing.T) {
		t.Parallel()
		amount := decimal.NewFromInt(850)
		notes := "reajuste"
		p := BoletoPatch{Amount: &amount, Notes: &notes}
		require.NoError(t, p.Validate())

		got := p.Apply(base)
		require.Equal(t, int64(7), got.ID)
		require.Equal(t, "Escola", got.Title)
		require.True(t, amount.Equal(got.Amount))
		require.Equal(t, "reajuste", got.Notes)
		require.Equal(t, StatusPending, got.Status)
	})

	t.Run("payment date sets paid status", func(t *testing.T) {
		t.Parallel()
		paid := date(2026, 2, 28)
		p := BoletoPatch{PaidDate: &paid}
		got := p.Apply(base)
		require.Equal(t, StatusPaid, got.Status)
		require.Equal(t, paid, *got.PaidDate)
	})

	t.Run("clearing payment date resets to pending", func(t *testing.T) {
		t.Parallel()
		paid := date(2026, 2, 28)
		paidBoleto := base
		paidBoleto.PaidDate = &paid
		paidBoleto.Status = StatusPaid

		p := BoletoPatch{ClearPaidDate: true}
		got := p.Apply(paidBoleto)
		require.Equal(t, StatusPending, got.Status)
		require.Nil(t, got.PaidDate)
	})

	t.Run("clear and set payment date together is rejected", func(t *testing.T) {
		t.Parallel()
		paid := date(2026, 2, 28)
		p := BoletoPatch{PaidDate: &paid, ClearPaidDate: true}
		require.ErrorIs(t, p.Validate(), ErrStatusMismatch)
	})

	t.Run("blank title is rejected", func(t *testing.T) {
		t.Parallel()
		title := "   "
		p := BoletoPatch{Title: &title}
		require.ErrorIs(t, p.Validate(), ErrEmptyTitle)
	})

	t.Run("without subcategory drops only that field", func(t *testing.T) {
		t.Parallel()
		sub := "Plano"
		title := "Academia"
		p := BoletoPatch{Subcategory: &sub, Title: &title}
		stripped := p.WithoutSubcategory()
		require.Nil(t, stripped.Subcategory)
		require.NotNil(t, stripped.Title)
		require.NotNil(t, p.Subcategory)
	})
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "trims", input: "  Energia Elétrica ", want: "Energia Elétrica"},
		{name: "empty", input: "   ", wantErr: ErrInvalidName},
		{name: "control characters", input: "Luz\nÁgua", wantErr: ErrInvalidName},
		{name: "nul bytes", input: "Luz\x00", wantErr: ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateName(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("long printable name", func(t *testing.T) {
		t.Parallel()
		long := ""
		for range MaxCategoryNameLength + 1 {
			long += "a"
		}
		_, err := ValidateName(long)
		require.ErrorIs(t, err, ErrNameTooLong)
	})
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Status{
		"paid": StatusPaid, "PAGO": StatusPaid, " pending ": StatusPending, "pendente": StatusPending,
	} {
		got, err := ParseStatus(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseStatus("late")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate("2026-01-15")
	require.NoError(t, err)
	require.Equal(t, DefaultReferenceDate, got)

	_, err = ParseDate("15/01/2026")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestTruncateDate(t *testing.T) {
	t.Parallel()

	require.True(t, TruncateDate(time.Time{}).IsZero())
	loc := time.FixedZone("BRT", -3*60*60)
	got := TruncateDate(time.Date(2026, 5, 4, 22, 0, 0, 0, loc))
	require.Equal(t, date(2026, 5, 4), got)
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	ref := DefaultReferenceDate
	paid := date(2026, 1, 3)

	tests := []struct {
		name string
		b    Boleto
		want bool
	}{
		{"pending before reference", Boleto{Status: StatusPending, DueDate: date(2026, 1, 14)}, true},
		{"pending on reference", Boleto{Status: StatusPending, DueDate: ref}, false},
		{"pending after reference", Boleto{Status: StatusPending, DueDate: date(2026, 2, 1)}, false},
		{"paid before reference", Boleto{Status: StatusPaid, PaidDate: &paid, DueDate: date(2026, 1, 2)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.b.IsOverdue(ref))
		})
	}
}
