package report

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// Report summarizes a list of boletos.
type Report struct {
	TotalProjected decimal.Decimal
	TotalPaid      decimal.Decimal
	// PaidRatio is TotalPaid as a percentage of TotalProjected, 0 when nothing is projected.
	PaidRatio  float64
	ByCategory []CategoryTotal
	Count      int
	PaidCount  int
}

// PendingBalance is the amount still to be paid.
func (r Report) PendingBalance() decimal.Decimal {
	return r.TotalProjected.Sub(r.TotalPaid)
}

// Aggregate computes totals in a single pass. Categories appear in the order
// they are first encountered and are keyed case-sensitively.
func Aggregate(items []models.Boleto) Report {
	r := Report{
		TotalProjected: decimal.Zero,
		TotalPaid:      decimal.Zero,
		Count:          len(items),
	}

	index := make(map[string]int)
	for _, b := range items {
		r.TotalProjected = r.TotalProjected.Add(b.Amount)
		if b.Status == models.StatusPaid {
			r.TotalPaid = r.TotalPaid.Add(b.Amount)
			r.PaidCount++
		}

		i, ok := index[b.Category]
		if !ok {
			i = len(r.ByCategory)
			index[b.Category] = i
			r.ByCategory = append(r.ByCategory, CategoryTotal{Category: b.Category, Total: decimal.Zero})
		}
		r.ByCategory[i].Total = r.ByCategory[i].Total.Add(b.Amount)
	}

	if r.TotalProjected.IsPositive() {
		r.PaidRatio = r.TotalPaid.Div(r.TotalProjected).Mul(hundred).InexactFloat64()
	}
	return r
}
