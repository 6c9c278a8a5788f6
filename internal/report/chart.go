package report

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
)

// ErrNothingToChart is returned when no category has a positive total.
var ErrNothingToChart = errors.New("no amounts to chart")

// Chart renders the category breakdown of a report as a PNG pie chart.
func Chart(r Report, title string) ([]byte, error) {
	var values []float64
	var names []string
	for _, c := range r.ByCategory {
		if !c.Total.IsPositive() {
			continue
		}
		names = append(names, c.Category)
		values = append(values, c.Total.InexactFloat64())
	}
	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}
