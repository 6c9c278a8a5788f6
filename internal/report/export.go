package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gocarina/gocsv"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

type csvRow struct {
	ID          string `csv:"ID"`
	Title       string `csv:"Title"`
	Category    string `csv:"Category"`
	Subcategory string `csv:"Subcategory"`
	Amount      string `csv:"Amount"`
	DueDate     string `csv:"Due Date"`
	PaidDate    string `csv:"Paid Date"`
	Status      string `csv:"Status"`
	Notes       string `csv:"Notes"`
}

// ExportCSV writes boletos as CSV with a header row.
func ExportCSV(items []models.Boleto) ([]byte, error) {
	rows := make([]csvRow, 0, len(items))
	for _, b := range items {
		row := csvRow{
			ID:          strconv.FormatInt(b.ID, 10),
			Title:       b.Title,
			Category:    b.Category,
			Subcategory: b.Subcategory,
			Amount:      b.Amount.StringFixed(2),
			DueDate:     b.DueDate.Format(models.DateLayout),
			Status:      string(b.Status),
			Notes:       b.Notes,
		}
		if b.PaidDate != nil {
			row.PaidDate = b.PaidDate.Format(models.DateLayout)
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(&buf))); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}
