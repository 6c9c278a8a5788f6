//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
	"gitlab.com/yelinaung/boleto-bot/internal/report"
)

func main() {
	due := func(day int) time.Time { return time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC) }
	paid := due(10)

	items := []models.Boleto{
		{Title: "Aluguel", Category: "Habitação", Amount: decimal.NewFromFloat(1500), DueDate: due(5), PaidDate: &paid, Status: models.StatusPaid},
		{Title: "Condomínio", Category: "Habitação", Amount: decimal.NewFromFloat(420.50), DueDate: due(10), Status: models.StatusPending},
		{Title: "Mensalidade escolar", Category: "Educação", Amount: decimal.NewFromFloat(800), DueDate: due(15), Status: models.StatusPending},
		{Title: "Plano de saúde", Category: "Saúde", Amount: decimal.NewFromFloat(650.30), DueDate: due(20), PaidDate: &paid, Status: models.StatusPaid},
		{Title: "Internet", Category: "Tecnologia", Amount: decimal.NewFromFloat(119.90), DueDate: due(25), Status: models.StatusPending},
	}

	chartData, err := report.Chart(report.Aggregate(items), "Boletos por categoria")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example boleto breakdown chart")
}
