//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"gitlab.com/clientdesk/billing-bot/internal/dashboard"
	"gitlab.com/clientdesk/billing-bot/internal/invoice"
	"gitlab.com/clientdesk/billing-bot/internal/models"
)

func main() {
	client := models.Client{
		ID: 1, Name: "Jane Doe", Company: "Acme Ltd", Email: "billing@acme.io",
		Phone: "+1 555 0100", Address: "1 Main Street, Springfield",
	}

	projects := []models.Project{
		{
			ID: 10, Name: "Website Redesign", Budget: models.NewMoneyString("4,500 USD"),
			StartTime: "2026-01-05", EndTime: "2026-04-30", Status: models.StatusOngoing,
			ProjectType: "Web", ClientID: 1,
			FinancialRecords: []models.PaymentRecord{
				{ID: 1, PaymentDate: "2026-01-06", Description: "Deposit", ReceivedAmount: models.NewMoneyString("1500 USD")},
				{ID: 2, PaymentDate: "2026-02-20", Description: "Design sign-off", ReceivedAmount: models.NewMoneyString("1000 USD")},
			},
		},
		{ID: 11, Name: "Mobile App", Status: models.StatusOngoing, ProjectType: "Mobile", ClientID: 1},
		{ID: 12, Name: "Brand Kit", Status: models.StatusCompleted, ProjectType: "Design", ClientID: 1},
		{ID: 13, Name: "SEO Audit", Status: models.StatusPending, ProjectType: "Web", ClientID: 1},
	}

	pdf, err := invoice.Render(invoice.Build(projects[0], client))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	filename := invoice.Filename(projects[0], time.Now())
	if err := os.WriteFile(filename, pdf, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Created %s - Example invoice\n", filename)

	chartData, err := dashboard.StatusChart(dashboard.ByStatus(projects))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("status.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Created status.png - Example project status chart")
}
