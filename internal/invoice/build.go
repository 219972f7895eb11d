// Package invoice lays out and renders project invoices as PDF documents.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// DateLayout is the display format for dates on the invoice, e.g. "05 Mar 2024".
const DateLayout = "02 Jan 2006"

// TableHeader holds the itemized table column headings.
var TableHeader = [3]string{"Payment Date", "Description", "Amount"}

// BandCell is one column of the shaded project band.
type BandCell struct {
	Header string
	Value  string
}

// Row is one itemized payment line.
type Row struct {
	PaymentDate string
	Description string
	Amount      string
	Value       decimal.Decimal
}

// Document is the layout model of an invoice, independent of the output format.
type Document struct {
	ProjectID    int64
	ClientBlock  []string
	ProjectBlock []string
	Band         [3]BandCell
	Rows         []Row
	Currency     string
	Subtotal     decimal.Decimal
}

// SubtotalText is the formatted sum of all rows.
func (d *Document) SubtotalText() string {
	return money.Format(d.Subtotal, d.Currency)
}

// Build assembles the invoice for project. Every amount is shown in the
// currency of the project budget.
func Build(project models.Project, client models.Client) *Document {
	summary := finance.Summarize(project)
	currency := summary.Currency
	budgetText := money.Format(summary.Budget.Value, currency)
	issueDate := FormatDate(project.StartTime)

	doc := &Document{
		ProjectID: project.ID,
		ClientBlock: []string{
			"Client",
			fmt.Sprintf("Client Name: %s [%d]", client.Name, client.ID),
			"Email: " + client.Email,
			"Phone: " + client.Phone,
			"Address: " + client.Address,
		},
		ProjectBlock: []string{
			"Project",
			"Project Name: " + project.Name,
			"Issue date: " + issueDate,
			"Budget: " + budgetText,
			"Due: " + money.Format(summary.Due, currency),
		},
		Band: [3]BandCell{
			{Header: "Project Name", Value: project.Name},
			{Header: "Issue Date", Value: issueDate},
			{Header: "Budget", Value: budgetText},
		},
		Rows:     make([]Row, 0, len(project.FinancialRecords)),
		Currency: currency,
		Subtotal: decimal.Zero,
	}

	for _, r := range project.FinancialRecords {
		value := decimal.Zero
		if r.ReceivedAmount.Valid {
			value = money.Parse(r.ReceivedAmount.Text).Value
		}
		doc.Rows = append(doc.Rows, Row{
			PaymentDate: FormatDate(r.PaymentDate),
			Description: r.Description,
			Amount:      money.Format(value, currency),
			Value:       value,
		})
		doc.Subtotal = doc.Subtotal.Add(value)
	}

	return doc
}

// FormatDate renders a backend date as DateLayout, or returns it unchanged
// when it cannot be parsed.
func FormatDate(s string) string {
	t, ok := models.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format(DateLayout)
}

// Filename is the suggested file name for a project invoice generated at now.
func Filename(project models.Project, now time.Time) string {
	return fmt.Sprintf("invoice_%d_%s.pdf", project.ID, now.Format("2006-01-02"))
}
