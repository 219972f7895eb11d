package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// PaymentsHeader is the header row of the payment ledger export.
var PaymentsHeader = []string{"Payment Date", "Description", "Amount", "Currency", "Transaction"}

// PaymentsCSV exports the payment records of project. Amounts keep the
// currency they were recorded in; missing amounts leave both cells empty.
func PaymentsCSV(project models.Project) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(PaymentsHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range project.FinancialRecords {
		var amount, currency string
		if r.ReceivedAmount.Valid {
			m := money.Parse(r.ReceivedAmount.Text)
			amount = m.Value.StringFixed(2)
			currency = m.Currency
		}

		row := []string{
			isoDate(r.PaymentDate),
			r.Description,
			amount,
			currency,
			r.Transaction,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PaymentsFilename is the suggested file name for a ledger export generated at now.
func PaymentsFilename(project models.Project, now time.Time) string {
	return fmt.Sprintf("payments_%d_%s.csv", project.ID, now.Format("2006-01-02"))
}

// isoDate normalizes a backend date to YYYY-MM-DD, keeping unparsable text as is.
func isoDate(s string) string {
	t, ok := models.ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02")
}
