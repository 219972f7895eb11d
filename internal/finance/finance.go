// Package finance computes payment subtotals, amounts due and cross-project totals.
package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"gitlab.com/clientdesk/billing-bot/internal/logger"
	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// Subtotal sums the received amounts of records.
// Records whose amount is missing or not a string count as zero.
func Subtotal(records []models.PaymentRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if !r.ReceivedAmount.Valid {
			continue
		}
		total = total.Add(money.Parse(r.ReceivedAmount.Text).Value)
	}
	return total
}

// Due is the project budget minus the payments received. It may be negative.
func Due(project models.Project, records []models.PaymentRecord) decimal.Decimal {
	return budgetOf(project).Value.Sub(Subtotal(records))
}

func budgetOf(project models.Project) money.Money {
	if !project.Budget.Valid {
		return money.Unknown()
	}
	return money.Parse(project.Budget.Text)
}

// ProjectSummary is the financial state of one project.
type ProjectSummary struct {
	Budget   money.Money
	Subtotal decimal.Decimal
	Due      decimal.Decimal
	// Currency is the budget currency, or models.DefaultCurrency when the budget is unparsable.
	Currency string
	// MixedCurrency is set when a payment was recorded in a currency other than
	// the budget's. Amounts are still summed as plain numbers.
	MixedCurrency bool
	RecordCount   int
}

// Summarize computes the subtotal and amount due of a project.
func Summarize(project models.Project) ProjectSummary {
	budget := budgetOf(project)

	currency := budget.Currency
	if budget.IsUnknown() {
		currency = models.DefaultCurrency
	}

	summary := ProjectSummary{
		Budget:      budget,
		Subtotal:    Subtotal(project.FinancialRecords),
		Currency:    currency,
		RecordCount: len(project.FinancialRecords),
	}
	summary.Due = budget.Value.Sub(summary.Subtotal)

	for _, r := range project.FinancialRecords {
		if !r.ReceivedAmount.Valid {
			continue
		}
		if m := money.Parse(r.ReceivedAmount.Text); !m.IsUnknown() && m.Currency != currency {
			summary.MixedCurrency = true
			break
		}
	}

	if summary.MixedCurrency {
		logger.Log.Warn().
			Int64("project_id", project.ID).
			Str("currency", currency).
			Msg("Project has payments in more than one currency")
	}

	return summary
}

// Totals are per-currency sums across many projects.
type Totals struct {
	BudgetByCurrency   map[string]decimal.Decimal
	ReceivedByCurrency map[string]decimal.Decimal
	// UncombinedBudgetSum and UncombinedReceivedSum add every bucket together
	// regardless of currency. They are not monetary totals.
	UncombinedBudgetSum   decimal.Decimal
	UncombinedReceivedSum decimal.Decimal
	// SkippedRecords counts payments whose amount was missing or not a string.
	SkippedRecords int
	ProjectCount   int
}

// Rollup buckets budgets and received payments by currency.
// Unparsable budgets and payment strings land in the money.UnknownCurrency bucket.
// Payments whose amount is missing or not a string are skipped entirely.
func Rollup(projects []models.Project) Totals {
	totals := Totals{
		BudgetByCurrency:      make(map[string]decimal.Decimal),
		ReceivedByCurrency:    make(map[string]decimal.Decimal),
		UncombinedBudgetSum:   decimal.Zero,
		UncombinedReceivedSum: decimal.Zero,
		ProjectCount:          len(projects),
	}

	for _, p := range projects {
		b := budgetOf(p)
		totals.BudgetByCurrency[b.Currency] = totals.BudgetByCurrency[b.Currency].Add(b.Value)
		totals.UncombinedBudgetSum = totals.UncombinedBudgetSum.Add(b.Value)

		for _, r := range p.FinancialRecords {
			if !r.ReceivedAmount.Valid {
				totals.SkippedRecords++
				logger.Log.Debug().
					Int64("project_id", p.ID).
					Int64("payment_id", r.ID).
					Msg("Skipping payment without a received amount")
				continue
			}
			m := money.Parse(r.ReceivedAmount.Text)
			totals.ReceivedByCurrency[m.Currency] = totals.ReceivedByCurrency[m.Currency].Add(m.Value)
			totals.UncombinedReceivedSum = totals.UncombinedReceivedSum.Add(m.Value)
		}
	}

	return totals
}

// Currencies returns every currency seen in either bucket, sorted.
func (t Totals) Currencies() []string {
	seen := make(map[string]decimal.Decimal, len(t.BudgetByCurrency)+len(t.ReceivedByCurrency))
	for c := range t.BudgetByCurrency {
		seen[c] = decimal.Zero
	}
	for c := range t.ReceivedByCurrency {
		seen[c] = decimal.Zero
	}
	return SortedCurrencies(seen)
}

// ForClient returns the projects belonging to clientID, preserving order.
func ForClient(projects []models.Project, clientID int64) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out
}

// SortedCurrencies returns the keys of m in display order: alphabetical,
// with money.UnknownCurrency last.
func SortedCurrencies(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == money.UnknownCurrency) != (keys[j] == money.UnknownCurrency) {
			return keys[j] == money.UnknownCurrency
		}
		return keys[i] < keys[j]
	})
	return keys
}
