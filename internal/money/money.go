// Package money parses and formats the free-text "<amount> <currency>" strings
// stored for budgets and payments.
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownCurrency is the currency of a value that could not be parsed.
const UnknownCurrency = "UNKNOWN"

// Money is a parsed amount with its currency code.
type Money struct {
	Currency string
	Value    decimal.Decimal
}

// moneyRegex matches the first "<number> <letters>" pair, e.g. "1500.00 USD" or "75EUR".
var moneyRegex = regexp.MustCompile(`(\d*\.?\d+)\s*([A-Za-z]+)`)

// Unknown returns the sentinel for unparsable input.
func Unknown() Money {
	return Money{Currency: UnknownCurrency, Value: decimal.Zero}
}

// Parse extracts the amount and currency from s. Stored strings use "." as the
// decimal point, so every "," is treated as a thousands separator and dropped:
// "1,500.00 USD" is 1500 and "5,50 EUR" is 550. ParseAmount, which reads what a
// user types, accepts "," as a decimal point instead.
// Input without a recognizable pair yields Unknown().
func Parse(s string) Money {
	m := moneyRegex.FindStringSubmatch(strings.ReplaceAll(s, ",", ""))
	if m == nil {
		return Unknown()
	}

	value, err := decimal.NewFromString(m[1])
	if err != nil {
		return Unknown()
	}

	return Money{Currency: strings.ToUpper(m[2]), Value: value}
}

// IsUnknown reports whether m is the unparsable sentinel.
func (m Money) IsUnknown() bool {
	return m.Currency == UnknownCurrency
}

// String formats m as "<value with 2 decimals> <CURRENCY>".
func (m Money) String() string {
	return Format(m.Value, m.Currency)
}

// Format renders value with two decimals followed by the upper-cased currency.
func Format(value decimal.Decimal, currency string) string {
	return value.StringFixed(2) + " " + strings.ToUpper(currency)
}

// ErrInvalidAmount is returned by ParseAmount for malformed or non-positive input.
var ErrInvalidAmount = errors.New("invalid amount")

var amountRegex = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)

// ParseAmount parses a user-typed amount such as "5", "5.50" or "5,50".
// The result is always positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !amountRegex.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	return amount, nil
}
