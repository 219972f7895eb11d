package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantValue    string
		wantCurrency string
	}{
		{name: "amount and currency", input: "1500.00 USD", wantValue: "1500", wantCurrency: "USD"},
		{name: "no space", input: "75EUR", wantValue: "75", wantCurrency: "EUR"},
		{name: "lower case currency", input: "12.5 sgd", wantValue: "12.5", wantCurrency: "SGD"},
		{name: "leading dot", input: ".5 USD", wantValue: "0.5", wantCurrency: "USD"},
		{name: "thousands separator", input: "1,250.75 THB", wantValue: "1250.75", wantCurrency: "THB"},
		{name: "thousands separator with decimals", input: "1,500.00 USD", wantValue: "1500", wantCurrency: "USD"},
		{name: "comma is never a decimal point", input: "5,50 EUR", wantValue: "550", wantCurrency: "EUR"},
		{name: "surrounding text", input: "paid 300 MMK via bank", wantValue: "300", wantCurrency: "MMK"},
		{name: "three decimals kept", input: "1.005 USD", wantValue: "1.005", wantCurrency: "USD"},
		{name: "sign is not captured", input: "-50 USD", wantValue: "50", wantCurrency: "USD"},
		{name: "first pair wins", input: "10 USD 20 EUR", wantValue: "10", wantCurrency: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.input)
			assert.Equal(t, tt.wantCurrency, got.Currency)
			assert.True(t, decimal.RequireFromString(tt.wantValue).Equal(got.Value),
				"value: want %s, got %s", tt.wantValue, got.Value)
			assert.False(t, got.IsUnknown())
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "   ", "USD", "1500", "USD 1500", "abc def", "$$$", "1. USD"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			got := Parse(input)
			assert.True(t, got.IsUnknown())
			assert.Equal(t, UnknownCurrency, got.Currency)
			assert.True(t, got.Value.IsZero())
		})
	}
}

func TestParse_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := "1,000 usd"
	_ = Parse(input)
	require.Equal(t, "1,000 usd", input)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		currency string
		want     string
	}{
		{value: "1500", currency: "USD", want: "1500.00 USD"},
		{value: "0", currency: "eur", want: "0.00 EUR"},
		{value: "-250.5", currency: "USD", want: "-250.50 USD"},
		{value: "12.345", currency: "THB", want: "12.35 THB"},
		{value: "0", currency: UnknownCurrency, want: "0.00 UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.value), tt.currency))
		})
	}
}

func TestMoney_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "400.00 USD", Parse("400 usd").String())
	assert.Equal(t, "0.00 UNKNOWN", Unknown().String())
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"5":       "5",
		"5.50":    "5.5",
		"5,50":    "5.5",
		" 100 ":   "100",
		"0.01":    "0.01",
		"1000000": "1000000",
	}
	for input, want := range valid {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAmount(input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(want).Equal(got))
		})
	}

	invalid := []string{"", "0", "0.00", "-10", "abc", "5.555", "5..5", "1e3", ".5", "5.", "10 USD"}
	for _, input := range invalid {
		t.Run("invalid "+input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAmount(input)
			require.ErrorIs(t, err, ErrInvalidAmount)
			assert.True(t, got.IsZero())
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 1_000_000_000_00).Draw(t, "cents")
		extra := rapid.Int64Range(0, 9).Draw(t, "extra")
		currency := rapid.StringMatching(`[A-Za-z]{1,5}`).Draw(t, "currency")

		// three decimals so rounding is exercised too
		value := decimal.New(cents*10+extra, -3)

		got := Parse(Format(value, currency))
		if !got.Value.Equal(value.Round(2)) {
			t.Fatalf("value: want %s, got %s", value.Round(2), got.Value)
		}
		if got.Currency != strings.ToUpper(currency) {
			t.Fatalf("currency: want %s, got %s", strings.ToUpper(currency), got.Currency)
		}
	})
}

func FuzzParse(f *testing.F) {
	f.Add("1500.00 USD")
	f.Add("75EUR")
	f.Add("1,250.75 THB")
	f.Add("")
	f.Add("USD 1500")
	f.Add(".5 usd")
	f.Add("99999999999999999999999999.999 X")
	f.Add("\x00\xff")

	f.Fuzz(func(t *testing.T, input string) {
		got := Parse(input)

		if got.IsUnknown() {
			if !got.Value.IsZero() {
				t.Errorf("Parse(%q) returned unknown currency with value %s", input, got.Value)
			}
			return
		}

		if got.Value.IsNegative() {
			t.Errorf("Parse(%q) returned negative value %s", input, got.Value)
		}
		if got.Currency == "" || got.Currency != strings.ToUpper(got.Currency) {
			t.Errorf("Parse(%q) returned currency %q", input, got.Currency)
		}
		if again := Parse(got.String()); !again.Value.Equal(got.Value.Round(2)) {
			t.Errorf("Parse(%q) not stable after formatting: %s vs %s", input, again.Value, got.Value)
		}
	})
}
