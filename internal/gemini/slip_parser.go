package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// ParseSlipTimeout bounds a single extraction call.
const ParseSlipTimeout = 30 * time.Second

// ErrParseTimeout indicates the Gemini API call timed out.
var ErrParseTimeout = errors.New("payment slip parsing timed out")

// ErrNoData indicates no amount could be extracted from the slip.
var ErrNoData = errors.New("no usable data extracted from payment slip")

var currencyCode = regexp.MustCompile(`^[A-Za-z]{3}$`)

// SlipData is what was read from a bank transfer or payment slip.
type SlipData struct {
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Description string
	Transaction string
	Confidence  float64
}

// HasAmount reports whether a positive amount was extracted.
func (s *SlipData) HasAmount() bool {
	return s.Amount.IsPositive()
}

// MoneyString formats the amount as a stored money-string, using
// defaultCurrency when the slip shows none.
func (s *SlipData) MoneyString(defaultCurrency string) models.MoneyString {
	currency := s.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return models.NewMoneyString(money.Format(s.Amount, currency))
}

// PaymentDate returns the slip date as YYYY-MM-DD, or fallback's date when none was read.
func (s *SlipData) PaymentDate(fallback time.Time) string {
	if s.Date.IsZero() {
		return fallback.Format("2006-01-02")
	}
	return s.Date.Format("2006-01-02")
}

type slipResponse struct {
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Transaction string  `json:"transaction"`
	Confidence  float64 `json:"confidence"`
}

// ParsePaymentSlip extracts payment data from a slip image.
func (c *Client) ParsePaymentSlip(ctx context.Context, image []byte, mimeType string) (*SlipData, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image data is required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, ParseSlipTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, c.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
				{Text: slipPrompt},
			},
		},
	}, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrParseTimeout
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	data, err := parseSlipResponse(text)
	if err != nil {
		return nil, err
	}
	if !data.HasAmount() {
		return nil, ErrNoData
	}

	return data, nil
}

const slipPrompt = `Analyze this image of a payment slip, bank transfer confirmation or receipt for a client payment.
Return ONLY a JSON object with no additional text or markdown formatting.

Required fields:
- amount: The amount transferred (numeric string, e.g., "1250.00")
- currency: The ISO 4217 currency code, e.g., "USD"; empty string if not shown
- date: The transfer date in YYYY-MM-DD format
- description: A short description such as the payment reference or memo
- transaction: The transaction or reference number
- confidence: Your confidence in the extraction accuracy (0.0 to 1.0)

If a field cannot be determined, use an empty string for text fields, "0" for amount, or 0.0 for confidence.

Example response:
{"amount": "1250.00", "currency": "USD", "date": "2024-01-15", "description": "Invoice 42 milestone 2", "transaction": "FT24015XK9", "confidence": 0.9}`

func parseSlipResponse(response string) (*SlipData, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var sr slipResponse
	if err := json.Unmarshal([]byte(response), &sr); err != nil {
		return nil, fmt.Errorf("failed to parse slip response: %w", err)
	}

	data := &SlipData{
		Description: strings.TrimSpace(sr.Description),
		Transaction: strings.TrimSpace(sr.Transaction),
		Confidence:  sr.Confidence,
	}

	if code := strings.TrimSpace(sr.Currency); currencyCode.MatchString(code) {
		data.Currency = strings.ToUpper(code)
	}

	if amountText := strings.ReplaceAll(strings.TrimSpace(sr.Amount), ",", ""); amountText != "" && amountText != "0" {
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", sr.Amount, err)
		}
		if amount.IsNegative() {
			amount = amount.Neg()
		}
		data.Amount = amount.Round(2)
	}

	if sr.Date != "" {
		if date, err := time.Parse("2006-01-02", sr.Date); err == nil {
			data.Date = date
		}
	}

	return data, nil
}
