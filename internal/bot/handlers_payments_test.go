package bot

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/clientdesk/billing-bot/internal/bot/mocks"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

func TestParsePaymentInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args string
		want paymentInput
	}{
		{
			name: "amount only",
			args: "500",
			want: paymentInput{Amount: decimal.NewFromInt(500)},
		},
		{
			name: "currency and description",
			args: "500.50 EUR Milestone 1",
			want: paymentInput{Amount: decimal.RequireFromString("500.50"), Currency: "EUR", Description: "Milestone 1"},
		},
		{
			name: "transaction reference",
			args: "75,5 Final payment #FT2401",
			want: paymentInput{Amount: decimal.RequireFromString("75.5"), Description: "Final payment", Transaction: "FT2401"},
		},
		{
			name: "lower-case word is description",
			args: "10 fee",
			want: paymentInput{Amount: decimal.NewFromInt(10), Description: "fee"},
		},
		{
			name: "lone hash stays in description",
			args: "10 item #",
			want: paymentInput{Amount: decimal.NewFromInt(10), Description: "item #"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parsePaymentInput(tt.args)
			require.NoError(t, err)
			require.True(t, tt.want.Amount.Equal(got.Amount), "amount %s", got.Amount)
			require.Equal(t, tt.want.Currency, got.Currency)
			require.Equal(t, tt.want.Description, got.Description)
			require.Equal(t, tt.want.Transaction, got.Transaction)
		})
	}

	for _, bad := range []string{"", "abc", "0", "-5", "1.234", "USD 5"} {
		_, err := parsePaymentInput(bad)
		require.ErrorIs(t, err, money.ErrInvalidAmount, bad)
	}
}

func TestHandlePay(t *testing.T) {
	t.Parallel()

	t.Run("records in project currency", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/pay 10 199.50 Milestone 2 #TX9"))

		records := data.project(10).FinancialRecords
		require.Len(t, records, 3)
		p := records[2]
		require.Equal(t, "199.50 USD", p.ReceivedAmount.Text)
		require.True(t, p.ReceivedAmount.Valid)
		require.Equal(t, "Milestone 2", p.Description)
		require.Equal(t, "TX9", p.Transaction)
		require.Equal(t, "2024-05-20", p.PaymentDate)

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "Payment Recorded!")
		require.Contains(t, text, "Due now: 300.00 USD")
		require.Contains(t, text, "Transaction: TX9")
	})

	t.Run("explicit currency", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/pay 11 100 EUR Kickoff"))

		require.Equal(t, "100.00 EUR", data.project(11).FinancialRecords[0].ReceivedAmount.Text)
		require.Contains(t, mockBot.LastSentMessage().Text, "Due now: 4900.00 EUR")
	})

	t.Run("invalid amount", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/pay 10 lots"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Invalid amount")
		require.Len(t, data.project(10).FinancialRecords, 2)
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/pay 99 10"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Project #99 not found.")
	})

	t.Run("missing project id", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handlePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/pay"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	})
}

func TestHandleEditPay(t *testing.T) {
	t.Parallel()

	t.Run("keeps previous currency and date", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleEditPayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/editpay 41 250 Milestone 1 revised"))

		p := data.project(10).FinancialRecords[1]
		require.Equal(t, int64(41), p.ID)
		require.Equal(t, "250.00 USD", p.ReceivedAmount.Text)
		require.Equal(t, "Milestone 1 revised", p.Description)
		require.Equal(t, "2024-04-10", p.PaymentDate)
		require.Contains(t, mockBot.LastSentMessage().Text, "Due now: 450.00 USD")
	})

	t.Run("amount only keeps description", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleEditPayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/editpay 40 350"))

		p := data.project(10).FinancialRecords[0]
		require.Equal(t, "350.00 USD", p.ReceivedAmount.Text)
		require.Equal(t, "Deposit", p.Description)
	})

	t.Run("unknown payment", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleEditPayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/editpay 999 10"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Payment #999 not found.")
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		data.setErr(errBackend)
		mockBot := mocks.NewMockBot()

		b.handleEditPayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/editpay 40 10"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Failed to fetch payment")
	})
}

func TestHandleDeletePay(t *testing.T) {
	t.Parallel()

	t.Run("deletes", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleDeletePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/delpay 40"))

		require.Equal(t, []int64{40}, data.deleted)
		require.Len(t, data.project(10).FinancialRecords, 1)
		require.Contains(t, mockBot.LastSentMessage().Text, "Payment #40 deleted.")
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleDeletePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/delpay 999"))

		require.Contains(t, mockBot.LastSentMessage().Text, "Payment #999 not found.")
	})

	t.Run("bad id", func(t *testing.T) {
		t.Parallel()
		b, data := newTestBot(t)
		mockBot := mocks.NewMockBot()

		b.handleDeletePayCore(context.Background(), mockBot, mocks.CommandUpdate(chatID, staffID, "/delpay abc"))

		require.Empty(t, data.deleted)
		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	})
}
