package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	appmodels "gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

var currencyToken = regexp.MustCompile(`^[A-Z]{3}$`)

// paymentInput is the parsed tail of /pay and /editpay.
type paymentInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Transaction string
}

// parsePaymentInput reads "<amount> [CUR] [description...] [#transaction]".
// The currency is only recognised as an upper-case three-letter code.
func parsePaymentInput(args string) (*paymentInput, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, money.ErrInvalidAmount
	}

	amount, err := money.ParseAmount(fields[0])
	if err != nil {
		return nil, err
	}

	in := &paymentInput{Amount: amount}
	rest := fields[1:]

	if len(rest) > 0 && currencyToken.MatchString(rest[0]) {
		in.Currency = rest[0]
		rest = rest[1:]
	}

	if n := len(rest); n > 0 && strings.HasPrefix(rest[n-1], "#") && len(rest[n-1]) > 1 {
		in.Transaction = strings.TrimPrefix(rest[n-1], "#")
		rest = rest[:n-1]
	}

	in.Description = strings.Join(rest, " ")
	return in, nil
}

// handlePayCore records a payment against a project.
func (b *Bot) handlePayCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	const usage = "\n\nUsage: <code>/pay 12 500 USD Milestone 1 #FT2401</code>"

	idText, rest, _ := strings.Cut(extractCommandArgs(update.Message.Text), " ")
	id, ok := parseID(idText)
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a project ID and amount."+usage)
		return
	}

	in, err := parsePaymentInput(rest)
	if err != nil {
		sendHTML(ctx, tg, chatID, "❌ Invalid amount. Use a positive number with up to 2 decimals."+usage)
		return
	}

	project, err := b.data.GetProject(ctx, id)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Project #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "pay", err, "Failed to fetch project. Please try again.")
		return
	}

	if in.Currency == "" {
		in.Currency = finance.Summarize(*project).Currency
	}

	payment := &appmodels.PaymentRecord{
		PaymentDate:    b.now().Format("2006-01-02"),
		Description:    in.Description,
		ReceivedAmount: appmodels.NewMoneyString(money.Format(in.Amount, in.Currency)),
		Transaction:    in.Transaction,
		ProjectID:      project.ID,
	}

	if err := b.data.CreatePayment(ctx, payment); err != nil {
		b.fail(ctx, tg, chatID, "pay", err, "Failed to save payment. Please try again.")
		return
	}

	b.metrics.PaymentRecorded(ctx, "command")
	logger.Log.Info().
		Int64("project_id", project.ID).
		Int64("payment_id", payment.ID).
		Str("description", logger.SanitizeDescription(payment.Description)).
		Msg("Payment recorded")

	project.FinancialRecords = append(project.FinancialRecords, *payment)
	sendHTML(ctx, tg, chatID, paymentConfirmation("✅ <b>Payment Recorded!</b>", payment, project))
}

func paymentConfirmation(title string, payment *appmodels.PaymentRecord, project *appmodels.Project) string {
	s := finance.Summarize(*project)
	text := fmt.Sprintf("%s\n\n💰 Amount: %s\n📁 Project: %s (#%d)\n📝 %s\n\nPayment #%d. Due now: %s",
		title,
		escapeHTML(payment.ReceivedAmount.Text),
		escapeHTML(project.Name), project.ID,
		escapeHTML(descriptionOrDash(payment.Description)),
		payment.ID,
		money.Format(s.Due, s.Currency))
	if payment.Transaction != "" {
		text += "\n🔖 Transaction: " + escapeHTML(payment.Transaction)
	}
	return text
}

func descriptionOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var errPaymentNotFound = errors.New("payment not found")

// findPayment locates a payment and its project by scanning every project.
func (b *Bot) findPayment(ctx context.Context, paymentID int64) (*appmodels.PaymentRecord, *appmodels.Project, error) {
	projects, err := b.data.ListProjects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list projects: %w", err)
	}

	for i := range projects {
		for j := range projects[i].FinancialRecords {
			if projects[i].FinancialRecords[j].ID == paymentID {
				return &projects[i].FinancialRecords[j], &projects[i], nil
			}
		}
	}
	return nil, nil, errPaymentNotFound
}

// handleEditPayCore replaces the amount and description of a payment.
func (b *Bot) handleEditPayCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	const usage = "\n\nUsage: <code>/editpay 40 750 USD Milestone 2</code>"

	idText, rest, _ := strings.Cut(extractCommandArgs(update.Message.Text), " ")
	id, ok := parseID(idText)
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a payment ID and amount."+usage)
		return
	}

	in, err := parsePaymentInput(rest)
	if err != nil {
		sendHTML(ctx, tg, chatID, "❌ Invalid amount. Use a positive number with up to 2 decimals."+usage)
		return
	}

	payment, project, err := b.findPayment(ctx, id)
	if errors.Is(err, errPaymentNotFound) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Payment #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "editpay", err, "Failed to fetch payment. Please try again.")
		return
	}

	if in.Currency == "" {
		in.Currency = finance.Summarize(*project).Currency
		if previous := money.Parse(payment.ReceivedAmount.Text); payment.ReceivedAmount.Valid && !previous.IsUnknown() {
			in.Currency = previous.Currency
		}
	}

	payment.ReceivedAmount = appmodels.NewMoneyString(money.Format(in.Amount, in.Currency))
	if in.Description != "" {
		payment.Description = in.Description
	}
	if in.Transaction != "" {
		payment.Transaction = in.Transaction
	}

	if err := b.data.UpdatePayment(ctx, payment); err != nil {
		if isNotFound(err) {
			sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Payment #%d not found.", id))
			return
		}
		b.fail(ctx, tg, chatID, "editpay", err, "Failed to update payment. Please try again.")
		return
	}

	logger.Log.Info().Int64("payment_id", id).Int64("project_id", project.ID).Msg("Payment updated")
	sendHTML(ctx, tg, chatID, paymentConfirmation("✏️ <b>Payment Updated!</b>", payment, project))
}

// handleDeletePayCore removes a payment.
func (b *Bot) handleDeletePayCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseID(extractCommandArgs(update.Message.Text))
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a payment ID.\n\nUsage: <code>/delpay 40</code>")
		return
	}

	err := b.data.DeletePayment(ctx, id)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Payment #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "delpay", err, "Failed to delete payment. Please try again.")
		return
	}

	logger.Log.Info().Int64("payment_id", id).Msg("Payment deleted")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("🗑️ Payment #%d deleted.", id))
}
