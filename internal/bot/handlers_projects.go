package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/clientdesk/billing-bot/internal/dashboard"
	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/invoice"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	appmodels "gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// statusCallbackPrefix starts callback data of the form "status:<project_id>:<status>".
const statusCallbackPrefix = "status:"

func buildStatusKeyboard(project *appmodels.Project) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton
	for _, s := range appmodels.KnownStatuses {
		if s == project.Status {
			continue
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         string(s),
			CallbackData: fmt.Sprintf("%s%d:%s", statusCallbackPrefix, project.ID, s),
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func formatProject(p *appmodels.Project) string {
	s := finance.Summarize(*p)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 <b>%s</b> (#%d)\n", escapeHTML(p.Name), p.ID)
	fmt.Fprintf(&sb, "🏷️ Status: %s\n", escapeHTML(string(p.Status)))
	if p.ProjectType != "" {
		fmt.Fprintf(&sb, "🗂️ Type: %s\n", escapeHTML(p.ProjectType))
	}
	fmt.Fprintf(&sb, "📅 %s to %s\n", invoice.FormatDate(p.StartTime), invoice.FormatDate(p.EndTime))
	fmt.Fprintf(&sb, "👤 Client #%d\n\n", p.ClientID)

	if s.Budget.IsUnknown() {
		sb.WriteString("💰 Budget: <i>not set</i>\n")
	} else {
		fmt.Fprintf(&sb, "💰 Budget: %s\n", s.Budget)
	}
	fmt.Fprintf(&sb, "✅ Received: %s (%d payments)\n", money.Format(s.Subtotal, s.Currency), s.RecordCount)
	fmt.Fprintf(&sb, "⏳ Due: %s", money.Format(s.Due, s.Currency))
	if s.MixedCurrency {
		sb.WriteString("\n⚠️ Some payments are in another currency and were added as plain numbers.")
	}

	if len(p.FinancialRecords) > 0 {
		sb.WriteString("\n\n<b>Payments</b>")
		for _, r := range p.FinancialRecords {
			amount := "<i>no amount</i>"
			if r.ReceivedAmount.Valid {
				amount = escapeHTML(r.ReceivedAmount.Text)
			}
			fmt.Fprintf(&sb, "\n• #%d %s: %s %s", r.ID, invoice.FormatDate(r.PaymentDate), amount, escapeHTML(r.Description))
		}
	}

	return sb.String()
}

// handleProjectCore shows a project summary with status buttons.
func (b *Bot) handleProjectCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseID(extractCommandArgs(update.Message.Text))
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a project ID.\n\nUsage: <code>/project 12</code>")
		return
	}

	project, err := b.data.GetProject(ctx, id)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Project #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "project", err, "Failed to fetch project. Please try again.")
		return
	}

	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        formatProject(project),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: buildStatusKeyboard(project),
	})
}

// handleStatusCallbackCore applies a status button press.
func (b *Bot) handleStatusCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	cq := update.CallbackQuery
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	idText, statusText, _ := strings.Cut(strings.TrimPrefix(cq.Data, statusCallbackPrefix), ":")
	id, okID := parseID(idText)
	status, okStatus := appmodels.ParseProjectStatus(statusText)
	if !okID || !okStatus {
		logger.Log.Error().Str("data", cq.Data).Msg("Invalid status callback data")
		_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
		return
	}

	if err := b.data.UpdateProjectStatus(ctx, id, status); err != nil {
		logger.Log.Error().Err(err).Int64("project_id", id).Msg("Failed to update project status")
		b.metrics.CommandFailed(ctx, "status")
		_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
			Text:            "❌ Failed to update status.",
			ShowAlert:       true,
		})
		return
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            "Status set to " + string(status),
	})

	logger.Log.Info().Int64("project_id", id).Str("status", string(status)).Msg("Project status updated")

	project, err := b.data.GetProject(ctx, id)
	if err != nil {
		logger.Log.Warn().Err(err).Int64("project_id", id).Msg("Failed to reload project after status change")
		return
	}

	_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        formatProject(project),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: buildStatusKeyboard(project),
	})
}

// projectForCaller loads a project, hiding projects of other clients from client users.
// It returns nil without error when the caller may not see the project.
func (b *Bot) projectForCaller(ctx context.Context, from *models.User, id int64) (*appmodels.Project, error) {
	project, err := b.data.GetProject(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if b.isStaff(from.ID, from.Username) {
		return project, nil
	}

	client, err := b.clientFor(ctx, from.ID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.ID != project.ClientID {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(from.ID)).
			Int64("project_id", id).
			Msg("Client user requested a project they do not own")
		return nil, nil
	}
	return project, nil
}

// handleInvoiceCore renders and sends the PDF invoice of a project.
func (b *Bot) handleInvoiceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseID(extractCommandArgs(update.Message.Text))
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a project ID.\n\nUsage: <code>/invoice 12</code>")
		return
	}

	project, err := b.projectForCaller(ctx, update.Message.From, id)
	if err != nil {
		b.fail(ctx, tg, chatID, "invoice", err, "Failed to fetch project. Please try again.")
		return
	}
	if project == nil {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Project #%d not found.", id))
		return
	}

	client, err := b.data.GetClient(ctx, project.ClientID)
	switch {
	case isNotFound(err):
		logger.Log.Warn().Int64("project_id", id).Int64("client_id", project.ClientID).Msg("Invoice client not found")
		client = &appmodels.Client{ID: project.ClientID, Name: dashboard.UnknownClient}
	case err != nil:
		b.fail(ctx, tg, chatID, "invoice", err, "Failed to fetch client. Please try again.")
		return
	}

	doc := invoice.Build(*project, *client)
	pdf, err := invoice.Render(doc)
	if err != nil {
		b.fail(ctx, tg, chatID, "invoice", err, "Failed to generate invoice. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: invoice.Filename(*project, b.now()), Data: bytes.NewReader(pdf)},
		Caption:   fmt.Sprintf("🧾 Invoice for <b>%s</b>\nSubtotal: %s", escapeHTML(project.Name), doc.SubtotalText()),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		b.fail(ctx, tg, chatID, "invoice", err, "Failed to send invoice. Please try again.")
		return
	}

	b.metrics.InvoiceRendered(ctx)
	logger.Log.Info().
		Int64("project_id", id).
		Int("rows", len(doc.Rows)).
		Int("size_bytes", len(pdf)).
		Msg("Invoice sent")
}

// handlePaymentsCore exports a project's payments as CSV.
func (b *Bot) handlePaymentsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseID(extractCommandArgs(update.Message.Text))
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a project ID.\n\nUsage: <code>/payments 12</code>")
		return
	}

	project, err := b.data.GetProject(ctx, id)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Project #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "payments", err, "Failed to fetch project. Please try again.")
		return
	}

	if len(project.FinancialRecords) == 0 {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("📭 Project #%d has no payments yet.", id))
		return
	}

	data, err := dashboard.PaymentsCSV(*project)
	if err != nil {
		b.fail(ctx, tg, chatID, "payments", err, "Failed to export payments. Please try again.")
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: dashboard.PaymentsFilename(*project, b.now()), Data: bytes.NewReader(data)},
		Caption:  fmt.Sprintf("📄 %d payment(s) for project #%d", len(project.FinancialRecords), id),
	})
	if err != nil {
		b.fail(ctx, tg, chatID, "payments", err, "Failed to send export. Please try again.")
	}
}
