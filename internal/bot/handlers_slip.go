package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/gemini"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	appmodels "gitlab.com/clientdesk/billing-bot/internal/models"
)

const (
	// slipCallbackPrefix starts callback data of the form "slip:<action>:<draft_id>".
	slipCallbackPrefix = "slip:"
	// draftTTL is how long an unconfirmed slip draft is kept.
	draftTTL = time.Hour
	// maxSlipBytes caps the size of a downloaded slip photo.
	maxSlipBytes = 10 << 20
)

// slipDraft is a payment read from a slip, waiting for staff confirmation.
type slipDraft struct {
	UserID      int64
	ProjectName string
	Payment     appmodels.PaymentRecord
	CreatedAt   time.Time
}

func buildSlipKeyboard(draftID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Save", CallbackData: fmt.Sprintf("%ssave:%d", slipCallbackPrefix, draftID)},
				{Text: "❌ Cancel", CallbackData: fmt.Sprintf("%scancel:%d", slipCallbackPrefix, draftID)},
			},
		},
	}
}

// addDraft stores d and returns its ID. Expired drafts are dropped first.
func (b *Bot) addDraft(d *slipDraft) int64 {
	b.draftsMu.Lock()
	defer b.draftsMu.Unlock()

	for id, existing := range b.drafts {
		if d.CreatedAt.Sub(existing.CreatedAt) > draftTTL {
			delete(b.drafts, id)
		}
	}

	b.nextDraft++
	b.drafts[b.nextDraft] = d
	return b.nextDraft
}

func (b *Bot) getDraft(id int64) (*slipDraft, bool) {
	b.draftsMu.RLock()
	defer b.draftsMu.RUnlock()

	d, ok := b.drafts[id]
	if !ok || b.now().Sub(d.CreatedAt) > draftTTL {
		return nil, false
	}
	return d, true
}

func (b *Bot) removeDraft(id int64) {
	b.draftsMu.Lock()
	defer b.draftsMu.Unlock()
	delete(b.drafts, id)
}

// downloadFile fetches a Telegram file into memory.
func (b *Bot) downloadFile(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d downloading file", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSlipBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxSlipBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxSlipBytes)
	}

	return data, nil
}

// handlePhotoCore reads a payment slip and offers it as a draft payment.
// The photo caption must be the project ID.
func (b *Bot) handlePhotoCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || len(update.Message.Photo) == 0 {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if b.slips == nil {
		sendHTML(ctx, tg, chatID, "📷 Slip reading is not configured. Record the payment with <code>/pay</code> instead.")
		return
	}

	projectID, ok := parseID(update.Message.Caption)
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please send the slip with the project ID as caption, e.g. <code>12</code>.")
		return
	}

	project, err := b.data.GetProject(ctx, projectID)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Project #%d not found.", projectID))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "slip", err, "Failed to fetch project. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, "📷 Reading payment slip...")

	largest := update.Message.Photo[len(update.Message.Photo)-1]
	image, err := b.downloadFile(ctx, tg, largest.FileID)
	if err != nil {
		b.fail(ctx, tg, chatID, "slip", err, "Failed to download photo. Please try again.")
		return
	}

	slip, err := b.slips.ParsePaymentSlip(ctx, image, http.DetectContentType(image))
	if err != nil {
		logger.Log.Error().Err(err).Int64("project_id", projectID).Msg("Failed to parse payment slip")
		b.metrics.CommandFailed(ctx, "slip")
		switch {
		case errors.Is(err, gemini.ErrParseTimeout):
			sendHTML(ctx, tg, chatID, "⏱️ Reading the slip timed out. Please try again or use <code>/pay</code>.")
		default:
			sendHTML(ctx, tg, chatID, "❌ Could not read this slip. Please record it with <code>/pay</code>.")
		}
		return
	}

	currency := finance.Summarize(*project).Currency
	description := slip.Description
	if description == "" {
		description = "Payment slip"
	}

	draft := &slipDraft{
		UserID:      userID,
		ProjectName: project.Name,
		CreatedAt:   b.now(),
		Payment: appmodels.PaymentRecord{
			PaymentDate:    slip.PaymentDate(b.now()),
			Description:    description,
			ReceivedAmount: slip.MoneyString(currency),
			Transaction:    slip.Transaction,
			ProjectID:      project.ID,
		},
	}
	draftID := b.addDraft(draft)

	logger.Log.Info().
		Int64("project_id", project.ID).
		Int64("draft_id", draftID).
		Float64("confidence", slip.Confidence).
		Msg("Payment slip parsed")

	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        formatDraft(draft, slip.Confidence),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: buildSlipKeyboard(draftID),
	})
}

func formatDraft(d *slipDraft, confidence float64) string {
	var sb strings.Builder
	sb.WriteString("📸 <b>Payment Slip Read</b>\n\n")
	fmt.Fprintf(&sb, "💰 Amount: %s\n", escapeHTML(d.Payment.ReceivedAmount.Text))
	fmt.Fprintf(&sb, "📅 Date: %s\n", d.Payment.PaymentDate)
	fmt.Fprintf(&sb, "📁 Project: %s (#%d)\n", escapeHTML(d.ProjectName), d.Payment.ProjectID)
	fmt.Fprintf(&sb, "📝 %s\n", escapeHTML(d.Payment.Description))
	if d.Payment.Transaction != "" {
		fmt.Fprintf(&sb, "🔖 Transaction: %s\n", escapeHTML(d.Payment.Transaction))
	}
	if confidence > 0 && confidence < 0.7 {
		sb.WriteString("\n⚠️ <i>Low confidence, please double-check before saving.</i>")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// handleSlipCallbackCore saves or discards a slip draft.
func (b *Bot) handleSlipCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	cq := update.CallbackQuery
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	action, idText, _ := strings.Cut(strings.TrimPrefix(cq.Data, slipCallbackPrefix), ":")
	draftID, ok := parseID(idText)
	if !ok {
		logger.Log.Error().Str("data", cq.Data).Msg("Invalid slip callback data")
		return
	}

	draft, ok := b.getDraft(draftID)
	if !ok {
		b.editText(ctx, tg, chatID, messageID, "⌛ This draft has expired. Please send the slip again.")
		return
	}

	if draft.UserID != cq.From.ID {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(cq.From.ID)).
			Int64("draft_id", draftID).
			Msg("User mismatch on slip draft")
		return
	}

	switch action {
	case "save":
		payment := draft.Payment
		if err := b.data.CreatePayment(ctx, &payment); err != nil {
			logger.Log.Error().Err(err).Int64("draft_id", draftID).Msg("Failed to save slip payment")
			b.metrics.CommandFailed(ctx, "slip")
			_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
				ChatID:      chatID,
				MessageID:   messageID,
				Text:        formatDraft(draft, 0) + "\n\n❌ Failed to save payment. Please try again.",
				ParseMode:   models.ParseModeHTML,
				ReplyMarkup: buildSlipKeyboard(draftID),
			})
			return
		}
		b.removeDraft(draftID)
		b.metrics.PaymentRecorded(ctx, "slip")

		logger.Log.Info().
			Int64("payment_id", payment.ID).
			Int64("project_id", payment.ProjectID).
			Msg("Slip payment saved")

		b.editText(ctx, tg, chatID, messageID, fmt.Sprintf("✅ <b>Payment Saved!</b>\n\n💰 %s for %s (#%d)\n\nPayment #%d has been recorded.",
			escapeHTML(payment.ReceivedAmount.Text), escapeHTML(draft.ProjectName), payment.ProjectID, payment.ID))

	case "cancel":
		b.removeDraft(draftID)
		b.editText(ctx, tg, chatID, messageID, "🗑️ Slip discarded.")

	default:
		logger.Log.Error().Str("action", action).Msg("Unknown slip action")
	}
}

func (b *Bot) editText(ctx context.Context, tg TelegramAPI, chatID int64, messageID int, text string) {
	_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}
