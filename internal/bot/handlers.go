package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/clientdesk/billing-bot/internal/logger"
)

// extractCommandArgs strips the leading command and an optional @botname
// suffix from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if idx := strings.IndexFunc(text, isSpace); idx != -1 {
		return strings.TrimSpace(text[idx:])
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// escapeHTML escapes HTML special characters for Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// parseID parses a positive numeric identifier.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func sendHTML(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
}

// fail logs err, counts the failed command and tells the user.
func (b *Bot) fail(ctx context.Context, tg TelegramAPI, chatID int64, command string, err error, text string) {
	logger.Log.Error().Err(err).Str("command", command).Msg("Command failed")
	b.metrics.CommandFailed(ctx, command)
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "❌ " + text,
	})
}

// handleStartCore greets staff and client users differently.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	greeting := "👋 Welcome" + formatGreeting(from.FirstName) + "!\n\n"

	if !b.isStaff(from.ID, from.Username) {
		sendHTML(ctx, tg, update.Message.Chat.ID, greeting+
			"Here you can follow your projects and download invoices.\n\n"+
			"Use /me to see your projects, or /help for all commands.")
		return
	}

	sendHTML(ctx, tg, update.Message.Chat.ID, greeting+
		"I keep track of clients, projects and the payments they make.\n\n"+
		"<b>Quick Start:</b>\n"+
		"• /dashboard for the portfolio overview\n"+
		"• <code>/pay 12 500 USD Milestone 1</code> to record a payment\n"+
		"• Send a photo of a payment slip with the project ID as caption\n\n"+
		"Use /help to see all available commands.")
}

// handleHelpCore lists the commands available to the caller.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	if !b.isStaff(from.ID, from.Username) {
		sendHTML(ctx, tg, update.Message.Chat.ID, `📚 <b>Available Commands</b>

• <code>/me</code> - Your projects and totals
• <code>/invoice &lt;project_id&gt;</code> - Download an invoice
• <code>/help</code> - Show this help message`)
		return
	}

	sendHTML(ctx, tg, update.Message.Chat.ID, `📚 <b>Available Commands</b>

<b>Overview:</b>
• <code>/dashboard</code> - Portfolio overview and status chart
• <code>/settings</code> - Currencies, client statuses and project types

<b>Clients:</b>
• <code>/clients</code> - List clients
• <code>/client &lt;id&gt;</code> - Client details and projects
• <code>/clientstatus &lt;id&gt; &lt;status&gt;</code> - Change a client's status

<b>Projects:</b>
• <code>/project &lt;id&gt;</code> - Project summary and status buttons
• <code>/invoice &lt;project_id&gt;</code> - Generate the PDF invoice
• <code>/payments &lt;project_id&gt;</code> - Export payments as CSV

<b>Payments:</b>
• <code>/pay &lt;project_id&gt; &lt;amount&gt; [currency] &lt;description&gt; [#transaction]</code>
• <code>/editpay &lt;payment_id&gt; &lt;amount&gt; [currency] &lt;description&gt;</code>
• <code>/delpay &lt;payment_id&gt;</code>
• Send a slip photo with the project ID as caption`)
}
