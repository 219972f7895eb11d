package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"gitlab.com/clientdesk/billing-bot/internal/finance"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	appmodels "gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// handleClientsCore lists every client.
func (b *Bot) handleClientsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	clients, err := b.data.ListClients(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "clients", err, "Failed to fetch clients. Please try again.")
		return
	}

	if len(clients) == 0 {
		sendHTML(ctx, tg, chatID, "No clients found.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 <b>Clients</b>\n\n")
	for _, c := range clients {
		fmt.Fprintf(&sb, "• #%d %s", c.ID, escapeHTML(c.Name))
		if c.Company != "" {
			fmt.Fprintf(&sb, " (%s)", escapeHTML(c.Company))
		}
		if c.Status != "" {
			fmt.Fprintf(&sb, " - %s", escapeHTML(c.Status))
		}
		sb.WriteString("\n")
	}

	sendHTML(ctx, tg, chatID, strings.TrimRight(sb.String(), "\n"))
}

// handleClientCore shows one client and their projects.
func (b *Bot) handleClientCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseID(extractCommandArgs(update.Message.Text))
	if !ok {
		sendHTML(ctx, tg, chatID, "❌ Please provide a client ID.\n\nUsage: <code>/client 3</code>")
		return
	}

	client, err := b.data.GetClient(ctx, id)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Client #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "client", err, "Failed to fetch client. Please try again.")
		return
	}

	projects, err := b.data.ListProjects(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "client", err, "Failed to fetch projects. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, formatClient(client, finance.ForClient(projects, client.ID)))
}

func formatClient(c *appmodels.Client, projects []appmodels.Project) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "👤 <b>%s</b> (#%d)\n", escapeHTML(c.Name), c.ID)
	if c.Company != "" {
		fmt.Fprintf(&sb, "🏢 %s\n", escapeHTML(c.Company))
	}
	if c.Email != "" {
		fmt.Fprintf(&sb, "✉️ %s\n", escapeHTML(c.Email))
	}
	if c.Phone != "" {
		fmt.Fprintf(&sb, "📞 %s\n", escapeHTML(c.Phone))
	}
	if c.Address != "" {
		fmt.Fprintf(&sb, "📍 %s\n", escapeHTML(c.Address))
	}
	if c.Status != "" {
		fmt.Fprintf(&sb, "🏷️ %s\n", escapeHTML(c.Status))
	}

	sb.WriteString(formatProjectList(projects))
	return sb.String()
}

// formatProjectList renders one line per project followed by per-currency totals.
func formatProjectList(projects []appmodels.Project) string {
	if len(projects) == 0 {
		return "\nNo projects yet."
	}

	var sb strings.Builder
	sb.WriteString("\n<b>Projects</b>\n")
	for _, p := range projects {
		sb.WriteString(formatProjectLine(p))
		sb.WriteString("\n")
	}

	totals := finance.Rollup(projects)
	sb.WriteString("\n<b>Totals</b>\n")
	for _, c := range totals.Currencies() {
		fmt.Fprintf(&sb, "• budget %s, received %s\n",
			money.Format(totals.BudgetByCurrency[c], c),
			money.Format(totals.ReceivedByCurrency[c], c))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatProjectLine(p appmodels.Project) string {
	s := finance.Summarize(p)
	return fmt.Sprintf("• #%d %s (%s): received %s, due %s",
		p.ID, escapeHTML(p.Name), escapeHTML(string(p.Status)),
		money.Format(s.Subtotal, s.Currency),
		money.Format(s.Due, s.Currency))
}

// handleClientStatusCore changes a client's status to one of the configured values.
func (b *Bot) handleClientStatusCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	idText, statusText, _ := strings.Cut(extractCommandArgs(update.Message.Text), " ")
	id, ok := parseID(idText)
	statusText = strings.TrimSpace(statusText)
	if !ok || statusText == "" {
		sendHTML(ctx, tg, chatID, "❌ Please provide a client ID and status.\n\nUsage: <code>/clientstatus 3 Active</code>")
		return
	}

	settings, err := b.data.GetSettings(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "clientstatus", err, "Failed to load settings. Please try again.")
		return
	}

	status, ok := settings.HasClientStatus(statusText)
	if !ok {
		var allowed []string
		for _, s := range settings.ClientStatuses {
			allowed = append(allowed, escapeHTML(s.ClientStatus))
		}
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Unknown client status %q.\n\nAllowed: %s",
			escapeHTML(statusText), joinOrNone(allowed)))
		return
	}

	err = b.data.UpdateClientStatus(ctx, id, status)
	if isNotFound(err) {
		sendHTML(ctx, tg, chatID, fmt.Sprintf("❌ Client #%d not found.", id))
		return
	}
	if err != nil {
		b.fail(ctx, tg, chatID, "clientstatus", err, "Failed to update client. Please try again.")
		return
	}

	logger.Log.Info().Int64("client_id", id).Str("status", status).Msg("Client status updated")
	sendHTML(ctx, tg, chatID, fmt.Sprintf("✅ Client #%d is now <b>%s</b>.", id, escapeHTML(status)))
}

// clientFor resolves the client record bound to a Telegram user.
func (b *Bot) clientFor(ctx context.Context, userID int64) (*appmodels.Client, error) {
	email, ok := b.cfg.ClientEmail(userID)
	if !ok {
		return nil, nil
	}

	clients, err := b.data.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	for i := range clients {
		if strings.EqualFold(clients[i].Email, email) {
			return &clients[i], nil
		}
	}

	logger.Log.Warn().
		Str("user_hash", logger.HashUserID(userID)).
		Str("email", logger.MaskEmail(email)).
		Msg("No client matches the bound email")
	return nil, nil
}

// handleMeCore shows a client user their own projects.
func (b *Bot) handleMeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	client, err := b.clientFor(ctx, update.Message.From.ID)
	if err != nil {
		b.fail(ctx, tg, chatID, "me", err, "Failed to load your account. Please try again.")
		return
	}
	if client == nil {
		sendHTML(ctx, tg, chatID, "ℹ️ No client account is linked to your Telegram user.")
		return
	}

	projects, err := b.data.ListProjects(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "me", err, "Failed to fetch your projects. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, formatClient(client, finance.ForClient(projects, client.ID)))
}
