package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"gitlab.com/clientdesk/billing-bot/internal/dashboard"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	appmodels "gitlab.com/clientdesk/billing-bot/internal/models"
	"gitlab.com/clientdesk/billing-bot/internal/money"
)

// loadPortfolio fetches every client and project concurrently.
func (b *Bot) loadPortfolio(ctx context.Context) ([]appmodels.Client, []appmodels.Project, error) {
	var clients []appmodels.Client
	var projects []appmodels.Project

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = b.data.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		projects, err = b.data.ListProjects(gctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clients, projects, nil
}

// handleDashboardCore sends the portfolio overview followed by its charts.
func (b *Bot) handleDashboardCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	clients, projects, err := b.loadPortfolio(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "dashboard", err, "Failed to load the dashboard. Please try again.")
		return
	}

	overview := dashboard.Build(clients, projects)
	sendHTML(ctx, tg, chatID, formatOverview(overview))

	charts := []struct {
		filename string
		caption  string
		render   func() ([]byte, error)
	}{
		{"project_status.png", "📊 Projects by status", func() ([]byte, error) { return dashboard.StatusChart(overview.ByStatus) }},
		{"ongoing_types.png", "📊 Ongoing projects by type", func() ([]byte, error) { return dashboard.OngoingTypeChart(overview.OngoingByType) }},
	}

	for _, c := range charts {
		png, err := c.render()
		if errors.Is(err, dashboard.ErrNothingToChart) {
			continue
		}
		if err != nil {
			logger.Log.Warn().Err(err).Str("chart", c.filename).Msg("Failed to render chart")
			continue
		}
		if _, err := tg.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileUpload{Filename: c.filename, Data: bytes.NewReader(png)},
			Caption:  c.caption,
		}); err != nil {
			logger.Log.Error().Err(err).Str("chart", c.filename).Msg("Failed to send chart")
		}
	}
}

func formatOverview(ov dashboard.Overview) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Dashboard</b>\n\n")
	fmt.Fprintf(&sb, "👥 Clients: %d\n", ov.ClientCount)
	fmt.Fprintf(&sb, "📁 Projects: %d\n", ov.Totals.ProjectCount)

	sb.WriteString("\n<b>By status</b>\n")
	for _, s := range appmodels.KnownStatuses {
		fmt.Fprintf(&sb, "• %s: %d\n", s, ov.ByStatus[s])
	}

	if len(ov.OngoingByType) > 0 {
		sb.WriteString("\n<b>Ongoing by type</b>\n")
		for _, t := range dashboard.SortedKeys(ov.OngoingByType) {
			fmt.Fprintf(&sb, "• %s: %d\n", escapeHTML(t), ov.OngoingByType[t])
		}
	}

	if len(ov.ByYearAndType) > 0 {
		sb.WriteString("\n<b>Started per year</b>\n")
		for _, yt := range ov.ByYearAndType {
			fmt.Fprintf(&sb, "• %s %s: %d\n", yt.Year, escapeHTML(yt.ProjectType), yt.Count)
		}
	}

	if len(ov.ByClient) > 0 {
		sb.WriteString("\n<b>Projects per client</b>\n")
		for _, cc := range ov.ByClient {
			fmt.Fprintf(&sb, "• %s (#%d): %d\n", escapeHTML(cc.ClientName), cc.ClientID, cc.Count)
		}
	}

	if currencies := ov.Totals.Currencies(); len(currencies) > 0 {
		sb.WriteString("\n<b>Totals</b>\n")
		for _, c := range currencies {
			fmt.Fprintf(&sb, "• budget %s, received %s\n",
				money.Format(ov.Totals.BudgetByCurrency[c], c),
				money.Format(ov.Totals.ReceivedByCurrency[c], c))
		}
	}

	if ov.Totals.SkippedRecords > 0 {
		fmt.Fprintf(&sb, "\n⚠️ %d payment(s) without an amount were not counted.", ov.Totals.SkippedRecords)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// handleSettingsCore lists the configured lookup values.
func (b *Bot) handleSettingsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	settings, err := b.data.GetSettings(ctx)
	if err != nil {
		b.fail(ctx, tg, chatID, "settings", err, "Failed to load settings. Please try again.")
		return
	}

	sendHTML(ctx, tg, chatID, formatSettings(settings))
}

func formatSettings(s *appmodels.Settings) string {
	var currencies, statuses, types []string
	for _, c := range s.Currencies {
		currencies = append(currencies, escapeHTML(c.Currency))
	}
	for _, c := range s.ClientStatuses {
		statuses = append(statuses, escapeHTML(c.ClientStatus))
	}
	for _, t := range s.ProjectTypes {
		types = append(types, escapeHTML(t.ProjectType))
	}

	return fmt.Sprintf("⚙️ <b>Settings</b>\n\n<b>Currencies:</b> %s\n<b>Client statuses:</b> %s\n<b>Project types:</b> %s",
		joinOrNone(currencies), joinOrNone(statuses), joinOrNone(types))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "<i>none</i>"
	}
	return strings.Join(items, ", ")
}
