// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/clientdesk/billing-bot/internal/config"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	"gitlab.com/clientdesk/billing-bot/internal/telemetry"
)

// downloadTimeout bounds fetching a slip photo from Telegram.
const downloadTimeout = 20 * time.Second

// clientCommands are the commands a bound client user may run.
var clientCommands = map[string]bool{
	"start":   true,
	"help":    true,
	"me":      true,
	"invoice": true,
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot     *tgbot.Bot
	cfg     *config.Config
	data    DataSource
	slips   SlipParser
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	http    *http.Client
	now     func() time.Time

	draftsMu  sync.RWMutex
	drafts    map[int64]*slipDraft
	nextDraft int64
}

// New creates a new Bot instance. slips may be nil when slip reading is not configured.
func New(cfg *config.Config, data DataSource, slips SlipParser, metrics *telemetry.Metrics) (*Bot, error) {
	b := newBot(cfg, data, slips, metrics)

	opts := []tgbot.Option{
		tgbot.WithMiddlewares(b.accessMiddleware),
		tgbot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := tgbot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, data DataSource, slips SlipParser, metrics *telemetry.Metrics) *Bot {
	return &Bot{
		cfg:     cfg,
		data:    data,
		slips:   slips,
		metrics: metrics,
		tracer:  otel.Tracer("gitlab.com/clientdesk/billing-bot/internal/bot"),
		http:    &http.Client{Timeout: downloadTimeout},
		now:     time.Now,
		drafts:  make(map[int64]*slipDraft),
	}
}

// Start begins polling for updates and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

type coreHandler func(ctx context.Context, tg TelegramAPI, update *models.Update)

func adapt(h coreHandler) tgbot.HandlerFunc {
	return func(ctx context.Context, tgBot *tgbot.Bot, update *models.Update) {
		h(ctx, tgBot, update)
	}
}

// traced wraps h in a span named after the command.
func (b *Bot) traced(name string, h coreHandler) coreHandler {
	return func(ctx context.Context, tg TelegramAPI, update *models.Update) {
		ctx, span := b.tracer.Start(ctx, "bot."+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("bot.command", name)),
		)
		defer span.End()
		h(ctx, tg, update)
	}
}

func (b *Bot) commands() map[string]coreHandler {
	return map[string]coreHandler{
		"start":        b.handleStartCore,
		"help":         b.handleHelpCore,
		"dashboard":    b.handleDashboardCore,
		"settings":     b.handleSettingsCore,
		"clients":      b.handleClientsCore,
		"client":       b.handleClientCore,
		"clientstatus": b.handleClientStatusCore,
		"me":           b.handleMeCore,
		"project":      b.handleProjectCore,
		"invoice":      b.handleInvoiceCore,
		"payments":     b.handlePaymentsCore,
		"pay":          b.handlePayCore,
		"editpay":      b.handleEditPayCore,
		"delpay":       b.handleDeletePayCore,
	}
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	for name, h := range b.commands() {
		b.bot.RegisterHandlerMatchFunc(matchCommand(name), adapt(b.traced(name, h)))
	}
	b.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, statusCallbackPrefix, tgbot.MatchTypePrefix, adapt(b.handleStatusCallbackCore))
	b.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, slipCallbackPrefix, tgbot.MatchTypePrefix, adapt(b.handleSlipCallbackCore))
}

func matchCommand(name string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		return update.Message != nil && commandName(update.Message.Text) == name
	}
}

// commandName returns the lower-cased command of a message, without the
// leading slash or an @botname suffix. It returns "" for non-commands.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	return strings.ToLower(name)
}

// defaultHandler handles slip photos and unknown commands.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *tgbot.Bot, update *models.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	if len(update.Message.Photo) > 0 {
		b.handlePhotoCore(ctx, tg, update)
		return
	}

	if commandName(update.Message.Text) != "" {
		_, _ = tg.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❓ Unknown command. Use /help to see what I can do.",
		})
	}
}

// accessMiddleware lets staff through, restricts bound clients to
// clientCommands and turns everyone else away.
func (b *Bot) accessMiddleware(next tgbot.HandlerFunc) tgbot.HandlerFunc {
	return func(ctx context.Context, tgBot *tgbot.Bot, update *models.Update) {
		if b.allow(ctx, tgBot, update) {
			next(ctx, tgBot, update)
		}
	}
}

func (b *Bot) allow(ctx context.Context, tg TelegramAPI, update *models.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if b.isStaff(userID, username) {
		return true
	}

	if _, ok := b.cfg.ClientEmail(userID); ok {
		if update.Message != nil && clientCommands[commandName(update.Message.Text)] {
			return true
		}
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Client user attempted a staff action")
		b.deny(ctx, tg, update, "⛔ This action is only available to staff.")
		return false
	}

	logger.Log.Warn().
		Str("user_hash", logger.HashUserID(userID)).
		Msg("Blocked unauthorized user")
	b.deny(ctx, tg, update, "⛔ Sorry, you are not authorized to use this bot.")
	return false
}

func (b *Bot) deny(ctx context.Context, tg TelegramAPI, update *models.Update, text string) {
	switch {
	case update.Message != nil:
		_, _ = tg.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   text,
		})
	case update.CallbackQuery != nil:
		_, _ = tg.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            text,
			ShowAlert:       true,
		})
	}
}

func (b *Bot) isStaff(userID int64, username string) bool {
	return b.cfg.IsUserWhitelisted(userID, username)
}

// logUserAction logs the user's input without personal data.
func logUserAction(userID int64, update *models.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))

		if cmd := commandName(msg.Text); cmd != "" {
			event = event.Str("command", cmd)
		} else if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		if len(msg.Photo) > 0 {
			event = event.Str("type", "photo")
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *models.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from the update, or 0 when there is none.
func extractUserID(update *models.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}
