// Package main is the entry point for the client billing Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/clientdesk/billing-bot/internal/apiclient"
	"gitlab.com/clientdesk/billing-bot/internal/bot"
	"gitlab.com/clientdesk/billing-bot/internal/config"
	"gitlab.com/clientdesk/billing-bot/internal/database"
	"gitlab.com/clientdesk/billing-bot/internal/gemini"
	"gitlab.com/clientdesk/billing-bot/internal/logger"
	"gitlab.com/clientdesk/billing-bot/internal/repository"
	"gitlab.com/clientdesk/billing-bot/internal/telemetry"
)

const serviceName = "billing-bot"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("%s %s (commit: %s, built: %s)\n", serviceName, version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogHashSalt != "" {
		if err := logger.SetHashSalt(cfg.LogHashSalt); err != nil {
			logger.Log.Fatal().Err(err).Msg("Invalid log hash salt")
		}
	}

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:     cfg.OTelExporter,
		OTLPEndpoint: cfg.OTelEndpoint,
		ServiceName:  serviceName,
		Version:      version,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	metrics, err := telemetry.NewMetrics(providers.Meter.Meter(serviceName))
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	data, closeData, err := openDataSource(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.DataBackend).Msg("Failed to open data source")
	}
	defer closeData()

	var slips bot.SlipParser
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		slips = geminiClient
	} else {
		logger.Log.Info().Msg("GEMINI_API_KEY not set, payment slip reading disabled")
	}

	telegramBot, err := bot.New(cfg, data, slips, metrics)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}

// openDataSource connects the configured backend. The returned func releases it.
func openDataSource(ctx context.Context, cfg *config.Config) (bot.DataSource, func(), error) {
	switch cfg.DataBackend {
	case config.BackendAPI:
		client, err := apiclient.New(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout)
		if err != nil {
			return nil, nil, err
		}
		if cfg.APIToken == "" {
			token, err := client.Login(ctx, cfg.APIEmail, cfg.APIPassword)
			if err != nil {
				return nil, nil, err
			}
			client = client.WithToken(token)
		}
		logger.Log.Info().Str("base_url", cfg.APIBaseURL).Msg("Using REST API backend")
		return client, func() {}, nil

	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := database.SeedSettings(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Log.Info().Msg("Database initialized successfully")
		return repository.NewStore(pool), pool.Close, nil
	}
}
