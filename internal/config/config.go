// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"net/mail"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data backends.
const (
	BackendPostgres = "postgres"
	BackendAPI      = "api"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string

	DataBackend string
	DatabaseURL string
	APIBaseURL  string
	APIToken    string
	APIEmail    string
	APIPassword string
	APITimeout  time.Duration

	GeminiAPIKey    string
	DefaultCurrency string

	LogLevel    string
	LogFormat   string
	LogHashSalt string

	// WhitelistedUserIDs and WhitelistedUsernames identify staff.
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	// ClientBindings maps a Telegram user ID to the email of the client they may view.
	ClientBindings map[int64]string

	OTelExporter string
	OTelEndpoint string
}

// Load reads configuration from environment variables, and from .env when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DataBackend:      strings.ToLower(getEnv("DATA_BACKEND", BackendPostgres)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		APIBaseURL:       os.Getenv("API_BASE_URL"),
		APIToken:         os.Getenv("API_TOKEN"),
		APIEmail:         os.Getenv("API_EMAIL"),
		APIPassword:      os.Getenv("API_PASSWORD"),
		APITimeout:       getEnvDuration("API_TIMEOUT", 10*time.Second),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		OTelExporter:     strings.ToLower(getEnv("OTEL_EXPORTER", "none")),
		OTelEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	cfg.WhitelistedUserIDs = parseIDs(os.Getenv("WHITELISTED_USER_IDS"))
	cfg.WhitelistedUsernames = parseUsernames(os.Getenv("WHITELISTED_USERNAMES"))

	bindings, bindingErrs := parseBindings(os.Getenv("CLIENT_BINDINGS"))
	cfg.ClientBindings = bindings

	if err := cfg.validate(bindingErrs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseIDs(s string) []int64 {
	var ids []int64
	for idStr := range strings.SplitSeq(s, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseUsernames(s string) []string {
	var names []string
	for username := range strings.SplitSeq(s, ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		names = append(names, username)
	}
	return names
}

// parseBindings reads "tgid:email" pairs. Malformed pairs are reported rather
// than skipped because they grant access.
func parseBindings(s string) (map[int64]string, []string) {
	bindings := make(map[int64]string)
	var errs []string

	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		idStr, email, ok := strings.Cut(pair, ":")
		if !ok {
			errs = append(errs, fmt.Sprintf("CLIENT_BINDINGS entry %q must be <telegram_id>:<email>", pair))
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("CLIENT_BINDINGS entry %q has an invalid telegram id", pair))
			continue
		}

		email = strings.TrimSpace(email)
		if _, err := mail.ParseAddress(email); err != nil {
			errs = append(errs, fmt.Sprintf("CLIENT_BINDINGS entry %q has an invalid email", pair))
			continue
		}

		bindings[id] = strings.ToLower(email)
	}

	return bindings, errs
}

// validate checks that all required configuration is present.
func (c *Config) validate(extra ...string) error {
	errs := append([]string(nil), extra...)

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
	case BackendAPI:
		if c.APIBaseURL == "" {
			errs = append(errs, "API_BASE_URL is required for the api backend")
		}
		if c.APIToken == "" && (c.APIEmail == "" || c.APIPassword == "") {
			errs = append(errs, "API_TOKEN or both API_EMAIL and API_PASSWORD are required for the api backend")
		}
		if c.APITimeout <= 0 {
			errs = append(errs, "API_TIMEOUT must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("DATA_BACKEND %q must be one of %s, %s", c.DataBackend, BackendPostgres, BackendAPI))
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	for id := range c.ClientBindings {
		if slices.Contains(c.WhitelistedUserIDs, id) {
			errs = append(errs, fmt.Sprintf("user %d cannot be both whitelisted staff and a bound client", id))
		}
	}

	switch c.OTelExporter {
	case "none", "stdout":
	case "otlp":
		if c.OTelEndpoint == "" {
			errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_EXPORTER=otlp")
		}
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q must be one of none, stdout, otlp", c.OTelExporter))
	}

	if c.LogHashSalt != "" && len(c.LogHashSalt) < 32 {
		errs = append(errs, "LOG_HASH_SALT must be at least 32 characters")
	}

	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Sprintf("DEFAULT_CURRENCY %q must be a 3-letter code", c.DefaultCurrency))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the staff whitelist.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}

// ClientEmail returns the client email bound to a Telegram user.
func (c *Config) ClientEmail(userID int64) (string, bool) {
	email, ok := c.ClientBindings[userID]
	return email, ok
}
