// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/boleto-bot/internal/models"
)

// Telemetry exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	GeminiAPIKey     string
	LogLevel         string
	LogFormat        string
	RunMigrations    bool

	// ReferenceDate is recorded as the payment date by the mark-paid action.
	ReferenceDate time.Time
	MessageTTL    time.Duration
	StoreTimeout  time.Duration

	SearchNotes       bool
	SearchSubcategory bool

	DueReminderEnabled bool
	ReminderHour       int
	ReminderTimezone   string

	OTelExporter     string
	OTelProtocol     string
	OTelServiceName  string
	OTelOTLPEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		OTelOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var errs []string

	cfg.RunMigrations = envBool("RUN_MIGRATIONS", true)
	cfg.SearchNotes = envBool("SEARCH_NOTES", true)
	cfg.SearchSubcategory = envBool("SEARCH_SUBCATEGORY", true)
	cfg.DueReminderEnabled = envBool("DUE_REMINDER_ENABLED", false)

	cfg.ReferenceDate = models.DefaultReferenceDate
	if s := os.Getenv("REFERENCE_DATE"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			errs = append(errs, "REFERENCE_DATE must use the YYYY-MM-DD format")
		} else {
			cfg.ReferenceDate = d
		}
	}

	cfg.MessageTTL = envDuration("MESSAGE_TTL", 3*time.Second)
	cfg.StoreTimeout = envDuration("STORE_TIMEOUT", 10*time.Second)

	cfg.ReminderHour = 9
	if hourStr := os.Getenv("REMINDER_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.ReminderHour = h
		}
	}
	cfg.ReminderTimezone = "America/Sao_Paulo"
	if tz := os.Getenv("REMINDER_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.ReminderTimezone = tz
		}
	}

	cfg.OTelExporter = ExporterNone
	if exp := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER"))); exp != "" {
		switch exp {
		case ExporterNone, ExporterStdout, ExporterOTLP:
			cfg.OTelExporter = exp
		default:
			errs = append(errs, "OTEL_EXPORTER must be one of none, stdout, otlp")
		}
	}
	cfg.OTelProtocol = "http"
	if p := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")); p == "grpc" {
		cfg.OTelProtocol = p
	}
	cfg.OTelServiceName = "boleto-bot"
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.OTelServiceName = name
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.MessageTTL <= 0 {
		errs = append(errs, "MESSAGE_TTL must be positive")
	}

	if c.StoreTimeout <= 0 {
		errs = append(errs, "STORE_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// AIEnabled reports whether natural-language commands can be processed.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
