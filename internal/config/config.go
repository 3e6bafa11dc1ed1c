package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Mandi     ProviderConfig
	Weather   ProviderConfig
	Alerts    AlertsConfig
	Sheets    SheetsConfig
	Scheduler SchedulerConfig
	Model     ModelConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for the prediction store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// ProviderConfig points at an external data provider (mandi prices, weather).
// An empty BaseURL disables the provider; the engine degrades gracefully.
type ProviderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Enabled reports whether the provider is configured.
func (p ProviderConfig) Enabled() bool { return p.BaseURL != "" }

// AlertsConfig points at the notification service used for significant
// deviation alerts.
type AlertsConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// Enabled reports whether alert dispatch is configured.
func (a AlertsConfig) Enabled() bool { return a.BaseURL != "" }

// SheetsConfig configures the model-accuracy review export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the accuracy export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// SchedulerConfig holds the cron schedules for background jobs.
type SchedulerConfig struct {
	NotificationCron string
	AccuracyCron     string
	Timezone         string
}

// ModelConfig carries the tunable thresholds of the estimation model. These
// are named configuration rather than inline literals so they can be tuned
// per deployment and exercised in tests.
type ModelConfig struct {
	Version                     string
	ConfidenceIntervalPercent   decimal.Decimal
	SignificantDeviationPct     decimal.Decimal
	NeutralVarianceBandPct      decimal.Decimal
	CostPerQuintal              decimal.Decimal
	DefaultModalPricePerQuintal decimal.Decimal
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "yield"),
		},
		Mandi: ProviderConfig{
			BaseURL: os.Getenv("MANDI_SERVICE_URL"),
		},
		Weather: ProviderConfig{
			BaseURL: os.Getenv("WEATHER_SERVICE_URL"),
		},
		Alerts: AlertsConfig{
			BaseURL:  os.Getenv("NOTIFICATION_SERVICE_URL"),
			APIToken: os.Getenv("NOTIFICATION_SERVICE_TOKEN"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("ACCURACY_REVIEW_SHEET_ID"),
		},
		Scheduler: SchedulerConfig{
			NotificationCron: getenvWithDefault("NOTIFICATION_CRON_SCHEDULE", "*/15 * * * *"),
			AccuracyCron:     getenvWithDefault("ACCURACY_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:         getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		Model: ModelConfig{
			Version: getenvWithDefault("MODEL_VERSION", "1.0.0"),
		},
	}

	var err error
	if cfg.Mandi.Timeout, err = getenvSeconds("MANDI_TIMEOUT_SECONDS", 10); err != nil {
		return nil, err
	}
	if cfg.Weather.Timeout, err = getenvSeconds("WEATHER_TIMEOUT_SECONDS", 10); err != nil {
		return nil, err
	}
	if cfg.Alerts.Timeout, err = getenvSeconds("NOTIFICATION_TIMEOUT_SECONDS", 15); err != nil {
		return nil, err
	}

	if cfg.Model.ConfidenceIntervalPercent, err = getenvDecimal("CONFIDENCE_INTERVAL_PERCENT", "85"); err != nil {
		return nil, err
	}
	if cfg.Model.SignificantDeviationPct, err = getenvDecimal("SIGNIFICANT_DEVIATION_PERCENT", "10"); err != nil {
		return nil, err
	}
	if cfg.Model.NeutralVarianceBandPct, err = getenvDecimal("NEUTRAL_VARIANCE_BAND_PERCENT", "10"); err != nil {
		return nil, err
	}
	if cfg.Model.CostPerQuintal, err = getenvDecimal("COST_PER_QUINTAL", "500"); err != nil {
		return nil, err
	}
	if cfg.Model.DefaultModalPricePerQuintal, err = getenvDecimal("DEFAULT_MODAL_PRICE", "2000"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Scheduler.NotificationCron == "" {
		return errors.New("NOTIFICATION_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.AccuracyCron == "" {
		return errors.New("ACCURACY_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.Model.Version == "" {
		return errors.New("MODEL_VERSION must not be empty")
	}
	if c.Model.ConfidenceIntervalPercent.Sign() <= 0 {
		return errors.New("CONFIDENCE_INTERVAL_PERCENT must be positive")
	}
	if c.Model.SignificantDeviationPct.Sign() <= 0 {
		return errors.New("SIGNIFICANT_DEVIATION_PERCENT must be positive")
	}
	if c.Model.NeutralVarianceBandPct.Sign() <= 0 {
		return errors.New("NEUTRAL_VARIANCE_BAND_PERCENT must be positive")
	}
	if c.Model.CostPerQuintal.Sign() < 0 {
		return errors.New("COST_PER_QUINTAL must not be negative")
	}
	if c.Model.DefaultModalPricePerQuintal.Sign() <= 0 {
		return errors.New("DEFAULT_MODAL_PRICE must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDecimal(key, fallback string) (decimal.Decimal, error) {
	raw := getenvWithDefault(key, fallback)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal number, got %q: %w", key, raw, err)
	}
	return value, nil
}

func getenvSeconds(key string, fallback int) (time.Duration, error) {
	raw := getenvWithDefault(key, strconv.Itoa(fallback))
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return time.Duration(seconds) * time.Second, nil
}
