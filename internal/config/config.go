package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"kantong/internal/core"
)

// Supported storage backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendBolt, BackendSQLite}

type Config struct {
	// Storage
	DataBackend  string
	BoltDBPath   string
	SQLiteDBPath string

	// AMQP, optional: events are skipped when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Exchange rates
	RatesAPIURL    string
	RatesCacheTTL  time.Duration
	RatesCacheSize int
	RatesTimeout   time.Duration

	// Ledger
	ReportingCurrency string
	Timezone          string

	// Worker
	ReconcileInterval time.Duration

	// Google Sheets export, optional
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend:  getEnv("DATA_BACKEND", BackendBolt),
		BoltDBPath:   getEnv("BOLT_DB_PATH", "./data/kantong.db"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kantong.sqlite"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kantong"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		RatesAPIURL:    getEnv("RATES_API_URL", "https://open.er-api.com/v6"),
		RatesCacheTTL:  getEnvDuration("RATES_CACHE_TTL", time.Hour),
		RatesCacheSize: getEnvInt("RATES_CACHE_SIZE", 64),
		RatesTimeout:   getEnvDuration("RATES_TIMEOUT", 10*time.Second),

		ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", core.ReportingCurrency)),
		Timezone:          getEnv("TIMEZONE", "Asia/Jakarta"),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendBolt:
		errors = append(errors, checkDBPath("bolt", c.BoltDBPath)...)
	case BackendSQLite:
		errors = append(errors, checkDBPath("SQLite", c.SQLiteDBPath)...)
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RatesAPIURL != "" {
		if parsedURL, err := url.Parse(c.RatesAPIURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid rates API URL '%s': must be an http(s) URL", c.RatesAPIURL))
		}
	}
	if c.RatesCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid rates cache size %d: must be at least 1", c.RatesCacheSize))
	}
	if c.RatesCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rates cache TTL %v: must be at least 1 second", c.RatesCacheTTL))
	}

	if !core.IsReportingCurrency(c.ReportingCurrency) {
		errors = append(errors, fmt.Sprintf("unsupported reporting currency '%s': only %s is supported", c.ReportingCurrency, core.ReportingCurrency))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.ReconcileInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at least 1 second", c.ReconcileInterval))
	} else if c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be at most 24 hours", c.ReconcileInterval))
	}

	// Sheets export needs credentials once a spreadsheet is configured
	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether month reports should be exported.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return level, nil
}

func checkDBPath(name, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s database path cannot be empty when using %s backend", name, strings.ToLower(name))}
	}
	// Check if directory exists or can be created
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create %s database directory '%s': %v", name, dir, err)}
			}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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
