// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	FMSURL            string
	FMSRetryMax       int
	FMSRetryBaseDelay time.Duration

	DatabaseURL string

	RateFeedURL        string
	RateFeedDelay      time.Duration
	RateFeedRetryMax   int
	RateWorkerInterval time.Duration

	ReportingCurrency string
	ActiveCurrencies  []string

	WatchedPortfolios    []int64
	ExportWorkerInterval time.Duration
	ExportDir            string
	SheetsSpreadsheetID  string
	SheetsCredentials    string

	HTTPPort string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		FMSURL:            envOrDefault("FMS_URL", "http://localhost:9090"),
		FMSRetryMax:       envOrDefaultInt("FMS_RETRY_MAX", 5),
		FMSRetryBaseDelay: envOrDefaultDuration("FMS_RETRY_BASE_DELAY", 2*time.Second),

		DatabaseURL: envOrDefaultWarn("DATABASE_URL", ""),

		RateFeedURL:        envOrDefault("RATE_FEED_URL", "https://api.exchangerate.host"),
		RateFeedDelay:      envOrDefaultDuration("RATE_FEED_DELAY", 6*time.Second),
		RateFeedRetryMax:   envOrDefaultInt("RATE_FEED_RETRY_MAX", 5),
		RateWorkerInterval: envOrDefaultDuration("RATE_WORKER_INTERVAL", 1*time.Hour),

		ReportingCurrency: envOrDefault("REPORTING_CURRENCY", "SGD"),
		ActiveCurrencies:  envOrDefaultList("ACTIVE_CURRENCIES", []string{"SGD", "USD"}),

		WatchedPortfolios:    envOrDefaultInt64List("WATCHED_PORTFOLIOS", nil),
		ExportWorkerInterval: envOrDefaultDuration("EXPORT_WORKER_INTERVAL", 24*time.Hour),
		ExportDir:            envOrDefault("EXPORT_DIR", "exports"),
		SheetsSpreadsheetID:  envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentials:    envOrDefault("SHEETS_CREDENTIALS_JSON", ""),

		HTTPPort: envOrDefault("HTTP_PORT", "8080"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envOrDefaultInt64List(key string, defaultVal []int64) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []int64
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			slog.Warn("invalid id in env var, skipping", "key", key, "value", p)
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
