package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.ReportingCurrency != "SGD" {
		t.Errorf("ReportingCurrency = %q, want SGD", cfg.ReportingCurrency)
	}
	if len(cfg.ActiveCurrencies) != 2 {
		t.Errorf("ActiveCurrencies = %v, want the two defaults", cfg.ActiveCurrencies)
	}
	if cfg.FMSRetryMax != 5 {
		t.Errorf("FMSRetryMax = %d, want 5", cfg.FMSRetryMax)
	}
	if cfg.RateWorkerInterval != time.Hour {
		t.Errorf("RateWorkerInterval = %v, want 1h", cfg.RateWorkerInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("ACTIVE_CURRENCIES", "SGD, USD ,EUR")
	t.Setenv("WATCHED_PORTFOLIOS", "42, 43,bogus,44")
	t.Setenv("FMS_RETRY_BASE_DELAY", "500ms")

	cfg := Load()

	if cfg.HTTPPort != "9999" {
		t.Errorf("HTTPPort = %q, want 9999", cfg.HTTPPort)
	}
	if len(cfg.ActiveCurrencies) != 3 || cfg.ActiveCurrencies[2] != "EUR" {
		t.Errorf("ActiveCurrencies = %v, want [SGD USD EUR]", cfg.ActiveCurrencies)
	}
	if len(cfg.WatchedPortfolios) != 3 || cfg.WatchedPortfolios[2] != 44 {
		t.Errorf("WatchedPortfolios = %v, want [42 43 44] with the bad entry skipped", cfg.WatchedPortfolios)
	}
	if cfg.FMSRetryBaseDelay != 500*time.Millisecond {
		t.Errorf("FMSRetryBaseDelay = %v, want 500ms", cfg.FMSRetryBaseDelay)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("FMS_RETRY_MAX", "not-a-number")
	t.Setenv("RATE_WORKER_INTERVAL", "soon")

	cfg := Load()

	if cfg.FMSRetryMax != 5 {
		t.Errorf("FMSRetryMax = %d, want default 5", cfg.FMSRetryMax)
	}
	if cfg.RateWorkerInterval != time.Hour {
		t.Errorf("RateWorkerInterval = %v, want default 1h", cfg.RateWorkerInterval)
	}
}
