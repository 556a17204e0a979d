package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "HTTP_TIMEOUT", "FORECAST_TIMEZONE", "FORECAST_MAX_RETRIES", "GEOCODE_CACHE_TTL", "SESSION_MAX_COUNT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ForecastTimezone != "Asia/Seoul" || cfg.ForecastMaxRetries != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.GeocodeCacheTTL != time.Hour || cfg.SessionMaxCount != 1000 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FORECAST_TIMEZONE", "UTC")
	t.Setenv("FORECAST_MAX_RETRIES", "2")
	t.Setenv("SESSION_MAX_AGE", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.ForecastTimezone != "UTC" || cfg.ForecastMaxRetries != 2 || cfg.SessionMaxAge != 30*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}

	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("SESSION_MAX_COUNT", "many")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid integer")
	}
}
