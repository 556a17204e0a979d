package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// HTTPTimeout bounds every outbound call.
	HTTPTimeout time.Duration

	ForecastBaseURL    string
	ForecastTimezone   string
	ForecastMaxRetries int

	GeocodeBaseURL string
	// GoogleGeocoderAPIKey switches geocoding to Google when set.
	GoogleGeocoderAPIKey string
	GeocodeCacheTTL      time.Duration // 0 disables the lookup cache

	// Session retention.
	SessionMaxCount      int           // 0 = unlimited
	SessionMaxAge        time.Duration // 0 = unlimited
	SessionPruneInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.ForecastTimezone = getenvDefault("FORECAST_TIMEZONE", "Asia/Seoul")
	if cfg.ForecastMaxRetries, err = getenvInt("FORECAST_MAX_RETRIES", 0); err != nil {
		return nil, err
	}

	cfg.GeocodeBaseURL = getenvDefault("GEOCODE_BASE_URL", "https://geocoding-api.open-meteo.com/v1/search")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}

	if cfg.SessionMaxCount, err = getenvInt("SESSION_MAX_COUNT", 1000); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getenvDuration("SESSION_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.SessionPruneInterval, err = getenvDuration("SESSION_PRUNE_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
