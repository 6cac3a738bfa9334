package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the tracker configuration loaded from YAML and env.
// APIKey and Location may legitimately be empty: that is a reportable
// startup condition that disables the gateway's network path, not a load
// failure.
type Config struct {
	APIKey   string
	Location string
	Units    string `validate:"oneof=metric imperial"`

	ForecastDays int    `validate:"min=1,max=14"`
	NightStart   string `validate:"datetime=15:04"`
	NightEnd     string `validate:"datetime=15:04"`

	HourlyQuota    int `validate:"min=1"`
	MinCallSpacing time.Duration

	CurrentTTL  time.Duration
	ForecastTTL time.Duration

	MaxRetries   int `validate:"min=1"`
	RetryBackoff time.Duration
	FetchTimeout time.Duration

	ServerPort string

	DegradedWindow   time.Duration
	DegradedErrorPct int `validate:"min=1,max=100"`
}

type fileConfig struct {
	Location string `yaml:"location"`
	Units    string `yaml:"units"`

	Forecast struct {
		Days int `yaml:"days"`
	} `yaml:"forecast"`

	Night struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"night"`

	Quota struct {
		HourlyLimit int    `yaml:"hourly_limit"`
		MinSpacing  string `yaml:"min_spacing"`
	} `yaml:"quota"`

	Cache struct {
		CurrentTTL  string `yaml:"current_ttl"`
		ForecastTTL string `yaml:"forecast_ttl"`
	} `yaml:"cache"`

	Fetch struct {
		MaxRetries int    `yaml:"max_retries"`
		Backoff    string `yaml:"backoff"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"fetch"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

// Load reads configuration from CONFIG_FILE (default config.yaml, optional)
// overlaid with environment variables. A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration is fine
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := &Config{}

	cfg.APIKey = os.Getenv("TOMORROW_API_KEY")

	cfg.Location = getenvDefault("TEMPERATURE_LOCATION", fc.Location)
	cfg.Units = normalizeUnits(getenvDefault("TEMPERATURE_UNITS", fc.Units))

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", fc.Forecast.Days)
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 3
	}

	cfg.NightStart = getenvDefault("NIGHT_START", fc.Night.Start)
	if cfg.NightStart == "" {
		cfg.NightStart = "22:00"
	}
	cfg.NightEnd = getenvDefault("NIGHT_END", fc.Night.End)
	if cfg.NightEnd == "" {
		cfg.NightEnd = "06:00"
	}

	cfg.HourlyQuota = fc.Quota.HourlyLimit
	if cfg.HourlyQuota <= 0 {
		cfg.HourlyQuota = 25
	}
	cfg.MinCallSpacing = parseDuration(fc.Quota.MinSpacing, time.Second)

	cfg.CurrentTTL = parseDuration(fc.Cache.CurrentTTL, 5*time.Minute)
	cfg.ForecastTTL = parseDuration(fc.Cache.ForecastTTL, time.Hour)

	cfg.MaxRetries = fc.Fetch.MaxRetries
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	cfg.RetryBackoff = parseDuration(fc.Fetch.Backoff, 2*time.Second)
	cfg.FetchTimeout = parseDuration(fc.Fetch.Timeout, 10*time.Second)

	cfg.ServerPort = getenvDefault("PORT", fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 30*time.Minute)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// normalizeUnits maps anything that is not a recognized unit system to
// metric, silently.
func normalizeUnits(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s != "metric" && s != "imperial" {
		return "metric"
	}
	return s
}

// parseDuration parses a duration string, returning defaultVal on empty
// string, parse error, or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func getenvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
