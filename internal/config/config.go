package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the complete application configuration. Endpoint URLs and keys
// are passed into the core explicitly at construction time; nothing inside
// the pipeline reads ambient process state.
type Config struct {
	Server     ServerConfig
	Datasets   DatasetsConfig
	Directions DirectionsConfig
	Store      StoreConfig
	Notify     NotifyConfig
	Sweep      SweepConfig
	LogLevel   string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
}

// DatasetsConfig holds the two road-work dataset endpoints. Both are
// required: without them neither the map query nor the sweep can run.
type DatasetsConfig struct {
	ObstructionsURL string        `validate:"required,url"`
	ImpactsURL      string        `validate:"required,url"`
	RefreshInterval time.Duration `validate:"min=1m"`
}

// DirectionsConfig holds the directions/geocoding provider settings. The
// API key is required only for the route and autocomplete features; the
// sweep works without it.
type DirectionsConfig struct {
	APIKey string
}

// StoreConfig holds the saved-address database location
type StoreConfig struct {
	Path string `validate:"required"`
}

// NotifyConfig holds notification webhook settings
type NotifyConfig struct {
	WebhookURL string
	Secret     string
	Timeout    time.Duration
}

// SweepConfig holds geofence sweep settings
type SweepConfig struct {
	Interval     time.Duration `validate:"min=1m"`
	RadiusMeters float64       `validate:"gt=0"`
}

// Load reads configuration from environment variables and an optional .env
// file, applying defaults and validating the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
		Datasets: DatasetsConfig{
			ObstructionsURL: os.Getenv("ENTRAVES_URL"),
			ImpactsURL:      os.Getenv("IMPACTS_URL"),
			RefreshInterval: getEnvAsDuration("DATA_REFRESH_INTERVAL", 15*time.Minute),
		},
		Directions: DirectionsConfig{
			APIKey: os.Getenv("ORS_API_KEY"),
		},
		Store: StoreConfig{
			Path: getEnv("DB_PATH", "addresses.db"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Secret:     os.Getenv("NOTIFY_WEBHOOK_SECRET"),
			Timeout:    getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Sweep: SweepConfig{
			Interval:     getEnvAsDuration("SWEEP_INTERVAL", 24*time.Hour),
			RadiusMeters: getEnvAsFloat("SWEEP_RADIUS_M", 100),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getEnv returns the environment value or a default
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment value as an int or a default
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsFloat returns the environment value as a float or a default
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the environment value as a duration or a default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
