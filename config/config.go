// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App   AppConfig
	Leave LeaveConfig
}

type AppConfig struct {
	Port   int
	Env    string
	DBPath string

	// AllowedOrigins for CORS, comma-separated in the environment.
	AllowedOrigins string
}

type LeaveConfig struct {
	// DefaultAnnualDays is the grant used when a balance is lazily
	// materialized. Zero disables lazy materialization.
	DefaultAnnualDays float64
}

// Load reads configuration from the environment. A missing .env file is
// not an error; explicit environment variables always apply.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	defaultDays, err := strconv.ParseFloat(getEnv("LEAVE_DEFAULT_ANNUAL_DAYS", "15"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_DEFAULT_ANNUAL_DAYS: %w", err)
	}
	if defaultDays < 0 {
		return nil, fmt.Errorf("LEAVE_DEFAULT_ANNUAL_DAYS must not be negative, got %v", defaultDays)
	}

	return &Config{
		App: AppConfig{
			Port:           port,
			Env:            getEnv("APP_ENV", "development"),
			DBPath:         getEnv("DB_PATH", "leave.db"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080"),
		},
		Leave: LeaveConfig{
			DefaultAnnualDays: defaultDays,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
