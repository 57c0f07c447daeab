package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	SessionSecret string
	CleanupCron   string // cron expression for the session/token janitor
	Seed          bool   // load demo fixtures at startup
	AppEnv        string // "development" or "production"
}

// Load loads configuration from the environment, reading an optional
// .env file first, and sets defaults.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseBool(getEnv("SEED", "false"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./plume.db"),
		SessionSecret: getEnv("SESSION_SECRET", "insecure-dev-secret"),
		CleanupCron:   getEnv("CLEANUP_CRON", "*/15 * * * *"),
		Seed:          seed,
		AppEnv:        getEnv("APP_ENV", "development"),
	}, nil
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies, info-level logs).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
