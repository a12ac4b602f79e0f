package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	DataDir string

	// Blob store (driver switch via ENV, default: sqlite)
	StoreDriver  string // "sqlite", "badger" or "memory"
	DBDriver     string // for StoreDriver=sqlite: "sqlite" or "pgx"
	DBConnection string
	BadgerPath   string

	// Write coalescing
	SaveDebounce   time.Duration
	NotifyDebounce time.Duration

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	dataDir := envString("DATA_DIR", "./data")

	cfg := &Config{
		AppName: envString("APP_NAME", "tend"),
		AppEnv:  envString("APP_ENV", "development"),
		DataDir: dataDir,

		StoreDriver:  envString("STORE_DRIVER", "sqlite"),
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", filepath.Join(dataDir, "tend.db")+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		BadgerPath:   envString("BADGER_PATH", filepath.Join(dataDir, "badger")),

		SaveDebounce:   envDuration("SAVE_DEBOUNCE", 500*time.Millisecond),
		NotifyDebounce: envDuration("NOTIFY_DEBOUNCE", 100*time.Millisecond),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
