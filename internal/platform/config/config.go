package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Store backends selectable via ATM_STORE.
const (
	StoreMemory = "memory"
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Config captures process-level settings, parsed once in main so the rest of
// the code never touches the environment.
type Config struct {
	// Store picks the durable backend; memory keeps everything ephemeral.
	Store     string `env:"ATM_STORE" envDefault:"memory"`
	DataFile  string `env:"ATM_DATA_FILE" envDefault:"customers.json"`
	SQLiteDSN string `env:"ATM_SQLITE_DSN" envDefault:"caspomat.db"`

	// StrictLoad makes corrupt durable state a fatal startup error. Turning
	// it off falls back to the built-in defaults with a warning.
	StrictLoad bool `env:"ATM_STRICT_LOAD" envDefault:"true"`

	// TelemetryAddr enables the operator HTTP surface when non-empty.
	TelemetryAddr string `env:"ATM_TELEMETRY_ADDR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	switch cfg.Store {
	case StoreMemory, StoreJSON, StoreSQLite:
	default:
		return Config{}, fmt.Errorf("unknown ATM_STORE %q", cfg.Store)
	}
	return cfg, nil
}
