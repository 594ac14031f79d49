// Package config loads engine configuration from an optional YAML file
// with environment overrides (FIELDWISE_ prefix). Defaults are always
// valid; a missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to wire the engine.
type Config struct {
	// SessionTTL is the inactivity window before a session expires.
	SessionTTL time.Duration

	// RetryMaxAttempts is the total number of save attempts.
	RetryMaxAttempts int

	// RetryBaseDelay is the first backoff wait; it doubles per attempt.
	RetryBaseDelay time.Duration

	// StoreDriver selects the record store adapter: "sqlite",
	// "postgres", or "memory".
	StoreDriver string

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string

	// CatalogPath is an optional CUE catalog file; empty means the
	// built-in catalog.
	CatalogPath string
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		SessionTTL:       15 * time.Minute,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   250 * time.Millisecond,
		StoreDriver:      "sqlite",
		SQLitePath:       "fieldwise.db",
	}
}

// Load reads config.yaml from configPath (when non-empty) and applies
// environment overrides like FIELDWISE_STORE_DRIVER. Unset keys keep
// their defaults.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("FIELDWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"session.ttl",
		"retry.max_attempts",
		"retry.base_delay",
		"store.driver",
		"store.sqlite.path",
		"store.postgres.dsn",
		"catalog.path",
	} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
			// Missing file: defaults + env only.
		}
	}

	if v.IsSet("session.ttl") {
		cfg.SessionTTL = v.GetDuration("session.ttl")
	}
	if v.IsSet("retry.max_attempts") {
		cfg.RetryMaxAttempts = v.GetInt("retry.max_attempts")
	}
	if v.IsSet("retry.base_delay") {
		cfg.RetryBaseDelay = v.GetDuration("retry.base_delay")
	}
	if v.IsSet("store.driver") {
		cfg.StoreDriver = v.GetString("store.driver")
	}
	if v.IsSet("store.sqlite.path") {
		cfg.SQLitePath = v.GetString("store.sqlite.path")
	}
	if v.IsSet("store.postgres.dsn") {
		cfg.PostgresDSN = v.GetString("store.postgres.dsn")
	}
	if v.IsSet("catalog.path") {
		cfg.CatalogPath = v.GetString("catalog.path")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("invalid store.driver %q: must be sqlite, postgres, or memory", c.StoreDriver)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}
