package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level configuration for Faultline.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Snuba     SnubaConfig     `koanf:"snuba"`
	Nodestore NodestoreConfig `koanf:"nodestore"`
	Retention RetentionConfig `koanf:"retention"`
	Store     StoreConfig     `koanf:"store"`
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// SnubaConfig holds the analytical store connection settings.
type SnubaConfig struct {
	Addr         string `koanf:"addr"`
	Database     string `koanf:"database"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// NodestoreConfig selects where event payload bodies live.
type NodestoreConfig struct {
	Backend string `koanf:"backend"` // "postgres" or "memory"
}

// RetentionConfig bounds how far back analytical lookups scan.
type RetentionConfig struct {
	Days int `koanf:"days"`
}

// StoreConfig holds ingestion/read-path tunables.
type StoreConfig struct {
	RenormalizeSampleRate float64 `koanf:"renormalize_sample_rate"`
}

// Load loads the configuration from the given file path and environment
// variables. FAULTLINE_DATABASE__DSN=... overrides database.dsn.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"database.dsn":                  "postgres://localhost:5432/faultline?sslmode=disable",
		"database.max_open_conns":       25,
		"database.max_idle_conns":       25,
		"database.auto_migrate":         true,
		"snuba.addr":                    "localhost:9000",
		"snuba.database":                "default",
		"snuba.username":                "default",
		"snuba.password":                "",
		"snuba.max_open_conns":          10,
		"snuba.max_idle_conns":          5,
		"nodestore.backend":             "postgres",
		"retention.days":                90,
		"store.renormalize_sample_rate": 0.0,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// 2. Load from file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Load from environment variables
	// FAULTLINE_DATABASE__DSN=... overrides database.dsn
	if err := k.Load(env.Provider("FAULTLINE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FAULTLINE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would misbehave quietly at runtime.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must be set")
	}
	switch c.Nodestore.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("nodestore.backend must be postgres or memory, got %q", c.Nodestore.Backend)
	}
	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention.days must be positive, got %d", c.Retention.Days)
	}
	if c.Store.RenormalizeSampleRate < 0 || c.Store.RenormalizeSampleRate > 1 {
		return fmt.Errorf("store.renormalize_sample_rate must be within [0, 1], got %g",
			c.Store.RenormalizeSampleRate)
	}
	return nil
}
