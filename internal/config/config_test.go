package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "localhost:9000", cfg.Snuba.Addr)
	assert.Equal(t, "postgres", cfg.Nodestore.Backend)
	assert.Equal(t, 90, cfg.Retention.Days)
	assert.Equal(t, 0.0, cfg.Store.RenormalizeSampleRate)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faultline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: postgres://db:5432/prod
retention:
  days: 30
store:
  renormalize_sample_rate: 0.25
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://db:5432/prod", cfg.Database.DSN)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, 0.25, cfg.Store.RenormalizeSampleRate)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:9000", cfg.Snuba.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FAULTLINE_SNUBA__ADDR", "clickhouse:9440")
	t.Setenv("FAULTLINE_NODESTORE__BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "clickhouse:9440", cfg.Snuba.Addr)
	assert.Equal(t, "memory", cfg.Nodestore.Backend)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown nodestore backend", func(c *Config) { c.Nodestore.Backend = "redis" }},
		{"zero retention", func(c *Config) { c.Retention.Days = 0 }},
		{"sample rate above one", func(c *Config) { c.Store.RenormalizeSampleRate = 1.5 }},
		{"negative sample rate", func(c *Config) { c.Store.RenormalizeSampleRate = -0.1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
