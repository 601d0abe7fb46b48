package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Images.MaxCount)
	assert.Equal(t, int64(10<<20), cfg.Images.MaxBytes)
	assert.Equal(t, 85.0, cfg.Perception.GradientPercentile)
	assert.Equal(t, 30*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.Reasoning.Model)
	assert.Equal(t, 0.18, cfg.Pricing.GSTRate)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Empty(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		modifyFn func(*Config)
		field    string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no images allowed", func(c *Config) { c.Images.MaxCount = 0 }, "images.max_count"},
		{"percentile out of range", func(c *Config) { c.Perception.GradientPercentile = 100 }, "perception.gradient_percentile"},
		{"unknown provider", func(c *Config) { c.Reasoning.Provider = "oracle" }, "reasoning.provider"},
		{"zero timeout", func(c *Config) { c.Reasoning.Timeout = 0 }, "reasoning.timeout"},
		{"zero output tokens", func(c *Config) { c.Reasoning.MaxOutputTokens = 0 }, "reasoning.max_output_tokens"},
		{"temperature too high", func(c *Config) { c.Reasoning.Temperature = 2.5 }, "reasoning.temperature"},
		{"negative gst", func(c *Config) { c.Pricing.GSTRate = -0.1 }, "pricing.gst_rate"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"sqlite without dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modifyFn(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			var verr *ValidationError
			require.ErrorAs(t, errs[0], &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoclaim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
reasoning:
  provider: none
  timeout: 5s
pricing:
  gst_rate: 0.12
database:
  driver: memory
`), 0o644))

	t.Setenv("AUTOCLAIM_IMAGES_MAX_COUNT", "3")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Reasoning.Provider)
	assert.Equal(t, 5*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, 0.12, cfg.Pricing.GSTRate)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Images.MaxCount)
	assert.Equal(t, "from-env", cfg.Reasoning.APIKey)
	// untouched keys keep their defaults
	assert.Equal(t, 200, cfg.Perception.MinRegionArea)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("AUTOCLAIM_SERVER_PORT", "70000")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}
