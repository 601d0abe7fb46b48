// Package config loads service configuration from a YAML file, AUTOCLAIM_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "AUTOCLAIM"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Images     ImagesConfig     `mapstructure:"images"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Reasoning  ReasoningConfig  `mapstructure:"reasoning"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	MaxMultipartMB int64    `mapstructure:"max_multipart_mb"`
}

type ImagesConfig struct {
	MaxCount int      `mapstructure:"max_count"`
	MaxBytes int64    `mapstructure:"max_bytes"`
	MinBytes int64    `mapstructure:"min_bytes"`
	Formats  []string `mapstructure:"formats"`
}

type PerceptionConfig struct {
	MaxWidth             int     `mapstructure:"max_width"`
	MaxHeight            int     `mapstructure:"max_height"`
	CLAHEClipLimit       float64 `mapstructure:"clahe_clip_limit"`
	CLAHETiles           int     `mapstructure:"clahe_tiles"`
	GradientPercentile   float64 `mapstructure:"gradient_percentile"`
	MinRegionArea        int     `mapstructure:"min_region_area"`
	MaxRegions           int     `mapstructure:"max_regions"`
	HeatmapAlpha         float64 `mapstructure:"heatmap_alpha"`
	BlurWarningThreshold float64 `mapstructure:"blur_warning_threshold"`
	Workers              int     `mapstructure:"workers"`
}

type ReasoningConfig struct {
	Provider        string        `mapstructure:"provider"` // gemini | none
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
}

type PricingConfig struct {
	CatalogPath string  `mapstructure:"catalog_path"` // empty = embedded default catalog
	GSTRate     float64 `mapstructure:"gst_rate"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres | memory
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	HeatmapDir       string `mapstructure:"heatmap_dir"`
	HeatmapURLPrefix string `mapstructure:"heatmap_url_prefix"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from path (optional), the environment and defaults,
// then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyEnvOverrides(cfg)

	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_multipart_mb", d.Server.MaxMultipartMB)

	v.SetDefault("images.max_count", d.Images.MaxCount)
	v.SetDefault("images.max_bytes", d.Images.MaxBytes)
	v.SetDefault("images.min_bytes", d.Images.MinBytes)
	v.SetDefault("images.formats", d.Images.Formats)

	v.SetDefault("perception.max_width", d.Perception.MaxWidth)
	v.SetDefault("perception.max_height", d.Perception.MaxHeight)
	v.SetDefault("perception.clahe_clip_limit", d.Perception.CLAHEClipLimit)
	v.SetDefault("perception.clahe_tiles", d.Perception.CLAHETiles)
	v.SetDefault("perception.gradient_percentile", d.Perception.GradientPercentile)
	v.SetDefault("perception.min_region_area", d.Perception.MinRegionArea)
	v.SetDefault("perception.max_regions", d.Perception.MaxRegions)
	v.SetDefault("perception.heatmap_alpha", d.Perception.HeatmapAlpha)
	v.SetDefault("perception.blur_warning_threshold", d.Perception.BlurWarningThreshold)
	v.SetDefault("perception.workers", d.Perception.Workers)

	v.SetDefault("reasoning.provider", d.Reasoning.Provider)
	v.SetDefault("reasoning.api_key", d.Reasoning.APIKey)
	v.SetDefault("reasoning.model", d.Reasoning.Model)
	v.SetDefault("reasoning.timeout", d.Reasoning.Timeout)
	v.SetDefault("reasoning.max_attempts", d.Reasoning.MaxAttempts)
	v.SetDefault("reasoning.temperature", d.Reasoning.Temperature)
	v.SetDefault("reasoning.max_output_tokens", d.Reasoning.MaxOutputTokens)

	v.SetDefault("pricing.catalog_path", d.Pricing.CatalogPath)
	v.SetDefault("pricing.gst_rate", d.Pricing.GSTRate)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("storage.heatmap_dir", d.Storage.HeatmapDir)
	v.SetDefault("storage.heatmap_url_prefix", d.Storage.HeatmapURLPrefix)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
}

// applyEnvOverrides honours the conventional GEMINI_API_KEY variable when no
// prefixed key was given.
func applyEnvOverrides(cfg *Config) {
	if cfg.Reasoning.APIKey == "" {
		cfg.Reasoning.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
}
