package config

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate returns every problem found, not just the first.
func (c *Config) Validate() []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxMultipartMB <= 0 {
		add("server.max_multipart_mb", "must be positive, got %d", c.Server.MaxMultipartMB)
	}

	if c.Images.MaxCount < 1 {
		add("images.max_count", "must be at least 1, got %d", c.Images.MaxCount)
	}
	if c.Images.MaxBytes <= 0 {
		add("images.max_bytes", "must be positive, got %d", c.Images.MaxBytes)
	}
	if c.Images.MinBytes < 0 || c.Images.MinBytes >= c.Images.MaxBytes {
		add("images.min_bytes", "must be in [0, max_bytes), got %d", c.Images.MinBytes)
	}
	if len(c.Images.Formats) == 0 {
		add("images.formats", "at least one format is required")
	}

	p := c.Perception
	if p.MaxWidth < 16 || p.MaxHeight < 16 {
		add("perception.max_width", "max dimensions must be at least 16x16, got %dx%d", p.MaxWidth, p.MaxHeight)
	}
	if p.CLAHEClipLimit < 1 {
		add("perception.clahe_clip_limit", "must be >= 1, got %v", p.CLAHEClipLimit)
	}
	if p.CLAHETiles < 1 {
		add("perception.clahe_tiles", "must be >= 1, got %d", p.CLAHETiles)
	}
	if p.GradientPercentile <= 0 || p.GradientPercentile >= 100 {
		add("perception.gradient_percentile", "must be in (0, 100), got %v", p.GradientPercentile)
	}
	if p.MinRegionArea < 1 {
		add("perception.min_region_area", "must be >= 1, got %d", p.MinRegionArea)
	}
	if p.MaxRegions < 1 {
		add("perception.max_regions", "must be >= 1, got %d", p.MaxRegions)
	}
	if p.HeatmapAlpha < 0 || p.HeatmapAlpha > 1 {
		add("perception.heatmap_alpha", "must be in [0, 1], got %v", p.HeatmapAlpha)
	}
	if p.Workers < 0 {
		add("perception.workers", "must be >= 0, got %d", p.Workers)
	}

	switch c.Reasoning.Provider {
	case "gemini", "none":
	default:
		add("reasoning.provider", "unknown provider %q (want gemini|none)", c.Reasoning.Provider)
	}
	if c.Reasoning.Timeout <= 0 || c.Reasoning.Timeout > 5*time.Minute {
		add("reasoning.timeout", "must be in (0, 5m], got %s", c.Reasoning.Timeout)
	}
	if c.Reasoning.MaxAttempts < 1 {
		add("reasoning.max_attempts", "must be >= 1, got %d", c.Reasoning.MaxAttempts)
	}
	if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
		add("reasoning.temperature", "must be in [0, 2], got %v", c.Reasoning.Temperature)
	}
	if c.Reasoning.MaxOutputTokens <= 0 {
		add("reasoning.max_output_tokens", "must be positive, got %d", c.Reasoning.MaxOutputTokens)
	}

	if c.Pricing.GSTRate < 0 || c.Pricing.GSTRate >= 1 {
		add("pricing.gst_rate", "must be in [0, 1), got %v", c.Pricing.GSTRate)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			add("database.dsn", "dsn is required for driver %s", c.Database.Driver)
		}
	case "memory":
	default:
		add("database.driver", "unknown driver %q (want sqlite|postgres|memory)", c.Database.Driver)
	}

	if c.Storage.HeatmapDir == "" {
		add("storage.heatmap_dir", "heatmap_dir is required")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "invalid log level %q", c.Logging.Level)
	}

	return errs
}
