package config

import "time"

// Default returns a configuration with all default values.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = 8000
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.MaxMultipartMB = 64

	cfg.Images.MaxCount = 6
	cfg.Images.MaxBytes = 10 << 20
	cfg.Images.MinBytes = 1 << 10
	cfg.Images.Formats = []string{"jpeg", "png", "gif", "webp"}

	cfg.Perception.MaxWidth = 1024
	cfg.Perception.MaxHeight = 768
	cfg.Perception.CLAHEClipLimit = 2.0
	cfg.Perception.CLAHETiles = 8
	cfg.Perception.GradientPercentile = 85
	cfg.Perception.MinRegionArea = 200
	cfg.Perception.MaxRegions = 10
	cfg.Perception.HeatmapAlpha = 0.45
	cfg.Perception.BlurWarningThreshold = 20
	cfg.Perception.Workers = 0 // 0 = runtime.NumCPU()

	cfg.Reasoning.Provider = "gemini"
	cfg.Reasoning.Model = "gemini-2.5-flash"
	cfg.Reasoning.Timeout = 30 * time.Second
	cfg.Reasoning.MaxAttempts = 2
	cfg.Reasoning.Temperature = 0.1
	cfg.Reasoning.MaxOutputTokens = 8192

	cfg.Pricing.GSTRate = 0.18

	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "claims.db"

	cfg.Storage.HeatmapDir = "./uploads/heatmaps"
	cfg.Storage.HeatmapURLPrefix = "/static/heatmaps"

	cfg.Logging.Level = "info"
	cfg.Logging.MaxSizeMB = 100
	cfg.Logging.MaxBackups = 10
	cfg.Logging.MaxAgeDays = 30

	return cfg
}
