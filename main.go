// autoclaim turns photos of a damaged vehicle into an itemized repair
// estimate and an approval decision.
//
// Usage:
//
//	autoclaim serve --config config.yaml
//	autoclaim analyze --vehicle-class sedan front.jpg side.jpg
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"autoclaim/claims"
	"autoclaim/config"
	"autoclaim/database"
	"autoclaim/handlers"
	"autoclaim/logger"
	"autoclaim/perception"
	"autoclaim/pricing"
	"autoclaim/reasoning"
	"autoclaim/validator"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "autoclaim",
		Usage:   "Vehicle damage photos to auditable repair estimates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"AUTOCLAIM_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override logging.level (debug, info, warn, error)",
				EnvVars: []string{"AUTOCLAIM_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override server.port",
			},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.close()

			if p := c.Int("port"); p > 0 {
				app.cfg.Server.Port = p
			}
			return app.serve(c.Context)
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze local photos and print the claim as JSON",
		ArgsUsage: "IMAGE [IMAGE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "vehicle-class", Usage: "hatchback, sedan, suv or luxury"},
			&cli.StringFlag{Name: "workshop-type", Usage: "independent or showroom"},
			&cli.StringFlag{Name: "pricing-mode", Usage: "oem or aftermarket"},
			&cli.StringFlag{Name: "vehicle-make", Usage: "Free-form vehicle make"},
			&cli.BoolFlag{Name: "pretty", Value: true, Usage: "Indent JSON output"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("at least one image path is required")
			}
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.close()

			uploads := make([]validator.Upload, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				uploads = append(uploads, validator.Upload{Name: filepath.Base(path), Data: data})
			}

			claim, err := app.claims.Analyze(c.Context, validator.Input{
				Images:       uploads,
				VehicleClass: c.String("vehicle-class"),
				WorkshopType: c.String("workshop-type"),
				PricingMode:  c.String("pricing-mode"),
				VehicleMake:  c.String("vehicle-make"),
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			if c.Bool("pretty") {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(claim)
		},
	}
}

type application struct {
	cfg    *config.Config
	log    *zap.Logger
	store  database.Store
	claims *claims.Service
}

// setup loads configuration and wires every component.
func setup(c *cli.Context) (*application, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := pricing.LoadCatalog(cfg.Pricing.CatalogPath)
	if err != nil {
		return nil, err
	}
	log.Info("price catalog loaded", zap.Int("parts", len(catalog.Parts())), zap.String("path", cfg.Pricing.CatalogPath))

	store, err := database.NewStore(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return nil, err
	}

	heatmaps, err := claims.NewFileHeatmapStore(cfg.Storage.HeatmapDir, cfg.Storage.HeatmapURLPrefix)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc := claims.New(claims.Config{
		GSTRate:              decimal.NewFromFloat(cfg.Pricing.GSTRate),
		Workers:              cfg.Perception.Workers,
		BlurWarningThreshold: cfg.Perception.BlurWarningThreshold,
	}, claims.Deps{
		Validator: validator.New(validator.Limits{
			MaxCount: cfg.Images.MaxCount,
			MaxBytes: cfg.Images.MaxBytes,
			MinBytes: cfg.Images.MinBytes,
			Formats:  cfg.Images.Formats,
		}),
		Perception: perception.New(perception.Config{
			MaxWidth:           cfg.Perception.MaxWidth,
			MaxHeight:          cfg.Perception.MaxHeight,
			CLAHEClipLimit:     cfg.Perception.CLAHEClipLimit,
			CLAHETiles:         cfg.Perception.CLAHETiles,
			GradientPercentile: cfg.Perception.GradientPercentile,
			MinRegionArea:      cfg.Perception.MinRegionArea,
			MaxRegions:         cfg.Perception.MaxRegions,
			HeatmapAlpha:       cfg.Perception.HeatmapAlpha,
		}),
		Reasoning: reasoning.NewAdapter(newReasoner(cfg.Reasoning, log), cfg.Reasoning.Timeout, log),
		Catalog:   catalog,
		Store:     store,
		Heatmaps:  heatmaps,
		Logger:    log,
	})

	return &application{cfg: cfg, log: log, store: store, claims: svc}, nil
}

func newReasoner(cfg config.ReasoningConfig, log *zap.Logger) reasoning.Reasoner {
	if cfg.Provider != "gemini" {
		log.Warn("vision reasoning disabled; every claim will use the fallback result")
		return reasoning.Disabled{}
	}
	if cfg.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; reasoning calls will fall back")
	}
	return reasoning.NewGemini(reasoning.GeminiOptions{
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MaxAttempts:     cfg.MaxAttempts,
	})
}

func (a *application) serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(
		handlers.New(a.claims, a.store, a.cfg.Reasoning.Provider),
		handlers.RouterOptions{
			CORSOrigins:      a.cfg.Server.CORSOrigins,
			MaxMultipartMB:   a.cfg.Server.MaxMultipartMB,
			HeatmapDir:       a.cfg.Storage.HeatmapDir,
			HeatmapURLPrefix: a.cfg.Storage.HeatmapURLPrefix,
		},
		a.log,
	)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Reasoning.Timeout+10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *application) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", zap.Error(err))
	}
	_ = a.log.Sync()
}
