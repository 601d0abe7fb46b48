// Package claims runs the analysis pipeline for one claim and assembles the
// immutable ClaimAnalysisResponse.
package claims

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autoclaim/database"
	"autoclaim/metrics"
	"autoclaim/models"
	"autoclaim/perception"
	"autoclaim/pricing"
	"autoclaim/reasoning"
	"autoclaim/validator"
)

const (
	darkBrightness   = 0.15
	brightBrightness = 0.92
)

type Config struct {
	GSTRate              decimal.Decimal
	Workers              int // 0 = runtime.NumCPU()
	BlurWarningThreshold float64
}

type Deps struct {
	Validator  *validator.Validator
	Perception *perception.Engine
	Reasoning  *reasoning.Adapter
	Catalog    *pricing.Catalog
	Store      database.Store
	Heatmaps   HeatmapStore
	Logger     *zap.Logger
}

type Service struct {
	cfg  Config
	deps Deps

	now   func() time.Time
	newID func(time.Time) string
}

func New(cfg Config, deps Deps) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{cfg: cfg, deps: deps, now: time.Now, newID: NewClaimID}
}

type imageOutcome struct {
	image    validator.Image
	analysis *perception.Analysis
	err      error
}

// Analyze validates the request, runs every stage and stores the assembled
// claim. Validation and perception failures abort before anything is
// persisted. A cancelled ctx discards all work and returns ctx.Err().
func (s *Service) Analyze(ctx context.Context, in validator.Input) (*models.ClaimAnalysisResponse, error) {
	start := s.now()
	log := s.deps.Logger

	validated, err := s.deps.Validator.Validate(in)
	if err != nil {
		metrics.ClaimsRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}
	req := validated.Request

	stageStart := time.Now()
	outcomes, err := s.perceive(ctx, validated.Images)
	if err != nil {
		return nil, err
	}
	metrics.StageDurationSeconds.WithLabelValues("perception").Observe(time.Since(stageStart).Seconds())

	var warnings []string
	reports := make([]models.ImageReport, len(outcomes))
	primary := -1
	for i, o := range outcomes {
		reports[i] = models.ImageReport{Index: o.image.Index}
		if o.err != nil {
			metrics.ImagesProcessedTotal.WithLabelValues("failed").Inc()
			reports[i].Error = o.err.Error()
			warnings = append(warnings, fmt.Sprintf("image %d (%s): perception failed: %v", o.image.Index, o.image.Name, o.err))
			log.Warn("perception failed", zap.Int("image", o.image.Index), zap.Error(o.err))
			continue
		}
		metrics.ImagesProcessedTotal.WithLabelValues("ok").Inc()

		res := o.analysis.Result
		m := res.ImageMetrics
		reports[i].Orientation = res.Orientation
		reports[i].RegionCount = len(res.DamageRegions)
		reports[i].Metrics = &m
		warnings = append(warnings, s.qualityWarnings(o.image.Index, m)...)

		if primary < 0 || o.analysis.DamageArea > outcomes[primary].analysis.DamageArea {
			primary = i
		}
	}
	if primary < 0 {
		metrics.ClaimsRejectedTotal.WithLabelValues("perception").Inc()
		return nil, fmt.Errorf("%w: all %d images failed perception", perception.ErrNoUsableImages, len(outcomes))
	}
	reports[primary].Primary = true
	chosen := outcomes[primary].analysis

	stageStart = time.Now()
	outcome := s.reason(ctx, chosen)
	metrics.StageDurationSeconds.WithLabelValues("reasoning").Observe(time.Since(stageStart).Seconds())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	warnings = append(warnings, outcome.Warnings...)

	stageStart = time.Now()
	estimate := pricing.Price(outcome.Result.Decisions, req.VehicleClass, req.WorkshopType, req.PricingMode, s.cfg.GSTRate, s.deps.Catalog)
	metrics.StageDurationSeconds.WithLabelValues("pricing").Observe(time.Since(stageStart).Seconds())

	return s.assemble(ctx, assembly{
		start:      start,
		request:    req,
		perception: chosen,
		reasoning:  outcome,
		estimate:   estimate,
		images:     reports,
		warnings:   warnings,
		degraded:   outcome.Degraded || anyFailed(reports),
	})
}

// perceive analyzes images in parallel. Per-image failures are kept in the
// outcome; only cancellation aborts the group.
func (s *Service) perceive(ctx context.Context, images []validator.Image) ([]imageOutcome, error) {
	outcomes := make([]imageOutcome, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i, img := range images {
		i, img := i, img
		outcomes[i].image = img
		g.Go(func() error {
			a, err := s.deps.Perception.Analyze(gctx, img.Decoded)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i].analysis, outcomes[i].err = a, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Service) reason(ctx context.Context, a *perception.Analysis) reasoning.Outcome {
	img, err := perception.EncodeJPEG(a.Enhanced)
	if err != nil {
		return s.deps.Reasoning.Fallback(fmt.Sprintf("vision reasoning skipped: encode image: %v", err))
	}
	return s.deps.Reasoning.Assess(ctx, reasoning.Request{
		Image:      img,
		MIMEType:   "image/jpeg",
		Perception: a.Result,
	})
}

func (s *Service) qualityWarnings(index int, m models.ImageMetrics) []string {
	var out []string
	if m.BlurScore < s.cfg.BlurWarningThreshold {
		out = append(out, fmt.Sprintf("image %d: photo may be blurred (blur score %.1f below %.1f)", index, m.BlurScore, s.cfg.BlurWarningThreshold))
	}
	switch {
	case m.Brightness < darkBrightness:
		out = append(out, fmt.Sprintf("image %d: photo is underexposed (brightness %.2f)", index, m.Brightness))
	case m.Brightness > brightBrightness:
		out = append(out, fmt.Sprintf("image %d: photo is overexposed (brightness %.2f)", index, m.Brightness))
	}
	return out
}

type assembly struct {
	start      time.Time
	request    models.ClaimRequest
	perception *perception.Analysis
	reasoning  reasoning.Outcome
	estimate   models.EstimateResult
	images     []models.ImageReport
	warnings   []string
	degraded   bool
}

// assemble freezes the claim, persists its heatmap and inserts it into the
// store. Nothing is written when ctx is already cancelled.
func (s *Service) assemble(ctx context.Context, a assembly) (*models.ClaimAnalysisResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created := s.now()
	id := s.newID(created)
	log := s.deps.Logger.With(zap.String("claim_id", id))

	warnings := append([]string{}, a.warnings...)
	result := a.perception.Result

	heatmapName := id + "_heatmap.png"
	if s.deps.Heatmaps != nil && len(a.perception.Heatmap) > 0 {
		url, err := s.deps.Heatmaps.Put(ctx, heatmapName, a.perception.Heatmap)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("heatmap not stored", zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("heatmap unavailable: %v", err))
		} else {
			result.HeatmapURL = url
		}
	}

	status := models.StatusCompleted
	if a.degraded {
		status = models.StatusDegraded
	}

	claim := &models.ClaimAnalysisResponse{
		ClaimID:          id,
		Status:           status,
		VehicleMake:      a.request.VehicleMake,
		Perception:       result,
		RepairDecisions:  a.reasoning.Result,
		Estimate:         a.estimate,
		HeatmapURL:       result.HeatmapURL,
		Images:           a.images,
		ProcessingTimeMs: math.Round(float64(s.now().Sub(a.start).Microseconds())/10) / 100,
		Warnings:         warnings,
		CreatedAt:        created.UTC(),
	}

	if err := s.deps.Store.Save(ctx, claim); err != nil {
		if result.HeatmapURL != "" {
			if derr := s.deps.Heatmaps.Delete(context.WithoutCancel(ctx), heatmapName); derr != nil {
				log.Warn("orphaned heatmap not removed", zap.Error(derr))
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("store claim %s: %w", id, err)
	}

	metrics.ClaimsTotal.WithLabelValues(string(claim.Estimate.ApprovalStatus), status).Inc()
	for _, w := range warnings {
		log.Warn("claim warning", zap.String("warning", w))
	}
	log.Info("claim assembled",
		zap.String("status", status),
		zap.String("approval_status", string(claim.Estimate.ApprovalStatus)),
		zap.String("grand_total", claim.Estimate.GrandTotal.StringFixed(2)),
		zap.Int("line_items", len(claim.Estimate.LineItems)),
		zap.String("model_used", claim.RepairDecisions.ModelUsed),
		zap.Float64("processing_time_ms", claim.ProcessingTimeMs),
	)
	return claim, nil
}

func anyFailed(reports []models.ImageReport) bool {
	for _, r := range reports {
		if r.Error != "" {
			return true
		}
	}
	return false
}

