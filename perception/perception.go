// Package perception measures photo quality and extracts high-gradient damage
// regions, a clock-dial orientation and a heatmap overlay from a single image.
package perception

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"autoclaim/models"
)

// ErrNoUsableImages is returned when every image of a claim failed perception.
var ErrNoUsableImages = errors.New("no usable images")

// sobelFloor suppresses quantization noise left by equalization.
const sobelFloor = 8.0

type Config struct {
	MaxWidth           int
	MaxHeight          int
	CLAHEClipLimit     float64
	CLAHETiles         int
	GradientPercentile float64
	MinRegionArea      int
	MaxRegions         int
	HeatmapAlpha       float64
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{
		MaxWidth:           1024,
		MaxHeight:          768,
		CLAHEClipLimit:     2.0,
		CLAHETiles:         8,
		GradientPercentile: 85,
		MinRegionArea:      200,
		MaxRegions:         10,
		HeatmapAlpha:       0.45,
	}
}

// Analysis is the outcome for one image. Heatmap holds PNG bytes; persisting
// them is left to the caller. Enhanced is the normalized photo after
// contrast equalization and is what gets sent for reasoning.
type Analysis struct {
	Result     models.PerceptionResult
	Heatmap    []byte
	Normalized *image.RGBA
	Enhanced   *image.RGBA
	DamageArea int
}

// Engine is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Analyze runs the full perception pass on img. It checks ctx between stages
// and converts panics from malformed images into errors.
func (e *Engine) Analyze(ctx context.Context, img image.Image) (a *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("perception panic: %v", r)
		}
	}()

	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	norm := normalizeImage(img, e.cfg.MaxWidth, e.cfg.MaxHeight)
	gray := luma(norm)
	metrics := computeMetrics(gray)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eq := clahe(gaussianBlur(gray), e.cfg.CLAHEClipLimit, e.cfg.CLAHETiles)
	grad := sobelMagnitude(eq, sobelFloor)
	normalizeUnit(grad)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions := extractRegions(grad, e.cfg.GradientPercentile, e.cfg.MinRegionArea, e.cfg.MaxRegions)
	poi, code := clockDial(regions, gray.w, gray.h)

	heatmap, err := renderHeatmap(norm, grad, regions, e.cfg.HeatmapAlpha)
	if err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}

	area := 0
	for _, r := range regions {
		area += r.AreaPx
	}

	return &Analysis{
		Result: models.PerceptionResult{
			POI:           poi,
			Orientation:   code,
			DamageRegions: regions,
			ImageMetrics:  metrics,
		},
		Heatmap:    heatmap,
		Normalized: norm,
		Enhanced:   withLuma(norm, gray, eq),
		DamageArea: area,
	}, nil
}

// EncodeJPEG encodes img for transmission to the reasoning service.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
