// Package validator checks an analysis request before any pipeline stage runs:
// image count, byte size, raster format and the pricing options.
package validator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"autoclaim/models"
)

// maxPixels guards against decompression bombs.
const maxPixels = 50_000_000

var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type Limits struct {
	MaxCount int
	MaxBytes int64
	MinBytes int64
	Formats  []string // image.Decode format names: jpeg, png, gif, webp
}

// Upload is one raw image as received from the caller.
type Upload struct {
	Name string
	Data []byte
}

type Input struct {
	Images       []Upload
	VehicleClass string
	WorkshopType string
	PricingMode  string
	VehicleMake  string
}

// Image is a decoded upload. Index is its position in the request and is the
// stable ordering key for every later stage.
type Image struct {
	Index   int
	Name    string
	Format  string
	Data    []byte
	Decoded image.Image
}

type Validated struct {
	Images  []Image
	Request models.ClaimRequest
}

type Validator struct {
	limits  Limits
	formats map[string]bool
}

func New(limits Limits) *Validator {
	formats := make(map[string]bool, len(limits.Formats))
	for _, f := range limits.Formats {
		formats[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &Validator{limits: limits, formats: formats}
}

// Validate is pure: it decodes every image and returns them in request order,
// or the first ValidationError found.
func (v *Validator) Validate(in Input) (*Validated, error) {
	req, err := parseRequest(in)
	if err != nil {
		return nil, err
	}

	if len(in.Images) == 0 {
		return nil, invalid("images", "at least one image is required")
	}
	if len(in.Images) > v.limits.MaxCount {
		return nil, invalid("images", "maximum %d images per claim, got %d", v.limits.MaxCount, len(in.Images))
	}

	out := make([]Image, 0, len(in.Images))
	for i, up := range in.Images {
		img, err := v.decode(i, up)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}

	return &Validated{Images: out, Request: req}, nil
}

func (v *Validator) decode(i int, up Upload) (Image, error) {
	name := up.Name
	if name == "" {
		name = fmt.Sprintf("image-%d", i+1)
	}
	field := fmt.Sprintf("images[%d]", i)

	size := int64(len(up.Data))
	if size == 0 || size < v.limits.MinBytes {
		return Image{}, invalid(field, "file %q appears to be empty or corrupt (%d bytes)", name, size)
	}
	if size > v.limits.MaxBytes {
		return Image{}, invalid(field, "file %q is %d bytes, limit is %d", name, size, v.limits.MaxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return Image{}, invalid(field, "file %q is not a supported image: %v", name, err)
	}
	if !v.formats[format] {
		return Image{}, invalid(field, "file %q has unsupported format %s", name, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return Image{}, invalid(field, "file %q has unsupported dimensions %dx%d", name, cfg.Width, cfg.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return Image{}, invalid(field, "file %q could not be decoded: %v", name, err)
	}

	return Image{Index: i, Name: name, Format: format, Data: up.Data, Decoded: decoded}, nil
}

func parseRequest(in Input) (models.ClaimRequest, error) {
	req := models.ClaimRequest{
		VehicleClass: models.VehicleHatchback,
		WorkshopType: models.WorkshopIndependent,
		PricingMode:  models.PricingAftermarket,
		VehicleMake:  strings.TrimSpace(in.VehicleMake),
	}
	var err error
	if strings.TrimSpace(in.VehicleClass) != "" {
		if req.VehicleClass, err = models.ParseVehicleClass(in.VehicleClass); err != nil {
			return req, invalid("vehicle_class", "%v", err)
		}
	}
	if strings.TrimSpace(in.WorkshopType) != "" {
		if req.WorkshopType, err = models.ParseWorkshopType(in.WorkshopType); err != nil {
			return req, invalid("workshop_type", "%v", err)
		}
	}
	if strings.TrimSpace(in.PricingMode) != "" {
		if req.PricingMode, err = models.ParsePricingMode(in.PricingMode); err != nil {
			return req, invalid("pricing_mode", "%v", err)
		}
	}
	return req, nil
}
