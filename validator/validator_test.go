package validator

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoclaim/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testLimits() Limits {
	return Limits{MaxCount: 3, MaxBytes: 1 << 20, MinBytes: 0, Formats: []string{"png", "jpeg"}}
}

func TestValidateDefaultsAndOrdering(t *testing.T) {
	v := New(testLimits())
	in := Input{Images: []Upload{
		{Name: "a.png", Data: pngBytes(t, 32, 24)},
		{Name: "b.png", Data: pngBytes(t, 16, 16)},
	}}

	out, err := v.Validate(in)
	require.NoError(t, err)
	require.Len(t, out.Images, 2)
	assert.Equal(t, 0, out.Images[0].Index)
	assert.Equal(t, "a.png", out.Images[0].Name)
	assert.Equal(t, 1, out.Images[1].Index)
	assert.Equal(t, "png", out.Images[0].Format)
	assert.Equal(t, 32, out.Images[0].Decoded.Bounds().Dx())

	assert.Equal(t, models.VehicleHatchback, out.Request.VehicleClass)
	assert.Equal(t, models.WorkshopIndependent, out.Request.WorkshopType)
	assert.Equal(t, models.PricingAftermarket, out.Request.PricingMode)
}

func TestValidateParsesOptions(t *testing.T) {
	v := New(testLimits())
	out, err := v.Validate(Input{
		Images:       []Upload{{Data: pngBytes(t, 8, 8)}},
		VehicleClass: " SUV ",
		WorkshopType: "showroom",
		PricingMode:  "OEM",
		VehicleMake:  " maruti ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleSUV, out.Request.VehicleClass)
	assert.Equal(t, models.WorkshopShowroom, out.Request.WorkshopType)
	assert.Equal(t, models.PricingOEM, out.Request.PricingMode)
	assert.Equal(t, "maruti", out.Request.VehicleMake)
	assert.Equal(t, "image-1", out.Images[0].Name)
}

func TestValidateRejects(t *testing.T) {
	good := pngBytes(t, 8, 8)
	tests := []struct {
		name  string
		in    Input
		limit func(*Limits)
		field string
	}{
		{name: "no images", in: Input{}, field: "images"},
		{name: "too many images", in: Input{Images: []Upload{{Data: good}, {Data: good}, {Data: good}, {Data: good}}}, field: "images"},
		{name: "empty file", in: Input{Images: []Upload{{Data: nil}}}, field: "images[0]"},
		{name: "not an image", in: Input{Images: []Upload{{Data: []byte("definitely not a picture")}}}, field: "images[0]"},
		{name: "too large", in: Input{Images: []Upload{{Data: good}}}, limit: func(l *Limits) { l.MaxBytes = 10 }, field: "images[0]"},
		{name: "too small", in: Input{Images: []Upload{{Data: good}}}, limit: func(l *Limits) { l.MinBytes = 1 << 19 }, field: "images[0]"},
		{name: "format not allowed", in: Input{Images: []Upload{{Data: good}}}, limit: func(l *Limits) { l.Formats = []string{"jpeg"} }, field: "images[0]"},
		{name: "second image broken", in: Input{Images: []Upload{{Data: good}, {Data: []byte("xx")}}}, field: "images[1]"},
		{name: "bad vehicle class", in: Input{Images: []Upload{{Data: good}}, VehicleClass: "truck"}, field: "vehicle_class"},
		{name: "bad workshop", in: Input{Images: []Upload{{Data: good}}, WorkshopType: "garage"}, field: "workshop_type"},
		{name: "bad pricing mode", in: Input{Images: []Upload{{Data: good}}, PricingMode: "used"}, field: "pricing_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := testLimits()
			if tt.limit != nil {
				tt.limit(&limits)
			}
			_, err := New(limits).Validate(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
