package perception

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"autoclaim/models"
)

const (
	outlinedRegions = 5
	outlineWidth    = 2
)

var outlineColor = color.RGBA{R: 255, G: 255, A: 255}

// renderHeatmap smooths the normalized gradient map, colours it with a jet
// ramp, blends it over base at the given alpha, outlines the largest regions
// and returns the PNG encoding. base is not modified.
func renderHeatmap(base *image.RGBA, grad *plane, regions []models.DamageRegion, alpha float64) ([]byte, error) {
	heat := gaussianBlur(gaussianBlur(grad))
	normalizeUnit(heat)

	out := image.NewRGBA(base.Bounds())
	for y := 0; y < grad.h; y++ {
		for x := 0; x < grad.w; x++ {
			src := base.RGBAAt(x, y)
			hc := jet(heat.pix[y*grad.w+x])
			out.SetRGBA(x, y, color.RGBA{
				R: blend(src.R, hc.R, alpha),
				G: blend(src.G, hc.G, alpha),
				B: blend(src.B, hc.B, alpha),
				A: 255,
			})
		}
	}

	for i, r := range regions {
		if i == outlinedRegions {
			break
		}
		drawRect(out, r.BoundingBox)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jet maps v in [0, 1] onto the blue-cyan-yellow-red ramp.
func jet(v float64) color.RGBA {
	channel := func(c float64) uint8 {
		return uint8(math.Round(255 * math.Max(0, math.Min(1, 1.5-math.Abs(4*v-c)))))
	}
	return color.RGBA{R: channel(3), G: channel(2), B: channel(1), A: 255}
}

func blend(under, over uint8, alpha float64) uint8 {
	return uint8(math.Round((1-alpha)*float64(under) + alpha*float64(over)))
}

func drawRect(img *image.RGBA, box models.BoundingBox) {
	b := img.Bounds()
	r := image.Rect(box.X1, box.Y1, box.X2, box.Y2).Intersect(b)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x-r.Min.X < outlineWidth || r.Max.X-1-x < outlineWidth ||
				y-r.Min.Y < outlineWidth || r.Max.Y-1-y < outlineWidth {
				img.SetRGBA(x, y, outlineColor)
			}
		}
	}
}
