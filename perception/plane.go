package perception

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// plane is a single-channel float image in row-major order. Reads outside the
// bounds replicate the nearest edge pixel.
type plane struct {
	w, h int
	pix  []float64
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]float64, w*h)}
}

func (p *plane) at(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= p.w {
		x = p.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.h {
		y = p.h - 1
	}
	return p.pix[y*p.w+x]
}

func (p *plane) max() float64 {
	m := 0.0
	for _, v := range p.pix {
		if v > m {
			m = v
		}
	}
	return m
}

// normalizeImage downscales src to fit within maxW x maxH, preserving aspect
// ratio, and always returns a fresh RGBA copy anchored at (0,0).
func normalizeImage(src image.Image, maxW, maxH int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxW || h > maxH {
		scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		nw := max(1, int(float64(w)*scale))
		nh := max(1, int(float64(h)*scale))
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// luma converts img to Rec. 601 luminance in [0, 255].
func luma(img *image.RGBA) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			p.pix[y*p.w+x] = float64(color.GrayModel.Convert(c).(color.Gray).Y)
		}
	}
	return p
}
