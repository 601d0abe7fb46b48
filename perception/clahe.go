package perception

import (
	"image"
	"math"
)

const histBins = 256

// clahe applies contrast-limited adaptive histogram equalization to a
// luminance plane in [0, 255]. The image is split into tiles x tiles regions,
// each region's histogram is clipped at clipLimit times the uniform bin height
// with the excess spread evenly, and per-pixel output is bilinearly
// interpolated between the four nearest tile mappings. Output is quantized to
// whole grey levels.
func clahe(src *plane, clipLimit float64, tiles int) *plane {
	tx := min(tiles, src.w)
	ty := min(tiles, src.h)
	tileW := float64(src.w) / float64(tx)
	tileH := float64(src.h) / float64(ty)

	luts := make([][histBins]float64, tx*ty)
	for j := 0; j < ty; j++ {
		y0, y1 := int(float64(j)*tileH), int(float64(j+1)*tileH)
		for i := 0; i < tx; i++ {
			x0, x1 := int(float64(i)*tileW), int(float64(i+1)*tileW)
			luts[j*tx+i] = tileMapping(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		gy := (float64(y)+0.5)/tileH - 0.5
		j0 := int(math.Floor(gy))
		ay := gy - float64(j0)
		j1 := clampInt(j0+1, 0, ty-1)
		j0 = clampInt(j0, 0, ty-1)

		for x := 0; x < src.w; x++ {
			gx := (float64(x)+0.5)/tileW - 0.5
			i0 := int(math.Floor(gx))
			ax := gx - float64(i0)
			i1 := clampInt(i0+1, 0, tx-1)
			i0 = clampInt(i0, 0, tx-1)

			v := bin(src.pix[y*src.w+x])
			top := (1-ax)*luts[j0*tx+i0][v] + ax*luts[j0*tx+i1][v]
			bot := (1-ax)*luts[j1*tx+i0][v] + ax*luts[j1*tx+i1][v]
			dst.pix[y*src.w+x] = math.Round((1-ay)*top + ay*bot)
		}
	}
	return dst
}

func tileMapping(src *plane, x0, y0, x1, y1 int, clipLimit float64) [histBins]float64 {
	var hist [histBins]float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[bin(src.pix[y*src.w+x])]++
		}
	}
	n := float64((x1 - x0) * (y1 - y0))

	limit := math.Max(clipLimit*n/histBins, 1)
	excess := 0.0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	spread := excess / histBins
	for i := range hist {
		hist[i] += spread
	}

	var lut [histBins]float64
	cdf := 0.0
	for i, c := range hist {
		cdf += c
		lut[i] = math.Min(cdf*255/n, 255)
	}
	return lut
}

func bin(v float64) int {
	return clampInt(int(math.Round(v)), 0, histBins-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// withLuma returns a copy of img whose luminance follows eq instead of
// gray. The per-pixel luma shift is added to every channel, which keeps the
// chroma of the original colours.
func withLuma(img *image.RGBA, gray, eq *plane) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < gray.h; y++ {
		for x := 0; x < gray.w; x++ {
			d := eq.pix[y*gray.w+x] - gray.pix[y*gray.w+x]
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			c.R, c.G, c.B = shift(c.R, d), shift(c.G, d), shift(c.B, d)
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

func shift(v uint8, d float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)+d))))
}
