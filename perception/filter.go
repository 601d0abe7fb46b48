package perception

import "math"

var gaussian5 = [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// gaussianBlur applies a separable 5x5 binomial kernel.
func gaussianBlur(src *plane) *plane {
	tmp := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			s := 0.0
			for k := -2; k <= 2; k++ {
				s += gaussian5[k+2] * src.at(x+k, y)
			}
			tmp.pix[y*src.w+x] = s
		}
	}
	dst := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			s := 0.0
			for k := -2; k <= 2; k++ {
				s += gaussian5[k+2] * tmp.at(x, y+k)
			}
			dst.pix[y*src.w+x] = s
		}
	}
	return dst
}

// sobelMagnitude returns the gradient magnitude of src. Magnitudes below
// floor are treated as zero so flat areas carry no gradient at all.
func sobelMagnitude(src *plane, floor float64) *plane {
	dst := newPlane(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			tl, tc, tr := src.at(x-1, y-1), src.at(x, y-1), src.at(x+1, y-1)
			ml, mr := src.at(x-1, y), src.at(x+1, y)
			bl, bc, br := src.at(x-1, y+1), src.at(x, y+1), src.at(x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			m := math.Hypot(gx, gy)
			if m < floor {
				m = 0
			}
			dst.pix[y*src.w+x] = m
		}
	}
	return dst
}

// normalizeUnit scales p in place to [0, 1] by its maximum. An all-zero plane
// stays all zero.
func normalizeUnit(p *plane) {
	m := p.max()
	if m == 0 {
		return
	}
	for i, v := range p.pix {
		p.pix[i] = v / m
	}
}
