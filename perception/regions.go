package perception

import (
	"math"
	"slices"
	"sort"

	"autoclaim/models"
)

// percentileCutoff returns the nearest-rank p-th percentile of the plane values.
func percentileCutoff(p *plane, percentile float64) float64 {
	vals := slices.Clone(p.pix)
	slices.Sort(vals)
	rank := int(math.Ceil(percentile/100*float64(len(vals)))) - 1
	return vals[clampInt(rank, 0, len(vals)-1)]
}

type component struct {
	area                   int
	sumX, sumY, sumGrad    float64
	minX, minY, maxX, maxY int
}

// extractRegions thresholds the normalized gradient map strictly above the
// percentile cutoff, labels 8-connected components and turns every component
// of at least minArea pixels into a DamageRegion. Regions are ordered by
// descending area (ties by top-left corner), capped at maxRegions and numbered
// from 1 in that order.
func extractRegions(grad *plane, percentile float64, minArea, maxRegions int) []models.DamageRegion {
	cutoff := percentileCutoff(grad, percentile)
	w, h := grad.w, grad.h

	mask := make([]bool, w*h)
	for i, v := range grad.pix {
		mask[i] = v > cutoff
	}

	visited := make([]bool, w*h)
	var comps []component
	stack := make([]int, 0, 1024)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		c := component{minX: w, minY: h, maxX: -1, maxY: -1}
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			c.area++
			c.sumX += float64(x)
			c.sumY += float64(y)
			c.sumGrad += grad.pix[i]
			c.minX, c.maxX = min(c.minX, x), max(c.maxX, x)
			c.minY, c.maxY = min(c.minY, y), max(c.maxY, y)

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
						continue
					}
					j := ny*w + nx
					if mask[j] && !visited[j] {
						visited[j] = true
						stack = append(stack, j)
					}
				}
			}
		}

		if c.area >= minArea {
			comps = append(comps, c)
		}
	}

	sort.SliceStable(comps, func(a, b int) bool {
		if comps[a].area != comps[b].area {
			return comps[a].area > comps[b].area
		}
		if comps[a].minY != comps[b].minY {
			return comps[a].minY < comps[b].minY
		}
		return comps[a].minX < comps[b].minX
	})
	if len(comps) > maxRegions {
		comps = comps[:maxRegions]
	}

	regions := make([]models.DamageRegion, 0, len(comps))
	for i, c := range comps {
		n := float64(c.area)
		regions = append(regions, models.DamageRegion{
			RegionID: i + 1,
			AreaPx:   c.area,
			Centroid: models.Point{X: round(c.sumX/n, 1), Y: round(c.sumY/n, 1)},
			BoundingBox: models.BoundingBox{
				X1: c.minX, Y1: c.minY,
				X2: c.maxX + 1, Y2: c.maxY + 1,
			},
			GradientIntensity: round(math.Min(c.sumGrad/n, 1), 4),
		})
	}
	return regions
}
