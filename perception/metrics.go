package perception

import (
	"math"

	"autoclaim/models"
)

// computeMetrics measures brightness, contrast and sharpness on the
// luminance plane of the normalized photo.
func computeMetrics(l *plane) models.ImageMetrics {
	n := float64(len(l.pix))
	var sum, sumSq float64
	for _, v := range l.pix {
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	std := math.Sqrt(math.Max(sumSq/n-mean*mean, 0))

	return models.ImageMetrics{
		Brightness:    round(mean/255, 4),
		ContrastScore: round(math.Min(std/128, 1), 4),
		BlurScore:     round(laplacianVariance(l), 2),
		Resolution:    models.Resolution{Width: l.w, Height: l.h},
	}
}

// laplacianVariance is the variance of the 4-neighbour Laplacian response over
// interior pixels. Low values indicate a blurred photo.
func laplacianVariance(l *plane) float64 {
	if l.w < 3 || l.h < 3 {
		return 0
	}
	var sum, sumSq float64
	count := 0
	for y := 1; y < l.h-1; y++ {
		row := y * l.w
		for x := 1; x < l.w-1; x++ {
			i := row + x
			v := l.pix[i-l.w] + l.pix[i+l.w] + l.pix[i-1] + l.pix[i+1] - 4*l.pix[i]
			sum += v
			sumSq += v * v
			count++
		}
	}
	mean := sum / float64(count)
	return math.Max(sumSq/float64(count)-mean*mean, 0)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
