package formod

import (
	"math"

	"github.com/spatialmodel/raytran/ctl"
)

// fovOffsets returns the n synthetic view-altitude offsets [km] and
// normalized convolution weights for shape, spanning [-width/2, width/2].
// n==1 or shape==FOVNone collapses to the pencil beam.
func fovOffsets(shape ctl.FOVShape, n int, width float64) (offsets, weights []float64) {
	if shape == ctl.FOVNone || n <= 1 || width <= 0 {
		return []float64{0}, []float64{1}
	}

	offsets = make([]float64, n)
	weights = make([]float64, n)
	half := width / 2
	step := width / float64(n-1)
	for i := 0; i < n; i++ {
		offsets[i] = -half + step*float64(i)
	}

	switch shape {
	case ctl.FOVTriangular:
		for i, o := range offsets {
			w := 1 - abs(o)/half
			if w < 0 {
				w = 0
			}
			weights[i] = w
		}
	case ctl.FOVGaussian:
		sigma := half / 2
		if sigma <= 0 {
			sigma = 1
		}
		for i, o := range offsets {
			weights[i] = gaussian(o, sigma)
		}
	default: // ctl.FOVBoxcar and any other configured shape: uniform weights
		for i := range weights {
			weights[i] = 1
		}
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		for i := range weights {
			weights[i] = 1 / float64(n)
		}
	} else {
		for i := range weights {
			weights[i] /= sum
		}
	}
	return offsets, weights
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func gaussian(x, sigma float64) float64 {
	z := x / sigma
	return math.Exp(-0.5 * z * z)
}
