package reduce

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Curve parameters for min_dist 0 and spread 1, used when fitting fails.
const (
	fallbackA = 1.8956
	fallbackB = 0.8006
)

var errCurveFit = errors.New("curve fit did not produce usable parameters")

// fitAB fits the low-dimensional similarity curve 1 / (1 + a*d^(2b)) to the
// offset exponential determined by spread and minDist.
func fitAB(spread, minDist float64) (a, b float64, err error) {
	xs := make([]float64, 300)
	floats.Span(xs, 0, spread*3)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		if x < minDist {
			ys[i] = 1
		} else {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b := p[0], p[1]
			if a <= 0 || b <= 0 {
				return math.Inf(1)
			}
			var sse float64
			for i, x := range xs {
				r := 1/(1+a*math.Pow(x, 2*b)) - ys[i]
				sse += r * r
			}
			return sse
		},
	}

	// Minimize reports hitting an iteration limit as an error but still
	// returns the best location found.
	result, err := optimize.Minimize(problem, []float64{1, 1}, nil, &optimize.NelderMead{})
	if result == nil || len(result.X) != 2 {
		if err == nil {
			err = errCurveFit
		}
		return fallbackA, fallbackB, err
	}
	a, b = result.X[0], result.X[1]
	if a <= 0 || b <= 0 || math.IsNaN(a) || math.IsNaN(b) {
		return fallbackA, fallbackB, errCurveFit
	}
	return a, b, nil
}
