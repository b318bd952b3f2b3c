package reduce

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Reduce projects the rows of x onto p.NComponents dimensions while
// preserving local cosine neighborhoods. The result is reproducible for a
// given input and seed.
func Reduce(x mat.Matrix, p Params, logger *slog.Logger) (*mat.Dense, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reducer")

	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	if n == 0 {
		return nil, fmt.Errorf("%w: no points to reduce", ErrInvalidParams)
	}
	if n == 1 {
		return mat.NewDense(1, p.NComponents, nil), nil
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed))
	k := p.neighbors(n)
	nEpochs := p.epochs(n)

	nbs := cosineNeighbors(x, k)
	rho, sigma := smoothDistances(nbs, k)
	graph := fuzzyGraph(nbs, rho, sigma)

	coords, ok := spectralInit(graph, p.NComponents)
	if ok {
		r, c := coords.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				coords.Set(i, j, coords.At(i, j)+rng.NormFloat64()*initNoise)
			}
		}
	} else {
		logger.Debug("spectral initialization unavailable, using random layout", "points", n)
		coords = randomInit(n, p.NComponents, rng)
	}
	rescale(coords)

	a, b, err := fitAB(p.Spread, p.MinDist)
	if err != nil {
		logger.Warn("curve fit failed, using default parameters", "err", err)
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = coords.RawRowView(i)
	}

	edges := graphEdges(graph, nEpochs)
	opt := &optimizer{
		a:            a,
		b:            b,
		gamma:        p.RepulsionStrength,
		learningRate: p.LearningRate,
		negativeRate: p.NegativeSampleRate,
		nEpochs:      nEpochs,
		rng:          rng,
	}
	opt.run(points, edges)

	logger.Debug("reduced feature matrix",
		"points", n,
		"neighbors", k,
		"components", p.NComponents,
		"edges", len(edges),
		"epochs", nEpochs,
		"spectral", ok)
	return coords, nil
}
