package reduce

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	gradientClip = 4.0
	initScale    = 10.0
	initNoise    = 1e-4
)

// edge is one directed graph entry sampled during optimization.
type edge struct {
	head, tail int
	weight     float64
}

// graphEdges lists both directions of every positive graph entry in row
// order, dropping entries too weak to be sampled within nEpochs.
func graphEdges(graph *mat.SymDense, nEpochs int) []edge {
	n := graph.SymmetricDim()
	var maxWeight float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			maxWeight = math.Max(maxWeight, graph.At(i, j))
		}
	}
	if maxWeight == 0 {
		return nil
	}

	cutoff := maxWeight / float64(nEpochs)
	var edges []edge
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if w := graph.At(i, j); w > 0 && w >= cutoff {
				edges = append(edges, edge{head: i, tail: j, weight: w})
			}
		}
	}
	return edges
}

// spectralInit embeds the graph with the eigenvectors of its normalized
// Laplacian that follow the trivial one. Reports false when the graph is
// too small or the factorization fails.
func spectralInit(graph *mat.SymDense, dim int) (*mat.Dense, bool) {
	n := graph.SymmetricDim()
	if n <= dim+1 {
		return nil, false
	}

	invSqrtDeg := make([]float64, n)
	for i := 0; i < n; i++ {
		var deg float64
		for j := 0; j < n; j++ {
			deg += graph.At(i, j)
		}
		if deg > 0 {
			invSqrtDeg[i] = 1 / math.Sqrt(deg)
		}
	}

	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		laplacian.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if w := graph.At(i, j); w != 0 {
				laplacian.SetSym(i, j, -w*invSqrtDeg[i]*invSqrtDeg[j])
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(laplacian, true) {
		return nil, false
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending; skip the first eigenvector.
	coords := mat.NewDense(n, dim, nil)
	var maxAbs float64
	for i := 0; i < n; i++ {
		for c := 0; c < dim; c++ {
			v := vectors.At(i, c+1)
			coords.Set(i, c, v)
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	if maxAbs == 0 || math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return nil, false
	}
	coords.Scale(initScale/maxAbs, coords)
	return coords, true
}

// randomInit places points uniformly in [-10, 10) on every axis.
func randomInit(n, dim int, rng *rand.Rand) *mat.Dense {
	coords := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < dim; c++ {
			coords.Set(i, c, rng.Float64()*2*initScale-initScale)
		}
	}
	return coords
}

// rescale maps every column linearly onto [0, 10]. Constant columns become 0.
func rescale(coords *mat.Dense) {
	n, dim := coords.Dims()
	for c := 0; c < dim; c++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			v := coords.At(i, c)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		span := hi - lo
		for i := 0; i < n; i++ {
			if span == 0 {
				coords.Set(i, c, 0)
				continue
			}
			coords.Set(i, c, initScale*(coords.At(i, c)-lo)/span)
		}
	}
}

func clip(v float64) float64 {
	return math.Max(-gradientClip, math.Min(gradientClip, v))
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// optimizer runs stochastic gradient descent on the embedding, attracting
// graph neighbors and repelling randomly sampled points.
type optimizer struct {
	a, b         float64
	gamma        float64
	learningRate float64
	negativeRate int
	nEpochs      int
	rng          *rand.Rand
}

func (o *optimizer) run(points [][]float64, edges []edge) {
	if len(edges) == 0 {
		return
	}
	n := len(points)

	var maxWeight float64
	for _, e := range edges {
		maxWeight = math.Max(maxWeight, e.weight)
	}

	epochsPerSample := make([]float64, len(edges))
	nextSample := make([]float64, len(edges))
	epochsPerNegative := make([]float64, len(edges))
	nextNegative := make([]float64, len(edges))
	for i, e := range edges {
		epochsPerSample[i] = maxWeight / e.weight
		nextSample[i] = epochsPerSample[i]
		if o.negativeRate > 0 {
			epochsPerNegative[i] = epochsPerSample[i] / float64(o.negativeRate)
			nextNegative[i] = epochsPerNegative[i]
		}
	}

	alpha := o.learningRate
	for epoch := 0; epoch < o.nEpochs; epoch++ {
		ep := float64(epoch)
		for i, e := range edges {
			if nextSample[i] > ep {
				continue
			}
			current, other := points[e.head], points[e.tail]

			distSq := squaredDistance(current, other)
			var coeff float64
			if distSq > 0 {
				coeff = -2 * o.a * o.b * math.Pow(distSq, o.b-1)
				coeff /= o.a*math.Pow(distSq, o.b) + 1
			}
			for d := range current {
				grad := clip(coeff * (current[d] - other[d]))
				current[d] += grad * alpha
				other[d] -= grad * alpha
			}
			nextSample[i] += epochsPerSample[i]

			if o.negativeRate == 0 {
				continue
			}
			negatives := int((ep - nextNegative[i]) / epochsPerNegative[i])
			for s := 0; s < negatives; s++ {
				k := o.rng.IntN(n)
				if k == e.head {
					continue
				}
				other := points[k]
				distSq := squaredDistance(current, other)
				if distSq <= 0 {
					continue
				}
				coeff := 2 * o.gamma * o.b
				coeff /= (0.001 + distSq) * (o.a*math.Pow(distSq, o.b) + 1)
				for d := range current {
					current[d] += clip(coeff*(current[d]-other[d])) * alpha
				}
			}
			nextNegative[i] += float64(negatives) * epochsPerNegative[i]
		}
		alpha = o.learningRate * (1 - float64(epoch)/float64(o.nEpochs))
	}
}
