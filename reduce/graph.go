package reduce

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	smoothIterations = 64
	smoothTolerance  = 1e-5
	minKDistScale    = 1e-3
	normEpsilon      = 1e-12
)

// neighborhood is the k nearest neighbors of one point, self first.
type neighborhood struct {
	indices   []int
	distances []float64
}

// cosineNeighbors finds the k nearest neighbors of every row of x under
// cosine distance by exhaustive comparison. Each list starts with the point
// itself. Equal distances are ordered by index.
func cosineNeighbors(x mat.Matrix, k int) []neighborhood {
	n, d := x.Dims()
	unit := mat.NewDense(n, d, nil)
	row := make([]float64, d)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		floats.Scale(1/(floats.Norm(row, 2)+normEpsilon), row)
		unit.SetRow(i, row)
	}

	var sim mat.Dense
	sim.Mul(unit, unit.T())

	out := make([]neighborhood, n)
	order := make([]int, 0, n)
	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dist[j] = math.Max(0, 1-sim.At(i, j))
		}
		order = order[:0]
		for j := 0; j < n; j++ {
			if j != i {
				order = append(order, j)
			}
		}
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case dist[a] < dist[b]:
				return -1
			case dist[a] > dist[b]:
				return 1
			}
			return a - b
		})

		nb := neighborhood{indices: make([]int, k), distances: make([]float64, k)}
		nb.indices[0] = i
		for m := 1; m < k; m++ {
			nb.indices[m] = order[m-1]
			nb.distances[m] = dist[order[m-1]]
		}
		out[i] = nb
	}
	return out
}

// smoothDistances computes, per point, the distance to its nearest distinct
// neighbor (rho) and the bandwidth (sigma) at which the neighbor memberships
// sum to log2(k).
func smoothDistances(nbs []neighborhood, k int) (rho, sigma []float64) {
	n := len(nbs)
	rho = make([]float64, n)
	sigma = make([]float64, n)
	target := math.Log2(float64(k))

	var total float64
	var count int
	for _, nb := range nbs {
		for _, d := range nb.distances {
			total += d
			count++
		}
	}
	globalMean := 0.0
	if count > 0 {
		globalMean = total / float64(count)
	}

	for i, nb := range nbs {
		for _, d := range nb.distances {
			if d > 0 {
				rho[i] = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for iter := 0; iter < smoothIterations; iter++ {
			var psum float64
			for _, d := range nb.distances[1:] {
				if dd := d - rho[i]; dd > 0 {
					psum += math.Exp(-dd / mid)
				} else {
					psum++
				}
			}
			if math.Abs(psum-target) < smoothTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		floor := minKDistScale * globalMean
		if rho[i] > 0 {
			floor = minKDistScale * floats.Sum(nb.distances) / float64(len(nb.distances))
		}
		sigma[i] = math.Max(mid, floor)
	}
	return rho, sigma
}

// fuzzyGraph builds the symmetric fuzzy membership matrix. Directed
// memberships exp(-(d-rho)/sigma) are combined with the probabilistic union
// a + b - a*b.
func fuzzyGraph(nbs []neighborhood, rho, sigma []float64) *mat.SymDense {
	n := len(nbs)
	directed := mat.NewDense(n, n, nil)
	for i, nb := range nbs {
		for m, j := range nb.indices {
			if j == i {
				continue
			}
			d := nb.distances[m]
			w := 1.0
			if d-rho[i] > 0 && sigma[i] > 0 {
				w = math.Exp(-(d - rho[i]) / sigma[i])
			}
			directed.Set(i, j, w)
		}
	}

	graph := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := directed.At(i, j), directed.At(j, i)
			if w := a + b - a*b; w > 0 {
				graph.SetSym(i, j, w)
			}
		}
	}
	return graph
}
