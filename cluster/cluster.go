package cluster

import (
	"fmt"
	"maps"
	"slices"

	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/density"
	"github.com/poiesic/cohort/features"
	"github.com/poiesic/cohort/reduce"
	"gonum.org/v1/gonum/mat"
)

// Cluster partitions personas into segments. Every persona ends up in
// exactly one cluster, cluster ids are contiguous from 0, and each cluster
// names a representative persona.
func Cluster(personas []*core.Persona, opts Options) (*core.ClusterAssignment, error) {
	logger := opts.logger()

	n := len(personas)
	if n == 0 {
		return &core.ClusterAssignment{
			Labels:          []int{},
			Representatives: map[int]string{},
			Counts:          map[int]int{},
		}, nil
	}
	if n < MinPersonas {
		logger.Debug("too few personas to cluster, using a single cluster", "personas", n)
		return &core.ClusterAssignment{
			Labels:          make([]int, n),
			Representatives: map[int]string{0: personas[0].Id},
			Counts:          map[int]int{0: n},
		}, nil
	}

	fm, err := features.BuildMatrix(personas, opts.Weights, opts.Logger)
	if err != nil {
		return nil, err
	}

	z, err := reduce.Reduce(fm.Data, opts.Reduction, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("reduce features: %w", err)
	}

	raw, err := density.Cluster(z, opts.Density)
	if err != nil {
		return nil, fmt.Errorf("density clustering: %w", err)
	}

	counts := countLabels(raw)
	logger.Debug("density label counts",
		"counts", counts,
		"noise_frac", float64(counts[density.Noise])/float64(n))

	labels := Relabel(AssignNoise(raw, z))
	reps := Medoids(labels, z)

	assignment := &core.ClusterAssignment{
		Labels:          labels,
		Representatives: make(map[int]string, len(reps)),
		Counts:          countLabels(labels),
	}
	for id, idx := range reps {
		assignment.Representatives[id] = personas[idx].Id
	}
	return assignment, nil
}

// AssignNoise returns a copy of labels in which every Noise point takes the
// label of the cluster whose centroid in z is nearest by squared Euclidean
// distance. Equidistant centroids resolve to the lowest label. When every
// point is noise the labels are returned unchanged.
func AssignNoise(labels []int, z mat.Matrix) []int {
	out := slices.Clone(labels)
	centers := centroids(labels, z, func(l int) bool { return l != density.Noise })
	if len(centers) == 0 {
		return out
	}
	ids := slices.Sorted(maps.Keys(centers))

	_, dim := z.Dims()
	point := make([]float64, dim)
	for i, l := range labels {
		if l != density.Noise {
			continue
		}
		mat.Row(point, i, z)
		best, bestDist := ids[0], squaredDistance(point, centers[ids[0]])
		for _, id := range ids[1:] {
			if d := squaredDistance(point, centers[id]); d < bestDist {
				best, bestDist = id, d
			}
		}
		out[i] = best
	}
	return out
}

// Relabel maps labels onto 0..k-1 in ascending order of their original value.
func Relabel(labels []int) []int {
	distinct := slices.Sorted(maps.Keys(countLabels(labels)))
	mapping := make(map[int]int, len(distinct))
	for i, l := range distinct {
		mapping[l] = i
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = mapping[l]
	}
	return out
}

// Medoids returns, per label, the index of the member closest to the mean of
// the label's members in z. The first member in input order wins ties.
func Medoids(labels []int, z mat.Matrix) map[int]int {
	centers := centroids(labels, z, func(int) bool { return true })
	_, dim := z.Dims()
	point := make([]float64, dim)

	reps := make(map[int]int, len(centers))
	best := make(map[int]float64, len(centers))
	for i, l := range labels {
		mat.Row(point, i, z)
		d := squaredDistance(point, centers[l])
		if cur, ok := best[l]; !ok || d < cur {
			best[l] = d
			reps[l] = i
		}
	}
	return reps
}

// centroids averages the rows of z per label, for labels accepted by keep.
func centroids(labels []int, z mat.Matrix, keep func(int) bool) map[int][]float64 {
	_, dim := z.Dims()
	sums := make(map[int][]float64)
	counts := make(map[int]int)
	for i, l := range labels {
		if !keep(l) {
			continue
		}
		sum, ok := sums[l]
		if !ok {
			sum = make([]float64, dim)
			sums[l] = sum
		}
		for d := 0; d < dim; d++ {
			sum[d] += z.At(i, d)
		}
		counts[l]++
	}
	for l, sum := range sums {
		for d := range sum {
			sum[d] /= float64(counts[l])
		}
	}
	return sums
}

func countLabels(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
