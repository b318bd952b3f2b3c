package cluster

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/density"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const noise = density.Noise

func TestAssignNoise(t *testing.T) {
	z := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 2, // cluster 3 centroid (0, 1)
		10, 0,
		10, 2, // cluster 7 centroid (10, 1)
		1, 1, // near cluster 3
		9, 5, // near cluster 7
	})
	labels := []int{3, 3, 7, 7, noise, noise}

	got := AssignNoise(labels, z)
	assert.Equal(t, []int{3, 3, 7, 7, 3, 7}, got)
	assert.Equal(t, []int{3, 3, 7, 7, noise, noise}, labels, "input is not modified")

	t.Run("equidistant goes to lowest label", func(t *testing.T) {
		z := mat.NewDense(5, 1, []float64{-1, -1, 1, 1, 0})
		got := AssignNoise([]int{4, 4, 2, 2, noise}, z)
		assert.Equal(t, 2, got[4])
	})

	t.Run("all noise is unchanged", func(t *testing.T) {
		z := mat.NewDense(3, 1, []float64{0, 1, 2})
		assert.Equal(t, []int{noise, noise, noise}, AssignNoise([]int{noise, noise, noise}, z))
	})

	t.Run("never creates or empties clusters", func(t *testing.T) {
		before := countLabels(labels)
		after := countLabels(got)
		assert.NotContains(t, after, noise)
		for l := range before {
			if l != noise {
				assert.GreaterOrEqual(t, after[l], before[l])
			}
		}
		assert.Len(t, after, len(before)-1)
	})
}

func TestRelabel(t *testing.T) {
	assert.Equal(t, []int{1, 0, 2, 1, 0}, Relabel([]int{5, 2, 9, 5, 2}))
	assert.Equal(t, []int{0, 0}, Relabel([]int{noise, noise}))
	assert.Equal(t, []int{}, Relabel([]int{}))
}

func TestMedoids(t *testing.T) {
	z := mat.NewDense(6, 1, []float64{
		0, 1, 5, // label 0, mean 2: member at 1 is closest
		10, 12, 20, // label 1, mean 14: member at 12 is closest
	})
	reps := Medoids([]int{0, 0, 0, 1, 1, 1}, z)
	assert.Equal(t, map[int]int{0: 1, 1: 4}, reps)

	t.Run("first member wins ties", func(t *testing.T) {
		z := mat.NewDense(2, 1, []float64{-1, 1})
		assert.Equal(t, map[int]int{0: 0}, Medoids([]int{0, 0}, z))
	})
}

func makePersonas(n, dim int, seed uint64) []*core.Persona {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	personas := make([]*core.Persona, n)
	for i := range personas {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = float32(rng.NormFloat64() * 0.05)
		}
		// Three groups pointing along different axes.
		vec[i%3] += 1
		personas[i] = &core.Persona{
			Id:                     fmt.Sprintf("p%03d", i),
			ClusterEmbeddingVector: core.NormalizeVector(vec),
			KeyValues: map[string]any{
				"scores":       fmt.Sprintf("thrift = %d", i%3),
				"demographics": "Gender: Female\nAge: 30-49",
			},
		}
	}
	return personas
}

func checkAssignment(t *testing.T, personas []*core.Persona, a *core.ClusterAssignment) {
	t.Helper()
	require.Len(t, a.Labels, len(personas))

	counts := map[int]int{}
	for _, l := range a.Labels {
		assert.GreaterOrEqual(t, l, 0)
		counts[l]++
	}
	assert.Equal(t, counts, a.Counts)

	for id := 0; id < a.NumClusters(); id++ {
		assert.Greater(t, a.Counts[id], 0, "cluster %d is empty", id)
		rep, ok := a.Representatives[id]
		require.True(t, ok, "cluster %d has no representative", id)

		member := false
		for i, p := range personas {
			if p.Id == rep && a.Labels[i] == id {
				member = true
			}
		}
		assert.True(t, member, "representative of cluster %d is not a member", id)
	}
	assert.Len(t, a.Representatives, a.NumClusters())
}

func TestCluster_Degenerate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		a, err := Cluster(nil, DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, a.Labels)
		assert.Equal(t, 0, a.NumClusters())
	})

	t.Run("fewer than five personas", func(t *testing.T) {
		personas := makePersonas(4, 8, 1)
		personas[3].ClusterEmbeddingVector = nil

		a, err := Cluster(personas, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 0}, a.Labels)
		assert.Equal(t, map[int]string{0: "p000"}, a.Representatives)
		assert.Equal(t, map[int]int{0: 4}, a.Counts)
	})
}

func TestCluster_MissingVector(t *testing.T) {
	personas := makePersonas(10, 8, 1)
	personas[6].ClusterEmbeddingVector = nil

	_, err := Cluster(personas, DefaultOptions())
	assert.ErrorIs(t, err, core.ErrMissingVector)
}

func TestCluster_SmallSubsetSingleNumericValue(t *testing.T) {
	personas := makePersonas(6, 8, 2)
	for _, p := range personas {
		delete(p.KeyValues, "scores")
	}
	personas[4].KeyValues["traits"] = "loyalty = 5"

	a, err := Cluster(personas, DefaultOptions())
	require.NoError(t, err)
	checkAssignment(t, personas, a)
}

func TestCluster_Invariants(t *testing.T) {
	personas := makePersonas(90, 16, 3)
	opts := DefaultOptions()
	opts.Reduction.NEpochs = 200

	a, err := Cluster(personas, opts)
	require.NoError(t, err)
	checkAssignment(t, personas, a)
	assert.GreaterOrEqual(t, a.NumClusters(), 1)

	total := 0
	for _, c := range a.Counts {
		total += c
	}
	assert.Equal(t, len(personas), total)

	again, err := Cluster(personas, opts)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}
