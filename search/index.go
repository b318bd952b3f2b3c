package search

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/cohort/core"
	"gonum.org/v1/gonum/mat"
)

// normEpsilon keeps row normalization finite for zero vectors.
const normEpsilon = 1e-12

// Index is an immutable embedding matrix over the persona population.
type Index struct {
	personas    []*core.Persona
	vectors     *mat.Dense // one L2-normalized row per persona
	dim         int
	fingerprint string
}

// NewIndex builds an index from personas.
// Personas without an embedding vector are skipped. All remaining vectors
// must share one dimension. An empty population yields an empty index.
func NewIndex(personas []*core.Persona, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "search-index")

	kept := make([]*core.Persona, 0, len(personas))
	dim := 0
	for _, p := range personas {
		if p == nil || len(p.EmbeddingVector) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(p.EmbeddingVector)
		} else if len(p.EmbeddingVector) != dim {
			return nil, fmt.Errorf("%w: persona %q has %d dimensions, expected %d",
				core.ErrDimensionMismatch, p.Id, len(p.EmbeddingVector), dim)
		}
		kept = append(kept, p)
	}
	if skipped := len(personas) - len(kept); skipped > 0 {
		logger.Debug("skipped personas without embedding vector", "skipped", skipped)
	}

	idx := &Index{personas: kept, dim: dim}
	if len(kept) == 0 {
		idx.fingerprint = fingerprint(nil)
		return idx, nil
	}

	data := make([]float64, len(kept)*dim)
	for i, p := range kept {
		row := data[i*dim : (i+1)*dim]
		var norm float64
		for j, v := range p.EmbeddingVector {
			row[j] = float64(v)
			norm += row[j] * row[j]
		}
		norm = math.Sqrt(norm) + normEpsilon
		for j := range row {
			row[j] /= norm
		}
	}
	idx.vectors = mat.NewDense(len(kept), dim, data)
	idx.fingerprint = fingerprint(kept)

	logger.Debug("built index", "personas", len(kept), "dimensions", dim)
	return idx, nil
}

// Len returns the number of indexed personas.
func (idx *Index) Len() int {
	return len(idx.personas)
}

// Dimension returns the embedding dimension, or 0 for an empty index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Personas returns the indexed personas in index order.
func (idx *Index) Personas() []*core.Persona {
	return slices.Clone(idx.personas)
}

// Fingerprint identifies the indexed content. Two indexes built from the same
// persona ids and vectors in the same order share a fingerprint.
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

// candidate is a heap entry.
type candidate struct {
	index int
	score float64
}

// worseFirst orders the heap so its root is the weakest kept candidate:
// lower score first, and among equal scores the later index first.
func worseFirst(a, b any) int {
	ca, cb := a.(candidate), b.(candidate)
	switch {
	case ca.score < cb.score:
		return -1
	case ca.score > cb.score:
		return 1
	case ca.index > cb.index:
		return -1
	case ca.index < cb.index:
		return 1
	default:
		return 0
	}
}

// better reports whether a outranks b.
func better(a, b candidate) bool {
	return worseFirst(a, b) > 0
}

// Rank scores every persona against query by cosine similarity and returns
// the topK best, highest score first. Equal scores keep index order.
// topK is clamped to [1, Len()]. An empty index returns an empty result.
func (idx *Index) Rank(query []float32, topK int) ([]*core.RetrievalResult, error) {
	n := idx.Len()
	if n == 0 {
		return []*core.RetrievalResult{}, nil
	}
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			core.ErrDimensionMismatch, len(query), idx.dim)
	}

	q := core.Float64s(query)
	var norm float64
	for _, v := range q {
		norm += v * v
	}
	norm = math.Sqrt(norm) + normEpsilon
	for i := range q {
		q[i] /= norm
	}

	var scores mat.VecDense
	scores.MulVec(idx.vectors, mat.NewVecDense(idx.dim, q))

	k := min(max(1, topK), n)
	heap := binaryheap.NewWith(worseFirst)
	for i := 0; i < n; i++ {
		c := candidate{index: i, score: scores.AtVec(i)}
		if heap.Size() < k {
			heap.Push(c)
			continue
		}
		root, _ := heap.Peek()
		if better(c, root.(candidate)) {
			heap.Pop()
			heap.Push(c)
		}
	}

	results := make([]*core.RetrievalResult, heap.Size())
	for i := len(results) - 1; i >= 0; i-- {
		v, _ := heap.Pop()
		c := v.(candidate)
		p := idx.personas[c.index]
		results[i] = &core.RetrievalResult{Id: p.Id, Score: c.score, Persona: p}
	}
	return results, nil
}

// fingerprint hashes persona ids and vectors with BLAKE2b.
func fingerprint(personas []*core.Persona) string {
	h, _ := blake2b.New(16, nil)
	buf := make([]byte, 4)
	for _, p := range personas {
		h.Write([]byte(p.Id))
		h.Write([]byte{0})
		for _, v := range p.EmbeddingVector {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			h.Write(buf)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
