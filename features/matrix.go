package features

import (
	"log/slog"

	"github.com/poiesic/cohort/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const normEpsilon = 1e-12

// Weights scale the semantic and numeric blocks before concatenation.
type Weights struct {
	Text    float64
	Numeric float64
}

// DefaultWeights weights numeric attributes twice as heavily as the embedding.
func DefaultWeights() Weights {
	return Weights{Text: 1.0, Numeric: 2.0}
}

// Matrix is a built feature matrix.
type Matrix struct {
	// Data has one row per persona: the weighted embedding followed by the
	// weighted standardized numeric columns, L2-normalized.
	Data *mat.Dense

	// Columns names the numeric attributes in column order. Empty when no
	// numeric token was found, in which case Data is the weighted embedding only.
	Columns []string
}

// BuildMatrix builds the clustering feature matrix for personas.
// Every persona must carry a cluster embedding of one common dimension.
func BuildMatrix(personas []*core.Persona, w Weights, logger *slog.Logger) (*Matrix, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dim, err := core.RequireClusterEmbedding(personas)
	if err != nil {
		return nil, err
	}
	n := len(personas)
	if n == 0 {
		return &Matrix{}, nil
	}

	semantic := make([][]float64, n)
	for i, p := range personas {
		row := core.Float64s(p.ClusterEmbeddingVector)
		scrub(row)
		normalizeRow(row)
		semantic[i] = row
	}

	columns, numeric := NumericTable(personas)
	if numeric == nil {
		data := mat.NewDense(n, dim, nil)
		for i, row := range semantic {
			floats.Scale(w.Text, row)
			data.SetRow(i, row)
		}
		logger.Debug("built feature matrix", "component", "features", "rows", n, "numeric_columns", 0)
		return &Matrix{Data: data}, nil
	}

	ImputeMedian(numeric)
	Standardize(numeric)

	width := dim + len(columns)
	data := mat.NewDense(n, width, nil)
	row := make([]float64, width)
	for i := 0; i < n; i++ {
		for j, v := range semantic[i] {
			row[j] = w.Text * v
		}
		for j := range columns {
			row[dim+j] = w.Numeric * numeric.At(i, j)
		}
		scrub(row)
		normalizeRow(row)
		data.SetRow(i, row)
	}

	logger.Debug("built feature matrix", "component", "features", "rows", n, "numeric_columns", len(columns))
	return &Matrix{Data: data, Columns: columns}, nil
}

// scrub replaces NaN and infinite values with 0 in place.
func scrub(row []float64) {
	for i, v := range row {
		if !core.IsFinite(v) {
			row[i] = 0
		}
	}
}

func normalizeRow(row []float64) {
	floats.Scale(1/(floats.Norm(row, 2)+normEpsilon), row)
}
