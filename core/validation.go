package core

import (
	"fmt"
	"math"
	"strings"
)

// ValidatePersona validates a Persona according to store rules.
//
// Validation rules:
//   - persona must not be nil
//   - Id must not be empty
//
// NOT validated (checked by the operation that needs them):
//   - EmbeddingVector (personas without one are skipped by the search index)
//   - ClusterEmbeddingVector (required by clustering, see RequireClusterEmbedding)
func ValidatePersona(p *Persona) error {
	if p == nil {
		return fmt.Errorf("%w: persona is nil", ErrInvalidPersona)
	}
	if p.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrEmptyID)
	}
	return nil
}

// RequireClusterEmbedding checks that every persona carries a cluster
// embedding and that all of them share one dimension.
// Returns the common dimension.
func RequireClusterEmbedding(personas []*Persona) (int, error) {
	dim := -1
	for i, p := range personas {
		if err := ValidatePersona(p); err != nil {
			return 0, fmt.Errorf("persona %d: %w", i, err)
		}
		if len(p.ClusterEmbeddingVector) == 0 {
			return 0, fmt.Errorf("%w: cluster_embedding_vector on persona %q", ErrMissingVector, p.Id)
		}
		if dim == -1 {
			dim = len(p.ClusterEmbeddingVector)
		} else if len(p.ClusterEmbeddingVector) != dim {
			return 0, fmt.Errorf("%w: persona %q has %d dimensions, expected %d",
				ErrDimensionMismatch, p.Id, len(p.ClusterEmbeddingVector), dim)
		}
	}
	return dim, nil
}

// IsDemographicsKey reports whether a KeyValues key names the demographics block.
// The comparison ignores case and surrounding whitespace.
func IsDemographicsKey(key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), DemographicsKey)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
