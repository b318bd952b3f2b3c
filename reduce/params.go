package reduce

import (
	"errors"
	"fmt"
)

// ErrInvalidParams indicates reducer parameters out of range.
var ErrInvalidParams = errors.New("invalid reduction parameters")

// Params configures the neighborhood-preserving projection.
type Params struct {
	NNeighbors         int     // Neighborhood size, capped by the number of points
	MinDist            float64 // Minimum distance between embedded points
	Spread             float64 // Effective scale of embedded points
	NComponents        int     // Output dimensionality
	Seed               uint64  // Random seed for initialization and sampling
	NEpochs            int     // Optimization epochs; 0 picks a default by size
	LearningRate       float64
	NegativeSampleRate int
	RepulsionStrength  float64
}

// DefaultParams returns the parameters used for persona clustering.
func DefaultParams() Params {
	return Params{
		NNeighbors:         20,
		MinDist:            0.0,
		Spread:             1.0,
		NComponents:        8,
		Seed:               42,
		LearningRate:       1.0,
		NegativeSampleRate: 5,
		RepulsionStrength:  1.0,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.NNeighbors < 2:
		return fmt.Errorf("%w: n_neighbors must be at least 2, got %d", ErrInvalidParams, p.NNeighbors)
	case p.NComponents < 1:
		return fmt.Errorf("%w: n_components must be positive, got %d", ErrInvalidParams, p.NComponents)
	case p.Spread <= 0:
		return fmt.Errorf("%w: spread must be positive, got %g", ErrInvalidParams, p.Spread)
	case p.MinDist < 0 || p.MinDist > p.Spread:
		return fmt.Errorf("%w: min_dist must be in [0, spread], got %g", ErrInvalidParams, p.MinDist)
	case p.NEpochs < 0:
		return fmt.Errorf("%w: n_epochs cannot be negative", ErrInvalidParams)
	case p.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidParams)
	case p.NegativeSampleRate < 0:
		return fmt.Errorf("%w: negative sample rate cannot be negative", ErrInvalidParams)
	}
	return nil
}

// epochs returns the configured epoch count or the size-based default.
func (p Params) epochs(n int) int {
	if p.NEpochs > 0 {
		return p.NEpochs
	}
	if n <= 10000 {
		return 500
	}
	return 200
}

// neighbors caps the neighborhood size for small inputs.
func (p Params) neighbors(n int) int {
	return min(p.NNeighbors, max(2, n-1))
}
