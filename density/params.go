package density

import (
	"errors"
	"fmt"
)

// Noise labels points that belong to no cluster.
const Noise = -1

// ErrInvalidParams indicates clustering parameters out of range.
var ErrInvalidParams = errors.New("invalid density clustering parameters")

// Params configures HDBSCAN.
type Params struct {
	MinClusterSize int // Smallest group of points considered a cluster
	MinSamples     int // Neighborhood size used to estimate point density
}

// DefaultParams returns the parameters used for persona clustering.
func DefaultParams() Params {
	return Params{MinClusterSize: 8, MinSamples: 2}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.MinClusterSize < 2 {
		return fmt.Errorf("%w: min_cluster_size must be at least 2, got %d", ErrInvalidParams, p.MinClusterSize)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min_samples must be positive, got %d", ErrInvalidParams, p.MinSamples)
	}
	return nil
}
