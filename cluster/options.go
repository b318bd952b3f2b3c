package cluster

import (
	"log/slog"

	"github.com/poiesic/cohort/density"
	"github.com/poiesic/cohort/features"
	"github.com/poiesic/cohort/reduce"
)

// MinPersonas is the smallest subset that is density clustered.
const MinPersonas = 5

// Options configures Cluster.
type Options struct {
	Weights   features.Weights
	Reduction reduce.Params
	Density   density.Params
	Logger    *slog.Logger
}

// DefaultOptions returns the settings used for persona segmentation.
func DefaultOptions() Options {
	return Options{
		Weights:   features.DefaultWeights(),
		Reduction: reduce.DefaultParams(),
		Density:   density.DefaultParams(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default().With("component", "cluster")
	}
	return o.Logger.With("component", "cluster")
}
