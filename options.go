package cohort

import (
	"log/slog"

	"github.com/poiesic/cohort/ai"
	"github.com/poiesic/cohort/cluster"
)

// DefaultTopK is the number of personas retrieved per query.
const DefaultTopK = 200

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	topK     int
	cluster  cluster.Options
	tagging  bool
	rewrite  bool
	logger   *slog.Logger
}

func defaultOptions() *engineOptions {
	return &engineOptions{
		aiConfig: ai.DefaultConfig(),
		topK:     DefaultTopK,
		cluster:  cluster.DefaultOptions(),
		tagging:  true,
		logger:   slog.Default(),
	}
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider
// created by NewEngine. Ignored by NewEngineWithComponents.
func WithAIConfig(config *ai.Config) Option {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithTopK sets how many personas a query retrieves. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(o *engineOptions) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithClusterOptions replaces the segmentation settings.
func WithClusterOptions(opts cluster.Options) Option {
	return func(o *engineOptions) {
		o.cluster = opts
	}
}

// WithTagging enables or disables cluster tagging. Default is enabled.
// Without it, report profiles carry no tags.
func WithTagging(enabled bool) Option {
	return func(o *engineOptions) {
		o.tagging = enabled
	}
}

// WithQueryRewrite enables rewriting product descriptions before they are
// embedded. Default is disabled.
func WithQueryRewrite(enabled bool) Option {
	return func(o *engineOptions) {
		o.rewrite = enabled
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
