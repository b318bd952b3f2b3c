package openai

import (
	"log/slog"

	"github.com/poiesic/cohort/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
type Provider struct {
	config          *ai.Config
	embedder        *Embedder
	clusterEmbedder *Embedder
	tagger          *Tagger
	rewriter        *Rewriter
	logger          *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config, config.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	clusterEmbedder := embedder
	if config.ClusterEmbeddingModel != config.EmbeddingModel {
		clusterEmbedder, err = newEmbedder(config, config.ClusterEmbeddingModel)
		if err != nil {
			return nil, err
		}
	}

	tagger, err := newTagger(config)
	if err != nil {
		return nil, err
	}

	rewriter, err := newRewriter(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:          config,
		embedder:        embedder,
		clusterEmbedder: clusterEmbedder,
		tagger:          tagger,
		rewriter:        rewriter,
		logger:          slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the retrieval embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ClusterEmbedder returns the clustering embedding service.
func (p *Provider) ClusterEmbedder() ai.Embedder {
	return p.clusterEmbedder
}

// Tagger returns the cluster tagging service.
func (p *Provider) Tagger() ai.Tagger {
	return p.tagger
}

// Rewriter returns the query rewriting service.
func (p *Provider) Rewriter() ai.Rewriter {
	return p.rewriter
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
