package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/cohort/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns persona profile text into vectors through one embedding
// model. The retrieval and clustering spaces each get their own Embedder.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config, model string) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client for %s: %w", model, err)
	}

	// Profile text is assembled from multi-line summaries; newlines carry no meaning.
	inner, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("embedding client for %s: %w", model, err)
	}

	return &Embedder{
		embedder: inner,
		model:    model,
		logger:   slog.Default().With("component", "openai-embedder", "model", model),
	}, nil
}

// NewEmbedder returns an embedder for config.EmbeddingModel, the space
// queries are matched in.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, config.EmbeddingModel)
}

// NewClusterEmbedder returns an embedder for config.ClusterEmbeddingModel.
func NewClusterEmbedder(config *ai.Config) (ai.Embedder, error) {
	config.Normalize()
	return newEmbedder(config, config.ClusterEmbeddingModel)
}

// Model names the embedding model behind e.
func (e *Embedder) Model() string {
	return e.model
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("query embedding failed", "chars", len(text), "err", err)
		return nil, fmt.Errorf("embed query with %s: %w", e.model, err)
	}
	if len(vector) == 0 {
		e.logger.Warn("model returned an empty query vector")
		return []float32{}, nil
	}
	return vector, nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("batch embedding failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("embed %d texts with %s: %w", len(texts), e.model, err)
	}
	return vectors, nil
}
