package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Tagger labels customer segments with short descriptive tags.
// Implementations must be thread-safe for concurrent use.
type Tagger interface {
	// TagClusters receives the consumer summary of each cluster's
	// representative persona, keyed by cluster id, plus the product
	// description for context. It returns tags keyed by cluster id.
	// Clusters the model did not label are absent from the result.
	TagClusters(ctx context.Context, productDescription string, summaries map[int]map[string]string) (map[int][]string, error)
}

// Rewriter turns a product description into a persona-style summary
// that embeds closer to persona profile texts.
type Rewriter interface {
	RewriteQuery(ctx context.Context, productDescription string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the embedding service used for retrieval vectors and queries.
	Embedder() Embedder

	// ClusterEmbedder returns the embedding service used for clustering vectors.
	// It may be the same instance as Embedder.
	ClusterEmbedder() Embedder

	// Tagger returns the cluster tagging service.
	Tagger() Tagger

	// Rewriter returns the query rewriting service.
	Rewriter() Rewriter

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
