package mock

import "github.com/poiesic/cohort/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, tagger and rewriter instances.
type MockProvider struct {
	embedder        *MockEmbedder
	clusterEmbedder *MockEmbedder
	tagger          *MockTagger
	rewriter        *MockRewriter
}

// NewMockProvider creates a new mock provider with default mock services.
// Retrieval and clustering share one embedder.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockTagger() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	embedder := NewMockEmbedder()
	return &MockProvider{
		embedder:        embedder,
		clusterEmbedder: embedder,
		tagger:          NewMockTagger(),
		rewriter:        NewMockRewriter(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil clusterEmbedder reuses embedder.
func NewMockProviderWithServices(embedder, clusterEmbedder *MockEmbedder, tagger *MockTagger, rewriter *MockRewriter) ai.AIProvider {
	if clusterEmbedder == nil {
		clusterEmbedder = embedder
	}
	if tagger == nil {
		tagger = NewMockTagger()
	}
	if rewriter == nil {
		rewriter = NewMockRewriter()
	}
	return &MockProvider{
		embedder:        embedder,
		clusterEmbedder: clusterEmbedder,
		tagger:          tagger,
		rewriter:        rewriter,
	}
}

// Embedder returns the mock retrieval embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// ClusterEmbedder returns the mock clustering embedder.
func (p *MockProvider) ClusterEmbedder() ai.Embedder {
	return p.clusterEmbedder
}

// Tagger returns the mock tagger.
func (p *MockProvider) Tagger() ai.Tagger {
	return p.tagger
}

// Rewriter returns the mock rewriter.
func (p *MockProvider) Rewriter() ai.Rewriter {
	return p.rewriter
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTagger returns the underlying mock tagger for test assertions.
func (p *MockProvider) GetMockTagger() *MockTagger {
	return p.tagger
}

// GetMockRewriter returns the underlying mock rewriter for test assertions.
func (p *MockProvider) GetMockRewriter() *MockRewriter {
	return p.rewriter
}
