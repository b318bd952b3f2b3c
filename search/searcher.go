package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/cohort/ai"
	"github.com/poiesic/cohort/core"
)

// Searcher ranks personas against free-text product descriptions.
type Searcher struct {
	index    *Index
	embedder ai.Embedder
	rewriter ai.Rewriter
	rewrite  bool
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithQueryRewrite enables rewriting the description into a persona-style
// summary before it is embedded. Default is false.
func WithQueryRewrite(enabled bool) Option {
	return func(s *Searcher) error {
		s.rewrite = enabled
		return nil
	}
}

// NewSearcher creates a new searcher over index.
func NewSearcher(index *Index, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		index:    index,
		embedder: provider.Embedder(),
		rewriter: provider.Rewriter(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Index returns the index the searcher ranks against.
func (s *Searcher) Index() *Index {
	return s.index
}

// FindSimilar embeds text and returns the topK most similar personas.
func (s *Searcher) FindSimilar(ctx context.Context, text string, topK int) ([]*core.RetrievalResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	if s.rewrite && s.rewriter != nil {
		rewritten, err := s.rewriter.RewriteQuery(ctx, text)
		if err != nil {
			s.logger.Error("error rewriting query", "err", err)
			return nil, err
		}
		s.logger.Debug("rewrote query", "original", text, "rewritten", rewritten)
		text = rewritten
	}

	embedding, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	results, err := s.index.Rank(embedding, topK)
	if err != nil {
		s.logger.Error("error ranking personas", "err", err)
		return nil, err
	}

	s.logger.Debug("ranked personas", "requested", topK, "returned", len(results))
	return results, nil
}
