package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/cohort/ai/mock"
	"github.com/poiesic/cohort/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex([]*core.Persona{
		persona("north", 0, 1),
		persona("east", 1, 0),
		persona("northeast", 1, 1),
	}, nil)
	require.NoError(t, err)
	return idx
}

func TestNewSearcher(t *testing.T) {
	idx := testIndex(t)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(idx, provider)
		require.NoError(t, err)
		assert.Same(t, idx, searcher.Index())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(idx, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(idx, provider, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(nil, provider)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(idx, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		switch text {
		case "east":
			return []float32{1, 0}, nil
		case "north":
			return []float32{0, 1}, nil
		}
		return nil, errors.New("unknown text")
	})
	rewriter := mock.NewMockRewriter()
	rewriter.RewriteQueryFunc = func(ctx context.Context, text string) (string, error) {
		return "north", nil
	}
	provider := mock.NewMockProviderWithServices(embedder, nil, nil, rewriter)

	t.Run("ranks embedded text", func(t *testing.T) {
		searcher, err := NewSearcher(testIndex(t), provider)
		require.NoError(t, err)

		results, err := searcher.FindSimilar(ctx, "  east ", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"east", "northeast"}, ids(results))
		assert.Equal(t, 0, rewriter.CallCount())
	})

	t.Run("rewrites before embedding", func(t *testing.T) {
		searcher, err := NewSearcher(testIndex(t), provider, WithQueryRewrite(true))
		require.NoError(t, err)

		results, err := searcher.FindSimilar(ctx, "east", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"north"}, ids(results))
		assert.Equal(t, 1, rewriter.CallCount())
	})

	t.Run("embedding failure", func(t *testing.T) {
		searcher, err := NewSearcher(testIndex(t), provider)
		require.NoError(t, err)

		_, err = searcher.FindSimilar(ctx, "west", 1)
		assert.Error(t, err)
	})

	t.Run("empty text", func(t *testing.T) {
		searcher, err := NewSearcher(testIndex(t), provider)
		require.NoError(t, err)

		_, err = searcher.FindSimilar(ctx, "   ", 1)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}
