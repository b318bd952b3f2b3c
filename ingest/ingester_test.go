package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/cohort/ai/mock"
	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/storage"
	"github.com/poiesic/cohort/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.PersonaRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func rawPersona(id string) *core.Persona {
	return &core.Persona{
		Id:        id,
		KeyValues: map[string]any{"demographics": "Gender: Male\nAge: 18-29"},
		ConsumerSummary: map[string]string{
			"demographic_overview": "Student in " + id,
			"cognitive_style":      "Intuitive",
		},
	}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func newTestIngester(t *testing.T, repo storage.PersonaRepository, embedder, clusterEmbedder *mock.MockEmbedder, opts ...Option) *Ingester {
	t.Helper()
	provider := mock.NewMockProviderWithServices(embedder, clusterEmbedder, nil, nil)
	in, err := NewIngester(repo, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(in.Release)
	return in
}

func TestNewIngester_Requirements(t *testing.T) {
	_, err := NewIngester(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewIngester(setupRepo(t), nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngester_Run(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder().WithDimension(16)
	clusterEmbedder := mock.NewMockEmbedder().WithDimension(8)

	var progress bytes.Buffer
	in := newTestIngester(t, repo, embedder, clusterEmbedder,
		WithConfig(&Config{BatchSize: 3, MaxRetries: 1, PoolSize: 2}),
		WithProgress(&progress))

	personas := make([]*core.Persona, 10)
	for i := range personas {
		personas[i] = rawPersona(fmt.Sprintf("p%02d", i))
	}

	stats, err := in.Run(context.Background(), personas)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Total: 10, Embedded: 10, ClusterEmbedded: 10, Saved: 10}, stats)

	// 10 texts in batches of 3 per embedder
	assert.Equal(t, 4, embedder.CallCount())
	assert.Equal(t, 4, clusterEmbedder.CallCount())
	assert.Contains(t, progress.String(), "20/20 texts")

	stored, err := repo.GetAllPersonas(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 10)
	for i, p := range stored {
		assert.Equal(t, personas[i].Id, p.Id, "input order is kept")
		assert.Len(t, p.EmbeddingVector, 16)
		assert.Len(t, p.ClusterEmbeddingVector, 8)
		assert.InDelta(t, 1.0, norm(p.EmbeddingVector), 1e-5)
		assert.InDelta(t, 1.0, norm(p.ClusterEmbeddingVector), 1e-5)
		assert.Equal(t, ProfileText(personas[i]), p.EmbeddingProfileText)
	}

	assert.Empty(t, personas[0].EmbeddingVector, "input personas are not modified")
	assert.Empty(t, personas[0].EmbeddingProfileText)
}

func TestIngester_KeepsExistingVectors(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder().WithDimension(4)
	in := newTestIngester(t, repo, embedder, embedder)

	p := rawPersona("p1")
	p.EmbeddingProfileText = "custom text"
	p.EmbeddingVector = []float32{3, 4}
	p.ClusterEmbeddingVector = []float32{0, float32(math.NaN()), 2}

	stats, err := in.Run(context.Background(), []*core.Persona{p})
	require.NoError(t, err)
	assert.Zero(t, stats.Embedded)
	assert.Zero(t, stats.ClusterEmbedded)
	assert.Zero(t, embedder.CallCount())

	got, err := repo.GetPersona(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "custom text", got.EmbeddingProfileText)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, got.EmbeddingVector, 1e-6)
	assert.Equal(t, []float32{0, 0, 1}, got.ClusterEmbeddingVector)
}

func TestIngester_SkipsIncomplete(t *testing.T) {
	repo := setupRepo(t)
	embedder := mock.NewMockEmbedder().WithDimension(4)
	in := newTestIngester(t, repo, embedder, embedder)

	noCluster := rawPersona("no-cluster")
	delete(noCluster.ConsumerSummary, "demographic_overview")
	zero := rawPersona("zero")
	zero.EmbeddingVector = []float32{0, 0, 0, 0}

	stats, err := in.Run(context.Background(), []*core.Persona{rawPersona("ok"), noCluster, zero})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, 2, stats.Skipped)

	count, err := repo.CountPersonas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngester_BlankPersonaIsNotEmbedded(t *testing.T) {
	repo := setupRepo(t)
	inner := mock.NewMockEmbedder().WithDimension(4)
	var (
		mu   sync.Mutex
		sent []string
	)
	recording := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		sent = append(sent, texts...)
		mu.Unlock()
		return inner.EmbedTexts(ctx, texts)
	})
	in := newTestIngester(t, repo, recording, recording)

	blank := &core.Persona{Id: "blank", ConsumerSummary: map[string]string{"unrelated": "x"}}
	stats, err := in.Run(context.Background(), []*core.Persona{rawPersona("ok"), blank})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)

	for _, text := range sent {
		assert.NotContains(t, text, "Demographics: , ")
		assert.NotEmpty(t, text)
	}
	stored, err := repo.GetPersonas(context.Background(), "blank")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestIngester_Upserts(t *testing.T) {
	repo := setupRepo(t)
	in := newTestIngester(t, repo, mock.NewMockEmbedder().WithDimension(4), nil)
	ctx := context.Background()

	_, err := in.Run(ctx, []*core.Persona{rawPersona("a"), rawPersona("b")})
	require.NoError(t, err)

	changed := rawPersona("a")
	changed.EmbeddingProfileText = "rewritten"
	_, err = in.Run(ctx, []*core.Persona{rawPersona("c"), changed})
	require.NoError(t, err)

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Id)
	assert.Equal(t, "rewritten", all[0].EmbeddingProfileText)
	assert.Equal(t, "c", all[2].Id)
}

func TestIngester_RetriesThenFails(t *testing.T) {
	repo := setupRepo(t)
	var calls atomic.Int32
	failing := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		return nil, errors.New("rate limited")
	})
	in := newTestIngester(t, repo, failing, mock.NewMockEmbedder(),
		WithConfig(&Config{BatchSize: 10, MaxRetries: 3, RetryDelay: time.Millisecond, PoolSize: 1}))

	_, err := in.Run(context.Background(), []*core.Persona{rawPersona("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.EqualValues(t, 3, calls.Load())

	count, err := repo.CountPersonas(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is saved when embedding fails")
}

func TestIngester_CountMismatch(t *testing.T) {
	repo := setupRepo(t)
	short := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	})
	in := newTestIngester(t, repo, short, short)

	_, err := in.Run(context.Background(), []*core.Persona{rawPersona("a"), rawPersona("b")})
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}

func TestIngester_InvalidPersona(t *testing.T) {
	in := newTestIngester(t, setupRepo(t), mock.NewMockEmbedder(), nil)

	_, err := in.Run(context.Background(), []*core.Persona{rawPersona("a"), {Id: ""}})
	assert.ErrorIs(t, err, core.ErrInvalidPersona)
}
