package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.PersonaRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testPersona(id string) *core.Persona {
	return &core.Persona{
		Id:                     id,
		EmbeddingProfileText:   "profile of " + id,
		EmbeddingVector:        []float32{1, 0},
		ClusterEmbeddingVector: []float32{0, 1, 0},
		KeyValues:              map[string]any{"demographics": "Gender: Male"},
		ConsumerSummary:        map[string]string{"risk_preference": "Bold"},
	}
}

func personaIDs(personas []*core.Persona) []string {
	out := make([]string, len(personas))
	for i, p := range personas {
		out[i] = p.Id
	}
	return out
}

func TestPersonaRepository_AddAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddPersonas(ctx, testPersona("b"), testPersona("a"), testPersona("c"))
	require.NoError(t, err)
	assert.Len(t, added, 3)

	got, err := repo.GetPersona(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, testPersona("a"), got)

	count, err := repo.CountPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, personaIDs(all), "insertion order is preserved")

	some, err := repo.GetPersonas(ctx, "c", "missing", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, personaIDs(some))
}

func TestPersonaRepository_AddErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddPersonas(ctx, testPersona("a"))
	require.NoError(t, err)

	t.Run("duplicate id", func(t *testing.T) {
		_, err := repo.AddPersonas(ctx, testPersona("a"))
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := repo.AddPersonas(ctx, &core.Persona{})
		assert.ErrorIs(t, err, core.ErrInvalidPersona)
	})

	t.Run("failed batch is not committed", func(t *testing.T) {
		_, err := repo.AddPersonas(ctx, testPersona("new"), testPersona("a"))
		require.Error(t, err)

		_, err = repo.GetPersona(ctx, "new")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestPersonaRepository_UpdateKeepsPosition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddPersonas(ctx, testPersona("a"), testPersona("b"), testPersona("c"))
	require.NoError(t, err)

	updated := testPersona("a")
	updated.EmbeddingVector = []float32{0, 1}
	_, err = repo.UpdatePersonas(ctx, updated)
	require.NoError(t, err)

	got, err := repo.GetPersona(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.EmbeddingVector)

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, personaIDs(all))

	_, err = repo.UpdatePersonas(ctx, testPersona("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPersonaRepository_Save(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SavePersonas(ctx, testPersona("a"), testPersona("b"))
	require.NoError(t, err)

	changed := testPersona("a")
	changed.EmbeddingProfileText = "changed"
	_, err = repo.SavePersonas(ctx, testPersona("c"), changed)
	require.NoError(t, err)

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, personaIDs(all))
	assert.Equal(t, "changed", all[0].EmbeddingProfileText)
}

func TestPersonaRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddPersonas(ctx, testPersona("a"), testPersona("b"))
	require.NoError(t, err)

	require.NoError(t, repo.DeletePersonas(ctx, "a"))

	_, err = repo.GetPersona(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := repo.CountPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, repo.DeletePersonas(ctx, "a"), storage.ErrNotFound)

	// A deleted id can be added again; it goes to the end.
	_, err = repo.AddPersonas(ctx, testPersona("a"))
	require.NoError(t, err)
	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, personaIDs(all))
}

func TestPersonaRepository_Empty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	count, err := repo.CountPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = repo.GetPersona(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPersonaRepository_ManyPersonasKeepOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// More than one sequence lease.
	want := make([]string, 250)
	for i := range want {
		want[i] = fmt.Sprintf("p%d", len(want)-i)
		_, err := repo.AddPersonas(ctx, testPersona(want[i]))
		require.NoError(t, err)
	}

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, personaIDs(all))
}

func TestPersonaRepository_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewPersonaRepository(backend)
	require.NoError(t, err)
	_, err = repo.AddPersonas(ctx, testPersona("a"), testPersona("b"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewPersonaRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.AddPersonas(ctx, testPersona("c"))
	require.NoError(t, err)

	all, err := repo.GetAllPersonas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, personaIDs(all))
}
