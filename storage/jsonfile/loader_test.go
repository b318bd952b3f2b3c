package jsonfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/cohort/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStore = `[
  {
    "id": "p1",
    "embedding_profile_text": "Demographics: Female, 30-49.",
    "embedding_vector": [0.6, 0.8],
    "cluster_embedding_vector": [1, 0, 0],
    "key_values": {"demographics": "Gender: Female\nAge: 30-49", "scores": "openness = 3.5", "tags": ["a", "b"]},
    "consumer_summary": {"risk_preference": "Cautious"}
  },
  {
    "id": "p2",
    "embedding_vector": null
  }
]`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personas.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	personas, err := Load(writeFile(t, sampleStore))
	require.NoError(t, err)
	require.Len(t, personas, 2)

	p := personas[0]
	assert.Equal(t, "p1", p.Id)
	assert.Equal(t, "Demographics: Female, 30-49.", p.EmbeddingProfileText)
	assert.Equal(t, []float32{0.6, 0.8}, p.EmbeddingVector)
	assert.Equal(t, []float32{1, 0, 0}, p.ClusterEmbeddingVector)
	assert.Equal(t, "openness = 3.5", p.KeyValues["scores"])
	assert.Equal(t, []any{"a", "b"}, p.KeyValues["tags"])
	assert.Equal(t, "Gender: Female\nAge: 30-49", p.Demographics())
	assert.Equal(t, map[string]string{"risk_preference": "Cautious"}, p.ConsumerSummary)

	assert.Equal(t, "p2", personas[1].Id)
	assert.Nil(t, personas[1].EmbeddingVector)
	assert.Nil(t, personas[1].ClusterEmbeddingVector)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"object root", `{"id": "p1"}`},
		{"null root", `null`},
		{"string element", `["p1"]`},
		{"missing id", `[{"embedding_vector": [1]}]`},
		{"numeric id", `[{"id": 7}]`},
		{"empty id", `[{"id": ""}]`},
		{"bad vector", `[{"id": "p1", "embedding_vector": "nope"}]`},
		{"bad summary", `[{"id": "p1", "consumer_summary": {"a": 1}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.ErrorIs(t, err, core.ErrMalformedStore)
		})
	}
}

func TestDecode_EmptyList(t *testing.T) {
	personas, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, personas)
}

func TestSaveThenLoad(t *testing.T) {
	in := []*core.Persona{
		{
			Id:                     "p1",
			EmbeddingProfileText:   "text",
			EmbeddingVector:        []float32{0.25, 0.5},
			ClusterEmbeddingVector: []float32{1},
			KeyValues:              map[string]any{"demographics": "Gender: Male"},
			ConsumerSummary:        map[string]string{"emotional_state": "Calm"},
		},
		{Id: "p2"},
	}

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSave_RejectsInvalidPersona(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.json"), []*core.Persona{{}})
	assert.ErrorIs(t, err, core.ErrInvalidPersona)
}
