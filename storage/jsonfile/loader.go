package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/poiesic/cohort/core"
)

// record is the on-disk shape of one persona.
type record struct {
	ID                     string            `json:"id"`
	EmbeddingProfileText   string            `json:"embedding_profile_text,omitempty"`
	EmbeddingVector        []float32         `json:"embedding_vector"`
	ClusterEmbeddingVector []float32         `json:"cluster_embedding_vector"`
	KeyValues              map[string]any    `json:"key_values,omitempty"`
	ConsumerSummary        map[string]string `json:"consumer_summary,omitempty"`
}

// Load reads the persona store at path.
// A missing file is returned as-is (errors.Is(err, fs.ErrNotExist));
// any structural problem is reported as core.ErrMalformedStore.
func Load(path string) ([]*core.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona store: %w", err)
	}
	return Decode(data)
}

// Decode parses a persona store document.
func Decode(data []byte) ([]*core.Persona, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: root is not a list: %w", core.ErrMalformedStore, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: root is null", core.ErrMalformedStore)
	}

	personas := make([]*core.Persona, 0, len(raw))
	for i, msg := range raw {
		p, err := decodeRecord(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", core.ErrMalformedStore, i, err)
		}
		personas = append(personas, p)
	}
	return personas, nil
}

func decodeRecord(msg json.RawMessage) (*core.Persona, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("not an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil || fields["id"] == nil {
		return nil, fmt.Errorf("id must be a string")
	}
	if id == "" {
		return nil, core.ErrEmptyID
	}

	var r record
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, err
	}

	return &core.Persona{
		Id:                     r.ID,
		EmbeddingProfileText:   r.EmbeddingProfileText,
		EmbeddingVector:        r.EmbeddingVector,
		ClusterEmbeddingVector: r.ClusterEmbeddingVector,
		KeyValues:              r.KeyValues,
		ConsumerSummary:        r.ConsumerSummary,
	}, nil
}

// Save writes personas to path as an indented persona store document.
func Save(path string, personas []*core.Persona) error {
	records := make([]record, 0, len(personas))
	for _, p := range personas {
		if err := core.ValidatePersona(p); err != nil {
			return err
		}
		records = append(records, record{
			ID:                     p.Id,
			EmbeddingProfileText:   p.EmbeddingProfileText,
			EmbeddingVector:        p.EmbeddingVector,
			ClusterEmbeddingVector: p.ClusterEmbeddingVector,
			KeyValues:              p.KeyValues,
			ConsumerSummary:        p.ConsumerSummary,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode persona store: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
