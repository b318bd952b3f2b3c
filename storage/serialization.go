// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/cohort/core"
)

// personaVersion prefixes every encoded persona.
const personaVersion = 1

// MarshalPersona serializes a Persona to bytes.
// KeyValues is stored as JSON since its values are heterogeneous.
func MarshalPersona(p *core.Persona) ([]byte, error) {
	kv, err := marshalKeyValues(p.KeyValues)
	if err != nil {
		return nil, err
	}
	summaryKeys := sortedKeys(p.ConsumerSummary)

	size := varint.Int.Size(personaVersion) +
		ord.String.Size(p.Id) +
		ord.String.Size(p.EmbeddingProfileText) +
		vectorSize(p.EmbeddingVector) +
		vectorSize(p.ClusterEmbeddingVector) +
		ord.String.Size(kv) +
		varint.Int.Size(len(summaryKeys))
	for _, k := range summaryKeys {
		size += ord.String.Size(k) + ord.String.Size(p.ConsumerSummary[k])
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(personaVersion, buf)
	n += ord.String.Marshal(p.Id, buf[n:])
	n += ord.String.Marshal(p.EmbeddingProfileText, buf[n:])
	n += marshalVector(p.EmbeddingVector, buf[n:])
	n += marshalVector(p.ClusterEmbeddingVector, buf[n:])
	n += ord.String.Marshal(kv, buf[n:])
	n += varint.Int.Marshal(len(summaryKeys), buf[n:])
	for _, k := range summaryKeys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(p.ConsumerSummary[k], buf[n:])
	}
	return buf[:n], nil
}

// UnmarshalPersona deserializes a Persona from bytes.
func UnmarshalPersona(data []byte) (*core.Persona, error) {
	d := decoder{data: data}
	version := d.int()
	if d.err == nil && version != personaVersion {
		return nil, fmt.Errorf("%w: unknown persona version %d", ErrSerializationFailed, version)
	}

	p := &core.Persona{}
	p.Id = d.string()
	p.EmbeddingProfileText = d.string()
	p.EmbeddingVector = d.vector()
	p.ClusterEmbeddingVector = d.vector()
	kv := d.string()
	count := d.int()
	if d.err != nil {
		return nil, d.err
	}

	if count > 0 {
		p.ConsumerSummary = make(map[string]string, count)
		for i := 0; i < count; i++ {
			k := d.string()
			v := d.string()
			if d.err != nil {
				return nil, d.err
			}
			p.ConsumerSummary[k] = v
		}
	}

	values, err := unmarshalKeyValues(kv)
	if err != nil {
		return nil, err
	}
	p.KeyValues = values
	return p, nil
}

// decoder reads fields sequentially and remembers the first error.
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data)
	if err != nil {
		d.fail(err)
		return ""
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) vector() []float32 {
	length := d.int()
	if d.err != nil || length == 0 {
		return nil
	}
	if length < 0 || length > len(d.data) {
		d.fail(ErrTruncatedData)
		return nil
	}
	out := make([]float32, length)
	for i := range out {
		v, n, err := raw.Float32.Unmarshal(d.data)
		if err != nil {
			d.fail(err)
			return nil
		}
		out[i] = v
		d.data = d.data[n:]
	}
	return out
}

func (d *decoder) fail(err error) {
	d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
}

func vectorSize(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, buf []byte) int {
	n := varint.Int.Marshal(len(v), buf)
	for _, f := range v {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return n
}

func marshalKeyValues(kv map[string]any) (string, error) {
	if len(kv) == 0 {
		return "", nil
	}
	data, err := json.Marshal(kv)
	if err != nil {
		return "", fmt.Errorf("%w: key values: %w", ErrSerializationFailed, err)
	}
	return string(data), nil
}

func unmarshalKeyValues(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var kv map[string]any
	if err := json.Unmarshal([]byte(s), &kv); err != nil {
		return nil, fmt.Errorf("%w: key values: %w", ErrSerializationFailed, err)
	}
	return kv, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
