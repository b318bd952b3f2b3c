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

// Package storage defines where personas live between runs.
//
// PersonaRepository keeps personas in first-insertion order, which the
// search index relies on for deterministic tie-breaking. The badger
// subpackage is the durable implementation; jsonfile reads and writes the
// flat JSON persona list used for import and export.
//
// Records are encoded with mus-go behind a version byte (see
// MarshalPersona); records carrying an unknown version are rejected with
// ErrSerializationFailed.
//
//	backend, err := badger.OpenBackend(dir, false)
//	...
//	repo, err := badger.NewPersonaRepository(backend)
//
// Tests use badger.NewMemoryRepository. Implementations are safe for
// concurrent use.
package storage
