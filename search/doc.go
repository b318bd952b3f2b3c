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


// Package search provides cosine similarity ranking over the persona population.
//
// An Index is built once from the full population and is read-only afterwards,
// so a single Index may be shared by concurrent queries. Rebuilding it after
// the persona store changes is the caller's responsibility.
//
// Ranking computes every score with one matrix-vector product and keeps the
// best K candidates in a bounded heap, so only the selected subset is sorted.
//
// The Searcher type wraps an Index with an embedding service (and optionally a
// query rewriter) to rank personas directly from text.
package search
