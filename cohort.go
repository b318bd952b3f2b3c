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


package cohort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/poiesic/cohort/ai"
	"github.com/poiesic/cohort/ai/openai"
	"github.com/poiesic/cohort/cluster"
	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/ingest"
	"github.com/poiesic/cohort/search"
	"github.com/poiesic/cohort/storage"
	"github.com/poiesic/cohort/storage/badger"
	"github.com/poiesic/cohort/summary"
)

var (
	// ErrRepositoryRequired is returned when a persona repository is not provided.
	ErrRepositoryRequired = errors.New("persona repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// Engine matches product descriptions against the stored persona
// population and segments the best matches.
//
// The search index is built from the repository when the engine is
// created and only changes on Reload.
type Engine struct {
	backend  *badger.Backend // nil when the repository was supplied by the caller
	repo     storage.PersonaRepository
	provider ai.AIProvider
	options  *engineOptions
	logger   *slog.Logger

	mu       sync.RWMutex
	searcher *search.Searcher
}

// NewEngine opens the persona database at filePath, creates the AI
// provider and builds the search index.
func NewEngine(filePath string, opts ...Option) (*Engine, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false,
		badger.WithBackendLogger(options.logger.With("component", "badger")))
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewPersonaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	e, err := newEngine(repo, provider, options)
	if err != nil {
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}
	e.backend = backend
	return e, nil
}

// NewEngineWithComponents creates an engine over an existing repository
// and provider. Close releases both.
func NewEngineWithComponents(repo storage.PersonaRepository, provider ai.AIProvider, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return newEngine(repo, provider, options)
}

func newEngine(repo storage.PersonaRepository, provider ai.AIProvider, options *engineOptions) (*Engine, error) {
	e := &Engine{
		repo:     repo,
		provider: provider,
		options:  options,
		logger:   options.logger.With("component", "engine"),
	}
	if err := e.Reload(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload rebuilds the search index from the repository and swaps it in.
// Every call rebuilds; edits to stored personas are picked up even when
// their retrieval vectors are unchanged.
func (e *Engine) Reload(ctx context.Context) error {
	personas, err := e.repo.GetAllPersonas(ctx)
	if err != nil {
		return fmt.Errorf("load personas: %w", err)
	}

	index, err := search.NewIndex(personas, e.options.logger)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	searcher, err := search.NewSearcher(index, e.provider,
		search.WithLogger(e.options.logger),
		search.WithQueryRewrite(e.options.rewrite))
	if err != nil {
		return err
	}
	e.searcher = searcher
	e.logger.Info("search index built", "personas", index.Len(), "dimension", index.Dimension(),
		"fingerprint", index.Fingerprint())
	return nil
}

// Searcher returns the current searcher.
func (e *Engine) Searcher() *search.Searcher {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.searcher
}

// Index returns the current search index.
func (e *Engine) Index() *search.Index {
	return e.Searcher().Index()
}

// Query retrieves the personas closest to productDescription, segments
// them and describes every segment through its representative persona.
func (e *Engine) Query(ctx context.Context, productDescription string) (*core.Report, error) {
	results, err := e.Searcher().FindSimilar(ctx, productDescription, e.options.topK)
	if err != nil {
		return nil, err
	}
	personas := core.Personas(results)
	e.logger.Debug("retrieved personas", "count", len(personas))

	gender, age := summary.GlobalDistributions(personas)

	assignment, err := cluster.Cluster(personas, e.clusterOptions())
	if err != nil {
		return nil, fmt.Errorf("cluster personas: %w", err)
	}

	demographics, narratives := summary.Summarize(personas, assignment.Representatives)

	tags := map[int][]string{}
	if e.options.tagging && len(narratives) > 0 {
		tags, err = e.provider.Tagger().TagClusters(ctx, productDescription, narratives)
		if err != nil {
			return nil, fmt.Errorf("tag clusters: %w", err)
		}
	}

	report := &core.Report{
		GenderDistribution: gender,
		AgeDistribution:    age,
		CustomerProfile:    make(map[string]*core.Profile, assignment.NumClusters()),
	}
	total := len(personas)
	ids := slices.Sorted(maps.Keys(assignment.Counts))
	for _, id := range ids {
		clusterTags := tags[id]
		if clusterTags == nil {
			clusterTags = []string{}
		}
		report.CustomerProfile[ProfileKey(id)] = &core.Profile{
			Tags:         clusterTags,
			Demographics: demographics[id],
			PID:          assignment.Representatives[id],
			Percentage:   Percentage(assignment.Counts[id], total),
		}
	}

	e.logger.Info("query complete", "personas", total, "clusters", len(ids))
	return report, nil
}

func (e *Engine) clusterOptions() cluster.Options {
	opts := e.options.cluster
	if opts.Logger == nil {
		opts.Logger = e.options.logger
	}
	return opts
}

// ProfileKey is the report key of a cluster.
func ProfileKey(clusterID int) string {
	return fmt.Sprintf("cluster%d", clusterID)
}

// Percentage returns count as a share of total in percent, rounded to
// one decimal. A zero total yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// NewIngester creates an ingester writing to the engine's repository.
// Call Reload afterwards to search the new personas.
func (e *Engine) NewIngester(opts ...ingest.Option) (*ingest.Ingester, error) {
	opts = append([]ingest.Option{ingest.WithLogger(e.options.logger)}, opts...)
	return ingest.NewIngester(e.repo, e.provider, opts...)
}

// PersonaRepository returns the underlying persona repository.
func (e *Engine) PersonaRepository() storage.PersonaRepository {
	return e.repo
}

// Close releases the provider, the repository and the database.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing persona repository", "err", err)
		return err
	}

	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}
