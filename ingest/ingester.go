package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cohort/ai"
	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/storage"
	"golang.org/x/sync/errgroup"
)

// Ingester embeds and stores persona records.
type Ingester struct {
	repo            storage.PersonaRepository
	embedder        ai.Embedder
	clusterEmbedder ai.Embedder
	pool            *ants.Pool
	config          *Config
	progress        io.Writer
	logger          *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester) error

// WithConfig sets batch, retry and pool settings.
// Zero fields fall back to DefaultConfig values.
func WithConfig(config *Config) Option {
	return func(in *Ingester) error {
		in.config = config.normalize()
		return nil
	}
}

// WithProgress sets where progress output is written.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(in *Ingester) error {
		if w == nil {
			w = io.Discard
		}
		in.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingester) error {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger
		return nil
	}
}

// Stats summarizes an ingestion run.
type Stats struct {
	Total           int // Personas received
	Embedded        int // Retrieval vectors generated
	ClusterEmbedded int // Clustering vectors generated
	Saved           int // Personas written to the repository
	Skipped         int // Personas left without both vectors
}

// NewIngester creates an ingester writing to repo and embedding with
// the provider's retrieval and clustering embedders.
// Call Release when done.
func NewIngester(repo storage.PersonaRepository, provider ai.AIProvider, opts ...Option) (*Ingester, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	in := &Ingester{
		repo:            repo,
		embedder:        provider.Embedder(),
		clusterEmbedder: provider.ClusterEmbedder(),
		config:          DefaultConfig(),
		progress:        io.Discard,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, err
		}
	}
	in.logger = in.logger.With("component", "ingester")

	pool, err := ants.NewPool(in.config.PoolSize)
	if err != nil {
		return nil, err
	}
	in.pool = pool

	return in, nil
}

// Release releases the worker pool.
// The ingester should not be used after calling Release.
func (in *Ingester) Release() {
	if in.pool != nil {
		in.pool.Release()
	}
}

// embedJob embeds one batch of texts into one vector field of its targets.
type embedJob struct {
	embedder ai.Embedder
	texts    []string
	targets  []*[]float32
}

// Run prepares personas and saves them with SavePersonas, so personas
// already in the repository are replaced in place and new ones are
// appended in input order. Input personas are not modified.
func (in *Ingester) Run(ctx context.Context, personas []*core.Persona) (*Stats, error) {
	stats := &Stats{Total: len(personas)}

	prepared := make([]*core.Persona, 0, len(personas))
	for i, p := range personas {
		if err := core.ValidatePersona(p); err != nil {
			return stats, fmt.Errorf("persona %d: %w", i, err)
		}
		clone := *p
		if clone.EmbeddingProfileText == "" {
			clone.EmbeddingProfileText = ProfileText(&clone)
		}
		prepared = append(prepared, &clone)
	}

	var retrieval, clustering []*core.Persona
	for _, p := range prepared {
		if len(p.EmbeddingVector) == 0 && p.EmbeddingProfileText != "" {
			retrieval = append(retrieval, p)
		}
		if len(p.ClusterEmbeddingVector) == 0 && ClusterText(p) != "" {
			clustering = append(clustering, p)
		}
	}

	jobs := in.batch(retrieval, in.embedder, func(p *core.Persona) (string, *[]float32) {
		return p.EmbeddingProfileText, &p.EmbeddingVector
	})
	jobs = append(jobs, in.batch(clustering, in.clusterEmbedder, func(p *core.Persona) (string, *[]float32) {
		return ClusterText(p), &p.ClusterEmbeddingVector
	})...)

	total := len(retrieval) + len(clustering)
	if total > 0 {
		fmt.Fprintf(in.progress, "Embedding %d texts for %d personas (batch size: %d)\n",
			total, len(prepared), in.config.BatchSize)
		tracker := NewProgressTracker(in.progress, total, in.config.ReportInterval)
		if err := in.embed(ctx, jobs, tracker); err != nil {
			return stats, err
		}
		tracker.Finish()
		stats.Embedded = len(retrieval)
		stats.ClusterEmbedded = len(clustering)
	}

	complete := make([]*core.Persona, 0, len(prepared))
	for _, p := range prepared {
		p.EmbeddingVector = usableVector(p.EmbeddingVector)
		p.ClusterEmbeddingVector = usableVector(p.ClusterEmbeddingVector)
		if p.EmbeddingVector == nil || p.ClusterEmbeddingVector == nil {
			in.logger.Debug("skipping persona without vectors", "id", p.Id,
				"retrieval", p.EmbeddingVector != nil, "cluster", p.ClusterEmbeddingVector != nil)
			stats.Skipped++
			continue
		}
		complete = append(complete, p)
	}
	if stats.Skipped > 0 {
		in.logger.Warn("personas skipped", "skipped", stats.Skipped, "total", stats.Total)
	}

	for start := 0; start < len(complete); start += in.config.BatchSize {
		end := min(start+in.config.BatchSize, len(complete))
		if _, err := in.repo.SavePersonas(ctx, complete[start:end]...); err != nil {
			return stats, fmt.Errorf("failed to save personas: %w", err)
		}
		stats.Saved += end - start
	}

	in.logger.Info("ingestion complete", "total", stats.Total, "saved", stats.Saved,
		"embedded", stats.Embedded, "cluster_embedded", stats.ClusterEmbedded, "skipped", stats.Skipped)
	return stats, nil
}

// batch splits personas into jobs of at most BatchSize texts.
func (in *Ingester) batch(personas []*core.Persona, embedder ai.Embedder, field func(*core.Persona) (string, *[]float32)) []embedJob {
	var jobs []embedJob
	for start := 0; start < len(personas); start += in.config.BatchSize {
		end := min(start+in.config.BatchSize, len(personas))
		job := embedJob{
			embedder: embedder,
			texts:    make([]string, 0, end-start),
			targets:  make([]*[]float32, 0, end-start),
		}
		for _, p := range personas[start:end] {
			text, target := field(p)
			job.texts = append(job.texts, text)
			job.targets = append(job.targets, target)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// embed runs jobs on the worker pool and stops at the first failure.
func (in *Ingester) embed(ctx context.Context, jobs []embedJob, tracker *ProgressTracker) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			done := make(chan error, 1)
			if err := in.pool.Submit(func() {
				done <- in.embedBatch(gctx, job)
			}); err != nil {
				return err
			}
			if err := <-done; err != nil {
				return err
			}
			tracker.Add(len(job.texts))
			return nil
		})
	}
	return g.Wait()
}

func (in *Ingester) embedBatch(ctx context.Context, job embedJob) error {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = job.embedder.EmbedTexts(ctx, job.texts)
		return err
	}, in.config.MaxRetries, in.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", in.config.MaxRetries, err)
	}
	if len(vectors) != len(job.texts) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(job.texts), len(vectors))
	}

	for i, v := range vectors {
		*job.targets[i] = v
	}
	return nil
}

// usableVector returns the unit-length version of v, or nil when v is
// empty or has no finite non-zero component.
func usableVector(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	n := core.NormalizeVector(v)
	for _, x := range n {
		if x != 0 {
			return n
		}
	}
	return nil
}
