package ingest

import (
	"runtime"
	"time"
)

// Config holds configuration for an ingestion run.
type Config struct {
	// BatchSize is the number of texts sent to the embedder per call
	BatchSize int

	// ReportInterval is how often to report progress (number of texts)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// PoolSize is the number of batches embedded concurrently
	PoolSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 25,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		PoolSize:       max(1, runtime.NumCPU()/2),
	}
}

// normalize fills zero values with defaults.
func (c *Config) normalize() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.BatchSize <= 0 {
		out.BatchSize = d.BatchSize
	}
	if out.ReportInterval <= 0 {
		out.ReportInterval = d.ReportInterval
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = d.MaxRetries
	}
	if out.RetryDelay < 0 {
		out.RetryDelay = 0
	}
	if out.PoolSize <= 0 {
		out.PoolSize = d.PoolSize
	}
	return &out
}
