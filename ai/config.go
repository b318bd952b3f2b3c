package ai

import (
	"errors"
	"strings"
)

// DefaultTagsPerCluster is the number of tags requested for each customer segment.
const DefaultTagsPerCluster = 4

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434/v1"
	EmbeddingHost string

	// ChatHost is the base URL for the chat service used for tagging and query rewriting.
	ChatHost string

	// EmbeddingModel is the model used for retrieval vectors and query embeddings.
	// Example: "text-embedding-3-large"
	EmbeddingModel string

	// ClusterEmbeddingModel is the model used for clustering vectors.
	// Defaults to a smaller model than EmbeddingModel.
	ClusterEmbeddingModel string

	// ChatModel is the model used for tagging and query rewriting.
	// Example: "gpt-4o-mini"
	ChatModel string

	// APIKey is the bearer token sent to both services.
	// Local OpenAI-compatible servers accept any value.
	APIKey string

	// TagsPerCluster is the exact number of tags requested per cluster (1-10).
	// Default: 4
	TagsPerCluster int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both embedding and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

// WithEmbeddingModel sets the retrieval embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithClusterEmbeddingModel sets the clustering embedding model identifier.
func WithClusterEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.ClusterEmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTagsPerCluster sets the number of tags requested per cluster.
func WithTagsPerCluster(n int) ConfigOption {
	return func(c *Config) {
		c.TagsPerCluster = n
	}
}

// DefaultConfig returns a Config with the defaults used against the OpenAI API.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:         defaultHost,
		ChatHost:              defaultHost,
		EmbeddingModel:        "text-embedding-3-large",
		ClusterEmbeddingModel: "text-embedding-3-small",
		ChatModel:             "gpt-4o-mini",
		APIKey:                "none",
		TagsPerCluster:        DefaultTagsPerCluster,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing and falls back to the
// retrieval model when no cluster model is set.
func (c *Config) Normalize() {
	c.EmbeddingHost = withVersionSuffix(c.EmbeddingHost)
	c.ChatHost = withVersionSuffix(c.ChatHost)
	if c.ClusterEmbeddingModel == "" {
		c.ClusterEmbeddingModel = c.EmbeddingModel
	}
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func withVersionSuffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.TagsPerCluster < 1 || c.TagsPerCluster > 10 {
		return errors.New("ai config: TagsPerCluster must be between 1 and 10")
	}
	return nil
}
