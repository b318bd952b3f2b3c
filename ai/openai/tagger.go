package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/cohort/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Tagger implements ai.Tagger using OpenAI-compatible chat APIs.
type Tagger struct {
	client         llms.Model
	tagsPerCluster int
	logger         *slog.Logger
}

// clusterTags matches one cluster entry of the model's JSON response.
type clusterTags struct {
	Tags []string `json:"tags"`
}

// tagging is the wrapper structure for the model's JSON response.
type tagging struct {
	Clusters map[string]clusterTags `json:"clusters"`
}

// newTagger is an internal constructor that returns the concrete type.
func newTagger(config *ai.Config) (*Tagger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Tagger{
		client:         client,
		tagsPerCluster: config.TagsPerCluster,
		logger:         slog.Default().With("component", "openai-tagger"),
	}, nil
}

// NewTagger creates a new cluster tagger using the provided configuration.
//
// Returns ai.Tagger interface to enforce abstraction.
func NewTagger(config *ai.Config) (ai.Tagger, error) {
	return newTagger(config)
}

// TagClusters asks the chat model for tags describing each cluster.
func (t *Tagger) TagClusters(ctx context.Context, productDescription string, summaries map[int]map[string]string) (map[int][]string, error) {
	if len(summaries) == 0 {
		return map[int][]string{}, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildTaggingSystemPrompt(t.tagsPerCluster)),
		llms.TextParts(llms.ChatMessageTypeHuman, buildTaggingUserPrompt(productDescription, summaries, t.tagsPerCluster)),
	}

	// Try up to 3 times in case of malformed JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := t.client.GenerateContent(ctx, content, llms.WithJSONMode())
		if err != nil {
			t.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			t.logger.Debug("no choices returned from model")
			return map[int][]string{}, nil
		}

		tags, err := parseTagging(response.Choices[0].Content, t.tagsPerCluster)
		if err != nil {
			lastErr = err
			t.logger.Warn("error parsing tagging response", "attempt", attempt+1, "err", err)
			continue
		}

		t.logger.Debug("tagged clusters", "requested", len(summaries), "tagged", len(tags))
		return tags, nil
	}

	t.logger.Error("failed to parse tagging response after retries", "err", lastErr)
	return nil, lastErr
}

// parseTagging decodes the model's JSON response into tags keyed by cluster id.
// Entries whose key is not an integer are skipped; tag lists are truncated to limit.
func parseTagging(raw string, limit int) (map[int][]string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = repairJSON(strings.TrimSpace(text))

	var result tagging
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("decode tagging response: %w", err)
	}

	out := make(map[int][]string, len(result.Clusters))
	for key, entry := range result.Clusters {
		id, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(key), "cluster")))
		if err != nil {
			continue
		}
		tags := entry.Tags
		if len(tags) > limit {
			tags = tags[:limit]
		}
		out[id] = tags
	}
	return out, nil
}
