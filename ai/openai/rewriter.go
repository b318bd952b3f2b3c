package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/cohort/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Rewriter implements ai.Rewriter using OpenAI-compatible chat APIs.
type Rewriter struct {
	client llms.Model
	logger *slog.Logger
}

func newRewriter(config *ai.Config) (*Rewriter, error) {
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

	return &Rewriter{
		client: client,
		logger: slog.Default().With("component", "openai-rewriter"),
	}, nil
}

// NewRewriter creates a new query rewriter using the provided configuration.
func NewRewriter(config *ai.Config) (ai.Rewriter, error) {
	return newRewriter(config)
}

// RewriteQuery rewrites a product description into a persona-style summary.
// An empty model answer falls back to the original description.
func (r *Rewriter) RewriteQuery(ctx context.Context, productDescription string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, rewriteSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, productDescription),
	}

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.4))
	if err != nil {
		r.logger.Error("failed to rewrite query", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return productDescription, nil
	}

	rewritten := strings.TrimSpace(response.Choices[0].Content)
	if rewritten == "" {
		return productDescription, nil
	}
	return rewritten, nil
}
