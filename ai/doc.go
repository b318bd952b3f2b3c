// Package ai provides abstractions for the external AI services used by cohort.
//
// The retrieval-and-clustering engine never generates text itself. It
// consumes three collaborators through the interfaces defined here:
//
//   - Embedder: turns a product description (or persona profile text) into a vector
//   - Tagger: labels each customer segment with short descriptive tags
//   - Rewriter: rewrites a product description into a persona-style summary
//
// AIProvider aggregates them for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockTagger) return CONCRETE types so tests can inject behavior and
// assert on call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "A lightweight marathon running shoe")
//	tags, err := provider.Tagger().TagClusters(ctx, description, summaries)
package ai
