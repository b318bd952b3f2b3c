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


package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/cohort"
	"github.com/poiesic/cohort/ai"
	"github.com/poiesic/cohort/ingest"
	"github.com/poiesic/cohort/server"
	"github.com/poiesic/cohort/storage/jsonfile"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cohort",
		Usage: "Match products to consumer personas and segment the best matches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Embed a JSON persona store and load it into the database",
				Action: ingestCommand,
				Flags: append(append(dbFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Path to the JSON persona store",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts per embedding call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N texts",
						Value: 25,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding batches",
						Value: 5,
					},
				),
			},
			{
				Name:   "export",
				Usage:  "Write every stored persona to a JSON persona store",
				Action: exportCommand,
				Flags: append(append(dbFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path of the JSON file to write",
						Required: true,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "List the personas most similar to a product description",
				ArgsUsage: "<product description>",
				Action:    searchCommand,
				Flags:     append(append(dbFlags(), aiFlags()...), queryFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Segment the personas matching a product description and print the report",
				ArgsUsage: "<product description>",
				Action:    queryCommand,
				Flags:     append(append(dbFlags(), aiFlags()...), queryFlags()...),
			},
			{
				Name:   "serve",
				Usage:  "Serve the analysis API over HTTP",
				Action: serveCommand,
				Flags: append(append(append(dbFlags(), aiFlags()...), queryFlags()...),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8000",
					},
					&cli.StringSliceFlag{
						Name:  "allow-origin",
						Usage: "CORS origin allowed to call the API (repeatable)",
						Value: cli.NewStringSlice(server.DefaultAllowedOrigins...),
					},
				),
			},
		},
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the embedding and chat services",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: defaults.EmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "chat-host",
			Usage: "Chat service host URL",
			Value: defaults.ChatHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model for retrieval vectors and queries",
			Value: defaults.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "cluster-embedding-model",
			Usage: "Embedding model for clustering vectors",
			Value: defaults.ClusterEmbeddingModel,
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model for tagging and query rewriting",
			Value: defaults.ChatModel,
		},
		&cli.IntFlag{
			Name:  "tags-per-cluster",
			Usage: "Number of tags requested per cluster",
			Value: defaults.TagsPerCluster,
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "top-k",
			Aliases: []string{"k"},
			Usage:   "Number of personas retrieved per query",
			Value:   cohort.DefaultTopK,
		},
		&cli.BoolFlag{
			Name:  "rewrite",
			Usage: "Rewrite the description into a persona-style summary before embedding",
		},
		&cli.BoolFlag{
			Name:  "tags",
			Usage: "Tag clusters with the chat model",
			Value: true,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithAPIKey(c.String("api-key")),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithClusterEmbeddingModel(c.String("cluster-embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithTagsPerCluster(c.Int("tags-per-cluster")),
	)
}

func openEngine(c *cli.Context) (*cohort.Engine, error) {
	opts := []cohort.Option{cohort.WithAIConfig(aiConfigFromFlags(c))}
	if c.IsSet("top-k") {
		opts = append(opts, cohort.WithTopK(c.Int("top-k")))
	}
	if c.IsSet("rewrite") {
		opts = append(opts, cohort.WithQueryRewrite(c.Bool("rewrite")))
	}
	if c.IsSet("tags") {
		opts = append(opts, cohort.WithTagging(c.Bool("tags")))
	}

	engine, err := cohort.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func description(c *cli.Context) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("a product description is required")
	}
	return text, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	personas, err := jsonfile.Load(c.String("input"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ingester, err := engine.NewIngester(
		ingest.WithConfig(&ingest.Config{
			BatchSize:      c.Int("batch-size"),
			ReportInterval: c.Int("report-interval"),
			MaxRetries:     c.Int("max-retries"),
			RetryDelay:     c.Duration("retry-delay"),
			PoolSize:       c.Int("workers"),
		}),
		ingest.WithProgress(c.App.ErrWriter),
	)
	if err != nil {
		return err
	}
	defer ingester.Release()

	stats, err := ingester.Run(ctx, personas)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Ingested %d of %d personas (%d retrieval and %d cluster embeddings generated, %d skipped)\n",
		stats.Saved, stats.Total, stats.Embedded, stats.ClusterEmbedded, stats.Skipped)
	return nil
}

func exportCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	personas, err := engine.PersonaRepository().GetAllPersonas(c.Context)
	if err != nil {
		return err
	}
	if err := jsonfile.Save(c.String("output"), personas); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Exported %d personas to %s\n", len(personas), c.String("output"))
	return nil
}

func searchCommand(c *cli.Context) error {
	text, err := description(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Searcher().FindSimilar(c.Context, text, c.Int("top-k"))
	if err != nil {
		return err
	}

	for i, r := range results {
		fmt.Fprintf(c.App.Writer, "%3d. %-20s %.4f\n", i+1, r.Id, r.Score)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	text, err := description(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.Query(c.Context, text)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func serveCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(engine, server.WithAllowedOrigins(c.StringSlice("allow-origin")...))
	return srv.ListenAndServe(ctx, c.String("addr"))
}

// setupLogger configures the default slog logger based on the --log-level flag.
func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
