// Copyright 2025 Lamplight AI
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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/lamplight-ai/paperchat"
	"github.com/lamplight-ai/paperchat/chat"
	"github.com/lamplight-ai/paperchat/chunker"
	"github.com/lamplight-ai/paperchat/config"
	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/ingestion"
	"github.com/lamplight-ai/paperchat/reembed"
	"github.com/lamplight-ai/paperchat/search"
	"github.com/lamplight-ai/paperchat/server"
)

func main() {
	app := &cli.App{
		Name:  "paperchat",
		Usage: "Ask questions about your PDF documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "paperchat.yaml",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a PDF or text file into the document store",
				ArgsUsage: "<file>...",
				Action:    ingestCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question about the ingested documents",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the source chunks used as context",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Interactive question-answering session",
				Action: chatCommand,
			},
			{
				Name:   "list",
				Usage:  "List ingested documents",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its chunks",
				ArgsUsage: "<document-id>",
				Action:    deleteCommand,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openLibrary loads the config and opens the document store it names.
func openLibrary(ctx context.Context, c *cli.Context) (*paperchat.Library, *config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts := []paperchat.LibraryOption{
		paperchat.WithAIConfig(cfg.AI.ProviderConfig()),
	}
	if cfg.Storage.InMemory {
		opts = append(opts, paperchat.WithInMemory())
	}

	library, err := paperchat.Open(ctx, cfg.Storage.Path, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document store: %w", err)
	}

	return library, cfg, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file argument is required")
	}

	ctx := context.Background()

	library, cfg, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	splitter, err := chunker.New(slog.Default(),
		chunker.WithChunkSize(cfg.Chunker.Size),
		chunker.WithOverlap(cfg.Chunker.Overlap),
		chunker.WithMaxChunks(cfg.Chunker.MaxChunks),
	)
	if err != nil {
		return fmt.Errorf("invalid chunker configuration: %w", err)
	}

	pipeline, err := library.NewIngestionPipeline(ingestion.WithChunker(splitter))
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := filepath.Base(path)
		result, err := pipeline.Ingest(ctx, name, data, &ingestion.IngestOptions{
			Metadata: map[string]string{"file_path": path},
			Progress: func(completed, total int) {
				fmt.Fprintf(os.Stderr, "\rEmbedding %s: %d/%d chunks", name, completed, total)
			},
		})
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintln(os.Stderr)

		if result.Deduplicated {
			fmt.Printf("%s: already ingested as document %d\n", name, result.Document.Id)
			continue
		}
		fmt.Printf("%s: document %d, %d pages, %d chunks in %v\n",
			name, result.Document.Id, result.Document.PageCount,
			result.Document.ChunkCount, result.Duration.Round(time.Millisecond))
	}

	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question argument is required")
	}

	ctx := context.Background()

	library, cfg, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	session, err := newSession(library, cfg)
	if err != nil {
		return err
	}

	answer, err := session.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(answer.Text)

	if c.Bool("sources") {
		printSources(answer.Sources)
	}

	return nil
}

func chatCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	library, cfg, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	session, err := newSession(library, cfg)
	if err != nil {
		return err
	}

	fmt.Println("Ask questions about your documents. /clear resets the conversation, /quit exits.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "/quit" || question == "/exit" {
			break
		}
		if question == "/clear" {
			session.Clear()
			fmt.Println("Conversation cleared.")
			continue
		}

		answer, err := session.Ask(ctx, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(answer.Text)
		fmt.Println()
	}

	return scanner.Err()
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	library, _, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	docs, err := library.DocumentRepository().ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%d pages\t%d chunks\t%s\n",
			doc.Id, doc.Name, doc.PageCount, doc.ChunkCount,
			doc.InsertedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document-id argument is required")
	}

	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", c.Args().First(), err)
	}

	ctx := context.Background()

	library, _, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	deleted, err := library.DeleteDocument(ctx, core.ID(id))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("Deleted document %d (%d chunks)\n", id, deleted)
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	library, cfg, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	addr := cfg.Server.Addr
	if c.String("addr") != "" {
		addr = c.String("addr")
	}

	srv, err := server.New(library, addr, server.WithUploadLimit(cfg.Server.UploadLimit))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	library, cfg, err := openLibrary(ctx, c)
	if err != nil {
		return err
	}
	defer library.Close()

	reembedder := reembed.NewReembedder(
		library.ChunkRepository(),
		library.Provider().Embedder(),
		library.VectorIndex(),
		reembedConfig,
		os.Stderr,
	)

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func newSession(library *paperchat.Library, cfg *config.AppConfig) (*chat.Session, error) {
	searcher, err := library.NewSearcher(
		search.WithMinSimilarity(cfg.Retrieval.MinSimilarity),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	session, err := chat.NewSession(searcher, library.Provider(),
		chat.WithMaxHits(cfg.Retrieval.TopK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func printSources(sources []*core.SearchResult) {
	if len(sources) == 0 {
		fmt.Println("\n(no document context used)")
		return
	}

	fmt.Println("\nSources:")
	for i, source := range sources {
		fmt.Printf("  [%d] score %.3f, document %d: %s\n",
			i+1, source.Score, source.Chunk.DocumentId, snippet(source.Chunk.Contents, 80))
	}
}

// snippet shortens text to at most n runes for display.
func snippet(text string, n int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}

func setup(c *cli.Context) error {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	return setupLogger(c)
}

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
