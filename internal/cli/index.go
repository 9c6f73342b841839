package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/castindex/indexer/internal/breaker"
	"github.com/castindex/indexer/internal/config"
	"github.com/castindex/indexer/internal/embed"
	"github.com/castindex/indexer/internal/parse"
	"github.com/castindex/indexer/internal/parse/treesitter"
	"github.com/castindex/indexer/internal/pipeline"
	"github.com/castindex/indexer/internal/processor"
	"github.com/castindex/indexer/internal/progress"
	"github.com/castindex/indexer/internal/store/sqlite"
)

var (
	quietFlag      bool
	sequentialFlag bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the codebase for semantic search",
	Long: `Index discovers source files under the current directory, parses them into
semantic chunks, generates embeddings, and stores the result in a local
sqlite database. Re-running index only reprocesses files that changed
since the last run.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "disable the progress bar")
	indexCmd.Flags().BoolVar(&sequentialFlag, "sequential", false, "process files in adaptively-sized sequential batches instead of the concurrent pipeline")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\ninterrupted, finishing in-flight work and stopping...")
		cancel()
	}()
	defer signal.Stop(sigChan)

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbPath := filepath.Join(rootDir, cfg.Storage.DatabasePath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	provider, err := newEmbeddingProvider(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	resilientProvider := embed.NewResilient(provider, breaker.New(), breaker.NewRateLimiter(0))

	var sink progress.Sink = progress.NoOp{}
	if !quietFlag {
		sink = progress.NewConsole()
	}

	registry := parse.NewRegistry()
	treesitter.RegisterDefaults(registry)

	pcfg := pipeline.DefaultConfig()
	pcfg.ParseWorkers = cfg.Pipeline.ParseWorkers
	pcfg.EmbedWorkers = cfg.Pipeline.EmbedWorkers
	pcfg.StoreWorkers = cfg.Pipeline.StoreWorkers
	pcfg.EmbedBatchSize = cfg.Pipeline.EmbedBatchSize
	pcfg.DatabaseBatchSize = cfg.Pipeline.DatabaseBatchSize
	pcfg.OptimizeEvery = cfg.Pipeline.OptimizeEvery

	coordinator := pipeline.New(rootDir, cfg.Paths.Include, cfg.Paths.Ignore, db, registry, resilientProvider, sink, pcfg)

	var result *pipeline.Result
	if sequentialFlag {
		result, err = coordinator.RunSequential(ctx, processor.DefaultConfig())
	} else {
		result, err = coordinator.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("files: %d attempted, %d processed, %d failed\n", result.FilesAttempted, result.FilesProcessed, result.FilesFailed)
	fmt.Printf("chunks: %d attempted, %d stored, %d failed, %d permanently failed\n",
		result.ChunksAttempted, result.ChunksStored, result.ChunksFailed, result.ChunksPermanentFailure)
	for _, sample := range result.Errors {
		fmt.Printf("  %s x%d: %s\n", sample.Kind, sample.Count, firstOrEmpty(sample.Messages))
	}

	return nil
}

func newEmbeddingProvider(cfg config.EmbeddingConfig) (embed.Provider, error) {
	switch cfg.Provider {
	case "http":
		return embed.NewHTTPProvider(cfg.Endpoint, cfg.Model, cfg.Dimensions), nil
	case "mock", "":
		return embed.NewMockProvider(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func firstOrEmpty(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[0]
}
