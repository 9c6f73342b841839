package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/discover"
	"github.com/castindex/indexer/internal/embed"
	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/lang"
	"github.com/castindex/indexer/internal/parse"
	"github.com/castindex/indexer/internal/progress"
	"github.com/castindex/indexer/internal/store"
)

// Coordinator drives one end-to-end indexing run: discover files, detect
// changes against the store, and fan work through the parse, embed, and
// store worker pools.
type Coordinator struct {
	root    string
	include []string
	ignore  []string

	db       store.Database
	parsers  *parse.Registry
	fallback parse.LanguageParser
	provider embed.Provider
	sink     progress.Sink

	cfg Config

	locks    *fileLockRegistry
	counters *counters
}

// New constructs a Coordinator. provider may be nil, in which case every
// chunk is recorded as a permanent embedding failure but still persisted
// (design's "embeddings are best-effort, chunk rows are not" rule).
func New(root string, include, ignore []string, db store.Database, parsers *parse.Registry, provider embed.Provider, sink progress.Sink, cfg Config) *Coordinator {
	if sink == nil {
		sink = progress.NoOp{}
	}
	return &Coordinator{
		root:     root,
		include:  include,
		ignore:   ignore,
		db:       db,
		parsers:  parsers,
		fallback: parse.NewFallbackParser(),
		provider: provider,
		sink:     sink,
		cfg:      cfg,
		locks:    newFileLockRegistry(),
		counters: newCounters(),
	}
}

func (c *Coordinator) recordErr(err error) {
	if err == nil {
		return
	}
	c.counters.recordError(string(errs.KindOf(err)), err.Error())
}

// Run executes discovery, change detection, and the three worker pools to
// completion, returning a summary of what happened. A cancelled ctx stops
// change detection and the workers promptly. Once the workers have
// started, the result carries StatusCancelled; a cancellation during
// change detection is returned as an error instead.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	d, err := discover.New(c.root, c.include, c.ignore)
	if err != nil {
		return nil, errs.New(errs.Validation, "coordinator.Run", err)
	}

	files, err := d.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r := c.counters.toResult(StatusNoFiles, time.Since(start))
		return &r, nil
	}

	changes, err := discover.Detect(ctx, c.root, files, c.db)
	if err != nil {
		return nil, err
	}

	tasks := c.buildTasks(changes)
	addInt64(&c.counters.filesAttempted, int64(len(tasks)))
	if len(tasks) == 0 {
		r := c.counters.toResult(StatusSuccess, time.Since(start))
		return &r, nil
	}

	filesCh := make(chan fileTask, c.cfg.FilesQueueSize)
	chunksCh := make(chan chunk.Chunk, c.cfg.ChunksQueueSize)
	embedCh := make(chan embedResult, c.cfg.EmbedChunksQueueSize)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(filesCh)
		for i, t := range tasks {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case filesCh <- t:
			}
			c.sink.Report(progress.Report{
				Fraction:  float64(i+1) / float64(len(tasks)),
				Message:   "discovering",
				Processed: i + 1,
				Total:     len(tasks),
			})
		}
		return nil
	})

	var parseWG sync.WaitGroup
	for i := 0; i < maxInt(c.cfg.ParseWorkers, 1); i++ {
		parseWG.Add(1)
		g.Go(func() error {
			defer parseWG.Done()
			c.runParseWorker(gctx, filesCh, chunksCh)
			return nil
		})
	}
	go func() {
		parseWG.Wait()
		close(chunksCh)
	}()

	var embedWG sync.WaitGroup
	for i := 0; i < maxInt(c.cfg.EmbedWorkers, 1); i++ {
		embedWG.Add(1)
		g.Go(func() error {
			defer embedWG.Done()
			c.runEmbedWorker(gctx, chunksCh, embedCh)
			return nil
		})
	}
	go func() {
		embedWG.Wait()
		close(embedCh)
	}()

	var storeWG sync.WaitGroup
	for i := 0; i < maxInt(c.cfg.StoreWorkers, 1); i++ {
		storeWG.Add(1)
		g.Go(func() error {
			defer storeWG.Done()
			c.runStoreWorker(gctx, embedCh)
			return nil
		})
	}

	runErr := g.Wait()

	status := StatusSuccess
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errs.KindOf(runErr) == errs.Cancelled {
			status = StatusCancelled
		} else {
			status = StatusErrored
		}
	}
	if status == StatusSuccess && ctx.Err() != nil {
		status = StatusCancelled
	}

	r := c.counters.toResult(status, time.Since(start))
	return &r, nil
}

// buildTasks resolves a language for every Added and Modified path via the
// lang registry's extension table, skipping anything unrecognized.
func (c *Coordinator) buildTasks(cs *discover.ChangeSet) []fileTask {
	var tasks []fileTask
	for _, rel := range append(append([]string{}, cs.Added...), cs.Modified...) {
		language := lang.ForExtension(filepath.Ext(rel))
		if language == "" {
			continue
		}
		tasks = append(tasks, fileTask{
			AbsPath:  filepath.Join(c.root, rel),
			RelPath:  rel,
			Language: language,
		})
	}
	return tasks
}
