package pipeline

import (
	"context"
	"time"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/discover"
	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/processor"
)

// RunSequential is the alternative driver for runs that should not pay for
// dedicated worker pools: discovery and change detection proceed exactly
// as in Run, but the resulting files are handed to the adaptive batch
// processor instead of the three-stage channel pipeline. Each file is
// parsed, embedded, and stored inline within its own processor window.
func (c *Coordinator) RunSequential(ctx context.Context, cfg processor.Config) (*Result, error) {
	start := time.Now()

	d, err := discover.New(c.root, c.include, c.ignore)
	if err != nil {
		return nil, errs.New(errs.Validation, "coordinator.RunSequential", err)
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

	byPath := make(map[string]fileTask, len(tasks))
	paths := make([]string, len(tasks))
	for i, t := range tasks {
		byPath[t.AbsPath] = t
		paths[i] = t.AbsPath
	}

	abort := func(processor.Stats) bool { return ctx.Err() != nil }
	stats := processor.RunWithConfig(ctx, paths, cfg, func(ctx context.Context, absPath string) (processor.Outcome, error) {
		return c.processFileSync(ctx, byPath[absPath])
	}, abort)

	status := StatusSuccess
	if ctx.Err() != nil {
		status = StatusCancelled
	} else if stats.Failed > 0 || stats.Permanent > 0 {
		status = StatusErrored
	}

	r := c.counters.toResult(status, time.Since(start))
	return &r, nil
}

// processFileSync runs one file through parse, embed, and store
// synchronously, mirroring the pipeline stages of Run but without the
// channels: it is the per-file path the design calls for when batching is
// sequential rather than concurrent-by-stage.
func (c *Coordinator) processFileSync(ctx context.Context, task fileTask) (processor.Outcome, error) {
	chunksCh := make(chan chunk.Chunk, 256)
	parseErr := make(chan error, 1)
	go func() {
		parseErr <- c.parseOne(ctx, task, chunksCh)
		close(chunksCh)
	}()

	var produced []chunk.Chunk
	for ch := range chunksCh {
		produced = append(produced, ch)
	}
	if err := <-parseErr; err != nil {
		addInt64(&c.counters.filesFailed, 1)
		c.recordErr(err)
		if errs.IsPermanent(err) {
			return processor.OutcomePermanentFailure, err
		}
		return processor.OutcomeError, err
	}
	addInt64(&c.counters.filesProcessed, 1)

	if len(produced) == 0 {
		return processor.OutcomeSuccess, nil
	}

	embedCh := make(chan embedResult, len(produced))
	c.embedBuffer(ctx, produced, embedCh)
	close(embedCh)

	results := make([]embedResult, 0, len(produced))
	for r := range embedCh {
		results = append(results, r)
	}
	c.storeBuffer(ctx, results)

	for _, r := range results {
		if r.Status == chunk.StatusPermanentFailure {
			return processor.OutcomePermanentFailure, r.Err
		}
	}
	for _, r := range results {
		if r.Status == chunk.StatusFailed {
			return processor.OutcomeError, r.Err
		}
	}
	return processor.OutcomeSuccess, nil
}
