package pipeline

import (
	"context"
	"time"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/store"
)

// runStoreWorker buffers embedResults from in until databaseBatchSize items
// accumulate or the channel closes, then persists the buffer as chunk rows
// followed by embedding rows, retrying transient write failures with
// backoff. A non-cancellable final flush runs on shutdown so work already
// pulled off the channel is never silently dropped.
func (c *Coordinator) runStoreWorker(ctx context.Context, in <-chan embedResult) {
	var buf []embedResult
	flushed := 0

	flush := func(flushCtx context.Context) {
		if len(buf) == 0 {
			return
		}
		c.storeBuffer(flushCtx, buf)
		flushed++
		if c.cfg.OptimizeEvery > 0 && flushed%c.cfg.OptimizeEvery == 0 {
			if err := c.db.OptimizeTables(flushCtx); err != nil {
				c.recordErr(err)
			}
		}
		buf = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush(context.Background())
			return
		case r, ok := <-in:
			if !ok {
				flush(context.Background())
				return
			}
			buf = append(buf, r)
			if len(buf) >= c.cfg.DatabaseBatchSize {
				flush(ctx)
			}
		}
	}
}

func (c *Coordinator) storeBuffer(ctx context.Context, buf []embedResult) {
	chunks := make([]chunk.Chunk, len(buf))
	for i, r := range buf {
		chunks[i] = r.Chunk
	}

	err := c.withRetry(ctx, "store.InsertChunksBatch", func() error {
		ids, insertErr := c.db.InsertChunksBatch(ctx, chunks)
		if insertErr != nil {
			return insertErr
		}
		for i, id := range ids {
			chunks[i].ID = id
		}
		return nil
	})
	if err != nil {
		c.recordErr(err)
		addInt64(&c.counters.chunksFailed, int64(len(buf)))
		return
	}

	rows := make([]store.EmbeddingRow, 0, len(buf))
	statuses := make(map[string]chunk.EmbeddingStatus, len(buf))
	for i, r := range buf {
		id := chunks[i].ID
		statuses[id] = r.Status
		if r.Status == chunk.StatusSuccess {
			rows = append(rows, store.EmbeddingRow{
				ChunkID:   id,
				Embedding: r.Embedding,
				Provider:  r.Provider,
				Model:     r.Model,
			})
		}
	}

	err = c.withRetry(ctx, "store.InsertEmbeddingsBatch", func() error {
		return c.db.InsertEmbeddingsBatch(ctx, rows, statuses)
	})
	if err != nil {
		c.recordErr(err)
		addInt64(&c.counters.chunksFailed, int64(len(buf)))
		return
	}

	addInt64(&c.counters.chunksStored, int64(len(rows)))
}

// withRetry runs fn up to c.cfg.MaxRetries times, doubling the delay
// between attempts from RetryInitialDelay up to RetryMaxDelay, and stops
// early on a non-transient error.
func (c *Coordinator) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := c.cfg.RetryInitialDelay
	var lastErr error
	for attempt := 0; attempt < maxInt(c.cfg.MaxRetries, 1); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errs.New(errs.Cancelled, op, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.cfg.RetryMaxDelay {
				delay = c.cfg.RetryMaxDelay
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errs.KindOf(lastErr) != errs.Transient {
			return lastErr
		}
	}
	return lastErr
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
