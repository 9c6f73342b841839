package pipeline

import (
	"context"
	"fmt"

	"github.com/castindex/indexer/internal/batch"
	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/embed"
	"github.com/castindex/indexer/internal/errs"
)

// runEmbedWorker buffers chunks from in until embedBatchSize chunks have
// accumulated or the channel closes, packs the buffer through the
// token-aware batcher, embeds each resulting batch, and forwards one
// embedResult per input chunk to out.
func (c *Coordinator) runEmbedWorker(ctx context.Context, in <-chan chunk.Chunk, out chan<- embedResult) {
	var buf []chunk.Chunk
	flush := func() {
		if len(buf) == 0 {
			return
		}
		c.embedBuffer(ctx, buf, out)
		buf = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case ch, ok := <-in:
			if !ok {
				flush()
				return
			}
			buf = append(buf, ch)
			if len(buf) >= c.cfg.EmbedBatchSize {
				flush()
			}
		}
	}
}

func (c *Coordinator) embedBuffer(ctx context.Context, chunks []chunk.Chunk, out chan<- embedResult) {
	limits := batch.Limits{}
	if c.provider != nil {
		l := c.provider.Limits()
		limits = batch.Limits{MaxTokensPerBatch: l.MaxTokensPerBatch, MaxDocumentsPerBatch: l.MaxDocumentsPerBatch}
	}
	batches := batch.Pack(chunks, limits)

	for _, b := range batches {
		c.embedOneBatch(ctx, b, out)
	}
}

func (c *Coordinator) embedOneBatch(ctx context.Context, b []chunk.Chunk, out chan<- embedResult) {
	addInt64(&c.counters.chunksAttempted, int64(len(b)))

	if c.provider == nil {
		for _, ch := range b {
			c.emit(ctx, out, embedResult{Chunk: ch, Status: chunk.StatusPermanentFailure, Err: fmt.Errorf("no embedding provider configured")})
		}
		addInt64(&c.counters.chunksPermanentFailure, int64(len(b)))
		return
	}

	texts := make([]string, len(b))
	for i, ch := range b {
		texts[i] = ch.Code
	}

	vecs, err := c.provider.Embed(ctx, texts, embed.ModePassage)
	if err != nil {
		status := chunk.StatusFailed
		if errs.IsPermanent(err) {
			status = chunk.StatusPermanentFailure
			addInt64(&c.counters.chunksPermanentFailure, int64(len(b)))
		} else {
			addInt64(&c.counters.chunksFailed, int64(len(b)))
		}
		c.recordErr(err)
		for _, ch := range b {
			c.emit(ctx, out, embedResult{Chunk: ch, Status: status, Err: err})
		}
		return
	}

	if len(vecs) != len(b) {
		err := errs.Newf(errs.Permanent, "embedworker", "provider returned %d embeddings for %d chunks", len(vecs), len(b))
		c.recordErr(err)
		addInt64(&c.counters.chunksPermanentFailure, int64(len(b)))
		for _, ch := range b {
			c.emit(ctx, out, embedResult{Chunk: ch, Status: chunk.StatusPermanentFailure, Err: err})
		}
		return
	}

	for i, ch := range b {
		c.emit(ctx, out, embedResult{
			Chunk:     ch,
			Embedding: vecs[i],
			Provider:  c.provider.Name(),
			Model:     c.provider.Model(),
			Status:    chunk.StatusSuccess,
		})
	}
}

func (c *Coordinator) emit(ctx context.Context, out chan<- embedResult, r embedResult) {
	select {
	case <-ctx.Done():
	case out <- r:
	}
}
