package embed

import (
	"context"

	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/progress"
)

// WithProgress embeds texts in fixed-size batches, reporting progress
// through sink after each batch. A nil sink disables reporting.
func WithProgress(ctx context.Context, provider Provider, texts []string, mode Mode, batchSize int, sink progress.Sink) ([][]float32, error) {
	total := len(texts)
	if total == 0 {
		return [][]float32{}, nil
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	results := make([][]float32, total)
	numBatches := (total + batchSize - 1) / batchSize
	processed := 0

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.Cancelled, "embed.batched", ctx.Err())
		default:
		}

		start := batchIdx * batchSize
		end := start + batchSize
		if end > total {
			end = total
		}

		vecs, err := provider.Embed(ctx, texts[start:end], mode)
		if err != nil {
			return nil, err
		}
		copy(results[start:end], vecs)

		processed += end - start
		if sink != nil {
			sink.Report(progress.Report{
				Fraction:  float64(processed) / float64(total),
				Message:   "embedding",
				Processed: processed,
				Total:     total,
			})
		}
	}
	return results, nil
}
