// Package batch groups chunks into provider-compliant batches, bounding
// both estimated token count and document count per batch.
package batch

import (
	"github.com/castindex/indexer/internal/cast"
	"github.com/castindex/indexer/internal/chunk"
)

// MaxChunksPerBatch is the global hard cap regardless of provider limits.
const MaxChunksPerBatch = 300

// defaultFixedSize is used when no provider limits are published.
const defaultFixedSize = 20

// Limits describes the provider's advertised batching limits. A zero value
// for either field means "not published".
type Limits struct {
	MaxTokensPerBatch    int
	MaxDocumentsPerBatch int
}

// Pack greedily groups chunks into batches such that each batch's
// estimated token total stays within 80% of limits.MaxTokensPerBatch and
// its size stays within limits.MaxDocumentsPerBatch and MaxChunksPerBatch.
// A single chunk that alone exceeds the safe token limit is still placed
// in a batch of its own (design's open question: further splitting is
// delegated to the cAST engine upstream, not handled here).
func Pack(chunks []chunk.Chunk, limits Limits) [][]chunk.Chunk {
	if limits.MaxTokensPerBatch <= 0 && limits.MaxDocumentsPerBatch <= 0 {
		return fixedSize(chunks, defaultFixedSize)
	}

	safeTokenLimit := 0
	if limits.MaxTokensPerBatch > 0 {
		safeTokenLimit = int(float64(limits.MaxTokensPerBatch) * 0.8)
	}

	docCap := limits.MaxDocumentsPerBatch
	if docCap <= 0 || docCap > MaxChunksPerBatch {
		docCap = MaxChunksPerBatch
	}

	var batches [][]chunk.Chunk
	var current []chunk.Chunk
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
	}

	for _, c := range chunks {
		tokens := cast.EstimatedTokens(c.Code)

		wouldExceedTokens := safeTokenLimit > 0 && len(current) > 0 && currentTokens+tokens > safeTokenLimit
		wouldExceedCount := len(current)+1 > docCap

		if wouldExceedTokens || wouldExceedCount {
			flush()
		}

		current = append(current, c)
		currentTokens += tokens
	}
	flush()

	return batches
}

func fixedSize(chunks []chunk.Chunk, size int) [][]chunk.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	var batches [][]chunk.Chunk
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[i:end])
	}
	return batches
}

// TotalTokens returns the sum of estimated tokens across a batch.
func TotalTokens(batch []chunk.Chunk) int {
	total := 0
	for _, c := range batch {
		total += cast.EstimatedTokens(c.Code)
	}
	return total
}
