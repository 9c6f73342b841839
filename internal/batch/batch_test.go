package batch

import (
	"strings"
	"testing"

	"github.com/castindex/indexer/internal/cast"
	"github.com/castindex/indexer/internal/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mk(t *testing.T, code string) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(chunk.Chunk{StartLine: 1, EndLine: 1, Code: code})
	require.NoError(t, err)
	return c
}

func TestPackRespectsSafeTokenLimit(t *testing.T) {
	var chunks []chunk.Chunk
	for i := 0; i < 50; i++ {
		chunks = append(chunks, mk(t, strings.Repeat("x", 40)))
	}

	batches := Pack(chunks, Limits{MaxTokensPerBatch: 100, MaxDocumentsPerBatch: 1000})

	require.NotEmpty(t, batches)
	for _, b := range batches {
		assert.LessOrEqual(t, TotalTokens(b), int(0.8*100))
	}
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	assert.Equal(t, 50, total)
}

func TestPackRespectsDocumentCap(t *testing.T) {
	var chunks []chunk.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, mk(t, "x"))
	}
	batches := Pack(chunks, Limits{MaxTokensPerBatch: 1_000_000, MaxDocumentsPerBatch: 3})
	for _, b := range batches {
		assert.LessOrEqual(t, len(b), 3)
	}
}

func TestPackAllowsSingleOversizedChunkAlone(t *testing.T) {
	huge := mk(t, strings.Repeat("x", 1000))
	small := mk(t, "y")
	batches := Pack([]chunk.Chunk{huge, small}, Limits{MaxTokensPerBatch: 100, MaxDocumentsPerBatch: 1000})

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 1)
	assert.Greater(t, cast.EstimatedTokens(batches[0][0].Code), 80)
}

func TestPackFixedSizeWithoutProviderLimits(t *testing.T) {
	var chunks []chunk.Chunk
	for i := 0; i < 45; i++ {
		chunks = append(chunks, mk(t, "x"))
	}
	batches := Pack(chunks, Limits{})
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 20)
	assert.Len(t, batches[1], 20)
	assert.Len(t, batches[2], 5)
}

func TestPackNeverExceedsGlobalChunkCap(t *testing.T) {
	var chunks []chunk.Chunk
	for i := 0; i < 700; i++ {
		chunks = append(chunks, mk(t, "x"))
	}
	batches := Pack(chunks, Limits{MaxTokensPerBatch: 1_000_000_000})
	for _, b := range batches {
		assert.LessOrEqual(t, len(b), MaxChunksPerBatch)
	}
}
