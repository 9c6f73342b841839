package pipeline

import (
	"github.com/castindex/indexer/internal/chunk"
)

// fileTask is one discovered file awaiting parse, identified by both its
// absolute path (for locking and I/O) and its store-relative path.
type fileTask struct {
	AbsPath  string
	RelPath  string
	Language string
}

// embedResult is one chunk's outcome after the embed stage: either an
// embedding vector with a success status, or a failure status with no
// vector. Both shapes still flow to the store worker, since the chunk row
// itself is persisted regardless of embedding outcome.
type embedResult struct {
	Chunk     chunk.Chunk
	Embedding []float32
	Provider  string
	Model     string
	Status    chunk.EmbeddingStatus
	Err       error
}
