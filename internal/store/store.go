// Package store defines the database contract: a batch-only interface
// over files and their chunks, with no single-item mutation operations,
// collapsed to one interface the pipeline's store worker drives
// directly.
package store

import (
	"context"
	"time"

	"github.com/castindex/indexer/internal/chunk"
)

// FileRecord is the persisted row shape of a discovered file.
type FileRecord struct {
	ID          string
	Path        string
	Mtime       time.Time
	Language    string
	SizeBytes   int64
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmbeddingRow is one embedding to persist alongside the status it was
// produced with.
type EmbeddingRow struct {
	ChunkID   string
	Embedding []float32
	Provider  string
	Model     string
}

// Database is the batch-only storage contract every pipeline store worker
// drives. Implementations must be safe for concurrent use: the pipeline's
// workers call them without any lock of their own.
type Database interface {
	Initialize(ctx context.Context) error

	UpsertFile(ctx context.Context, f FileRecord) (string, error)
	GetFileByPath(ctx context.Context, path string) (*FileRecord, error)

	GetChunksByFilePath(ctx context.Context, path string) ([]chunk.Chunk, error)
	GetChunksByIDs(ctx context.Context, ids []string) ([]chunk.Chunk, error)

	// InsertChunksBatch returns one ID per input chunk, in order.
	InsertChunksBatch(ctx context.Context, chunks []chunk.Chunk) ([]string, error)

	// InsertEmbeddingsBatch upserts embedding rows together with a
	// per-chunk status. statuses may also name chunks that have no row
	// in rows, such as chunks whose embedding failed.
	InsertEmbeddingsBatch(ctx context.Context, rows []EmbeddingRow, statuses map[string]chunk.EmbeddingStatus) error

	FilterExistingEmbeddings(ctx context.Context, chunkIDs []string, provider, model string) ([]string, error)
	DeleteEmbeddingsForChunks(ctx context.Context, chunkIDs []string, provider, model string) error

	OptimizeTables(ctx context.Context) error
	ClearAllData(ctx context.Context) error

	Close() error
}
