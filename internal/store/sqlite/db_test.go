package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertFileThenGetByPath(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.UpsertFile(ctx, store.FileRecord{Path: "a/b.go", Language: "go", SizeBytes: 10, ContentHash: "h1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := db.GetFileByPath(ctx, "a/b.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "go", got.Language)
	assert.Equal(t, "h1", got.ContentHash)

	// Upsert again with a new hash, same path: must update, not duplicate.
	id2, err := db.UpsertFile(ctx, store.FileRecord{Path: "a/b.go", Language: "go", SizeBytes: 20, ContentHash: "h2"})
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	got, err = db.GetFileByPath(ctx, "a/b.go")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.ContentHash)
}

func TestGetFileByPathMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetFileByPath(context.Background(), "nope.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertChunksBatchAssignsIDsAndRoundTrips(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fileID, err := db.UpsertFile(ctx, store.FileRecord{Path: "x.go", Language: "go", ContentHash: "h"})
	require.NoError(t, err)

	c1, err := chunk.New(chunk.Chunk{Symbol: "Foo", StartLine: 1, EndLine: 3, Code: "func Foo() {}", ChunkType: chunk.TypeFunction, FileID: fileID, Language: "go"})
	require.NoError(t, err)
	c2, err := chunk.New(chunk.Chunk{Symbol: "Bar", StartLine: 5, EndLine: 7, Code: "func Bar() {}", ChunkType: chunk.TypeFunction, FileID: fileID, Language: "go"})
	require.NoError(t, err)

	ids, err := db.InsertChunksBatch(ctx, []chunk.Chunk{c1, c2})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])

	fetched, err := db.GetChunksByFilePath(ctx, "x.go")
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, "Foo", fetched[0].Symbol)
	assert.Equal(t, "Bar", fetched[1].Symbol)
}

func TestFilterExistingEmbeddingsAndDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fileID, err := db.UpsertFile(ctx, store.FileRecord{Path: "y.go", Language: "go", ContentHash: "h"})
	require.NoError(t, err)
	c, err := chunk.New(chunk.Chunk{StartLine: 1, EndLine: 1, Code: "x", FileID: fileID, Language: "go"})
	require.NoError(t, err)
	ids, err := db.InsertChunksBatch(ctx, []chunk.Chunk{c})
	require.NoError(t, err)

	existing, err := db.FilterExistingEmbeddings(ctx, ids, "mock", "v1")
	require.NoError(t, err)
	assert.Empty(t, existing)

	err = db.InsertEmbeddingsBatch(ctx,
		[]store.EmbeddingRow{{ChunkID: ids[0], Embedding: []float32{1, 2, 3}, Provider: "mock", Model: "v1"}},
		map[string]chunk.EmbeddingStatus{ids[0]: chunk.StatusSuccess})
	require.NoError(t, err)

	existing, err = db.FilterExistingEmbeddings(ctx, ids, "mock", "v1")
	require.NoError(t, err)
	assert.Equal(t, ids, existing)

	err = db.DeleteEmbeddingsForChunks(ctx, ids, "mock", "v1")
	require.NoError(t, err)

	existing, err = db.FilterExistingEmbeddings(ctx, ids, "mock", "v1")
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestClearAllData(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertFile(ctx, store.FileRecord{Path: "z.go", Language: "go", ContentHash: "h"})
	require.NoError(t, err)

	require.NoError(t, db.ClearAllData(ctx))

	got, err := db.GetFileByPath(ctx, "z.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}
