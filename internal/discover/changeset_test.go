package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castindex/indexer/internal/store"
	"github.com/castindex/indexer/internal/store/sqlite"
)

func openDB(t *testing.T) store.Database {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDetectClassifiesAddedModifiedUnchanged(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	db := openDB(t)

	unchangedPath := filepath.Join(root, "unchanged.go")
	require.NoError(t, os.WriteFile(unchangedPath, []byte("package a"), 0o644))
	modifiedPath := filepath.Join(root, "modified.go")
	require.NoError(t, os.WriteFile(modifiedPath, []byte("package b // old"), 0o644))
	addedPath := filepath.Join(root, "added.go")
	require.NoError(t, os.WriteFile(addedPath, []byte("package c"), 0o644))

	unchangedInfo, err := os.Stat(unchangedPath)
	require.NoError(t, err)
	_, err = db.UpsertFile(ctx, store.FileRecord{
		Path: "unchanged.go", Mtime: unchangedInfo.ModTime(), Language: "go",
		ContentHash: mustHashFile(t, unchangedPath),
	})
	require.NoError(t, err)

	modifiedInfo, err := os.Stat(modifiedPath)
	require.NoError(t, err)
	_, err = db.UpsertFile(ctx, store.FileRecord{
		Path: "modified.go", Mtime: modifiedInfo.ModTime().Add(-time.Hour), Language: "go",
		ContentHash: "stale-hash",
	})
	require.NoError(t, err)

	cs, err := Detect(ctx, root, []string{unchangedPath, modifiedPath, addedPath}, db)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"added.go"}, cs.Added)
	assert.ElementsMatch(t, []string{"modified.go"}, cs.Modified)
	assert.ElementsMatch(t, []string{"unchanged.go"}, cs.Unchanged)
	assert.Empty(t, cs.Deleted)
}

func mustHashFile(t *testing.T, path string) string {
	t.Helper()
	h, err := hashFile(path)
	require.NoError(t, err)
	return h
}
