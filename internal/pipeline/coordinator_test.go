package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castindex/indexer/internal/embed"
	"github.com/castindex/indexer/internal/parse"
	"github.com/castindex/indexer/internal/store/sqlite"
)

func openCoordinatorDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func writeGoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestCoordinatorRunIndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")
	writeGoFile(t, root, "util.go", "package main\n\nfunc helper() int {\n\treturn 1\n}\n")

	db := openCoordinatorDB(t)
	provider := embed.NewMockProvider(8)
	cfg := DefaultConfig()
	cfg.ParseWorkers = 1
	cfg.EmbedWorkers = 1
	cfg.StoreWorkers = 1

	c := New(root, nil, nil, db, parse.NewRegistry(), provider, nil, cfg)
	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.FilesAttempted)
	assert.Equal(t, 2, result.FilesProcessed)
	assert.Zero(t, result.FilesFailed)
	assert.Greater(t, result.ChunksAttempted, 0)
	assert.Equal(t, result.ChunksAttempted, result.ChunksStored)
}

func TestCoordinatorRunWithNoFilesReturnsNoFilesStatus(t *testing.T) {
	root := t.TempDir()
	db := openCoordinatorDB(t)
	c := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, DefaultConfig())

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoFiles, result.Status)
}

func TestCoordinatorSecondRunSkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	db := openCoordinatorDB(t)
	cfg := DefaultConfig()
	cfg.ParseWorkers, cfg.EmbedWorkers, cfg.StoreWorkers = 1, 1, 1

	c1 := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, cfg)
	_, err := c1.Run(context.Background())
	require.NoError(t, err)

	c2 := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, cfg)
	result, err := c2.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Zero(t, result.FilesAttempted)
}
