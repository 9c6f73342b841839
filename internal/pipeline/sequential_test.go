package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castindex/indexer/internal/embed"
	"github.com/castindex/indexer/internal/parse"
	"github.com/castindex/indexer/internal/processor"
)

func TestCoordinatorRunSequentialIndexesNewFiles(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")
	writeGoFile(t, root, "util.go", "package main\n\nfunc helper() int {\n\treturn 1\n}\n")

	db := openCoordinatorDB(t)
	c := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, DefaultConfig())

	result, err := c.RunSequential(context.Background(), processor.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, result.FilesAttempted)
	assert.Equal(t, 2, result.FilesProcessed)
	assert.Greater(t, result.ChunksAttempted, 0)
	assert.Equal(t, result.ChunksAttempted, result.ChunksStored)
}

func TestCoordinatorRunSequentialWithNoFilesReturnsNoFilesStatus(t *testing.T) {
	root := t.TempDir()
	db := openCoordinatorDB(t)
	c := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, DefaultConfig())

	result, err := c.RunSequential(context.Background(), processor.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusNoFiles, result.Status)
}

func TestCoordinatorRunSequentialSkipsUnchangedFilesOnSecondRun(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	db := openCoordinatorDB(t)
	c1 := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, DefaultConfig())
	_, err := c1.RunSequential(context.Background(), processor.DefaultConfig())
	require.NoError(t, err)

	c2 := New(root, nil, nil, db, parse.NewRegistry(), embed.NewMockProvider(8), nil, DefaultConfig())
	result, err := c2.RunSequential(context.Background(), processor.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Zero(t, result.FilesAttempted)
}
