package parse

import (
	"context"
	"strings"
	"testing"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackParserSplitsOnKeywords(t *testing.T) {
	src := `package demo

import "strings"

var greeting = strings.Repeat("hello, world ", 4) + strings.ToUpper("demo package")

func First() int {
	total := 0
	for i := 0; i < 10; i++ {
		total += strings.Count("first function body", "f") + i
	}
	return total
}

func Second() int {
	return 2
}
`
	f, err := chunk.NewFile(chunk.File{ID: "f1", Path: "demo.go", Language: "go"})
	require.NoError(t, err)

	chunks, err := NewFallbackParser().Parse(context.Background(), f, src)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for _, c := range chunks {
		assert.Equal(t, "f1", c.FileID)
		assert.Equal(t, "go", c.Language)
		assert.GreaterOrEqual(t, c.StartLine, 1)
		assert.GreaterOrEqual(t, c.EndLine, c.StartLine)
		rebuilt.WriteString(c.Code)
		rebuilt.WriteString("\n")
	}

	foundFirst, foundSecond := false, false
	for _, c := range chunks {
		if c.Symbol == "First" {
			foundFirst = true
			assert.Equal(t, chunk.TypeFunction, c.ChunkType)
		}
		if c.Symbol == "Second" {
			foundSecond = true
		}
	}
	assert.True(t, foundFirst)
	assert.True(t, foundSecond)
}

func TestFallbackParserEmptyContent(t *testing.T) {
	f, err := chunk.NewFile(chunk.File{ID: "f1", Path: "empty.go", Language: "go"})
	require.NoError(t, err)
	chunks, err := NewFallbackParser().Parse(context.Background(), f, "   \n  \n")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
