package cast

import (
	"strings"
	"testing"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustChunk(t *testing.T, c chunk.Chunk) chunk.Chunk {
	t.Helper()
	built, err := chunk.New(c)
	require.NoError(t, err)
	return built
}

func TestSplitReturnsUnchangedWhenWithinBounds(t *testing.T) {
	cfg := lang.Get("go")
	c := mustChunk(t, chunk.Chunk{Symbol: "Foo", StartLine: 1, EndLine: 1, Code: "func Foo() {}", ChunkType: chunk.TypeFunction})

	got := Split(c, cfg)
	require.Len(t, got, 1)
	assert.Equal(t, c, got[0])
}

func TestSplitSatisfiesBoundsAndConcatenatesToInput(t *testing.T) {
	cfg := lang.Config{Name: "rust", MaxChunkSize: 1200, MinChunkSize: 50, SafeTokenLimit: 6000}

	var b strings.Builder
	line := "let x = compute_something_with_a_reasonably_long_identifier_name(a, b, c);\n"
	for b.Len() < 12000 {
		b.WriteString(line)
	}
	code := strings.TrimRight(b.String(), "\n")
	lines := strings.Count(code, "\n") + 1

	c := mustChunk(t, chunk.Chunk{
		Symbol: "big_fn", StartLine: 1, EndLine: lines, Code: code, ChunkType: chunk.TypeFunction,
	})

	got := Split(c, cfg)

	require.GreaterOrEqual(t, len(got), 10, "expect at least ceil(12000/1200) parts")

	var rebuilt strings.Builder
	prevEnd := 0
	for i, part := range got {
		assert.LessOrEqual(t, NonWhitespaceLen(part.Code), cfg.MaxChunkSize)
		assert.LessOrEqual(t, EstimatedTokens(part.Code), cfg.SafeTokenLimit)
		assert.GreaterOrEqual(t, part.StartLine, 1)
		assert.GreaterOrEqual(t, part.EndLine, part.StartLine)
		if i > 0 {
			assert.GreaterOrEqual(t, part.StartLine, prevEnd)
		}
		prevEnd = part.EndLine
		assert.Contains(t, part.Symbol, "_part")
		rebuilt.WriteString(part.Code)
	}
	assert.Equal(t, code, rebuilt.String(), "concatenation of parts must equal input")
	assert.Equal(t, 1, got[0].StartLine)
	assert.Equal(t, lines, got[len(got)-1].EndLine)
}

func TestSplitPreservesLineSpanForShortOversizedChunk(t *testing.T) {
	cfg := lang.Config{Name: "go", MaxChunkSize: 10, MinChunkSize: 2, SafeTokenLimit: 6000}
	code := "a very long single line that exceeds the tiny bound we configured above"
	c := mustChunk(t, chunk.Chunk{StartLine: 5, EndLine: 5, Code: code})

	got := Split(c, cfg)
	require.NotEmpty(t, got)

	var rebuilt strings.Builder
	for _, p := range got {
		assert.Equal(t, 5, p.StartLine)
		assert.Equal(t, 5, p.EndLine)
		rebuilt.WriteString(p.Code)
	}
	assert.Equal(t, code, rebuilt.String())
}

func TestSplitOnRegularMultilineCode(t *testing.T) {
	cfg := lang.Config{Name: "go", MaxChunkSize: 200, MinChunkSize: 20, SafeTokenLimit: 6000}
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("    x := doSomething(i)\n")
	}
	code := strings.TrimRight(b.String(), "\n")
	lines := strings.Count(code, "\n") + 1

	c := mustChunk(t, chunk.Chunk{StartLine: 1, EndLine: lines, Code: code})
	got := Split(c, cfg)

	require.Greater(t, len(got), 1)
	var rebuilt strings.Builder
	for _, p := range got {
		assert.LessOrEqual(t, NonWhitespaceLen(p.Code), cfg.MaxChunkSize)
		rebuilt.WriteString(p.Code)
	}
	assert.Equal(t, code, rebuilt.String())
}

func TestEstimatedTokens(t *testing.T) {
	assert.Equal(t, 0, EstimatedTokens(""))
	assert.Equal(t, 1, EstimatedTokens("abc"))
	assert.Equal(t, 1, EstimatedTokens("abcd"))
	assert.Equal(t, 2, EstimatedTokens("abcde"))
}
