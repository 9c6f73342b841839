package diffcache

import (
	"testing"

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

func TestDiffRoundTrip(t *testing.T) {
	xs := []chunk.Chunk{mk(t, "A"), mk(t, "B"), mk(t, "C")}

	d := Compute(xs, xs)

	assert.Len(t, d.Unchanged, 3)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Deleted)
	assert.Empty(t, d.Modified)
}

func TestDiffAddDelete(t *testing.T) {
	existing := []chunk.Chunk{mk(t, "A"), mk(t, "B"), mk(t, "C")}
	updated := []chunk.Chunk{mk(t, "A"), mk(t, "C"), mk(t, "D")}

	d := Compute(updated, existing)

	assertCodes(t, d.Unchanged, "A", "C")
	assertCodes(t, d.Added, "D")
	assertCodes(t, d.Deleted, "B")
	assert.Empty(t, d.Modified)
}

func TestDiffNormalizesLineEndingsBeforeComparing(t *testing.T) {
	existing := []chunk.Chunk{mk(t, "line1\r\nline2")}
	updated := []chunk.Chunk{mk(t, "line1\nline2")}

	d := Compute(updated, existing)

	assert.Len(t, d.Unchanged, 1)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Deleted)
}

func TestDiffDisjointness(t *testing.T) {
	existing := []chunk.Chunk{mk(t, "A"), mk(t, "B")}
	updated := []chunk.Chunk{mk(t, "B"), mk(t, "C")}

	d := Compute(updated, existing)

	seen := map[string]int{}
	for _, group := range [][]chunk.Chunk{d.Unchanged, d.Modified, d.Added, d.Deleted} {
		for _, c := range group {
			seen[chunk.Normalize(c.Code)]++
		}
	}
	for code, n := range seen {
		assert.Equal(t, 1, n, "code %q appeared in more than one output list", code)
	}
}

func assertCodes(t *testing.T, chunks []chunk.Chunk, want ...string) {
	t.Helper()
	got := make([]string, len(chunks))
	for i, c := range chunks {
		got[i] = c.Code
	}
	assert.ElementsMatch(t, want, got)
}
