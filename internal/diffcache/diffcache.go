// Package diffcache classifies chunks as unchanged, added, or deleted
// between an old and new view of a file's content, so that unchanged
// chunks can reuse their prior embeddings on re-index.
package diffcache

import "github.com/castindex/indexer/internal/chunk"

// Diff holds the four disjoint result lists. Modified is always empty in
// this implementation: a changed chunk is expressed as one Deleted entry
// plus one Added entry (spec's degenerate add/delete-only contract).
type Diff struct {
	Unchanged []chunk.Chunk
	Modified  []chunk.Chunk
	Added     []chunk.Chunk
	Deleted   []chunk.Chunk
}

// Compute groups newChunks and existingChunks by normalized code and
// returns the classification. It is a pure function: O(n+m), no state
// retained between calls. Chunks sharing one normalized code keep their
// input order; the order of the groups within an output list is not
// defined.
func Compute(newChunks, existingChunks []chunk.Chunk) Diff {
	newGroups := groupByNormalizedCode(newChunks)
	existingGroups := groupByNormalizedCode(existingChunks)

	var d Diff

	for key, existing := range existingGroups {
		if _, ok := newGroups[key]; ok {
			d.Unchanged = append(d.Unchanged, existing...)
		} else {
			d.Deleted = append(d.Deleted, existing...)
		}
	}
	for key, added := range newGroups {
		if _, ok := existingGroups[key]; !ok {
			d.Added = append(d.Added, added...)
		}
	}

	return d
}

// groupByNormalizedCode preserves insertion order within each group and
// returns a map alongside the key order is irrelevant to callers since
// Compute iterates the maps itself; ordering within a group is preserved
// by appending in input order.
func groupByNormalizedCode(chunks []chunk.Chunk) map[string][]chunk.Chunk {
	groups := make(map[string][]chunk.Chunk, len(chunks))
	for _, c := range chunks {
		key := chunk.Normalize(c.Code)
		groups[key] = append(groups[key], c)
	}
	return groups
}
