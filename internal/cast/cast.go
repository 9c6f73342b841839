// Package cast implements the split-then-merge chunking algorithm
// ("chunked AST") described in the design: given a possibly oversized
// chunk, recursively split it until every output chunk satisfies the
// language's size and token bounds, without ever dropping content.
package cast

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/lang"
)

// concept is the reduced vocabulary the split engine reasons in, so the
// same recursive logic applies regardless of the caller's richer ChunkType.
type concept string

const (
	conceptDefinition concept = "definition"
	conceptStructure  concept = "structure"
	conceptComment    concept = "comment"
	conceptImport     concept = "import"
	conceptBlock      concept = "block"
)

func toConcept(t chunk.Type) concept {
	switch t {
	case chunk.TypeFunction:
		return conceptDefinition
	case chunk.TypeClass, chunk.TypeInterface, chunk.TypeStruct, chunk.TypeEnum, chunk.TypeModule:
		return conceptStructure
	case chunk.TypeDocumentation:
		return conceptComment
	case chunk.TypeImport:
		return conceptImport
	default:
		return conceptBlock
	}
}

func fromConcept(c concept) chunk.Type {
	switch c {
	case conceptDefinition:
		return chunk.TypeFunction
	case conceptStructure:
		return chunk.TypeClass
	case conceptComment:
		return chunk.TypeDocumentation
	case conceptImport:
		return chunk.TypeImport
	default:
		return chunk.TypeUnknown
	}
}

// universal is the intermediate representation the recursion operates on;
// it only carries what the split decisions need (line span and text).
type universal struct {
	concept   concept
	startLine int
	endLine   int
	code      string
}

// EstimatedTokens approximates provider token usage as ceil(len(s)/4).
func EstimatedTokens(s string) int {
	if s == "" {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / 4.0))
}

// NonWhitespaceLen counts runes in s that are not whitespace.
func NonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func fits(s string, cfg lang.Config) bool {
	return NonWhitespaceLen(s) <= cfg.MaxChunkSize && EstimatedTokens(s) <= cfg.SafeTokenLimit
}

// Split produces a list of chunks derived from c, each satisfying cfg's
// MaxChunkSize and SafeTokenLimit bounds. If c already satisfies both
// bounds it is returned unchanged, as a single-element slice. The
// concatenation of the returned chunks' Code always equals c.Code, and
// their line spans are monotone non-decreasing and cover
// [c.StartLine, c.EndLine].
func Split(c chunk.Chunk, cfg lang.Config) []chunk.Chunk {
	if fits(c.Code, cfg) {
		return []chunk.Chunk{c}
	}

	u := universal{concept: toConcept(c.ChunkType), startLine: c.StartLine, endLine: c.EndLine, code: c.Code}
	parts := splitUniversal(u, cfg)
	return materialize(c, parts)
}

// splitUniversal is the recursive split-then-merge core. It never drops
// input: every byte of u.code appears in exactly one output part, in order.
func splitUniversal(u universal, cfg lang.Config) []universal {
	if fits(u.code, cfg) {
		return []universal{u}
	}

	lines := strings.Split(u.code, "\n")
	maxLineLen, totalLen := 0, 0
	for _, l := range lines {
		n := len([]rune(l))
		if n > maxLineLen {
			maxLineLen = n
		}
		totalLen += n
	}
	avgLineLen := 0.0
	if len(lines) > 0 {
		avgLineLen = float64(totalLen) / float64(len(lines))
	}
	hasVeryLongLines := maxLineLen > int(0.2*float64(cfg.MaxChunkSize))
	isRegularCode := len(lines) > 10 && maxLineLen < 200 && avgLineLen < 100

	switch {
	case len(lines) <= 2 || hasVeryLongLines:
		return emergencySplit(u, cfg)
	case isRegularCode:
		return simpleLineSplit(u, cfg)
	default:
		parts := simpleLineSplit(u, cfg)
		fixed := make([]universal, 0, len(parts))
		for _, p := range parts {
			if fits(p.code, cfg) {
				fixed = append(fixed, p)
			} else {
				fixed = append(fixed, emergencySplit(p, cfg)...)
			}
		}
		return fixed
	}
}

// simpleLineSplit divides lines in half, preserving original line numbers,
// and recurses on either half that is still over the bound.
func simpleLineSplit(u universal, cfg lang.Config) []universal {
	lines := strings.Split(u.code, "\n")
	mid := len(lines) / 2
	if mid < 1 {
		mid = 1
	}

	first := universal{
		concept:   u.concept,
		startLine: u.startLine,
		endLine:   u.startLine + mid - 1,
		code:      strings.Join(lines[:mid], "\n") + "\n",
	}
	second := universal{
		concept:   u.concept,
		startLine: u.startLine + mid,
		endLine:   u.endLine,
		code:      strings.Join(lines[mid:], "\n"),
	}

	result := splitUniversal(first, cfg)
	result = append(result, splitUniversal(second, cfg)...)
	return result
}

var emergencyCutChars = []byte{';', '}', '{', ',', ' '}

// emergencySplit walks u.code character by character, cutting at the
// latest eligible delimiter within maxChars of the current position, and
// approximates line numbers by proportional offset mapping.
func emergencySplit(u universal, cfg lang.Config) []universal {
	text := u.code
	if fits(text, cfg) {
		return []universal{u}
	}

	estTokens := EstimatedTokens(text)
	if estTokens < 1 {
		estTokens = 1
	}
	actualCharsPerToken := float64(len(text)) / float64(estTokens)
	maxChars := int(math.Min(float64(cfg.MaxChunkSize), float64(cfg.SafeTokenLimit)*actualCharsPerToken*0.8))
	if maxChars < 1 {
		maxChars = 1
	}

	totalLen := len(text)
	totalLines := u.endLine - u.startLine + 1
	lineAt := func(offset int) int {
		if totalLen == 0 {
			return u.startLine
		}
		l := u.startLine + int(float64(offset)/float64(totalLen)*float64(totalLines))
		if l < u.startLine {
			l = u.startLine
		}
		if l > u.endLine {
			l = u.endLine
		}
		return l
	}

	var parts []universal
	pos := 0
	for pos < len(text) {
		remaining := text[pos:]
		if fits(remaining, cfg) {
			parts = append(parts, universal{
				concept:   u.concept,
				startLine: lineAt(pos),
				endLine:   u.endLine,
				code:      remaining,
			})
			break
		}

		cutLen := findCutPoint(remaining, maxChars, cfg)
		absEnd := pos + cutLen
		startLine := lineAt(pos)
		endLine := lineAt(absEnd)
		if endLine < startLine {
			endLine = startLine
		}
		parts = append(parts, universal{
			concept:   u.concept,
			startLine: startLine,
			endLine:   endLine,
			code:      text[pos:absEnd],
		})
		pos = absEnd
	}
	return parts
}

// findCutPoint returns the length of the prefix of s to cut at: the latest
// occurrence of a preferred delimiter within maxChars whose prefix
// satisfies cfg's bounds, or a hard cut at maxChars if none qualifies.
func findCutPoint(s string, maxChars int, cfg lang.Config) int {
	limit := maxChars
	if limit > len(s) {
		limit = len(s)
	}
	if limit < 1 {
		limit = 1
		if limit > len(s) {
			return len(s)
		}
	}

	for _, ch := range emergencyCutChars {
		idx := strings.LastIndexByte(s[:limit], ch)
		if idx <= 0 {
			continue
		}
		prefix := s[:idx+1]
		if fits(prefix, cfg) {
			return idx + 1
		}
	}
	return limit
}

// materialize converts universal parts back into chunk.Chunk values,
// inheriting the original's identity fields and a shallow metadata copy,
// and suffixing the symbol with _partN when more than one part results.
func materialize(original chunk.Chunk, parts []universal) []chunk.Chunk {
	out := make([]chunk.Chunk, 0, len(parts))
	multi := len(parts) > 1
	for i, p := range parts {
		symbol := original.Symbol
		if multi && symbol != "" {
			symbol = fmt.Sprintf("%s_part%d", symbol, i+1)
		}
		c := chunk.Chunk{
			Symbol:       symbol,
			StartLine:    p.startLine,
			EndLine:      p.endLine,
			Code:         p.code,
			ChunkType:    fromConcept(p.concept),
			FileID:       original.FileID,
			Language:     original.Language,
			FilePath:     original.FilePath,
			ParentHeader: original.ParentHeader,
			Metadata:     copyMetadata(original.Metadata),
		}
		built, err := chunk.New(c)
		if err != nil {
			// emergencySplit never produces empty pieces and line spans are
			// always startLine<=endLine by construction; a validation error
			// here would indicate a logic error in the algorithm above.
			panic(fmt.Sprintf("cast: produced invalid chunk part: %v", err))
		}
		out = append(out, built)
	}
	return out
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
