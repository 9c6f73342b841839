package parse

import (
	"context"
	"strings"

	"github.com/castindex/indexer/internal/cast"
	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/lang"
)

// FallbackParser is a basic chunker: it splits on semantic keywords
// configured per language, or whenever the running non-whitespace
// character count would exceed the language's MaxChunkSize.
// Runs whose non-whitespace size is below MinChunkSize stay merged with
// their neighbors. Any resulting chunk still over MaxChunkSize is further
// split by the cAST engine.
type FallbackParser struct{}

// NewFallbackParser constructs the language-agnostic fallback parser.
func NewFallbackParser() *FallbackParser { return &FallbackParser{} }

func (f *FallbackParser) Parse(_ context.Context, file chunk.File, content string) ([]chunk.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	cfg := lang.Get(file.Language)
	lines := strings.Split(content, "\n")

	var runs []run
	var buf []string
	bufStart := 1
	nonWS := 0

	flush := func(endLine int) {
		if len(buf) == 0 {
			return
		}
		runs = append(runs, run{startLine: bufStart, endLine: endLine, text: strings.Join(buf, "\n")})
		buf = nil
		nonWS = 0
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		lineNWS := cast.NonWhitespaceLen(line)

		startsNew := false
		for kw := range cfg.StartKeywords {
			if strings.HasPrefix(trimmed, kw) {
				startsNew = true
				break
			}
		}

		if startsNew && len(buf) > 0 && nonWS >= cfg.MinChunkSize {
			flush(lineNum - 1)
			bufStart = lineNum
		} else if len(buf) > 0 && nonWS+lineNWS > cfg.MaxChunkSize {
			flush(lineNum - 1)
			bufStart = lineNum
		}

		buf = append(buf, line)
		nonWS += lineNWS
	}
	flush(len(lines))

	var out []chunk.Chunk
	for _, r := range runs {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		chunkType, symbol := classify(cfg, r.text)
		base := chunk.Chunk{
			Symbol:    symbol,
			StartLine: r.startLine,
			EndLine:   r.endLine,
			Code:      r.text,
			ChunkType: chunkType,
			FileID:    file.ID,
			Language:  file.Language,
			FilePath:  file.Path,
		}
		built, err := chunk.New(base)
		if err != nil {
			continue
		}
		out = append(out, cast.Split(built, cfg)...)
	}
	return out, nil
}

type run struct {
	startLine, endLine int
	text               string
}

// classify inspects the first non-blank line of text against the
// language's pattern table to assign a ChunkType and, if a symbol-prefix
// is registered for the matching pattern, extract a symbol name.
func classify(cfg lang.Config, text string) (chunk.Type, string) {
	firstLine := ""
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			firstLine = strings.TrimSpace(l)
			break
		}
	}
	if firstLine == "" {
		return chunk.TypeUnknown, ""
	}

	var bestPattern string
	var bestType string
	for pattern, typ := range cfg.PatternTypes {
		if strings.HasPrefix(firstLine, pattern) && len(pattern) > len(bestPattern) {
			bestPattern, bestType = pattern, typ
		}
	}
	if bestPattern == "" {
		return chunk.TypeUnknown, ""
	}

	symbol := ""
	if prefix, ok := cfg.SymbolPrefixes[bestPattern]; ok {
		rest := strings.TrimPrefix(firstLine, prefix)
		symbol = firstIdentifier(rest)
	}
	return chunk.ParseType(bestType), symbol
}

func firstIdentifier(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			end++
			continue
		}
		break
	}
	return s[:end]
}
