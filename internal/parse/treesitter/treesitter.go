// Package treesitter provides concrete parse.LanguageParser
// implementations over github.com/tree-sitter/go-tree-sitter, with
// per-language extractors that emit chunk.Chunk values directly instead
// of an intermediate three-tier extraction.
package treesitter

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/castindex/indexer/internal/cast"
	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/lang"
)

// NodeKinds maps a tree-sitter node kind (as returned by Node.Kind()) to
// the ChunkType it represents, for the top-level definitions a language's
// grammar exposes.
type NodeKinds map[string]chunk.Type

// Parser is a generic tree-sitter-backed LanguageParser: it walks direct
// children of the syntax tree's top level (and one level of nesting, to
// catch definitions inside namespace/module wrappers) and emits one chunk
// per matching node, falling back to oversized-chunk splitting via cAST.
type Parser struct {
	language   *sitter.Language
	languageTag string
	kinds      NodeKinds
	// wrapperKinds are container node kinds (namespace, module) whose direct
	// children are also inspected, since several grammars nest top-level
	// definitions one level deeper than the file root.
	wrapperKinds map[string]bool
}

// New builds a tree-sitter Parser for the given grammar.
func New(language *sitter.Language, languageTag string, kinds NodeKinds, wrapperKinds ...string) *Parser {
	wk := make(map[string]bool, len(wrapperKinds))
	for _, k := range wrapperKinds {
		wk[k] = true
	}
	return &Parser{language: language, languageTag: languageTag, kinds: kinds, wrapperKinds: wk}
}

func (p *Parser) Parse(ctx context.Context, file chunk.File, content string) ([]chunk.Chunk, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	source := []byte(content)
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	cfg := lang.Get(file.Language)
	var out []chunk.Chunk

	var visit func(n *sitter.Node, topLevel bool)
	visit = func(n *sitter.Node, topLevel bool) {
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(uint(i))
			if child == nil {
				continue
			}
			kind := child.Kind()
			if chunkType, ok := p.kinds[kind]; ok {
				if c, ok := p.buildChunk(child, source, file, chunkType); ok {
					out = append(out, cast.Split(c, cfg)...)
				}
				continue
			}
			if topLevel && p.wrapperKinds[kind] {
				visit(child, false)
			}
		}
	}
	visit(tree.RootNode(), true)

	return out, nil
}

func (p *Parser) buildChunk(n *sitter.Node, source []byte, file chunk.File, chunkType chunk.Type) (chunk.Chunk, bool) {
	startLine := int(n.StartPosition().Row) + 1
	endLine := int(n.EndPosition().Row) + 1
	code := string(source[n.StartByte():n.EndByte()])
	if strings.TrimSpace(code) == "" {
		return chunk.Chunk{}, false
	}

	symbol := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		symbol = string(source[nameNode.StartByte():nameNode.EndByte()])
	}

	startByte := int(n.StartByte())
	endByte := int(n.EndByte())

	c, err := chunk.New(chunk.Chunk{
		Symbol:    symbol,
		StartLine: startLine,
		EndLine:   endLine,
		Code:      code,
		ChunkType: chunkType,
		FileID:    file.ID,
		Language:  file.Language,
		FilePath:  file.Path,
		StartByte: &startByte,
		EndByte:   &endByte,
	})
	if err != nil {
		return chunk.Chunk{}, false
	}
	return c, true
}
