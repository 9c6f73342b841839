// Package parse defines the per-language parser contract the parse worker
// dispatches to, a registry of concrete parsers keyed by language, and a
// basic fallback chunker for languages with no registered parser.
package parse

import (
	"context"
	"sync"

	"github.com/castindex/indexer/internal/chunk"
)

// LanguageParser turns a file's content into semantic chunks. It must not
// mutate its inputs and may return an empty slice.
type LanguageParser interface {
	Parse(ctx context.Context, file chunk.File, content string) ([]chunk.Chunk, error)
}

// Registry maps a canonical language name to its LanguageParser.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]LanguageParser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]LanguageParser)}
}

// Register associates a parser with a language tag (case-insensitive).
func (r *Registry) Register(language string, p LanguageParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[canonical(language)] = p
}

// Get returns the parser registered for language, if any.
func (r *Registry) Get(language string) (LanguageParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[canonical(language)]
	return p, ok
}

func canonical(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
