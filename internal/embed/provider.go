// Package embed defines the embedding provider contract and a
// deterministic mock implementation used by default in tests and by the
// CLI when no real provider is configured.
package embed

import "context"

// Mode specifies the type of embedding to generate.
type Mode string

const (
	// ModeQuery generates embeddings optimized for search queries.
	ModeQuery Mode = "query"

	// ModePassage generates embeddings optimized for document passages.
	ModePassage Mode = "passage"
)

// Provider converts text into vector embeddings. Implementations may use
// local models, remote APIs, or other embedding services.
type Provider interface {
	// Embed returns one vector per input text, in order. Every vector is
	// non-empty and len(result) == len(texts).
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)

	// Name is the stable, case-sensitive provider identifier used as part
	// of a chunk's embedding signature.
	Name() string

	// Model is the stable, case-sensitive model identifier used as part
	// of a chunk's embedding signature.
	Model() string

	// Dimensions reports the length of vectors this provider produces.
	Dimensions() int

	// Limits reports the provider's advisory batching limits. A zero value
	// on any field means the provider has not advised a limit.
	Limits() Limits

	// Close releases any resources held by the provider.
	Close() error
}

// Limits carries a provider's advisory batching and concurrency guidance.
type Limits struct {
	MaxTokensPerBatch      int
	MaxDocumentsPerBatch   int
	RecommendedConcurrency int
}

// RecommendedConcurrencyOrDefault returns l.RecommendedConcurrency, or 8
// when the provider did not advise one.
func (l Limits) RecommendedConcurrencyOrDefault() int {
	if l.RecommendedConcurrency <= 0 {
		return 8
	}
	return l.RecommendedConcurrency
}
