package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockProvider is a deterministic provider: the same text always yields
// the same vector, derived from its sha256 hash. It is the default
// provider when none is configured, and the one used throughout the test
// suite so embedding output is reproducible without network access.
type MockProvider struct {
	mu         sync.Mutex
	dimensions int
	name       string
	model      string
	limits     Limits
	closed     bool
	embedErr   error
}

// NewMockProvider constructs a MockProvider with the given vector width.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockProvider{
		dimensions: dimensions,
		name:       "mock",
		model:      "mock-deterministic-v1",
		limits:     Limits{MaxTokensPerBatch: 0, MaxDocumentsPerBatch: 0, RecommendedConcurrency: 4},
	}
}

// SetEmbedError makes every subsequent Embed call fail with err, for
// exercising retry and circuit-breaker paths in tests.
func (p *MockProvider) SetEmbedError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedErr = err
}

func (p *MockProvider) Embed(ctx context.Context, texts []string, _ Mode) ([][]float32, error) {
	p.mu.Lock()
	err := p.embedErr
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := sha256.Sum256([]byte(text))
		vec := make([]float32, p.dimensions)
		for j := 0; j < p.dimensions; j++ {
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			vec[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
		}
		out[i] = vec
	}
	return out, nil
}

func (p *MockProvider) Name() string    { return p.name }
func (p *MockProvider) Model() string   { return p.model }
func (p *MockProvider) Dimensions() int { return p.dimensions }
func (p *MockProvider) Limits() Limits  { return p.limits }

func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called, for test assertions.
func (p *MockProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
