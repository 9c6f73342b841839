package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castindex/indexer/internal/breaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderIsDeterministic(t *testing.T) {
	p := NewMockProvider(16)
	a, err := p.Embed(context.Background(), []string{"hello"}, ModePassage)
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), []string{"hello"}, ModePassage)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a[0], 16)
}

func TestMockProviderDistinctTextsDiffer(t *testing.T) {
	p := NewMockProvider(16)
	vecs, err := p.Embed(context.Background(), []string{"a", "b"}, ModePassage)
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

type countingProvider struct {
	Provider
	onCall func(attempt int) error
	attempt int
}

func (c *countingProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	c.attempt++
	if err := c.onCall(c.attempt); err != nil {
		return nil, err
	}
	return c.Provider.Embed(ctx, texts, mode)
}

func TestResilientRetriesTransientThenSucceeds(t *testing.T) {
	wrapped := &countingProvider{
		Provider: NewMockProvider(4),
		onCall: func(attempt int) error {
			if attempt < 2 {
				return &breaker.HTTPStatusError{Code: 503, Err: errors.New("unavailable")}
			}
			return nil
		},
	}

	r := NewResilient(wrapped, breaker.New(), nil)
	r.sleep = func(time.Duration) {}

	vecs, err := r.Embed(context.Background(), []string{"x"}, ModePassage)
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, 2, wrapped.attempt)
}

func TestResilientStopsOnPermanentError(t *testing.T) {
	wrapped := &countingProvider{
		Provider: NewMockProvider(4),
		onCall: func(int) error {
			return &breaker.HTTPStatusError{Code: 400, Err: errors.New("bad request")}
		},
	}

	r := NewResilient(wrapped, breaker.New(), nil)
	r.sleep = func(time.Duration) {}

	_, err := r.Embed(context.Background(), []string{"x"}, ModePassage)
	require.Error(t, err)
	assert.Equal(t, 1, wrapped.attempt)
}

func TestResilientExhaustsRetriesOnPersistentTransientError(t *testing.T) {
	wrapped := &countingProvider{
		Provider: NewMockProvider(4),
		onCall: func(int) error {
			return &breaker.HTTPStatusError{Code: 503, Err: errors.New("unavailable")}
		},
	}

	cb := breaker.New(breaker.WithFailureThreshold(100))
	r := NewResilient(wrapped, cb, nil)
	r.sleep = func(time.Duration) {}

	_, err := r.Embed(context.Background(), []string{"x"}, ModePassage)
	require.Error(t, err)
	assert.Equal(t, maxEmbedAttempts, wrapped.attempt)
}
