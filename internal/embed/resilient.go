package embed

import (
	"context"
	"errors"
	"time"

	"github.com/castindex/indexer/internal/breaker"
	"github.com/castindex/indexer/internal/errs"
)

// Resilient wraps a Provider with the circuit breaker, rate limiter, and
// retry policy the embed worker needs: a batch with transient failures is
// attempted up to 3 times in all, with exponential backoff capped at 5s
// between attempts; permanent failures are final.
type Resilient struct {
	provider Provider
	cb       *breaker.CircuitBreaker
	rl       *breaker.RateLimiter
	sleep    func(time.Duration)
}

// NewResilient wraps provider with a circuit breaker and rate limiter. A
// nil rl disables rate limiting.
func NewResilient(provider Provider, cb *breaker.CircuitBreaker, rl *breaker.RateLimiter) *Resilient {
	return &Resilient{provider: provider, cb: cb, rl: rl, sleep: time.Sleep}
}

const maxEmbedAttempts = 3

// Embed runs the underlying provider's Embed behind the circuit breaker
// and rate limiter, retrying transient failures with exponential backoff
// (1s, then 2s, for at most maxEmbedAttempts attempts) and returning
// immediately on a permanent one.
func (r *Resilient) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < maxEmbedAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
			select {
			case <-ctx.Done():
				return nil, errs.New(errs.Cancelled, "embed.retry", ctx.Err())
			default:
			}
			r.sleep(backoff)
		}

		if err := r.cb.Allow(); err != nil {
			lastErr = errs.New(errs.Transient, "embed.circuit", err)
			continue
		}
		if r.rl != nil {
			if err := r.rl.Allow(); err != nil {
				r.cb.Success()
				lastErr = errs.New(errs.Transient, "embed.ratelimit", err)
				continue
			}
		}

		vecs, err := r.provider.Embed(ctx, texts, mode)
		if err == nil {
			r.cb.Success()
			return vecs, nil
		}

		kind := breaker.Classify(err)
		if kind == errs.Transient {
			r.cb.Failure()
		} else {
			r.cb.Success()
		}
		lastErr = errs.New(kind, "embed.provider", err)
		if kind != errs.Transient {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (r *Resilient) Name() string    { return r.provider.Name() }
func (r *Resilient) Model() string   { return r.provider.Model() }
func (r *Resilient) Dimensions() int { return r.provider.Dimensions() }
func (r *Resilient) Limits() Limits  { return r.provider.Limits() }
func (r *Resilient) Close() error    { return r.provider.Close() }

// IsPermanentOrExhausted reports whether err represents a terminal outcome
// for a batch: either classified permanent, or a transient failure that
// exhausted all retries.
func IsPermanentOrExhausted(err error) bool {
	if err == nil {
		return false
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Kind != errs.Transient
	}
	return true
}
