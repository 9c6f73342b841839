package breaker

import (
	"sync"
	"time"

	"github.com/castindex/indexer/internal/errs"
)

// RateLimiter is a sliding one-minute request counter. Exceeding the cap
// yields a Transient error without ever reaching the provider.
type RateLimiter struct {
	mu         sync.Mutex
	capacity   int
	window     time.Duration
	timestamps []time.Time
}

// NewRateLimiter creates a limiter with the design default of 60
// requests/minute.
func NewRateLimiter(capacityPerMinute int) *RateLimiter {
	if capacityPerMinute <= 0 {
		capacityPerMinute = 60
	}
	return &RateLimiter{capacity: capacityPerMinute, window: time.Minute}
}

// Allow reports whether a call may proceed under the sliding window, and
// if so, records it.
func (r *RateLimiter) Allow() error {
	return r.allowAt(time.Now())
}

func (r *RateLimiter) allowAt(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.timestamps) && r.timestamps[i].Before(cutoff) {
		i++
	}
	r.timestamps = r.timestamps[i:]

	if len(r.timestamps) >= r.capacity {
		return errs.New(errs.Transient, "breaker.RateLimiter", ErrRateLimited)
	}
	r.timestamps = append(r.timestamps, now)
	return nil
}
