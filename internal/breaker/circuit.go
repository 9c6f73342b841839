package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/castindex/indexer/internal/errs"
)

// ErrCircuitOpen is the sentinel wrapped by the Transient error returned
// while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrRateLimited is the sentinel wrapped by the Transient error returned
// when the rate limiter rejects a call without reaching the provider.
var ErrRateLimited = errors.New("rate limit exceeded")

// State is the circuit breaker's current mode.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker implements a Closed/Open/HalfOpen state machine: it
// opens after failureThreshold consecutive failures, rejects calls while
// open until timeout elapses, then admits exactly one probe before
// deciding whether to close or reopen.
type CircuitBreaker struct {
	failureThreshold int
	timeout          time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) { cb.failureThreshold = n }
}

func WithTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) { cb.timeout = d }
}

// New creates a CircuitBreaker with the design defaults: threshold 5,
// timeout 5 minutes.
func New(opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: 5,
		timeout:          5 * time.Minute,
		state:            Closed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// State returns the breaker's current state without mutating it (an Open
// breaker past its timeout is reported as Open until Allow is called).
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Allow reports whether a call may proceed. If it returns nil, the caller
// must report the outcome via Success or Failure. A non-nil error is
// always a Transient *errs.Error wrapping ErrCircuitOpen.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return nil
	case Open:
		if time.Since(cb.lastFailure) < cb.timeout {
			return errs.New(errs.Transient, "breaker.Allow", ErrCircuitOpen)
		}
		cb.state = HalfOpen
		cb.probing = true
		return nil
	case HalfOpen:
		if cb.probing {
			return errs.New(errs.Transient, "breaker.Allow", ErrCircuitOpen)
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

// Success records a successful call: closes the breaker and resets state.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = Closed
	cb.failures = 0
	cb.probing = false
}

// Failure records a failed call: a failed probe reopens immediately; a
// failed call while closed reopens only after failureThreshold in a row.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	if cb.state == HalfOpen {
		cb.state = Open
		cb.probing = false
		return
	}

	cb.failures++
	if cb.failures >= cb.failureThreshold {
		cb.state = Open
	}
}
