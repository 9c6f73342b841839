package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/castindex/indexer/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, errs.Transient, Classify(&HTTPStatusError{Code: 503, Err: errors.New("boom")}))
	assert.Equal(t, errs.Transient, Classify(&HTTPStatusError{Code: 429, Err: errors.New("boom")}))
	assert.Equal(t, errs.Permanent, Classify(&HTTPStatusError{Code: 404, Err: errors.New("boom")}))
}

func TestClassifyMessageSubstrings(t *testing.T) {
	assert.Equal(t, errs.Transient, Classify(errors.New("request timeout after 30s")))
	assert.Equal(t, errs.Transient, Classify(errors.New("rate limit exceeded")))
	assert.Equal(t, errs.Transient, Classify(errors.New("connection reset by peer")))
	assert.Equal(t, errs.Permanent, Classify(errors.New("invalid api key")))
}

func TestClassifyRecursesIntoCause(t *testing.T) {
	err := errs.New(errs.Io, "op", errors.New("upstream: service unavailable"))
	assert.Equal(t, errs.Transient, Classify(err))
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := New(WithFailureThreshold(5), WithTimeout(time.Minute))

	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Allow())
		cb.Failure()
		assert.Equal(t, Closed, cb.State())
	}
	require.NoError(t, cb.Allow())
	cb.Failure()
	assert.Equal(t, Open, cb.State())

	err := cb.Allow()
	require.Error(t, err)
	assert.Equal(t, errs.Transient, errs.KindOf(err))
}

func TestCircuitBreakerHalfOpenAllowsExactlyOneProbe(t *testing.T) {
	cb := New(WithFailureThreshold(1), WithTimeout(10 * time.Millisecond))

	require.NoError(t, cb.Allow())
	cb.Failure()
	assert.Equal(t, Open, cb.State())

	time.Sleep(15 * time.Millisecond)

	require.NoError(t, cb.Allow(), "first call after timeout is the probe")
	assert.Equal(t, HalfOpen, cb.State())

	err := cb.Allow()
	require.Error(t, err, "a second concurrent call must not get a second probe")
}

func TestCircuitBreakerProbeSuccessCloses(t *testing.T) {
	cb := New(WithFailureThreshold(1), WithTimeout(time.Millisecond))
	require.NoError(t, cb.Allow())
	cb.Failure()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cb.Allow())
	cb.Success()

	assert.Equal(t, Closed, cb.State())
	require.NoError(t, cb.Allow())
}

func TestCircuitBreakerProbeFailureReopens(t *testing.T) {
	cb := New(WithFailureThreshold(1), WithTimeout(time.Millisecond))
	require.NoError(t, cb.Allow())
	cb.Failure()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cb.Allow())
	cb.Failure()

	assert.Equal(t, Open, cb.State())
}

func TestRateLimiterCapsRequestsPerWindow(t *testing.T) {
	rl := NewRateLimiter(3)
	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.allowAt(now))
	}
	err := rl.allowAt(now)
	require.Error(t, err)
	assert.Equal(t, errs.Transient, errs.KindOf(err))

	// After the window slides past, capacity frees up again.
	require.NoError(t, rl.allowAt(now.Add(time.Minute+time.Second)))
}
