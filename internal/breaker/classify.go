// Package breaker classifies embedding-provider errors as transient or
// permanent and implements the circuit breaker and rate limiter that guard
// calls to the provider.
package breaker

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/castindex/indexer/internal/errs"
)

// HTTPStatusError lets a concrete Provider report the HTTP status code it
// received so Classify can apply the 4xx/5xx/429 rules without depending
// on any particular HTTP client library.
type HTTPStatusError struct {
	Code int
	Err  error
}

func (e *HTTPStatusError) Error() string { return e.Err.Error() }
func (e *HTTPStatusError) Unwrap() error { return e.Err }

var transientSubstrings = []string{
	"timeout",
	"rate limit",
	"throttle",
	"service unavailable",
	"temporarily unavailable",
	"circuit breaker",
	"connection reset",
	"connection closed",
}

// Classify determines whether err should be retried. Timeouts,
// cancellations, 5xx, 429, and connection reset/closed (by substring or by
// net.Error.Timeout) are Transient. 4xx other than 429 is Permanent.
// Anything else recurses into the wrapped cause, defaulting to Permanent.
func Classify(err error) errs.Kind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Transient
	}

	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Code == 429:
			return errs.Transient
		case httpErr.Code >= 500:
			return errs.Transient
		case httpErr.Code >= 400:
			return errs.Permanent
		}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return errs.Transient
		}
	}

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return Classify(unwrapped)
	}
	return errs.Permanent
}
