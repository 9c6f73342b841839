// Package processor implements the adaptive batch file processor: a
// sequential-batch driver for the cases where the full parse/embed/store
// pipeline (see internal/pipeline) is not wanted, such as small ad hoc
// runs or environments where spinning up dedicated worker pools is
// unnecessary overhead. It processes files in windows, growing or
// shrinking the window size based on how long each window took relative
// to target latency bounds.
package processor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/castindex/indexer/internal/errs"
)

// Outcome is the per-file result of one ProcessFunc invocation.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeError            Outcome = "error"
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// ProcessFunc processes a single file and reports its outcome. An error
// return is recorded against the file's outcome but does not itself abort
// the run; AbortPredicate decides that.
type ProcessFunc func(ctx context.Context, path string) (Outcome, error)

// AbortPredicate inspects the run's error handler state after each window
// and reports whether the run should stop early. A nil predicate never
// aborts.
type AbortPredicate func(stats Stats) bool

// Config tunes the adaptive batching behavior. Zero-valued fields are
// replaced by DefaultConfig's values in Run.
type Config struct {
	InitialBatchSize int
	MinBatchSize     int
	MaxBatchSize     int
	TargetBatchTime  time.Duration
	SlowThreshold    time.Duration
	FastThreshold    time.Duration
}

// DefaultConfig returns the adaptive processor's stated defaults.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize: 10,
		MinBatchSize:     1,
		MaxBatchSize:     100,
		TargetBatchTime:  15 * time.Second,
		SlowThreshold:    25 * time.Second,
		FastThreshold:    5 * time.Second,
	}
}

const maxSamplesPerKind = 5

// ErrorSample bounds the number of distinct messages kept per error kind.
type ErrorSample struct {
	Kind     string
	Count    int
	Messages []string
}

// Stats is the running and final tally of a processor run.
type Stats struct {
	Attempted int
	Processed int
	Failed    int
	Permanent int
	Batches   int

	samples map[string]*ErrorSample
}

// Errors returns the bounded error samples accumulated so far.
func (s *Stats) Errors() []ErrorSample {
	out := make([]ErrorSample, 0, len(s.samples))
	for _, sample := range s.samples {
		out = append(out, *sample)
	}
	return out
}

func (s *Stats) recordError(err error) {
	if err == nil {
		return
	}
	kind := string(errs.KindOf(err))
	sample, ok := s.samples[kind]
	if !ok {
		sample = &ErrorSample{Kind: kind}
		s.samples[kind] = sample
	}
	sample.Count++
	if len(sample.Messages) < maxSamplesPerKind {
		sample.Messages = append(sample.Messages, err.Error())
	}
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.InitialBatchSize <= 0 {
		cfg.InitialBatchSize = d.InitialBatchSize
	}
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = d.MinBatchSize
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = d.MaxBatchSize
	}
	if cfg.TargetBatchTime <= 0 {
		cfg.TargetBatchTime = d.TargetBatchTime
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = d.SlowThreshold
	}
	if cfg.FastThreshold <= 0 {
		cfg.FastThreshold = d.FastThreshold
	}
	return cfg
}

// Run processes paths in adaptively-sized windows, calling process for
// each file under a semaphore sized to the number of hardware threads.
// After every window it checks abort (which may be nil), then grows or
// shrinks the window size based on wall-clock time spent.
func Run(ctx context.Context, paths []string, process ProcessFunc, abort AbortPredicate) Stats {
	cfg := withDefaults(Config{})
	return RunWithConfig(ctx, paths, cfg, process, abort)
}

// RunWithConfig is Run with an explicit Config.
func RunWithConfig(ctx context.Context, paths []string, cfg Config, process ProcessFunc, abort AbortPredicate) Stats {
	cfg = withDefaults(cfg)
	stats := Stats{samples: make(map[string]*ErrorSample)}
	batchSize := cfg.InitialBatchSize

	for start := 0; start < len(paths); {
		if ctx.Err() != nil {
			return stats
		}
		end := start + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		window := paths[start:end]

		elapsed, err := processWindowWithRetry(ctx, window, process, &stats, &batchSize, cfg.MinBatchSize)
		stats.Batches++
		if err != nil {
			stats.recordError(err)
			return stats
		}

		start = end
		if abort != nil && abort(stats) {
			return stats
		}
		batchSize = adjustBatchSize(batchSize, elapsed, cfg)
	}

	return stats
}

// processWindowWithRetry processes one window, halving the batch size and
// retrying once on an unexpected (non-ProcessFunc) exception. If already
// at the minimum batch size, or the retry also fails, the error is
// surfaced instead of retried further.
func processWindowWithRetry(ctx context.Context, window []string, process ProcessFunc, stats *Stats, batchSize *int, min int) (time.Duration, error) {
	elapsed, err := attemptWindow(ctx, window, process, stats)
	if err == nil {
		return elapsed, nil
	}
	if *batchSize <= min {
		return elapsed, err
	}
	*batchSize = halve(*batchSize, min)
	half := len(window)/2 + len(window)%2
	if half == 0 {
		half = 1
	}
	return attemptWindow(ctx, window[:half], process, stats)
}

func attemptWindow(ctx context.Context, window []string, process ProcessFunc, stats *Stats) (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing window: %v", r)
		}
	}()
	start := time.Now()
	processWindow(ctx, window, process, stats)
	return time.Since(start), nil
}

// callProcess runs process for a single file, converting a panic into an
// error outcome rather than letting it cross the goroutine boundary
// unrecovered, since recover only catches panics on the goroutine that
// calls it.
func callProcess(ctx context.Context, path string, process ProcessFunc) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeError
			err = fmt.Errorf("panic processing %s: %v", path, r)
		}
	}()
	return process(ctx, path)
}

func processWindow(ctx context.Context, window []string, process ProcessFunc, stats *Stats) {
	sem := semaphore.NewWeighted(int64(maxInt(runtime.NumCPU(), 1)))
	results := make(chan struct {
		outcome Outcome
		err     error
	}, len(window))

	for _, path := range window {
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- struct {
				outcome Outcome
				err     error
			}{OutcomeError, err}
			continue
		}
		go func(p string) {
			defer sem.Release(1)
			outcome, err := callProcess(ctx, p, process)
			results <- struct {
				outcome Outcome
				err     error
			}{outcome, err}
		}(path)
	}

	for range window {
		r := <-results
		stats.Attempted++
		switch r.outcome {
		case OutcomeSuccess:
			stats.Processed++
		case OutcomePermanentFailure:
			stats.Permanent++
		default:
			stats.Failed++
		}
		if r.err != nil {
			stats.recordError(r.err)
		}
	}
}

func adjustBatchSize(current int, elapsed time.Duration, cfg Config) int {
	switch {
	case elapsed > cfg.SlowThreshold && current > cfg.MinBatchSize:
		return halve(current, cfg.MinBatchSize)
	case elapsed < cfg.FastThreshold && current < cfg.MaxBatchSize:
		return minInt(current*2, cfg.MaxBatchSize)
	case elapsed < cfg.TargetBatchTime && current < cfg.MaxBatchSize:
		grown := int(float64(current) * 1.5)
		if grown <= current {
			grown = current + 1
		}
		return minInt(grown, cfg.MaxBatchSize)
	default:
		return current
	}
}

func halve(current, min int) int {
	h := current / 2
	if h < min {
		h = min
	}
	return h
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
