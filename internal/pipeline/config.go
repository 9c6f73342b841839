// Package pipeline wires the three-stage parse → embed → store pipeline:
// bounded worker pools connected by typed channels, with per-file
// locking, a shared database handle under an RW discipline, and a
// coordinator that drives discovery, change detection, and the
// pipeline's lifecycle.
package pipeline

import "time"

// Config holds the coordinator's tunable concurrency and batching knobs.
type Config struct {
	ParseWorkers      int
	EmbedWorkers      int
	StoreWorkers      int
	EmbedBatchSize    int
	DatabaseBatchSize int
	OptimizeEvery     int // optimize after this many store batches; 0 disables

	FilesQueueSize       int
	ChunksQueueSize      int
	EmbedChunksQueueSize int

	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	MaxRetries        int
}

// DefaultConfig returns the coordinator's baseline tuning.
func DefaultConfig() Config {
	return Config{
		ParseWorkers:         4,
		EmbedWorkers:         2,
		StoreWorkers:         2,
		EmbedBatchSize:       100,
		DatabaseBatchSize:    1000,
		OptimizeEvery:        10,
		FilesQueueSize:       64,
		ChunksQueueSize:      256,
		EmbedChunksQueueSize: 256,
		RetryInitialDelay:    100 * time.Millisecond,
		RetryMaxDelay:        5 * time.Second,
		MaxRetries:           3,
	}
}
