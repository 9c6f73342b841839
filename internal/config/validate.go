package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidDimensions indicates invalid embedding dimensions.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrEmptyEndpoint indicates a missing embedding endpoint for a
	// provider that requires one.
	ErrEmptyEndpoint = errors.New("empty embedding endpoint")

	// ErrInvalidWorkerCount indicates a non-positive worker pool size.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidBatchSize indicates a non-positive batch size.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrEmptyDatabasePath indicates a missing storage database path.
	ErrEmptyDatabasePath = errors.New("empty database path")
)

// Validate checks that the configuration is complete and internally
// consistent.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateEmbedding(&cfg.Embedding); err != nil {
		errs = append(errs, err)
	}
	if err := validatePipeline(&cfg.Pipeline); err != nil {
		errs = append(errs, err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateEmbedding(cfg *EmbeddingConfig) error {
	var errs []error

	provider := strings.ToLower(cfg.Provider)
	if provider != "mock" && provider != "http" {
		errs = append(errs, fmt.Errorf("%w: must be 'mock' or 'http', got %q", ErrInvalidProvider, cfg.Provider))
	}
	if cfg.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidDimensions, cfg.Dimensions))
	}
	if provider == "http" && strings.TrimSpace(cfg.Endpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: endpoint is required for the http provider", ErrEmptyEndpoint))
	}

	return joinErrors(errs)
}

func validatePipeline(cfg *PipelineConfig) error {
	var errs []error

	if cfg.ParseWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%w: parse_workers must be positive, got %d", ErrInvalidWorkerCount, cfg.ParseWorkers))
	}
	if cfg.EmbedWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%w: embed_workers must be positive, got %d", ErrInvalidWorkerCount, cfg.EmbedWorkers))
	}
	if cfg.StoreWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%w: store_workers must be positive, got %d", ErrInvalidWorkerCount, cfg.StoreWorkers))
	}
	if cfg.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: embed_batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.EmbedBatchSize))
	}
	if cfg.DatabaseBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: database_batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.DatabaseBatchSize))
	}

	return joinErrors(errs)
}

func validateStorage(cfg *StorageConfig) error {
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("%w: database_path is required", ErrEmptyDatabasePath)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
