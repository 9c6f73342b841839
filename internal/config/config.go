// Package config defines castindex's configuration schema, defaults, and
// loading: a .castindex/config.yml file with CASTINDEX_* environment
// overrides layered on top via viper.
package config

import "github.com/castindex/indexer/internal/discover"

// Config is the complete castindex configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`     // "mock" or "http"
	Model      string `yaml:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"` // required when provider is "http"
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns; empty means discover.DefaultExtensions
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`
}

// PipelineConfig configures the coordinator's worker pools and batching,
// mirroring pipeline.Config.
type PipelineConfig struct {
	ParseWorkers      int `yaml:"parse_workers" mapstructure:"parse_workers"`
	EmbedWorkers      int `yaml:"embed_workers" mapstructure:"embed_workers"`
	StoreWorkers      int `yaml:"store_workers" mapstructure:"store_workers"`
	EmbedBatchSize    int `yaml:"embed_batch_size" mapstructure:"embed_batch_size"`
	DatabaseBatchSize int `yaml:"database_batch_size" mapstructure:"database_batch_size"`
	OptimizeEvery     int `yaml:"optimize_every" mapstructure:"optimize_every"`
}

// StorageConfig configures the sqlite-backed store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

// Default returns a configuration with sensible defaults: a mock embedding
// provider, the full language extension set from internal/discover, and
// the pipeline's published worker/batch defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "mock",
			Model:      "mock-deterministic-v1",
			Dimensions: 384,
			Endpoint:   "",
		},
		Paths: PathsConfig{
			Include: includePatternsFromExtensions(discover.DefaultExtensions),
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
			},
		},
		Pipeline: PipelineConfig{
			ParseWorkers:      4,
			EmbedWorkers:      2,
			StoreWorkers:      2,
			EmbedBatchSize:    100,
			DatabaseBatchSize: 1000,
			OptimizeEvery:     10,
		},
		Storage: StorageConfig{
			DatabasePath: ".castindex/index.db",
		},
	}
}

func includePatternsFromExtensions(exts []string) []string {
	out := make([]string, len(exts))
	for i, ext := range exts {
		out[i] = "**/*" + ext
	}
	return out
}
