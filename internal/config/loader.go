package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration from a root directory's .castindex/config.yml
// with CASTINDEX_* environment overrides.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader constructs a Loader rooted at rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load resolves configuration with priority (highest to lowest):
// environment variables, .castindex/config.yml, then Default().
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".castindex")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CASTINDEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("embedding.provider")
	v.BindEnv("embedding.model")
	v.BindEnv("embedding.dimensions")
	v.BindEnv("embedding.endpoint")
	v.BindEnv("pipeline.parse_workers")
	v.BindEnv("pipeline.embed_workers")
	v.BindEnv("pipeline.store_workers")
	v.BindEnv("storage.database_path")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)

	v.SetDefault("paths.include", d.Paths.Include)
	v.SetDefault("paths.ignore", d.Paths.Ignore)

	v.SetDefault("pipeline.parse_workers", d.Pipeline.ParseWorkers)
	v.SetDefault("pipeline.embed_workers", d.Pipeline.EmbedWorkers)
	v.SetDefault("pipeline.store_workers", d.Pipeline.StoreWorkers)
	v.SetDefault("pipeline.embed_batch_size", d.Pipeline.EmbedBatchSize)
	v.SetDefault("pipeline.database_batch_size", d.Pipeline.DatabaseBatchSize)
	v.SetDefault("pipeline.optimize_every", d.Pipeline.OptimizeEvery)

	v.SetDefault("storage.database_path", d.Storage.DatabasePath)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at rootDir.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
