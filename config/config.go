package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docrag.
type Config struct {
	Chunk     ChunkConfig     `yaml:"chunk"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ChunkConfig struct {
	MaxUnitSize int `yaml:"max_unit_size" validate:"gt=0"`
}

type RetrieveConfig struct {
	Limit           int     `yaml:"limit" validate:"gt=0"`
	MinSimilarity   float64 `yaml:"min_similarity" validate:"gte=-1,lte=1"`
	CacheSize       int     `yaml:"cache_size" validate:"gte=0"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"gte=0"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider" validate:"oneof=openai deepseek jina ollama compatible mock"`
	Model          string `yaml:"model" validate:"required"`
	APIKeyEnv      string `yaml:"api_key_env"` // environment variable holding the key
	BaseURL        string `yaml:"base_url" validate:"omitempty,url"`
	Dimension      int    `yaml:"dimension" validate:"gt=0"`
	BatchSize      int    `yaml:"batch_size" validate:"gt=0"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
}

// StoreConfig selects the resource store backend. Path is relative to
// the data directory when not absolute.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=bolt postgres memory"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn" validate:"required_if=Driver postgres"`
}

type IngestConfig struct {
	Includes    []string `yaml:"includes"`
	Excludes    []string `yaml:"excludes"`
	MaxFileSize int64    `yaml:"max_file_size" validate:"gt=0"`
	CleanText   bool     `yaml:"clean_text"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunk: ChunkConfig{
			MaxUnitSize: 1000,
		},
		Retrieve: RetrieveConfig{
			Limit:           4,
			MinSimilarity:   0.5,
			CacheSize:       128,
			CacheTTLSeconds: 300,
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-ada-002",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      1536,
			BatchSize:      100,
			TimeoutSeconds: 60,
		},
		Store: StoreConfig{
			Driver: "bolt",
			Path:   "docrag.db",
		},
		Ingest: IngestConfig{
			Includes:    []string{"**/*.txt", "**/*.md", "**/*.markdown", "**/*.rst", "**/*.html", "**/*.csv"},
			Excludes:    []string{"**/.git/**", "**/node_modules/**", "**/vendor/**", "**/.docrag/**"},
			MaxFileSize: 10 << 20,
			CleanText:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

var validate = validator.New()

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for docrag.yaml, then .docrag/config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(DataDir(dir), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir is where docrag keeps its state inside dir.
func DataDir(dir string) string {
	return filepath.Join(dir, ".docrag")
}

// StoreDBPath returns the bolt database path for dir.
func (c *Config) StoreDBPath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(DataDir(dir), c.Store.Path)
}

func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
