package embedding

import (
	"fmt"
	"time"

	"docrag/config"
	"docrag/internal/port"
)

// FromConfig builds the embedder selected by the embedding config.
func FromConfig(c config.EmbeddingConfig) (port.Embedder, error) {
	opts := []Option{
		WithDimension(c.Dimension),
		WithBatchSize(c.BatchSize),
		WithTimeout(time.Duration(c.TimeoutSeconds) * time.Second),
	}

	var (
		embedder port.Embedder
		err      error
	)
	switch c.Provider {
	case "openai":
		if c.BaseURL != "" {
			embedder, err = NewOpenAICompatibleEmbedder(c.APIKeyEnv, c.Model, c.BaseURL, opts...)
		} else {
			embedder, err = NewOpenAIEmbedder(c.APIKeyEnv, c.Model, opts...)
		}
	case "deepseek":
		embedder, err = NewDeepSeekEmbedder(c.APIKeyEnv, c.Model, opts...)
	case "jina":
		embedder, err = NewJinaEmbedder(c.APIKeyEnv, c.Model, opts...)
	case "ollama":
		embedder, err = NewOllamaEmbedder(c.Model, c.BaseURL, opts...)
	case "compatible":
		embedder, err = NewOpenAICompatibleEmbedder(c.APIKeyEnv, c.Model, c.BaseURL, opts...)
	case "mock":
		embedder = NewMockEmbedder(c.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", c.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
