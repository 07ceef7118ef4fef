package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedBatch generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
