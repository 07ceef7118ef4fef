package port

import (
	"context"

	"docrag/internal/domain"
)

// ResourceStore persists documents and their embedded chunks.
type ResourceStore interface {
	CreateDocument(ctx context.Context, doc domain.Document) error

	CreateChunks(ctx context.Context, docID string, chunks []domain.Chunk) error

	GetDocument(ctx context.Context, id string) (domain.Document, error)

	// ListDocuments returns documents that carry provenance, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	DeleteChunksByDocument(ctx context.Context, docID string) error

	// DeleteDocument removes the document and its chunks and returns the
	// provenance name, empty when the document had none.
	DeleteDocument(ctx context.Context, id string) (string, error)

	// SimilarChunks returns chunks whose cosine similarity to query is
	// strictly greater than minSimilarity, most similar first, joined with
	// the owning document's provenance.
	SimilarChunks(ctx context.Context, query []float32, minSimilarity float64, limit int) ([]domain.Passage, error)

	Count(ctx context.Context) (domain.Stats, error)

	Close() error
}

// DocumentCommitter is implemented by stores that can write a document
// and all of its chunks in a single transaction.
type DocumentCommitter interface {
	CommitDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error
}

// Retriever ranks stored passages against a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]domain.Passage, error)
}

// RetrieveOptions bounds a retrieval.
type RetrieveOptions struct {
	Limit         int
	MinSimilarity float64
}
