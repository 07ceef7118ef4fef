package usecase

import (
	"context"
	"errors"
	"fmt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// tableEmbedder returns fixed vectors per text and counts calls.
type tableEmbedder struct {
	vectors    map[string][]float32
	dimension  int
	batchCalls int
	oneCalls   int
	batchErr   error
	dropLast   bool
}

func (e *tableEmbedder) lookup(text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (e *tableEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.lookup(t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if e.dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *tableEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.oneCalls++
	return e.lookup(text)
}

func (e *tableEmbedder) Dimension() int    { return e.dimension }
func (e *tableEmbedder) ModelName() string { return "table" }

// twoStepStore hides CommitDocument so ingestion uses the
// create-document-then-chunks path.
type twoStepStore struct {
	port.ResourceStore
	chunksErr error
}

func (s *twoStepStore) CreateChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	if s.chunksErr != nil {
		return s.chunksErr
	}
	return s.ResourceStore.CreateChunks(ctx, docID, chunks)
}

// failingStore fails every similarity query and commit.
type failingStore struct {
	port.ResourceStore
	err error
}

func (s *failingStore) SimilarChunks(ctx context.Context, query []float32, minSimilarity float64, limit int) ([]domain.Passage, error) {
	return nil, s.err
}

func (s *failingStore) CommitDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	return s.err
}

var errEmpty = errors.New("")
