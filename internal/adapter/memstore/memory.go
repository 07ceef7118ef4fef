package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docrag/internal/adapter/vecmath"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// MemoryStore is a process-local ResourceStore for tests and throwaway
// sessions. Chunks are kept in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]domain.Document
	docOrder  []string
	chunks    []domain.Chunk
	dimension int
}

var (
	_ port.ResourceStore     = (*MemoryStore)(nil)
	_ port.DocumentCommitter = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store. A dimension of 0 accepts vectors
// of any length.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]domain.Document),
		dimension: dimension,
	}
}

func (s *MemoryStore) checkDimension(vec []float32) error {
	if s.dimension > 0 && len(vec) != s.dimension {
		return fmt.Errorf("embedding dimension %d does not match store dimension %d", len(vec), s.dimension)
	}
	return nil
}

func (s *MemoryStore) putDocument(doc domain.Document) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if _, exists := s.docs[doc.ID]; !exists {
		s.docOrder = append(s.docOrder, doc.ID)
	}
	s.docs[doc.ID] = doc
}

func (s *MemoryStore) CreateDocument(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putDocument(doc)
	return nil
}

func (s *MemoryStore) CreateChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	return s.appendChunks(docID, chunks)
}

func (s *MemoryStore) appendChunks(docID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if err := s.checkDimension(c.Embedding); err != nil {
			return err
		}
	}
	for _, c := range chunks {
		c.DocumentID = docID
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *MemoryStore) CommitDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if err := s.checkDimension(c.Embedding); err != nil {
			return err
		}
	}
	s.putDocument(doc)
	return s.appendChunks(doc.ID, chunks)
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		if doc := s.docs[id]; doc.HasProvenance() {
			docs = append(docs, doc)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryStore) DeleteChunksByDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropChunks(docID)
	return nil
}

func (s *MemoryStore) dropChunks(docID string) {
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	s.dropChunks(id)
	delete(s.docs, id)
	for i, docID := range s.docOrder {
		if docID == id {
			s.docOrder = append(s.docOrder[:i], s.docOrder[i+1:]...)
			break
		}
	}
	if doc.Provenance == nil {
		return "", nil
	}
	return doc.Provenance.Name, nil
}

func (s *MemoryStore) SimilarChunks(ctx context.Context, query []float32, minSimilarity float64, limit int) ([]domain.Passage, error) {
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.Passage, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, domain.Passage{
			ChunkID:    c.ID,
			Text:       c.Text,
			Similarity: vecmath.CosineSimilarity(query, c.Embedding),
			DocumentID: c.DocumentID,
			Provenance: s.docs[c.DocumentID].Provenance,
		})
	}
	return vecmath.TopPassages(scored, minSimilarity, limit), nil
}

func (s *MemoryStore) Count(ctx context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Stats{Documents: len(s.docs), Chunks: len(s.chunks)}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
