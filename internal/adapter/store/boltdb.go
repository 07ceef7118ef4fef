package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/adapter/vecmath"
	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	bucketDocuments = []byte("documents")
	bucketChunks    = []byte("chunks")
	bucketDocChunks = []byte("doc_chunks")
	bucketMeta      = []byte("meta")
)

// BoltStore is the embedded ResourceStore. Chunk keys are big-endian
// sequence numbers, so a cursor walk visits chunks in insertion order.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
}

var (
	_ port.ResourceStore     = (*BoltStore)(nil)
	_ port.DocumentCommitter = (*BoltStore)(nil)
)

func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketChunks, bucketDocChunks, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, dimension: dimension}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type docRecord struct {
	Content    string             `json:"content"`
	Provenance *domain.Provenance `json:"provenance,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type chunkRecord struct {
	ID     string    `json:"id"`
	DocID  string    `json:"doc_id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (s *BoltStore) checkDimension(vec []float32) error {
	if s.dimension > 0 && len(vec) != s.dimension {
		return fmt.Errorf("embedding dimension %d does not match store dimension %d", len(vec), s.dimension)
	}
	return nil
}

func (s *BoltStore) CreateDocument(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putDocument(tx, doc)
	})
}

func putDocument(tx *bbolt.Tx, doc domain.Document) error {
	now := time.Now().UTC()
	rec := docRecord{
		Content:    doc.Content,
		Provenance: doc.Provenance,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketDocuments).Put([]byte(doc.ID), data)
}

func (s *BoltStore) CreateChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketDocuments).Get([]byte(docID)) == nil {
			return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
		}
		return s.putChunks(tx, docID, chunks)
	})
}

func (s *BoltStore) putChunks(tx *bbolt.Tx, docID string, chunks []domain.Chunk) error {
	chunkBucket := tx.Bucket(bucketChunks)
	docChunks := tx.Bucket(bucketDocChunks)

	var keys []uint64
	if existing := docChunks.Get([]byte(docID)); existing != nil {
		if err := json.Unmarshal(existing, &keys); err != nil {
			return err
		}
	}

	for _, chunk := range chunks {
		if err := s.checkDimension(chunk.Embedding); err != nil {
			return err
		}
		seq, err := chunkBucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(chunkRecord{
			ID:     chunk.ID,
			DocID:  docID,
			Text:   chunk.Text,
			Vector: chunk.Embedding,
		})
		if err != nil {
			return err
		}
		if err := chunkBucket.Put(seqKey(seq), data); err != nil {
			return err
		}
		keys = append(keys, seq)
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return docChunks.Put([]byte(docID), data)
}

// CommitDocument writes the document and its chunks in one transaction.
func (s *BoltStore) CommitDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putDocument(tx, doc); err != nil {
			return err
		}
		return s.putChunks(tx, doc.ID, chunks)
	})
}

func (s *BoltStore) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		var rec docRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		doc = rec.toDocument(id)
		return nil
	})
	return doc, err
}

func (r docRecord) toDocument(id string) domain.Document {
	return domain.Document{
		ID:         id,
		Content:    r.Content,
		Provenance: r.Provenance,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (s *BoltStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.Provenance == nil {
				return nil
			}
			docs = append(docs, rec.toDocument(string(k)))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *BoltStore) DeleteChunksByDocument(ctx context.Context, docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunks(tx, docID)
	})
}

func deleteChunks(tx *bbolt.Tx, docID string) error {
	docChunks := tx.Bucket(bucketDocChunks)
	data := docChunks.Get([]byte(docID))
	if data == nil {
		return nil
	}
	var keys []uint64
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	chunkBucket := tx.Bucket(bucketChunks)
	for _, seq := range keys {
		if err := chunkBucket.Delete(seqKey(seq)); err != nil {
			return err
		}
	}
	return docChunks.Delete([]byte(docID))
}

func (s *BoltStore) DeleteDocument(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		data := docs.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		var rec docRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		if rec.Provenance != nil {
			name = rec.Provenance.Name
		}
		if err := deleteChunks(tx, id); err != nil {
			return err
		}
		return docs.Delete([]byte(id))
	})
	return name, err
}

func (s *BoltStore) SimilarChunks(ctx context.Context, query []float32, minSimilarity float64, limit int) ([]domain.Passage, error) {
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}

	var scored []domain.Passage
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		provenance := make(map[string]*domain.Provenance)

		c := tx.Bucket(bucketChunks).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			sim := vecmath.CosineSimilarity(query, rec.Vector)
			if sim <= minSimilarity {
				continue
			}

			prov, seen := provenance[rec.DocID]
			if !seen {
				if data := docs.Get([]byte(rec.DocID)); data != nil {
					var doc docRecord
					if err := json.Unmarshal(data, &doc); err == nil {
						prov = doc.Provenance
					}
				}
				provenance[rec.DocID] = prov
			}

			scored = append(scored, domain.Passage{
				ChunkID:    rec.ID,
				Text:       rec.Text,
				Similarity: sim,
				DocumentID: rec.DocID,
				Provenance: prov,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vecmath.TopPassages(scored, minSimilarity, limit), nil
}

func (s *BoltStore) Count(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.Documents = tx.Bucket(bucketDocuments).Stats().KeyN
		stats.Chunks = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
