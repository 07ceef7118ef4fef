// Package pgstore implements the resource store on PostgreSQL with the
// pgvector extension. Similarity is computed in SQL as 1 - cosine distance.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"docrag/internal/domain"
	"docrag/internal/port"
)

type PostgresStore struct {
	db        *gorm.DB
	dimension int
}

var (
	_ port.ResourceStore     = (*PostgresStore)(nil)
	_ port.DocumentCommitter = (*PostgresStore)(nil)
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}
}

// Open connects to dsn. Call Migrate before first use.
func Open(dsn string, dimension int) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &PostgresStore{db: db, dimension: dimension}, nil
}

// NewWithConn wraps an existing connection pool.
func NewWithConn(conn *sql.DB, dimension int) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return &PostgresStore{db: db, dimension: dimension}, nil
}

// Migrate creates the vector extension, both tables and the HNSW index.
// It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS resources (
			id varchar(191) PRIMARY KEY,
			content text NOT NULL,
			name varchar(255),
			media_type varchar(50),
			size bigint,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			id varchar(191) PRIMARY KEY,
			resource_id varchar(191) NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
			position integer NOT NULL,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS embedding_index ON embeddings USING hnsw (embedding vector_cosine_ops)`,
	}

	db := s.db.WithContext(ctx)
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) checkDimension(vec []float32) error {
	if s.dimension > 0 && len(vec) != s.dimension {
		return fmt.Errorf("embedding dimension %d does not match store dimension %d", len(vec), s.dimension)
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc domain.Document) error {
	m := toResourceModel(doc)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	return s.insertChunks(s.db.WithContext(ctx), docID, chunks)
}

func (s *PostgresStore) insertChunks(db *gorm.DB, docID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]embeddingModel, len(chunks))
	for i, c := range chunks {
		if err := s.checkDimension(c.Embedding); err != nil {
			return err
		}
		rows[i] = embeddingModel{
			ID:         c.ID,
			ResourceID: docID,
			Position:   i,
			Content:    c.Text,
			Embedding:  pgvector.NewVector(c.Embedding),
		}
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}
	return nil
}

// CommitDocument inserts the resource and its embeddings in one transaction.
func (s *PostgresStore) CommitDocument(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if err := s.checkDimension(c.Embedding); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toResourceModel(doc)
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert resource: %w", err)
		}
		return s.insertChunks(tx, doc.ID, chunks)
	})
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var m resourceModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Document{}, err
	}
	return m.toDocument(), nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var rows []resourceModel
	err := s.db.WithContext(ctx).
		Where("name IS NOT NULL").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(rows))
	for i, m := range rows {
		docs[i] = m.toDocument()
	}
	return docs, nil
}

func (s *PostgresStore) DeleteChunksByDocument(ctx context.Context, docID string) error {
	return s.db.WithContext(ctx).Where("resource_id = ?", docID).Delete(&embeddingModel{}).Error
}

// DeleteDocument removes the embeddings before the resource so the
// cascade does not depend on the foreign key being present.
func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) (string, error) {
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m resourceModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
			}
			return err
		}
		if m.Name != nil {
			name = *m.Name
		}
		if err := tx.Where("resource_id = ?", id).Delete(&embeddingModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&resourceModel{}).Error
	})
	return name, err
}

const similarityQuery = `SELECT e.id AS chunk_id, e.content AS text,
	1 - (e.embedding <=> ?) AS similarity,
	e.resource_id AS document_id, r.name, r.media_type, r.size
FROM embeddings e
LEFT JOIN resources r ON r.id = e.resource_id
WHERE 1 - (e.embedding <=> ?) > ?
ORDER BY similarity DESC, e.created_at ASC, e.position ASC`

func (s *PostgresStore) SimilarChunks(ctx context.Context, query []float32, minSimilarity float64, limit int) ([]domain.Passage, error) {
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(query)
	sqlText := similarityQuery
	args := []interface{}{vec, vec, minSimilarity}
	if limit > 0 {
		sqlText += "\nLIMIT ?"
		args = append(args, limit)
	}

	var rows []passageRow
	if err := s.db.WithContext(ctx).Raw(sqlText, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	passages := make([]domain.Passage, len(rows))
	for i, r := range rows {
		passages[i] = r.toPassage()
	}
	return passages, nil
}

func (s *PostgresStore) Count(ctx context.Context) (domain.Stats, error) {
	var docs, chunks int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&resourceModel{}).Count(&docs).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&embeddingModel{}).Count(&chunks).Error; err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{Documents: int(docs), Chunks: int(chunks)}, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
