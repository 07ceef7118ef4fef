package pgstore

import (
	"time"

	"github.com/pgvector/pgvector-go"

	"docrag/internal/domain"
)

// resourceModel is a row of the resources table. Provenance columns are
// nullable; raw-text submissions leave them NULL.
type resourceModel struct {
	ID        string `gorm:"primaryKey;type:varchar(191)"`
	Content   string `gorm:"type:text;not null"`
	Name      *string
	MediaType *string
	Size      *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (resourceModel) TableName() string {
	return "resources"
}

// embeddingModel is a row of the embeddings table.
type embeddingModel struct {
	ID         string          `gorm:"primaryKey;type:varchar(191)"`
	ResourceID string          `gorm:"type:varchar(191);not null;index"`
	Position   int             `gorm:"not null"`
	Content    string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	CreatedAt  time.Time
}

func (embeddingModel) TableName() string {
	return "embeddings"
}

// passageRow is the shape of the similarity query.
type passageRow struct {
	ChunkID    string
	Text       string
	Similarity float64
	DocumentID string
	Name       *string
	MediaType  *string
	Size       *int64
}

func toResourceModel(doc domain.Document) resourceModel {
	m := resourceModel{
		ID:        doc.ID,
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if p := doc.Provenance; p != nil {
		name, mediaType, size := p.Name, p.MediaType, p.Size
		m.Name = &name
		m.MediaType = &mediaType
		m.Size = &size
	}
	return m
}

func provenanceOf(name, mediaType *string, size *int64) *domain.Provenance {
	if name == nil {
		return nil
	}
	p := &domain.Provenance{Name: *name}
	if mediaType != nil {
		p.MediaType = *mediaType
	}
	if size != nil {
		p.Size = *size
	}
	return p
}

func (m resourceModel) toDocument() domain.Document {
	return domain.Document{
		ID:         m.ID,
		Content:    m.Content,
		Provenance: provenanceOf(m.Name, m.MediaType, m.Size),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r passageRow) toPassage() domain.Passage {
	return domain.Passage{
		ChunkID:    r.ChunkID,
		Text:       r.Text,
		Similarity: r.Similarity,
		DocumentID: r.DocumentID,
		Provenance: provenanceOf(r.Name, r.MediaType, r.Size),
	}
}
