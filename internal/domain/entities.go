package domain

import "time"

// Provenance describes where a document came from when it was
// uploaded as a file rather than submitted as raw text.
type Provenance struct {
	Name      string `json:"name" validate:"required,max=255"`
	MediaType string `json:"media_type" validate:"max=50"`
	Size      int64  `json:"size" validate:"gte=0"`
}

// Document is a logical unit of ingested content.
type Document struct {
	ID         string      `json:"id"`
	Content    string      `json:"-"`
	Provenance *Provenance `json:"provenance,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// HasProvenance reports whether the document originated from a file.
func (d Document) HasProvenance() bool {
	return d.Provenance != nil
}

// Chunk is one embedded, retrieval-addressable passage of a document.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Embedding  []float32
}

// Passage is a ranked retrieval result.
type Passage struct {
	ChunkID    string      `json:"chunk_id"`
	Text       string      `json:"text"`
	Similarity float64     `json:"similarity"`
	DocumentID string      `json:"document_id"`
	Provenance *Provenance `json:"provenance,omitempty"`
}

// Source names the passage origin for display.
func (p Passage) Source() string {
	if p.Provenance == nil || p.Provenance.Name == "" {
		return p.DocumentID
	}
	return p.Provenance.Name
}

type Stats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}
