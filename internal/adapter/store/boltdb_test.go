package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
	"docrag/internal/domain"
)

func newTestStore(t *testing.T, dim int) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"), dim)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func chunk(id, text string, vec ...float32) domain.Chunk {
	return domain.Chunk{ID: id, Text: text, Embedding: vec}
}

func TestBoltStore_CommitAndSimilar(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	doc := domain.Document{
		ID:         "doc-1",
		Content:    "alpha. beta",
		Provenance: &domain.Provenance{Name: "notes.txt", MediaType: "text/plain", Size: 11},
	}
	err := s.CommitDocument(ctx, doc, []domain.Chunk{
		chunk("c1", "alpha", 1, 0),
		chunk("c2", "beta", 0, 1),
		chunk("c3", "alpha-ish", 0.9, 0.1),
	})
	require.NoError(t, err)

	passages, err := s.SimilarChunks(ctx, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "c1", passages[0].ChunkID)
	assert.InDelta(t, 1.0, passages[0].Similarity, 1e-9)
	assert.Equal(t, "c3", passages[1].ChunkID)
	assert.Equal(t, "notes.txt", passages[0].Provenance.Name)
	assert.Equal(t, "doc-1", passages[0].DocumentID)

	stats, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Documents: 1, Chunks: 3}, stats)
}

func TestBoltStore_SimilarTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.CreateDocument(ctx, domain.Document{ID: "d", Content: "x"}))
	require.NoError(t, s.CreateChunks(ctx, "d", []domain.Chunk{
		chunk("first", "a", 1, 1),
		chunk("second", "b", 1, 1),
		chunk("third", "c", 1, 1),
	}))

	passages, err := s.SimilarChunks(ctx, []float32{1, 1}, 0.5, 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "first", passages[0].ChunkID)
	assert.Equal(t, "second", passages[1].ChunkID)
	assert.Nil(t, passages[0].Provenance)
}

func TestBoltStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	err := s.CommitDocument(ctx, domain.Document{ID: "d"}, []domain.Chunk{chunk("c", "t", 1, 0)})
	require.Error(t, err)

	// the failed commit left nothing behind
	stats, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)

	_, err = s.SimilarChunks(ctx, []float32{1, 0}, 0, 4)
	assert.Error(t, err)
}

func TestBoltStore_CreateChunksUnknownDocument(t *testing.T) {
	s := newTestStore(t, 0)
	err := s.CreateChunks(context.Background(), "missing", []domain.Chunk{chunk("c", "t", 1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltStore_ListDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateDocument(ctx, domain.Document{ID: "raw", Content: "no provenance", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.CreateDocument(ctx, domain.Document{
		ID: "old", Content: "a", CreatedAt: base,
		Provenance: &domain.Provenance{Name: "old.txt"},
	}))
	require.NoError(t, s.CreateDocument(ctx, domain.Document{
		ID: "new", Content: "b", CreatedAt: base.Add(2 * time.Hour),
		Provenance: &domain.Provenance{Name: "new.txt"},
	}))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[1].ID)
}

func TestBoltStore_DeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 2)

	require.NoError(t, s.CommitDocument(ctx,
		domain.Document{ID: "a", Content: "x", Provenance: &domain.Provenance{Name: "a.md"}},
		[]domain.Chunk{chunk("a1", "x", 1, 0), chunk("a2", "y", 1, 0.1)}))
	require.NoError(t, s.CommitDocument(ctx,
		domain.Document{ID: "b", Content: "z"},
		[]domain.Chunk{chunk("b1", "z", 1, 0)}))

	name, err := s.DeleteDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.md", name)

	_, err = s.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	passages, err := s.SimilarChunks(ctx, []float32{1, 0}, 0, 10)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "b1", passages[0].ChunkID)

	name, err = s.DeleteDocument(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = s.DeleteDocument(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltStore_DeleteChunksByDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 1)

	require.NoError(t, s.CommitDocument(ctx, domain.Document{ID: "d", Content: "x"},
		[]domain.Chunk{chunk("c", "x", 1)}))
	require.NoError(t, s.DeleteChunksByDocument(ctx, "d"))
	require.NoError(t, s.DeleteChunksByDocument(ctx, "unknown"))

	stats, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Documents: 1, Chunks: 0}, stats)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewBoltStore(path, 1)
	require.NoError(t, err)
	require.NoError(t, s.CommitDocument(ctx, domain.Document{ID: "d", Content: "persisted"},
		[]domain.Chunk{chunk("c", "persisted", 1)}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path, 1)
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.GetDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "persisted", doc.Content)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestMigrations(t *testing.T) {
	s := newTestStore(t, 0)
	cfg := config.DefaultConfig()

	result, err := s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsMigration)
	assert.False(t, result.NeedsRebuild)

	require.NoError(t, s.Migrate(cfg))

	result, err = s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.False(t, result.NeedsMigration)
	assert.False(t, result.NeedsRebuild)

	changed := config.DefaultConfig()
	changed.Embedding.Model = "text-embedding-3-small"
	result, err = s.CheckMigration(changed)
	require.NoError(t, err)
	assert.True(t, result.NeedsRebuild)

	require.NoError(t, s.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}))
	result, err = s.CheckMigration(cfg)
	require.NoError(t, err)
	assert.True(t, result.NeedsRebuild)
}

func TestClearKeepsSchema(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 1)
	cfg := config.DefaultConfig()
	require.NoError(t, s.Migrate(cfg))
	require.NoError(t, s.CommitDocument(ctx, domain.Document{ID: "d"}, []domain.Chunk{chunk("c", "x", 1)}))

	require.NoError(t, s.Clear())

	stats, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)

	info, err := s.GetSchemaInfo()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.Version)
	assert.Equal(t, EmbeddingFingerprint(cfg), info.Fingerprint)
}
