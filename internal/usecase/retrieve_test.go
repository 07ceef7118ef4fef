package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/memstore"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// fiveChunkEmbedder places five sentences at known angles from the query
// vector (1, 0): similarities 0.8, 1.0, 0.6, ~0.4 and 0.
func fiveChunkEmbedder() *tableEmbedder {
	return &tableEmbedder{
		dimension: 2,
		vectors: map[string][]float32{
			"chunk one":   {0.8, 0.6},
			"chunk two":   {1, 0},
			"chunk three": {0.6, 0.8},
			"chunk four":  {0.4, 0.9165151},
			"chunk five":  {0, 1},
			"which chunk": {1, 0},
		},
	}
}

func TestRetrieve_FiveChunkScenario(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewMemoryStore(2)
	emb := fiveChunkEmbedder()

	ingest := NewIngestUseCase(store, chunker.NewParagraphChunker(nil), emb)
	outcome, err := ingest.Ingest(ctx, "chunk one. chunk two. chunk three. chunk four. chunk five.", nil)
	require.NoError(t, err)
	require.Equal(t, 5, outcome.Chunks)

	retrieve := NewRetrieveUseCase(store, emb, nil)
	passages, err := retrieve.Retrieve(ctx, "which chunk", port.RetrieveOptions{Limit: 4, MinSimilarity: 0.5})
	require.NoError(t, err)

	require.Len(t, passages, 3)
	assert.Equal(t, "chunk two", passages[0].Text)
	assert.Equal(t, "chunk one", passages[1].Text)
	assert.Equal(t, "chunk three", passages[2].Text)
	for _, p := range passages {
		assert.Greater(t, p.Similarity, 0.5)
		assert.Equal(t, outcome.DocumentID, p.DocumentID)
	}
	assert.Equal(t, 1, emb.oneCalls)
}

func TestRetrieve_LimitAndDefaults(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewMemoryStore(2)
	emb := fiveChunkEmbedder()
	_, err := NewIngestUseCase(store, chunker.NewParagraphChunker(nil), emb).
		Ingest(ctx, "chunk one. chunk two. chunk three. chunk four. chunk five.", nil)
	require.NoError(t, err)

	retrieve := NewRetrieveUseCase(store, emb, nil)

	passages, err := retrieve.Retrieve(ctx, "which chunk", port.RetrieveOptions{Limit: 2, MinSimilarity: 0.5})
	require.NoError(t, err)
	assert.Len(t, passages, 2)

	passages, err = retrieve.Retrieve(ctx, "which chunk", port.RetrieveOptions{MinSimilarity: -1})
	require.NoError(t, err)
	assert.Len(t, passages, DefaultLimit)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].Similarity, passages[i].Similarity)
	}
}

func TestRetrieve_NormalizesEscapedNewlines(t *testing.T) {
	emb := &tableEmbedder{dimension: 1, vectors: map[string][]float32{"first line second line": {1}}}
	retrieve := NewRetrieveUseCase(memstore.NewMemoryStore(1), emb, nil)

	_, err := retrieve.Retrieve(context.Background(), `first line\nsecond line`, DefaultRetrieveOptions())
	require.NoError(t, err)

	_, err = retrieve.Retrieve(context.Background(), "first line\nsecond line", DefaultRetrieveOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, emb.oneCalls)
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "a b", NormalizeQuery(`a\nb`))
	assert.Equal(t, "a b", NormalizeQuery("a\r\nb"))
	assert.Equal(t, "", NormalizeQuery(`\n`))
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	emb := fiveChunkEmbedder()
	retrieve := NewRetrieveUseCase(memstore.NewMemoryStore(2), emb, nil)

	_, err := retrieve.Retrieve(context.Background(), `  \n `, DefaultRetrieveOptions())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, emb.oneCalls)
}

func TestRetrieve_ErrorsAreWhole(t *testing.T) {
	emb := fiveChunkEmbedder()

	store := &failingStore{ResourceStore: memstore.NewMemoryStore(2), err: errors.New("connection reset")}
	passages, err := NewRetrieveUseCase(store, emb, nil).Retrieve(context.Background(), "which chunk", DefaultRetrieveOptions())
	assert.Nil(t, passages)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Equal(t, "connection reset", err.Error())

	store.err = errEmpty
	_, err = NewRetrieveUseCase(store, emb, nil).Retrieve(context.Background(), "which chunk", DefaultRetrieveOptions())
	assert.Equal(t, "Error, please try again.", err.Error())

	_, err = NewRetrieveUseCase(memstore.NewMemoryStore(2), emb, nil).Retrieve(context.Background(), "unknown", DefaultRetrieveOptions())
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestRetrieve_ExcludesDeletedDocuments(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewMemoryStore(2)
	emb := fiveChunkEmbedder()
	outcome, err := NewIngestUseCase(store, chunker.NewParagraphChunker(nil), emb).
		Ingest(ctx, "chunk one. chunk two.", &domain.Provenance{Name: "pair.txt"})
	require.NoError(t, err)

	msg, err := NewResourceUseCase(store, nil, nil).Delete(ctx, outcome.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, `Successfully deleted "pair.txt".`, msg)

	passages, err := NewRetrieveUseCase(store, emb, nil).Retrieve(ctx, "which chunk", DefaultRetrieveOptions())
	require.NoError(t, err)
	assert.Empty(t, passages)
}
