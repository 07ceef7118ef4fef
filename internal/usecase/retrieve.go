package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"docrag/internal/adapter/vecmath"
	"docrag/internal/domain"
	"docrag/internal/logger"
	"docrag/internal/port"
)

const (
	DefaultLimit         = 4
	DefaultMinSimilarity = 0.5
)

// DefaultRetrieveOptions returns limit 4, threshold 0.5.
func DefaultRetrieveOptions() port.RetrieveOptions {
	return port.RetrieveOptions{Limit: DefaultLimit, MinSimilarity: DefaultMinSimilarity}
}

// RetrieveUseCase ranks stored chunks against a query by cosine
// similarity. The store does the join with provenance; this layer owns
// normalisation and the final ordering contract.
type RetrieveUseCase struct {
	store    port.ResourceStore
	embedder port.Embedder
	logger   *zap.Logger
}

var _ port.Retriever = (*RetrieveUseCase)(nil)

func NewRetrieveUseCase(store port.ResourceStore, embedder port.Embedder, l *zap.Logger) *RetrieveUseCase {
	return &RetrieveUseCase{
		store:    store,
		embedder: embedder,
		logger:   logger.OrNop(l),
	}
}

var queryNewlines = strings.NewReplacer(`\n`, " ", "\r\n", " ", "\n", " ")

// NormalizeQuery replaces escaped and literal newlines with spaces.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(queryNewlines.Replace(query))
}

// Retrieve embeds the query once and returns at most opts.Limit passages
// with similarity strictly above opts.MinSimilarity, most similar first.
// A non-positive limit means DefaultLimit. The result is either complete
// or an error, never a partial list.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, opts port.RetrieveOptions) ([]domain.Passage, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, domain.NewError(domain.ErrValidation, errors.New("query must not be empty"), textFallback)
	}

	start := time.Now()
	vector, err := u.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, domain.NewError(domain.ErrEmbedding, err, textFallback)
	}

	passages, err := u.store.SimilarChunks(ctx, vector, opts.MinSimilarity, opts.Limit)
	if err != nil {
		return nil, domain.NewError(domain.ErrStore, err, textFallback)
	}

	// Stores already filter and order; re-applying keeps the contract
	// independent of the backend.
	passages = vecmath.TopPassages(passages, opts.MinSimilarity, opts.Limit)

	u.logger.Debug("retrieved passages",
		zap.Int("results", len(passages)),
		zap.Int("limit", opts.Limit),
		zap.Float64("min_similarity", opts.MinSimilarity),
		zap.Duration("duration", time.Since(start)))

	return passages, nil
}
