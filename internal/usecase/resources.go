package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/logger"
	"docrag/internal/port"
)

// ResourceUseCase lists, inspects and deletes stored documents.
type ResourceUseCase struct {
	store    port.ResourceStore
	onChange func()
	logger   *zap.Logger
}

func NewResourceUseCase(store port.ResourceStore, onChange func(), l *zap.Logger) *ResourceUseCase {
	return &ResourceUseCase{
		store:    store,
		onChange: onChange,
		logger:   logger.OrNop(l),
	}
}

// List returns file-backed documents, newest first.
func (u *ResourceUseCase) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := u.store.ListDocuments(ctx)
	if err != nil {
		return nil, domain.NewError(domain.ErrStore, err, textFallback)
	}
	return docs, nil
}

// Delete removes a document and all of its chunks.
func (u *ResourceUseCase) Delete(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", domain.NewError(domain.ErrValidation, errors.New("document id must not be empty"), textFallback)
	}

	name, err := u.store.DeleteDocument(ctx, id)
	if err != nil {
		kind := domain.ErrStore
		if errors.Is(err, domain.ErrNotFound) {
			kind = domain.ErrNotFound
		}
		return "", domain.NewError(kind, err, textFallback)
	}

	if u.onChange != nil {
		u.onChange()
	}
	u.logger.Info("deleted document", zap.String("doc_id", id), zap.String("name", name))

	if name == "" {
		name = "resource"
	}
	return fmt.Sprintf("Successfully deleted %q.", name), nil
}

func (u *ResourceUseCase) Stats(ctx context.Context) (domain.Stats, error) {
	stats, err := u.store.Count(ctx)
	if err != nil {
		return domain.Stats{}, domain.NewError(domain.ErrStore, err, textFallback)
	}
	return stats, nil
}
