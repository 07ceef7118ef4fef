package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
	"docrag/internal/logger"
	"docrag/internal/port"
)

const (
	// DefaultMaxFileSize bounds a single file ingestion.
	DefaultMaxFileSize int64 = 10 << 20

	textFallback = "Error, please try again."
	fileFallback = "Error processing file, please try again."
)

var validate = validator.New()

// IngestUseCase turns raw text into a stored document plus its embedded
// chunks.
type IngestUseCase struct {
	store       port.ResourceStore
	chunker     port.Chunker
	embedder    port.Embedder
	walker      port.FileWalker
	maxUnitSize int
	maxFileSize int64
	cleanText   bool
	onChange    func()
	logger      *zap.Logger
	now         func() time.Time
}

type IngestOption func(*IngestUseCase)

func WithMaxUnitSize(n int) IngestOption {
	return func(u *IngestUseCase) { u.maxUnitSize = n }
}

func WithMaxFileSize(n int64) IngestOption {
	return func(u *IngestUseCase) {
		if n > 0 {
			u.maxFileSize = n
		}
	}
}

// WithCleanText enables extracted-text cleanup for file ingestion.
func WithCleanText(enabled bool) IngestOption {
	return func(u *IngestUseCase) { u.cleanText = enabled }
}

func WithWalker(w port.FileWalker) IngestOption {
	return func(u *IngestUseCase) { u.walker = w }
}

// WithChangeHook registers a callback run after every successful write,
// typically a cache invalidation.
func WithChangeHook(fn func()) IngestOption {
	return func(u *IngestUseCase) { u.onChange = fn }
}

func WithIngestLogger(l *zap.Logger) IngestOption {
	return func(u *IngestUseCase) { u.logger = l }
}

func NewIngestUseCase(store port.ResourceStore, c port.Chunker, embedder port.Embedder, opts ...IngestOption) *IngestUseCase {
	u := &IngestUseCase{
		store:       store,
		chunker:     c,
		embedder:    embedder,
		maxUnitSize: chunker.DefaultMaxUnitSize,
		maxFileSize: DefaultMaxFileSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = logger.OrNop(u.logger)
	return u
}

// IngestOutcome describes one successful ingestion.
type IngestOutcome struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Message    string `json:"message"`
}

// Ingest stores content as a new document. Embeddings are requested in
// a single batch before anything is written; stores implementing
// port.DocumentCommitter then persist the document and its chunks in one
// transaction. Other stores get the document first and the chunks second.
func (u *IngestUseCase) Ingest(ctx context.Context, content string, provenance *domain.Provenance) (IngestOutcome, error) {
	fallback := textFallback
	if provenance != nil {
		fallback = fileFallback
	}

	if strings.TrimSpace(content) == "" {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, errors.New("content must not be empty"), fallback)
	}
	if provenance != nil {
		if err := validate.Struct(provenance); err != nil {
			return IngestOutcome{}, domain.NewError(domain.ErrValidation, fmt.Errorf("invalid file metadata: %w", err), fallback)
		}
	}

	start := time.Now()
	texts := u.chunker.Chunk(content, u.maxUnitSize)
	if len(texts) == 0 {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, errors.New("content contains no text to embed"), fallback)
	}

	vectors, err := u.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return IngestOutcome{}, domain.NewError(domain.ErrEmbedding, err, fallback)
	}
	if err := u.checkVectors(texts, vectors); err != nil {
		return IngestOutcome{}, domain.NewError(domain.ErrEmbedding, err, fallback)
	}

	now := u.now()
	doc := domain.Document{
		ID:         uuid.NewString(),
		Content:    content,
		Provenance: provenance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Text:       text,
			Embedding:  vectors[i],
		}
	}

	if err := u.persist(ctx, doc, chunks); err != nil {
		return IngestOutcome{}, domain.NewError(domain.ErrStore, err, fallback)
	}

	if u.onChange != nil {
		u.onChange()
	}

	u.logger.Info("ingested document",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Bool("file", provenance != nil),
		zap.Duration("duration", time.Since(start)))

	msg := "Resource successfully created and embedded."
	if provenance != nil {
		msg = fmt.Sprintf("File %q successfully processed and embedded.", provenance.Name)
	}
	return IngestOutcome{DocumentID: doc.ID, Chunks: len(chunks), Message: msg}, nil
}

func (u *IngestUseCase) checkVectors(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(vectors), len(texts))
	}
	dim := u.embedder.Dimension()
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("embedding provider returned an empty vector for chunk %d", i)
		}
		if dim > 0 && len(v) != dim {
			return fmt.Errorf("embedding for chunk %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}

func (u *IngestUseCase) persist(ctx context.Context, doc domain.Document, chunks []domain.Chunk) error {
	if committer, ok := u.store.(port.DocumentCommitter); ok {
		return committer.CommitDocument(ctx, doc, chunks)
	}

	if err := u.store.CreateDocument(ctx, doc); err != nil {
		return err
	}
	if err := u.store.CreateChunks(ctx, doc.ID, chunks); err != nil {
		u.logger.Warn("document stored without chunks",
			zap.String("doc_id", doc.ID),
			zap.Error(err))
		return err
	}
	return nil
}

// FileRequest is a single file ingestion. Name and MediaType default to
// the file's base name and detected type.
type FileRequest struct {
	Path      string
	Name      string
	MediaType string
}

// IngestFile reads a text file and ingests it with provenance.
func (u *IngestUseCase) IngestFile(ctx context.Context, req FileRequest) (IngestOutcome, error) {
	name := req.Name
	if name == "" {
		name = filepath.Base(req.Path)
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, err, fileFallback)
	}
	if info.IsDir() {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, fmt.Errorf("%s is a directory", req.Path), fileFallback)
	}
	if info.Size() > u.maxFileSize {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation,
			fmt.Errorf("file %q is %s, larger than the %s limit", name, FormatSize(info.Size()), FormatSize(u.maxFileSize)),
			fileFallback)
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, err, fileFallback)
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = fs.DetectMediaType(req.Path, data)
	}

	var text string
	if utf8.Valid(data) {
		text = string(data)
		if u.cleanText {
			text = chunker.CleanExtractedText(text)
		}
	}
	if strings.TrimSpace(text) == "" {
		return IngestOutcome{}, domain.NewError(domain.ErrValidation, fmt.Errorf("no readable text found in %q", name), fileFallback)
	}

	return u.Ingest(ctx, text, &domain.Provenance{
		Name:      name,
		MediaType: mediaType,
		Size:      info.Size(),
	})
}

// DirResult summarises a directory ingestion.
type DirResult struct {
	FilesIngested int
	FilesFailed   int
	ChunksCreated int
	Errors        []string
}

// IngestDir ingests every file the walker yields below root. A failing
// file is recorded and skipped; cancellation stops the walk.
// onFile, when set, is called after each file.
func (u *IngestUseCase) IngestDir(ctx context.Context, root string, onFile func(port.FileInfo, error)) (*DirResult, error) {
	if u.walker == nil {
		return nil, errors.New("no file walker configured")
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	result := &DirResult{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name, relErr := filepath.Rel(absRoot, file.Path)
		if relErr != nil || name == "." {
			name = filepath.Base(file.Path)
		}
		outcome, err := u.IngestFile(ctx, FileRequest{Path: file.Path, Name: filepath.ToSlash(name)})
		if err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			u.logger.Warn("file ingestion failed", zap.String("path", file.Path), zap.Error(err))
		} else {
			result.FilesIngested++
			result.ChunksCreated += outcome.Chunks
		}
		if onFile != nil {
			onFile(file, err)
		}
	}

	return result, nil
}

// FormatSize renders a byte count as B, KB or MB.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
