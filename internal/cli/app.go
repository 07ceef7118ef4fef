package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/memstore"
	"docrag/internal/adapter/pgstore"
	"docrag/internal/adapter/store"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// app holds the adapters a command needs, built from the loaded config.
type app struct {
	cfg      *config.Config
	store    port.ResourceStore
	embedder port.Embedder
	cache    *cache.QueryCache
	logger   *zap.Logger
}

func openStore(ctx context.Context, c *config.Config, dir string, dimension int, l *zap.Logger) (port.ResourceStore, error) {
	switch c.Store.Driver {
	case "memory":
		l.Warn("memory store selected; data is discarded on exit")
		return memstore.NewMemoryStore(dimension), nil

	case "postgres":
		st, err := pgstore.Open(c.Store.DSN, dimension)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil

	case "bolt", "":
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath := c.StoreDBPath(dir)
		st, err := store.NewBoltStore(dbPath, dimension)
		if err != nil {
			return nil, err
		}
		if err := checkBoltSchema(st, c, l); err != nil {
			st.Close()
			return nil, err
		}
		l.Debug("opened bolt store", zap.String("path", dbPath))
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// checkBoltSchema stamps a fresh database and refuses to mix vectors from
// a different embedding configuration.
func checkBoltSchema(st *store.BoltStore, c *config.Config, l *zap.Logger) error {
	result, err := st.CheckMigration(c)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if result.NeedsRebuild {
		return fmt.Errorf("store needs a rebuild (%s); run 'docrag resources clear' and ingest again", result.Reason)
	}
	if result.NeedsMigration {
		l.Info("running schema migration", zap.String("reason", result.Reason))
		if err := st.Migrate(c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func openApp(ctx context.Context) (*app, error) {
	c := GetConfig()

	embedder, err := embedding.FromConfig(c.Embedding)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, c, GetRootDir(), embedder.Dimension(), log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      c,
		store:    st,
		embedder: embedder,
		cache: cache.NewQueryCache(c.Retrieve.CacheSize,
			time.Duration(c.Retrieve.CacheTTLSeconds)*time.Second),
		logger: log,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) ingestUseCase() *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(a.store, chunker.NewParagraphChunker(nil), a.embedder,
		usecase.WithMaxUnitSize(a.cfg.Chunk.MaxUnitSize),
		usecase.WithMaxFileSize(a.cfg.Ingest.MaxFileSize),
		usecase.WithCleanText(a.cfg.Ingest.CleanText),
		usecase.WithWalker(fs.NewWalker(a.cfg.Ingest.Includes, a.cfg.Ingest.Excludes)),
		usecase.WithChangeHook(a.cache.Invalidate),
		usecase.WithIngestLogger(a.logger),
	)
}

func (a *app) retriever(cached bool) port.Retriever {
	var r port.Retriever = usecase.NewRetrieveUseCase(a.store, a.embedder, a.logger)
	if cached {
		r = cache.NewCachedRetriever(r, a.cache)
	}
	return r
}

func (a *app) resourceUseCase() *usecase.ResourceUseCase {
	return usecase.NewResourceUseCase(a.store, a.cache.Invalidate, a.logger)
}
