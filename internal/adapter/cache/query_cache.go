package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"docrag/internal/domain"
	"docrag/internal/port"
)

const (
	DefaultSize = 128
	DefaultTTL  = 5 * time.Minute
)

// QueryCache memoises retrieval results per (query, limit, threshold).
// Entries expire after the TTL and are dropped wholesale whenever the
// store changes.
type QueryCache struct {
	mu         sync.Mutex
	entries    *lru.Cache
	ttl        time.Duration
	generation uint64
	now        func() time.Time
}

type cacheEntry struct {
	passages   []domain.Passage
	storedAt   time.Time
	generation uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, _ := lru.New(maxSize) // only fails for size <= 0
	return &QueryCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, opts port.RetrieveOptions) string {
	return fmt.Sprintf("%d|%g|%s", opts.Limit, opts.MinSimilarity, query)
}

func (c *QueryCache) Get(query string, opts port.RetrieveOptions) ([]domain.Passage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, opts)
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(*cacheEntry)
	if entry.generation != c.generation || c.now().Sub(entry.storedAt) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.passages, true
}

func (c *QueryCache) Put(query string, opts port.RetrieveOptions, passages []domain.Passage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(cacheKey(query, opts), &cacheEntry{
		passages:   passages,
		storedAt:   c.now(),
		generation: c.generation,
	})
}

// Invalidate drops every entry. Ingest and delete call it so a cached
// answer never outlives the data it was computed from.
func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.generation++
}

func (c *QueryCache) Size() int {
	return c.entries.Len()
}

// CachedRetriever serves repeated queries from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

var _ port.Retriever = (*CachedRetriever)(nil)

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, opts port.RetrieveOptions) ([]domain.Passage, error) {
	if passages, hit := r.cache.Get(query, opts); hit {
		return passages, nil
	}

	passages, err := r.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, opts, passages)
	return passages, nil
}
