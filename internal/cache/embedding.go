package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/ports"
)

// CachedEmbedder memoizes vectors computed by the wrapped embedder so
// repeated questions never hit the embedding backend twice. Failed
// computations are never stored. The capacity bound and eviction mirror
// the query cache's tier 1, scoped to embeddings only.
type CachedEmbedder struct {
	inner ports.Embedder
	lru   *ttlLRU[[]float32]

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

func NewCachedEmbedder(inner ports.Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		lru:   newTTLLRU[[]float32](capacity, SystemClock()),
	}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// Batch embedding happens at ingestion over one-shot chunk sets;
	// memoizing it would only grow the cache with never-repeated keys.
	return e.inner.Embed(ctx, texts)
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := normalizeEmbedKey(text)
	if vector, ok := e.lru.Get(key); ok {
		e.record(true)
		return vector, nil
	}

	vector, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		e.record(false)
		return nil, err
	}

	e.lru.Set(key, vector, 0)
	e.record(false)
	return vector, nil
}

// HitRate reports the memoization ratio since construction.
func (e *CachedEmbedder) HitRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.hits + e.misses
	if total == 0 {
		return 0
	}
	return float64(e.hits) / float64(total)
}

func (e *CachedEmbedder) record(hit bool) {
	e.mu.Lock()
	if hit {
		e.hits++
	} else {
		e.misses++
	}
	e.mu.Unlock()
}

func normalizeEmbedKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
