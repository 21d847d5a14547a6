// Package cache implements the layered answer cache: a bounded in-process
// LRU tier that is always available, and an optional distributed tier that
// fails open. Identical in-flight questions coalesce into one computation.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// RemoteStore is the optional distributed tier. Implementations are reached
// over the network and may fail at any time; the query cache treats every
// error as a degradation, never as a request failure.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) error
}

type Options struct {
	Capacity      int
	TTL           time.Duration
	RemoteTimeout time.Duration
	Clock         Clock
	Logger        *slog.Logger
}

// QueryCache caches the full question->answer pipeline keyed by
// fingerprint. Tier 1 is consulted first; tier 2 (when configured) backs
// it and is repopulated into tier 1 on hit.
type QueryCache struct {
	local         *ttlLRU[domain.CachedAnswer]
	remote        RemoteStore
	ttl           time.Duration
	remoteTimeout time.Duration
	clock         Clock
	logger        *slog.Logger
	group         singleflight.Group

	mu          sync.Mutex
	hits        uint64
	misses      uint64
	lastCleared time.Time
}

func NewQueryCache(remote RemoteStore, opts Options) *QueryCache {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 2 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &QueryCache{
		local:         newTTLLRU[domain.CachedAnswer](opts.Capacity, opts.Clock),
		remote:        remote,
		ttl:           opts.TTL,
		remoteTimeout: opts.RemoteTimeout,
		clock:         opts.Clock,
		logger:        opts.Logger,
		lastCleared:   opts.Clock.Now(),
	}
}

func (c *QueryCache) Fingerprint(question, fileFilter string) string {
	return Fingerprint(question, fileFilter)
}

func (c *QueryCache) Get(ctx context.Context, fingerprint string) (domain.CachedAnswer, bool) {
	if value, ok := c.local.Get(fingerprint); ok {
		c.recordHit()
		return value, true
	}

	if value, ok := c.remoteGet(ctx, fingerprint); ok {
		// Repopulate tier 1 so the next lookup stays local.
		c.local.Set(fingerprint, value, c.ttl)
		c.recordHit()
		return value, true
	}

	c.recordMiss()
	return domain.CachedAnswer{}, false
}

func (c *QueryCache) Set(ctx context.Context, fingerprint string, value domain.CachedAnswer, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.local.Set(fingerprint, value, ttl)
	c.remoteSet(ctx, fingerprint, value, ttl)
}

// GetOrCompute serves the fingerprint from cache or runs compute exactly
// once for all concurrent callers sharing the fingerprint. The boolean
// reports whether the value came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	fingerprint string,
	compute func(context.Context) (domain.CachedAnswer, error),
) (domain.CachedAnswer, bool, error) {
	if value, ok := c.Get(ctx, fingerprint); ok {
		return value, true, nil
	}

	result, err, _ := c.group.Do(fingerprint, func() (any, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, fingerprint, value, c.ttl)
		return value, nil
	})
	if err != nil {
		return domain.CachedAnswer{}, false, err
	}
	return result.(domain.CachedAnswer), false, nil
}

func (c *QueryCache) Clear(ctx context.Context) error {
	c.local.Purge()

	c.mu.Lock()
	c.hits = 0
	c.misses = 0
	c.lastCleared = c.clock.Now()
	c.mu.Unlock()

	if c.remote != nil {
		purgeCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
		defer cancel()
		if err := c.remote.Purge(purgeCtx); err != nil {
			c.logger.Warn("cache_remote_degraded", "op", "purge", "error", err)
		}
	}
	return nil
}

func (c *QueryCache) Stats() domain.CacheStats {
	c.mu.Lock()
	hits, misses, lastCleared := c.hits, c.misses, c.lastCleared
	c.mu.Unlock()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return domain.CacheStats{
		Hits:        hits,
		Misses:      misses,
		HitRate:     rate,
		EntryCount:  c.local.Len(),
		LastCleared: lastCleared,
		RemoteTier:  c.remote != nil,
	}
}

func (c *QueryCache) remoteGet(ctx context.Context, fingerprint string) (domain.CachedAnswer, bool) {
	if c.remote == nil {
		return domain.CachedAnswer{}, false
	}

	getCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	raw, found, err := c.remote.Get(getCtx, fingerprint)
	if err != nil {
		c.logger.Warn("cache_remote_degraded", "op", "get", "error", err)
		return domain.CachedAnswer{}, false
	}
	if !found {
		return domain.CachedAnswer{}, false
	}

	var value domain.CachedAnswer
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("cache_remote_degraded", "op", "decode", "error", err)
		return domain.CachedAnswer{}, false
	}
	return value, true
}

func (c *QueryCache) remoteSet(ctx context.Context, fingerprint string, value domain.CachedAnswer, ttl time.Duration) {
	if c.remote == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache_remote_degraded", "op", "encode", "error", err)
		return
	}

	setCtx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()
	if err := c.remote.Set(setCtx, fingerprint, raw, ttl); err != nil {
		c.logger.Warn("cache_remote_degraded", "op", "set", "error", err)
	}
}

func (c *QueryCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *QueryCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
