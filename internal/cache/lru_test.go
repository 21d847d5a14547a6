package cache

import (
	"testing"
	"time"
)

func TestTTLLRUUpdateInPlace(t *testing.T) {
	clock := newFakeClock()
	lru := newTTLLRU[string](2, clock)

	lru.Set("k", "v1", time.Hour)
	lru.Set("k", "v2", time.Hour)

	if v, ok := lru.Get("k"); !ok || v != "v2" {
		t.Fatalf("expected updated value, got ok=%v v=%q", ok, v)
	}
	if lru.Len() != 1 {
		t.Fatalf("update must not grow the cache, len=%d", lru.Len())
	}
}

func TestTTLLRULenSkipsExpired(t *testing.T) {
	clock := newFakeClock()
	lru := newTTLLRU[int](4, clock)

	lru.Set("short", 1, time.Minute)
	lru.Set("long", 2, time.Hour)

	clock.Advance(2 * time.Minute)

	if lru.Len() != 1 {
		t.Fatalf("expired entries must not be counted, len=%d", lru.Len())
	}
	if _, ok := lru.Get("short"); ok {
		t.Fatalf("expired entry should not be served")
	}
	if v, ok := lru.Get("long"); !ok || v != 2 {
		t.Fatalf("live entry lost, ok=%v v=%d", ok, v)
	}
}

func TestTTLLRUZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	lru := newTTLLRU[int](4, clock)

	lru.Set("k", 7, 0)
	clock.Advance(1000 * time.Hour)

	if v, ok := lru.Get("k"); !ok || v != 7 {
		t.Fatalf("zero-TTL entry should never expire, ok=%v v=%d", ok, v)
	}
}

func TestTTLLRUPurge(t *testing.T) {
	clock := newFakeClock()
	lru := newTTLLRU[int](4, clock)

	lru.Set("a", 1, time.Hour)
	lru.Set("b", 2, time.Hour)
	lru.Purge()

	if lru.Len() != 0 {
		t.Fatalf("purge should empty the cache, len=%d", lru.Len())
	}
	if _, ok := lru.Get("a"); ok {
		t.Fatalf("purged entry should not be served")
	}
}
