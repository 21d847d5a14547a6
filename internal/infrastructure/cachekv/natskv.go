// Package cachekv backs the query cache's distributed tier with a NATS
// JetStream key/value bucket. The bucket carries the TTL; callers treat
// every error as a tier degradation.
package cachekv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type Store struct {
	kv jetstream.KeyValue
}

// New connects the distributed cache tier. The bucket is created with the
// given TTL when missing; JetStream expires entries server-side.
func New(ctx context.Context, conn *nats.Conn, bucket string, ttl time.Duration) (*Store, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("init jetstream: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "hybrid RAG query answer cache",
		TTL:         ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure kv bucket %q: %w", bucket, err)
	}
	return &Store{kv: kv}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv get: %w", err)
	}
	return entry.Value(), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	// Per-key TTL is not supported by the bucket model; the bucket TTL
	// configured at creation applies to every entry.
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("kv put: %w", err)
	}
	return nil
}

func (s *Store) Purge(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("kv list keys: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("kv purge %q: %w", key, err)
		}
	}
	return nil
}
