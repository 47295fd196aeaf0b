// Package db defines the storage abstraction for lanefuse state.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on narrow sub-interfaces (ISP).
type Store interface {
	Pinger
	HashStore
	KVStore
	ZSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ZMember is one member of an ordered score set.
type ZMember struct {
	Member string
	Score  float64
}

// ZSetStore provides ordered-score-set operations.
type ZSetStore interface {
	ZAdd(ctx context.Context, key string, members []ZMember) error
	// ZRangeWithScores returns the full set ordered by descending score.
	ZRangeWithScores(ctx context.Context, key string) ([]ZMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
}
