package kv

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("kv_store_not_configured")

// Store is the storage port shared by sequence counters, idempotency guards,
// report caching and job locks.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	// CompareAndDelete removes key only while it still holds value.
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
