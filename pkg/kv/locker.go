package kv

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Locker hands out best-effort exclusive leases on top of a Store.
type Locker struct {
	store Store
}

func NewLocker(store Store) *Locker {
	if store == nil {
		return nil
	}
	return &Locker{store: store}
}

// TryLock returns a release token when the lease was acquired.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.store == nil {
		return "", false, errors.New("lock store not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, token, ttl)
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.store == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	_, err := l.store.CompareAndDelete(ctx, key, token)
	return err
}
