package repository

import (
	"context"
	"fmt"

	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	"github.com/smallbiznis/gstengine/pkg/kv"
)

type kvStore struct {
	store kv.Store
}

// NewKVStore returns a counter on the key/value port's atomic increment.
func NewKVStore(store kv.Store) sequencedomain.CounterStore {
	return &kvStore{store: store}
}

func (s *kvStore) Next(ctx context.Context, vendorID, fiscalYear string) (int64, error) {
	return s.store.IncrBy(ctx, CounterKey(vendorID, fiscalYear), 1)
}

func CounterKey(vendorID, fiscalYear string) string {
	return fmt.Sprintf("invoice_seq:%s:%s", vendorID, fiscalYear)
}
