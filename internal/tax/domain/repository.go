package domain

import "context"

type Repository interface {
	Get(ctx context.Context, code string) (*RateEntry, error)
	List(ctx context.Context) ([]RateEntry, error)
	Upsert(ctx context.Context, entry *RateEntry) error
}
