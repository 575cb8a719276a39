package domain

import "context"

// Resolver maps a classification code to its rate entry.
type Resolver interface {
	Rate(ctx context.Context, code string) (RateEntry, error)
}

// Calculator computes the tax breakdown for a single line.
type Calculator interface {
	Calculate(ctx context.Context, in Input) (Calculation, error)
}
