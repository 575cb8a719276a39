package domain

import (
	"context"
	"time"
)

// Instruction asks a provider to move a vendor's net amount.
type Instruction struct {
	VendorID    string `json:"vendor_id"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Description string `json:"description,omitempty"`
}

// Transfer is the outcome of a dispatched instruction.
type Transfer struct {
	Provider       string    `json:"provider"`
	Reference      string    `json:"reference"`
	IdempotencyKey string    `json:"idempotency_key"`
	VendorID       string    `json:"vendor_id"`
	OrderID        string    `json:"order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	DispatchedAt   time.Time `json:"dispatched_at"`
}

// Matches reports whether t was produced for the same instruction.
func (t Transfer) Matches(in Instruction) bool {
	return t.VendorID == in.VendorID && t.OrderID == in.OrderID && t.Amount == in.Amount
}

// Provider moves money. Implementations must forward idempotencyKey so that
// a repeated call never results in a second transfer.
type Provider interface {
	Name() string
	Transfer(ctx context.Context, in Instruction, idempotencyKey string) (string, error)
}

type Service interface {
	Dispatch(ctx context.Context, provider string, in Instruction, idempotencyKey string) (*Transfer, error)
	Lookup(ctx context.Context, idempotencyKey string) (*Transfer, error)
}
