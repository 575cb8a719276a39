// Package manual records payouts that finance settles outside the platform,
// for example by bank transfer from a statement.
package manual

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	payoutdomain "github.com/smallbiznis/gstengine/internal/payout/domain"
)

const Name = "manual"

type Provider struct {
	mu    sync.Mutex
	byKey map[string]string
}

func New() *Provider {
	return &Provider{byKey: map[string]string{}}
}

func (p *Provider) Name() string { return Name }

// Transfer issues a reference for finance to quote on the bank transfer.
// The same idempotency key always yields the same reference.
func (p *Provider) Transfer(ctx context.Context, in payoutdomain.Instruction, idempotencyKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if ref, ok := p.byKey[idempotencyKey]; ok {
		return ref, nil
	}
	ref := "man_" + ulid.Make().String()
	p.byKey[idempotencyKey] = ref
	return ref, nil
}

// Count returns how many distinct transfers were issued.
func (p *Provider) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}

var _ payoutdomain.Provider = (*Provider)(nil)
