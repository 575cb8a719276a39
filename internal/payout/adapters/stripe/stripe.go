package stripe

import (
	"context"
	"strings"

	payoutdomain "github.com/smallbiznis/gstengine/internal/payout/domain"
	"github.com/stripe/stripe-go/v82"
)

const Name = "stripe"

type transferCreator interface {
	Create(ctx context.Context, params *stripe.TransferCreateParams) (*stripe.Transfer, error)
}

// Provider sends payouts as Stripe Connect transfers to the vendor's
// connected account.
type Provider struct {
	transfers transferCreator
}

func New(secretKey string) (*Provider, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, payoutdomain.ErrProviderNotConfigured.WithField("stripe_secret_key")
	}
	client := stripe.NewClient(secretKey, nil)
	return &Provider{transfers: client.V1Transfers}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Transfer(ctx context.Context, in payoutdomain.Instruction, idempotencyKey string) (string, error) {
	destination := strings.TrimSpace(in.Destination)
	if destination == "" {
		return "", payoutdomain.ErrInvalidInstruction.WithField("destination")
	}

	params := &stripe.TransferCreateParams{
		Amount:        stripe.Int64(in.Amount),
		Currency:      stripe.String(strings.ToLower(in.Currency)),
		Destination:   stripe.String(destination),
		TransferGroup: stripe.String(in.OrderID),
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	params.AddMetadata("vendor_id", in.VendorID)
	params.AddMetadata("order_id", in.OrderID)
	params.SetIdempotencyKey(idempotencyKey)

	transfer, err := p.transfers.Create(ctx, params)
	if err != nil {
		return "", err
	}
	return transfer.ID, nil
}

var _ payoutdomain.Provider = (*Provider)(nil)
