package domain

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Generator builds an unsaved invoice for an order, consuming one sequence
// number.
type Generator interface {
	Build(ctx context.Context, order Order, vendor VendorProfile) (*Invoice, error)
}

// Renderer turns an invoice into a printable document.
type Renderer interface {
	Render(ctx context.Context, invoice *Invoice) (io.Reader, error)
}

type Service interface {
	Issue(ctx context.Context, order Order, vendor VendorProfile) (*Invoice, error)
	Get(ctx context.Context, id snowflake.ID) (*Invoice, error)
	GetByOrderID(ctx context.Context, orderID string) (*Invoice, error)
	ListForPeriod(ctx context.Context, vendorID string, from, to time.Time) ([]Invoice, error)
	VendorsBetween(ctx context.Context, from, to time.Time) ([]string, error)
	Send(ctx context.Context, id snowflake.ID) (*Invoice, error)
	Acknowledge(ctx context.Context, id snowflake.ID) (*Invoice, error)
}
