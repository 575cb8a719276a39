package service

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/gstin"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	"github.com/smallbiznis/gstengine/internal/providers/email"
	"github.com/smallbiznis/gstengine/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      invoicedomain.Repository
	Generator invoicedomain.Generator
	Renderer  invoicedomain.Renderer
	Email     email.Provider
	AuditSvc  auditdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
	Clock     clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	repo      invoicedomain.Repository
	generator invoicedomain.Generator
	renderer  invoicedomain.Renderer
	email     email.Provider
	auditSvc  auditdomain.Service
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewService(p ServiceParam) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		repo:      p.Repo,
		generator: p.Generator,
		renderer:  p.Renderer,
		email:     p.Email,
		auditSvc:  p.AuditSvc,
		metrics:   p.Metrics,
		clock:     p.Clock,
	}
}

// Issue creates the invoice for an order, or returns the existing one when
// the order was invoiced before.
func (s *Service) Issue(ctx context.Context, order invoicedomain.Order, vendor invoicedomain.VendorProfile) (*invoicedomain.Invoice, error) {
	order = order.Normalized()
	existing, err := s.repo.FindByOrderID(ctx, s.db, order.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	invoice, err := s.generator.Build(ctx, order, vendor)
	if err != nil {
		return nil, err
	}

	var stored *invoicedomain.Invoice
	var inserted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, inserted, err = s.Persist(ctx, tx, invoice)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		s.RecordIssued(ctx, stored)
	}
	return stored, nil
}

// Persist stores invoice on tx. When another invoice already exists for the
// order it is returned instead and inserted is false; the number allocated
// for invoice stays burned.
func (s *Service) Persist(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice) (*invoicedomain.Invoice, bool, error) {
	inserted, err := s.repo.Insert(ctx, tx, invoice)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return invoice, true, nil
	}
	s.log.Warn("order already invoiced, allocated number burned",
		zap.String("order_id", invoice.OrderID),
		zap.String("burned_number", invoice.InvoiceNumber),
	)
	existing, err := s.repo.FindByOrderID(ctx, tx, invoice.OrderID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, invoicedomain.ErrInvoiceNotFound.WithField("order_id")
	}
	return existing, false, nil
}

// RecordIssued logs, counts and audits a committed invoice.
func (s *Service) RecordIssued(ctx context.Context, invoice *invoicedomain.Invoice) {
	s.log.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("order_id", invoice.OrderID),
		zap.String("vendor_id", invoice.VendorID),
		zap.String("category", string(invoice.Category)),
		zap.Int64("gross_total", invoice.GrossTotal),
	)
	s.metrics.RecordInvoiceGenerated(ctx, string(invoice.Category))
	s.emitAudit(ctx, auditdomain.ActionInvoiceGenerated, invoice, map[string]any{
		"category":        string(invoice.Category),
		"customer_tax_id": invoice.CustomerTaxID,
		"taxable_value":   invoice.TaxableValue,
		"tax_total":       invoice.TaxTotal,
		"gross_total":     invoice.GrossTotal,
	})
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound.WithField("id")
	}
	return invoice, nil
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound.WithField("order_id")
	}
	return invoice, nil
}

func (s *Service) ListForPeriod(ctx context.Context, vendorID string, from, to time.Time) ([]invoicedomain.Invoice, error) {
	return s.repo.ListByVendorBetween(ctx, s.db, vendorID, from, to)
}

// VendorsBetween lists vendors that issued at least one invoice in [from, to).
func (s *Service) VendorsBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	return s.repo.DistinctVendorsBetween(ctx, s.db, from, to)
}

// Send renders the invoice PDF, mails it to the customer and marks it sent.
func (s *Service) Send(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoicedomain.CanTransition(invoice.Status, invoicedomain.StatusSent) {
		return nil, transitionError(invoice.Status, invoicedomain.StatusSent)
	}
	if invoice.CustomerEmail == "" {
		return nil, invoicedomain.ErrMissingRecipient.WithField("customer_email")
	}

	doc, err := s.renderer.Render(ctx, invoice)
	if err != nil {
		return nil, err
	}
	pdf, err := io.ReadAll(doc)
	if err != nil {
		return nil, err
	}

	customerName, _ := invoice.Metadata["customer_name"].(string)
	if customerName == "" {
		customerName = invoice.CustomerID
	}
	place := invoice.PlaceOfSupply
	if name, ok := gstin.JurisdictionName(place); ok {
		place = place + " - " + name
	}
	err = s.email.SendTemplate(ctx, []string{invoice.CustomerEmail}, "invoice_issued", map[string]any{
		"invoice_number":  invoice.InvoiceNumber,
		"customer_name":   customerName,
		"vendor_name":     invoice.VendorName,
		"vendor_tax_id":   invoice.VendorTaxID,
		"taxable_value":   money.Format(invoice.TaxableValue),
		"tax_total":       money.Format(invoice.TaxTotal),
		"gross_total":     invoice.Currency + " " + money.Format(invoice.GrossTotal),
		"place_of_supply": place,
	}, email.Attachment{
		Filename:    slug.Make(invoice.InvoiceNumber) + ".pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if err != nil {
		s.log.Warn("invoice email failed", zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		return nil, err
	}

	return s.transition(ctx, invoice, invoicedomain.StatusSent)
}

func (s *Service) Acknowledge(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, invoice, invoicedomain.StatusAcknowledged)
}

func (s *Service) transition(ctx context.Context, invoice *invoicedomain.Invoice, to invoicedomain.Status) (*invoicedomain.Invoice, error) {
	from := invoice.Status
	if !invoicedomain.CanTransition(from, to) {
		return nil, transitionError(from, to)
	}
	ok, err := s.repo.UpdateStatus(ctx, s.db, invoice.ID, from, to, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.Get(ctx, invoice.ID)
		if err != nil {
			return nil, err
		}
		return nil, transitionError(current.Status, to)
	}

	updated, err := s.Get(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice status changed",
		zap.String("invoice_number", updated.InvoiceNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.emitAudit(ctx, auditdomain.ActionInvoiceStatusChanged, updated, map[string]any{
		"previous_status": string(from),
		"status":          string(to),
	})
	return updated, nil
}

func transitionError(from, to invoicedomain.Status) error {
	return invoicedomain.ErrInvalidStatusTransition.
		WithField("status").
		WithMessage("cannot move invoice from %s to %s", from, to)
}

func (s *Service) emitAudit(ctx context.Context, action string, invoice *invoicedomain.Invoice, extra map[string]any) {
	if s.auditSvc == nil || invoice == nil {
		return
	}
	metadata := map[string]any{
		"invoice_id":  invoice.ID.String(),
		"order_id":    invoice.OrderID,
		"fiscal_year": invoice.FiscalYear,
		"currency":    invoice.Currency,
	}
	for key, value := range extra {
		metadata[key] = value
	}
	if err := s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		VendorID:   invoice.VendorID,
		Action:     action,
		TargetType: "invoice",
		TargetID:   invoice.InvoiceNumber,
		Metadata:   metadata,
	}); err != nil {
		s.log.Warn("invoice audit failed", zap.String("action", action), zap.Error(err))
	}
}

var _ invoicedomain.Service = (*Service)(nil)
