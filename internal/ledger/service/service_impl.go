package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/clock"
	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     ledgerdomain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
	Clock    clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     ledgerdomain.Repository
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
	clock    clock.Clock
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
		clock:    p.Clock,
	}
}

func (s *Service) Record(ctx context.Context, entry ledgerdomain.Entry) (*ledgerdomain.Entry, error) {
	var stored *ledgerdomain.Entry
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stored, inserted, err = s.RecordTx(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		s.Recorded(ctx, stored)
	}
	return stored, nil
}

// RecordTx writes entry on tx. A replay for an order already recorded with
// identical amounts returns the stored entry with inserted false; a replay
// with different amounts fails ErrEntryConflict.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, entry ledgerdomain.Entry) (*ledgerdomain.Entry, bool, error) {
	entry.OrderID = strings.TrimSpace(entry.OrderID)
	entry.VendorID = strings.TrimSpace(entry.VendorID)
	entry.Currency = strings.ToUpper(strings.TrimSpace(entry.Currency))

	switch {
	case entry.OrderID == "":
		return nil, false, ledgerdomain.ErrInvalidEntry.WithField("order_id")
	case entry.VendorID == "":
		return nil, false, ledgerdomain.ErrInvalidEntry.WithField("vendor_id")
	case entry.Currency == "":
		return nil, false, ledgerdomain.ErrInvalidEntry.WithField("currency")
	case entry.OrderValue <= 0:
		return nil, false, ledgerdomain.ErrUnbalancedEntry.WithField("order_value").
			WithMessage("order value must be positive, got %d", entry.OrderValue)
	case !entry.Balanced():
		return nil, false, ledgerdomain.ErrUnbalancedEntry.WithMessage(
			"%d + %d + %d does not equal order value %d",
			entry.CommissionAmount, entry.WithheldAmount, entry.NetAmount, entry.OrderValue)
	}

	now := s.clock.Now().UTC()
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = now
	}
	entry.Status = ledgerdomain.StatusPending
	entry.PayoutReference = nil
	entry.PaidOutAt = nil
	entry.CreatedAt = now
	entry.UpdatedAt = now

	inserted, err := s.repo.Insert(ctx, tx, &entry)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return &entry, true, nil
	}

	existing, err := s.repo.FindByOrderID(ctx, tx, entry.OrderID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, ledgerdomain.ErrEntryNotFound.WithField("order_id")
	}
	if !existing.SameFacts(entry) {
		s.log.Error("ledger replay disagrees with recorded entry",
			zap.String("order_id", entry.OrderID),
			zap.Int64("recorded_net", existing.NetAmount),
			zap.Int64("replayed_net", entry.NetAmount),
		)
		s.metrics.RecordLedgerEntry(ctx, "conflict")
		return nil, false, ledgerdomain.ErrEntryConflict.WithField("order_id")
	}
	s.metrics.RecordLedgerEntry(ctx, "replayed")
	return existing, false, nil
}

// Recorded logs, counts and audits a committed entry.
func (s *Service) Recorded(ctx context.Context, entry *ledgerdomain.Entry) {
	s.log.Info("ledger entry recorded",
		zap.String("order_id", entry.OrderID),
		zap.String("vendor_id", entry.VendorID),
		zap.Int64("order_value", entry.OrderValue),
		zap.Int64("commission", entry.CommissionAmount),
		zap.Int64("withheld", entry.WithheldAmount),
		zap.Int64("net", entry.NetAmount),
	)
	s.metrics.RecordLedgerEntry(ctx, "recorded")
	s.audit(ctx, auditdomain.ActionLedgerEntryRecorded, entry, map[string]any{
		"invoice_number":    entry.InvoiceNumber,
		"order_value":       entry.OrderValue,
		"commission_amount": entry.CommissionAmount,
		"withheld_amount":   entry.WithheldAmount,
		"net_amount":        entry.NetAmount,
	})
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*ledgerdomain.Entry, error) {
	entry, err := s.repo.FindByOrderID(ctx, s.db, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ledgerdomain.ErrEntryNotFound.WithField("order_id")
	}
	return entry, nil
}

func (s *Service) ListByVendor(ctx context.Context, filter ledgerdomain.ListFilter) ([]ledgerdomain.Entry, error) {
	filter.VendorID = strings.TrimSpace(filter.VendorID)
	if filter.VendorID == "" {
		return nil, ledgerdomain.ErrInvalidEntry.WithField("vendor_id")
	}
	return s.repo.List(ctx, s.db, filter)
}

// MarkPaidOut moves a pending entry to paid_out. Repeating the call with the
// same reference is a no-op.
func (s *Service) MarkPaidOut(ctx context.Context, orderID, reference string) (*ledgerdomain.Entry, error) {
	orderID = strings.TrimSpace(orderID)
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ledgerdomain.ErrInvalidEntry.WithField("payout_reference")
	}

	ok, err := s.repo.MarkPaidOut(ctx, s.db, orderID, reference, s.clock.Now())
	if err != nil {
		return nil, err
	}
	entry, err := s.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if entry.PayoutReference != nil && *entry.PayoutReference == reference {
			return entry, nil
		}
		return nil, ledgerdomain.ErrAlreadyPaidOut.WithField("order_id")
	}

	s.log.Info("ledger entry paid out",
		zap.String("order_id", entry.OrderID),
		zap.String("payout_reference", reference),
		zap.Int64("net", entry.NetAmount),
	)
	s.audit(ctx, auditdomain.ActionLedgerEntryPaidOut, entry, map[string]any{
		"payout_reference": reference,
		"net_amount":       entry.NetAmount,
	})
	return entry, nil
}

func (s *Service) audit(ctx context.Context, action string, entry *ledgerdomain.Entry, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		VendorID:   entry.VendorID,
		Action:     action,
		TargetType: "ledger_entry",
		TargetID:   entry.OrderID,
		Metadata:   metadata,
	}); err != nil {
		s.log.Warn("ledger audit failed", zap.String("action", action), zap.Error(err))
	}
}

var _ ledgerdomain.Service = (*Service)(nil)
