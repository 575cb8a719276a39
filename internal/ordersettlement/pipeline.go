// Package ordersettlement turns a completed order into its invoice, ledger
// entry, withholding record and payout split in one transaction.
package ordersettlement

import (
	"context"
	"errors"

	"github.com/smallbiznis/gstengine/internal/config"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/gstengine/internal/invoice/service"
	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	obslogger "github.com/smallbiznis/gstengine/internal/observability/logger"
	payoutdomain "github.com/smallbiznis/gstengine/internal/payout/domain"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/pkg/apperror"
	"github.com/smallbiznis/gstengine/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Rules     *config.TaxRulesHolder
	Generator invoicedomain.Generator
	Invoices  *invoiceservice.Service
	Ledger    ledgerdomain.Service
	TDS       settlementdomain.TDSService
	Splitter  settlementdomain.SplitCalculator
	Payouts   payoutdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	rules     *config.TaxRulesHolder
	generator invoicedomain.Generator
	invoices  *invoiceservice.Service
	ledger    ledgerdomain.Service
	tds       settlementdomain.TDSService
	splitter  settlementdomain.SplitCalculator
	payouts   payoutdomain.Service
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("ordersettlement"),
		rules:     p.Rules,
		generator: p.Generator,
		invoices:  p.Invoices,
		ledger:    p.Ledger,
		tds:       p.TDS,
		splitter:  p.Splitter,
		payouts:   p.Payouts,
	}
}

// Result is the full set of financial outputs for one order.
type Result struct {
	Invoice  *invoicedomain.Invoice
	Entry    *ledgerdomain.Entry
	TDS      *settlementdomain.TDSRecord
	Split    settlementdomain.PayoutSplit
	Replayed bool
}

// ProcessOrder invoices the order and settles it. Either every output is
// stored or none is; the invoice number allocated for a failed attempt stays
// burned. Processing an order a second time returns the stored outputs.
func (s *Service) ProcessOrder(ctx context.Context, order invoicedomain.Order, vendor invoicedomain.VendorProfile) (*Result, error) {
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	order = order.Normalized()

	if entry, err := s.ledger.GetByOrderID(ctx, order.OrderID); err == nil {
		return s.replay(ctx, entry)
	} else if !isNotFound(err) {
		return nil, err
	}

	invoice, err := s.invoices.GetByOrderID(ctx, order.OrderID)
	stored := err == nil
	switch {
	case stored:
	case isNotFound(err):
		invoice, err = s.generator.Build(ctx, order, vendor)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	rules := s.rules.Get()
	commissionPct := rules.CommissionPct()
	if vendor.CommissionPct != nil {
		commissionPct = *vendor.CommissionPct
	}

	result := &Result{}
	var invoiceInserted, tdsInserted, entryInserted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result.Invoice = invoice
		if !stored {
			result.Invoice, invoiceInserted, err = s.invoices.Persist(ctx, tx, invoice)
			if err != nil {
				return err
			}
		}
		inv := result.Invoice

		result.TDS, tdsInserted, err = s.tds.WithholdTx(ctx, tx, settlementdomain.TDSInput{
			VendorID:    inv.VendorID,
			OrderID:     inv.OrderID,
			GrossPayout: inv.GrossTotal,
			HasTaxID:    vendor.HasTaxID,
			PaidAt:      inv.IssuedAt,
		})
		if err != nil {
			return err
		}

		result.Split, err = s.splitter.Split(settlementdomain.SplitInput{
			PaymentID:          inv.OrderID,
			OrderValue:         inv.GrossTotal,
			CommissionPct:      commissionPct,
			WithheldPct:        result.TDS.Rate,
			WithheldApplicable: result.TDS.WithheldAmount > 0,
		})
		if err != nil {
			return err
		}
		if result.Split.WithheldAmount != result.TDS.WithheldAmount {
			return ErrSplitMismatch.WithMessage("split withholds %d, tds record withholds %d",
				result.Split.WithheldAmount, result.TDS.WithheldAmount)
		}

		result.Entry, entryInserted, err = s.ledger.RecordTx(ctx, tx, ledgerdomain.Entry{
			VendorID:         inv.VendorID,
			OrderID:          inv.OrderID,
			InvoiceID:        inv.ID,
			InvoiceNumber:    inv.InvoiceNumber,
			FiscalYear:       inv.FiscalYear,
			OrderValue:       result.Split.OrderValue,
			CommissionPct:    commissionPct,
			CommissionAmount: result.Split.CommissionAmount,
			WithheldPct:      result.TDS.Rate,
			WithheldAmount:   result.Split.WithheldAmount,
			NetAmount:        result.Split.VendorAmount,
			Currency:         inv.Currency,
			OccurredAt:       inv.IssuedAt,
		})
		return err
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if !stored {
			fields = append(fields, zap.String("burned_number", invoice.InvoiceNumber))
		}
		obslogger.WithOrder(obslogger.WithContext(ctx, s.log), order.VendorID, order.OrderID).
			Warn("order settlement rolled back", fields...)
		if lostRace(err) {
			if entry, lookupErr := s.ledger.GetByOrderID(ctx, order.OrderID); lookupErr == nil {
				return s.replay(ctx, entry)
			}
		}
		return nil, err
	}

	if invoiceInserted {
		s.invoices.RecordIssued(ctx, result.Invoice)
	}
	if tdsInserted {
		s.tds.Recorded(ctx, result.TDS)
	}
	if entryInserted {
		s.ledger.Recorded(ctx, result.Entry)
	}
	return result, nil
}

// Payout dispatches the vendor's net amount for a settled order and marks
// the ledger entry paid out. The order id is the idempotency key, so a
// retried payout never transfers twice.
func (s *Service) Payout(ctx context.Context, orderID, provider, destination string) (*payoutdomain.Transfer, error) {
	entry, err := s.ledger.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entry.NetAmount <= 0 {
		return nil, ErrNothingToPay.WithField("order_id")
	}

	transfer, err := s.payouts.Dispatch(ctx, provider, payoutdomain.Instruction{
		VendorID:    entry.VendorID,
		OrderID:     entry.OrderID,
		Amount:      entry.NetAmount,
		Currency:    entry.Currency,
		Destination: destination,
		Description: "Settlement for invoice " + entry.InvoiceNumber,
	}, "payout:"+entry.OrderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.MarkPaidOut(ctx, entry.OrderID, transfer.Reference); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *Service) replay(ctx context.Context, entry *ledgerdomain.Entry) (*Result, error) {
	invoice, err := s.invoices.GetByOrderID(ctx, entry.OrderID)
	if err != nil {
		return nil, err
	}
	record, err := s.tds.ForOrder(ctx, entry.OrderID)
	if err != nil {
		return nil, err
	}
	return &Result{
		Invoice: invoice,
		Entry:   entry,
		TDS:     record,
		Split: settlementdomain.PayoutSplit{
			PaymentID:        entry.OrderID,
			OrderValue:       entry.OrderValue,
			PlatformAmount:   entry.CommissionAmount + entry.WithheldAmount,
			VendorAmount:     entry.NetAmount,
			CommissionAmount: entry.CommissionAmount,
			WithheldAmount:   entry.WithheldAmount,
		},
		Replayed: true,
	}, nil
}

// lostRace reports whether a concurrent settlement of the same order
// committed first.
func lostRace(err error) bool {
	return errors.Is(err, settlementdomain.ErrTDSRecordExists)
}

func isNotFound(err error) bool {
	return apperror.IsDomain(err, apperror.DomainNotFound)
}
