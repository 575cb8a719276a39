package ordersettlement

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstengine/internal/config"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/internal/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPipeline(t *testing.T, opts ...testkit.Option) (*Service, *testkit.Harness) {
	t.Helper()
	h := testkit.New(t, nil, opts...)
	svc := New(Params{
		DB:        h.DB,
		Log:       h.Log,
		Rules:     h.Rules,
		Generator: h.Generator,
		Invoices:  h.Invoices,
		Ledger:    h.Ledger,
		TDS:       h.TDS,
		Splitter:  h.Split,
		Payouts:   h.Payouts,
	})
	return svc, h
}

func withoutTDSThreshold(r *config.TaxRules) { r.TDSThreshold = 0 }

func countRows(t *testing.T, h *testkit.Harness, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.DB.Model(model).Count(&n).Error)
	return n
}

func TestProcessOrderProducesConsistentOutputs(t *testing.T) {
	svc, h := newPipeline(t, testkit.WithRules(withoutTDSThreshold))

	result, err := svc.ProcessOrder(t.Context(), testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.False(t, result.Replayed)

	assert.Equal(t, "V/2024-25/00001", result.Invoice.InvoiceNumber)
	assert.Equal(t, int64(1_120_000), result.Invoice.GrossTotal)

	assert.Equal(t, int64(1_120_000), result.Split.OrderValue)
	assert.Equal(t, int64(112_000), result.Split.CommissionAmount)
	assert.Equal(t, int64(11_200), result.Split.WithheldAmount)
	assert.Equal(t, int64(996_800), result.Split.VendorAmount)
	assert.True(t, result.Split.Balanced())

	assert.True(t, result.TDS.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, result.Split.WithheldAmount, result.TDS.WithheldAmount)
	assert.Equal(t, "2024-25", result.TDS.FiscalYear)
	assert.Equal(t, 2, result.TDS.Quarter)

	entry := result.Entry
	assert.Equal(t, result.Invoice.ID, entry.InvoiceID)
	assert.Equal(t, entry.OrderValue, entry.CommissionAmount+entry.WithheldAmount+entry.NetAmount)
	assert.Equal(t, ledgerdomain.StatusPending, entry.Status)
}

func TestProcessOrderBelowThresholdWithholdsNothing(t *testing.T) {
	svc, h := newPipeline(t)

	result, err := svc.ProcessOrder(t.Context(), testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.Zero(t, result.Split.WithheldAmount)
	assert.True(t, result.TDS.Rate.IsZero())
	assert.Equal(t, int64(1_120_000-112_000), result.Entry.NetAmount)
}

func TestProcessOrderVendorCommissionOverride(t *testing.T) {
	svc, h := newPipeline(t)
	vendor := testkit.Vendor("V")
	vendor.CommissionPct = testkit.Ptr(decimal.RequireFromString("2.5"))

	result, err := svc.ProcessOrder(t.Context(), testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), vendor)
	require.NoError(t, err)
	assert.Equal(t, int64(28_000), result.Split.CommissionAmount)
	assert.True(t, result.Entry.CommissionPct.Equal(decimal.RequireFromString("2.5")))
}

func TestProcessOrderReplay(t *testing.T) {
	svc, h := newPipeline(t, testkit.WithRules(withoutTDSThreshold))
	ctx := t.Context()
	order := testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now())

	first, err := svc.ProcessOrder(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)
	second, err := svc.ProcessOrder(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, first.TDS.ID, second.TDS.ID)
	assert.Equal(t, first.Split, second.Split)

	assert.Equal(t, int64(1), countRows(t, h, &invoicedomain.Invoice{}))
	assert.Equal(t, int64(1), countRows(t, h, &ledgerdomain.Entry{}))
	assert.Equal(t, int64(1), countRows(t, h, &settlementdomain.TDSRecord{}))

	next, err := svc.ProcessOrder(ctx, testkit.Order("ord-2", "V", 1_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.Equal(t, "V/2024-25/00002", next.Invoice.InvoiceNumber)
}

func TestProcessOrderReplayWithPaddedOrderID(t *testing.T) {
	svc, h := newPipeline(t)
	ctx := t.Context()

	first, err := svc.ProcessOrder(ctx, testkit.Order("ord-1", "V", 1_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	again, err := svc.ProcessOrder(ctx, testkit.Order("  ord-1\t", "V", 1_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)

	next, err := svc.ProcessOrder(ctx, testkit.Order("ord-2", "V", 1_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.Equal(t, "V/2024-25/00002", next.Invoice.InvoiceNumber)
}

// staleLedger misses the first lookup, as a reader racing a concurrent
// commit would.
type staleLedger struct {
	ledgerdomain.Service
	missed bool
}

func (l *staleLedger) GetByOrderID(ctx context.Context, orderID string) (*ledgerdomain.Entry, error) {
	if !l.missed {
		l.missed = true
		return nil, ledgerdomain.ErrEntryNotFound
	}
	return l.Service.GetByOrderID(ctx, orderID)
}

// conflictingTDS fails the withholding insert on the order unique index.
type conflictingTDS struct {
	settlementdomain.TDSService
}

func (conflictingTDS) WithholdTx(context.Context, *gorm.DB, settlementdomain.TDSInput) (*settlementdomain.TDSRecord, bool, error) {
	return nil, false, settlementdomain.ErrTDSRecordExists
}

func TestProcessOrderLostRaceReplaysStoredResult(t *testing.T) {
	winner, h := newPipeline(t, testkit.WithRules(withoutTDSThreshold))
	ctx := t.Context()
	order := testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now())

	first, err := winner.ProcessOrder(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)

	loser := New(Params{
		DB:        h.DB,
		Log:       h.Log,
		Rules:     h.Rules,
		Generator: h.Generator,
		Invoices:  h.Invoices,
		Ledger:    &staleLedger{Service: h.Ledger},
		TDS:       conflictingTDS{TDSService: h.TDS},
		Splitter:  h.Split,
		Payouts:   h.Payouts,
	})
	second, err := loser.ProcessOrder(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, first.TDS.ID, second.TDS.ID)
	assert.Equal(t, first.Split, second.Split)

	assert.Equal(t, int64(1), countRows(t, h, &ledgerdomain.Entry{}))
	assert.Equal(t, int64(1), countRows(t, h, &settlementdomain.TDSRecord{}))
}

func TestProcessOrderIsAllOrNothing(t *testing.T) {
	svc, h := newPipeline(t, testkit.WithRules(withoutTDSThreshold))
	ctx := t.Context()
	vendor := testkit.Vendor("V")
	vendor.CommissionPct = testkit.Ptr(decimal.NewFromInt(150))

	_, err := svc.ProcessOrder(ctx, testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), vendor)
	require.ErrorIs(t, err, settlementdomain.ErrInvalidPercentage)

	assert.Zero(t, countRows(t, h, &invoicedomain.Invoice{}))
	assert.Zero(t, countRows(t, h, &invoicedomain.InvoiceLine{}))
	assert.Zero(t, countRows(t, h, &ledgerdomain.Entry{}))
	assert.Zero(t, countRows(t, h, &settlementdomain.TDSRecord{}))
	assert.Zero(t, countRows(t, h, &settlementdomain.CumulativePayout{}))

	result, err := svc.ProcessOrder(ctx, testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)
	assert.Equal(t, "V/2024-25/00002", result.Invoice.InvoiceNumber, "first number stays burned")
	assert.Equal(t, result.Invoice.GrossTotal, result.TDS.CumulativeAfter)
}

func TestProcessOrderReusesExistingInvoice(t *testing.T) {
	svc, h := newPipeline(t)
	ctx := t.Context()
	order := testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now())

	issued, err := h.Invoices.Issue(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)

	result, err := svc.ProcessOrder(ctx, order, testkit.Vendor("V"))
	require.NoError(t, err)
	assert.Equal(t, issued.ID, result.Invoice.ID)
	assert.Equal(t, issued.InvoiceNumber, result.Entry.InvoiceNumber)
	assert.Equal(t, int64(1), countRows(t, h, &invoicedomain.Invoice{}))
}

func TestProcessOrderPropagatesComplianceFailure(t *testing.T) {
	svc, h := newPipeline(t)
	vendor := testkit.Vendor("V")
	vendor.HasTaxID = false

	_, err := svc.ProcessOrder(t.Context(), testkit.Order("ord-1", "V", 1_000, h.Clock.Now()), vendor)
	require.ErrorIs(t, err, invoicedomain.ErrVendorNotCompliant)
	assert.Zero(t, countRows(t, h, &ledgerdomain.Entry{}))
}

func TestPayoutDispatchesOnce(t *testing.T) {
	svc, h := newPipeline(t, testkit.WithRules(withoutTDSThreshold))
	ctx := t.Context()

	result, err := svc.ProcessOrder(ctx, testkit.Order("ord-1", "V", 1_000_000, h.Clock.Now()), testkit.Vendor("V"))
	require.NoError(t, err)

	transfer, err := svc.Payout(ctx, "ord-1", "manual", "HDFC0001234")
	require.NoError(t, err)
	assert.Equal(t, result.Entry.NetAmount, transfer.Amount)
	assert.Equal(t, "payout:ord-1", transfer.IdempotencyKey)

	again, err := svc.Payout(ctx, "ord-1", "manual", "HDFC0001234")
	require.NoError(t, err)
	assert.Equal(t, transfer.Reference, again.Reference)
	assert.Equal(t, 1, h.Manual.Count())

	entry, err := h.Ledger.GetByOrderID(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.StatusPaidOut, entry.Status)
	require.NotNil(t, entry.PayoutReference)
	assert.Equal(t, transfer.Reference, *entry.PayoutReference)

	_, err = svc.Payout(ctx, "missing", "manual", "HDFC0001234")
	require.ErrorIs(t, err, ledgerdomain.ErrEntryNotFound)
}
