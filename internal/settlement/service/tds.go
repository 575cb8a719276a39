package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Policy holds the withholding parameters in effect for one computation.
type Policy struct {
	Threshold        int64
	RateWithTaxID    decimal.Decimal
	RateWithoutTaxID decimal.Decimal
}

func PolicyFrom(rules config.TaxRules) Policy {
	return Policy{
		Threshold:        rules.TDSThreshold,
		RateWithTaxID:    rules.TDSRate(true),
		RateWithoutTaxID: rules.TDSRate(false),
	}
}

// Compute decides withholding for a payout of gross given the vendor's
// fiscal-year payouts so far. Withholding starts with the payout that takes
// the running total past the threshold and applies to that payout in full.
func (p Policy) Compute(gross int64, hasTaxID bool, cumulativeBefore int64) (settlementdomain.TDSOutcome, error) {
	if gross <= 0 {
		return settlementdomain.TDSOutcome{}, settlementdomain.ErrInvalidAmount.
			WithField("gross_payout").
			WithMessage("gross payout must be positive, got %d", gross)
	}
	if cumulativeBefore < 0 {
		return settlementdomain.TDSOutcome{}, settlementdomain.ErrInvalidAmount.WithField("cumulative_payout")
	}
	after, err := money.Add(cumulativeBefore, gross)
	if err != nil {
		return settlementdomain.TDSOutcome{}, settlementdomain.ErrInvalidAmount.WithField("gross_payout").Wrap(err)
	}

	outcome := settlementdomain.TDSOutcome{
		Rate:             decimal.Zero,
		Net:              gross,
		CumulativeBefore: cumulativeBefore,
		CumulativeAfter:  after,
	}
	if after <= p.Threshold {
		return outcome, nil
	}

	rate := p.RateWithoutTaxID
	if hasTaxID {
		rate = p.RateWithTaxID
	}
	withheld, err := money.Percent(gross, rate)
	if err != nil {
		return settlementdomain.TDSOutcome{}, settlementdomain.ErrInvalidPercentage.WithField("tds_rate").Wrap(err)
	}
	outcome.Applicable = true
	outcome.Rate = rate
	outcome.Withheld = withheld
	outcome.Net = gross - withheld
	return outcome, nil
}

type TDSParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    settlementdomain.TDSRepository
	Rules   *config.TaxRulesHolder
	Metrics *metrics.Metrics `optional:"true"`
	Clock   clock.Clock
}

type TDSService struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    settlementdomain.TDSRepository
	rules   *config.TaxRulesHolder
	metrics *metrics.Metrics
	clock   clock.Clock
}

func NewTDSService(p TDSParams) *TDSService {
	return &TDSService{
		db:      p.DB,
		log:     p.Log.Named("settlement.tds"),
		genID:   p.GenID,
		repo:    p.Repo,
		rules:   p.Rules,
		metrics: p.Metrics,
		clock:   p.Clock,
	}
}

func (s *TDSService) Withhold(ctx context.Context, in settlementdomain.TDSInput) (*settlementdomain.TDSRecord, error) {
	var record *settlementdomain.TDSRecord
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		record, inserted, err = s.WithholdTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		s.Recorded(ctx, record)
	}
	return record, nil
}

// WithholdTx adds the payout to the vendor's running total and records the
// withholding on tx. A payout already recorded for the order is returned
// unchanged and leaves the running total alone.
func (s *TDSService) WithholdTx(ctx context.Context, tx *gorm.DB, in settlementdomain.TDSInput) (*settlementdomain.TDSRecord, bool, error) {
	in.VendorID = strings.TrimSpace(in.VendorID)
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.VendorID == "" {
		return nil, false, settlementdomain.ErrInvalidVendor.WithField("vendor_id")
	}
	if in.OrderID == "" {
		return nil, false, settlementdomain.ErrInvalidVendor.WithField("order_id").WithMessage("order id is required")
	}
	if in.GrossPayout <= 0 {
		return nil, false, settlementdomain.ErrInvalidAmount.WithField("gross_payout")
	}

	existing, err := s.repo.FindRecordByOrderID(ctx, tx, in.OrderID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	rules := s.rules.Get()
	calendar := rules.Calendar()
	now := s.clock.Now().UTC()
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	fiscalYear := calendar.Label(paidAt)

	after, err := s.repo.AddCumulative(ctx, tx, in.VendorID, fiscalYear, in.GrossPayout, now)
	if err != nil {
		return nil, false, err
	}
	outcome, err := PolicyFrom(rules).Compute(in.GrossPayout, in.HasTaxID, after-in.GrossPayout)
	if err != nil {
		return nil, false, err
	}

	record := &settlementdomain.TDSRecord{
		ID:              s.genID.Generate(),
		VendorID:        in.VendorID,
		OrderID:         in.OrderID,
		FiscalYear:      fiscalYear,
		Quarter:         calendar.QuarterOf(paidAt),
		GrossPayout:     in.GrossPayout,
		HasTaxID:        in.HasTaxID,
		Rate:            outcome.Rate,
		WithheldAmount:  outcome.Withheld,
		NetPayout:       outcome.Net,
		CumulativeAfter: outcome.CumulativeAfter,
		PaidAt:          paidAt.UTC(),
		CreatedAt:       now,
	}
	if err := s.repo.InsertRecord(ctx, tx, record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

func (s *TDSService) Recorded(ctx context.Context, record *settlementdomain.TDSRecord) {
	s.log.Info("tds computed",
		zap.String("vendor_id", record.VendorID),
		zap.String("order_id", record.OrderID),
		zap.String("fiscal_year", record.FiscalYear),
		zap.Int("quarter", record.Quarter),
		zap.Int64("gross", record.GrossPayout),
		zap.Int64("withheld", record.WithheldAmount),
		zap.Int64("cumulative", record.CumulativeAfter),
	)
	s.metrics.RecordTDSWithheld(ctx, record.WithheldAmount)
}

// Certificate totals a vendor's withholding for one fiscal quarter.
func (s *TDSService) Certificate(ctx context.Context, vendorID, fiscalYear string, quarter int) (*settlementdomain.CertificateSummary, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, settlementdomain.ErrInvalidVendor.WithField("vendor_id")
	}
	if quarter < 1 || quarter > 4 {
		return nil, settlementdomain.ErrInvalidQuarter.WithField("quarter")
	}
	calendar := s.rules.Get().Calendar()
	year, err := calendar.ParseYear(fiscalYear)
	if err != nil {
		return nil, err
	}
	period, err := calendar.Quarter(year, quarter)
	if err != nil {
		return nil, err
	}
	start, end := calendar.PeriodBounds(period)

	records, err := s.repo.ListRecords(ctx, s.db, vendorID, year.Label(), quarter)
	if err != nil {
		return nil, err
	}
	summary := &settlementdomain.CertificateSummary{
		VendorID:    vendorID,
		FiscalYear:  year.Label(),
		Quarter:     quarter,
		PeriodStart: start,
		PeriodEnd:   end,
		Payouts:     len(records),
		Records:     records,
	}
	for _, record := range records {
		summary.GrossPayout += record.GrossPayout
		summary.Withheld += record.WithheldAmount
		summary.NetPayout += record.NetPayout
	}
	return summary, nil
}

// ForOrder returns the withholding recorded for an order, or nil.
func (s *TDSService) ForOrder(ctx context.Context, orderID string) (*settlementdomain.TDSRecord, error) {
	return s.repo.FindRecordByOrderID(ctx, s.db, strings.TrimSpace(orderID))
}

func (s *TDSService) WithheldBetween(ctx context.Context, vendorID string, from, to time.Time) (int64, error) {
	return s.repo.SumWithheldBetween(ctx, s.db, strings.TrimSpace(vendorID), from, to)
}

var _ settlementdomain.TDSService = (*TDSService)(nil)
