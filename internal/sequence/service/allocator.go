package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	retryBackoff      = 20 * time.Millisecond
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   sequencedomain.CounterStore
	Rules   *config.TaxRulesHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	store   sequencedomain.CounterStore
	rules   *config.TaxRulesHolder
	metrics *metrics.Metrics
	issued  *issuedLog
}

func New(p Params) *Service {
	return &Service{
		log:     p.Log.Named("sequence.service"),
		store:   p.Store,
		rules:   p.Rules,
		metrics: p.Metrics,
		issued:  newIssuedLog(),
	}
}

// AllocateAt allocates the next number in the fiscal year containing at.
func (s *Service) AllocateAt(ctx context.Context, vendorID string, at time.Time) (sequencedomain.Allocation, error) {
	year := s.rules.Get().Calendar().Label(at)
	seq, err := s.Allocate(ctx, vendorID, year)
	if err != nil {
		return sequencedomain.Allocation{}, err
	}
	return sequencedomain.Allocation{
		VendorID:   strings.TrimSpace(vendorID),
		FiscalYear: year,
		Sequence:   seq,
	}, nil
}

// Allocate returns the next sequence number for (vendorID, fiscalYear).
// Storage failures are retried a bounded number of times. A number the
// counter has already handed out is reported as ErrSequenceConflict and never
// retried.
func (s *Service) Allocate(ctx context.Context, vendorID, fiscalYear string) (int64, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" || strings.ContainsAny(vendorID, "/:") {
		return 0, sequencedomain.ErrInvalidVendor.WithField("vendor_id")
	}
	rules := s.rules.Get()
	if _, err := rules.Calendar().ParseYear(fiscalYear); err != nil {
		return 0, fiscal.ErrInvalidFiscalYear.WithField("fiscal_year").Wrap(err)
	}

	maxRetries := rules.SequenceMaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	log := s.log.With(zap.String("vendor_id", vendorID), zap.String("fiscal_year", fiscalYear))

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		seq, err := s.store.Next(ctx, vendorID, fiscalYear)
		if err == nil {
			if !s.issued.record(vendorID+"|"+fiscalYear, seq) {
				s.metrics.RecordSequenceAllocation(ctx, "conflict")
				log.Error("sequence counter returned an issued number", zap.Int64("sequence", seq))
				return 0, sequencedomain.ErrSequenceConflict.
					WithMessage("counter for %s %s returned %d twice", vendorID, fiscalYear, seq)
			}
			s.metrics.RecordSequenceAllocation(ctx, "ok")
			return seq, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.metrics.RecordSequenceAllocation(ctx, "retried")
		log.Warn("sequence increment failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = maxRetries
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
	}

	s.metrics.RecordSequenceAllocation(ctx, "failed")
	log.Error("sequence allocation failed", zap.Error(lastErr))
	return 0, sequencedomain.ErrStorageUnavailable.Wrap(lastErr)
}

var _ sequencedomain.Allocator = (*Service)(nil)
