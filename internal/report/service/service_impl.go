package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
	"github.com/smallbiznis/gstengine/internal/report/export"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const cacheTTL = 24 * time.Hour

type Params struct {
	fx.In

	Log      *zap.Logger
	Invoices invoicedomain.Service
	TDS      settlementdomain.TDSService
	Rules    *config.TaxRulesHolder
	Store    kv.Store
	Sink     reportdomain.Sink
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	invoices invoicedomain.Service
	tds      settlementdomain.TDSService
	rules    *config.TaxRulesHolder
	store    kv.Store
	sink     reportdomain.Sink
	metrics  *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:      p.Log.Named("report.service"),
		invoices: p.Invoices,
		tds:      p.TDS,
		rules:    p.Rules,
		store:    p.Store,
		sink:     p.Sink,
		metrics:  p.Metrics,
	}
}

// Generate builds the report for a vendor and period. Reports are cached by
// data version, so unchanged inputs return the cached report and any change
// to the underlying invoices or withholding produces a fresh one.
func (s *Service) Generate(ctx context.Context, vendorID string, period fiscal.Period, kind reportdomain.Kind) (*reportdomain.Report, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, reportdomain.ErrInvalidVendor.WithField("vendor_id")
	}
	if !kind.Valid() {
		return nil, reportdomain.ErrInvalidKind.WithField("kind")
	}

	calendar := s.rules.Get().Calendar()
	from, to := calendar.PeriodBounds(period)
	invoices, err := s.invoices.ListForPeriod(ctx, vendorID, from, to)
	if err != nil {
		return nil, err
	}

	var withheld int64
	var version string
	if kind == reportdomain.KindGSTR3B {
		withheld, err = s.tds.WithheldBetween(ctx, vendorID, from, to)
		if err != nil {
			return nil, err
		}
		version = DataVersion(invoices, withheld)
	} else {
		version = DataVersion(invoices)
	}

	key := cacheKey(vendorID, period, kind, version)
	if cached, ok := s.cached(ctx, key); ok {
		s.metrics.RecordReportGenerated(ctx, string(kind), "hit")
		return cached, nil
	}

	report := &reportdomain.Report{
		Kind:        kind,
		VendorID:    vendorID,
		Period:      period.Key(),
		PeriodStart: from,
		PeriodEnd:   to,
		DataVersion: version,
	}
	if kind == reportdomain.KindGSTR1 {
		report.GSTR1 = BuildGSTR1(invoices, calendar.Location())
	} else {
		report.GSTR3B = BuildGSTR3B(invoices, withheld)
	}

	if data, err := json.Marshal(report); err == nil {
		if err := s.store.Set(ctx, key, string(data), cacheTTL); err != nil {
			s.log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.metrics.RecordReportGenerated(ctx, string(kind), "miss")
	s.log.Info("report generated",
		zap.String("vendor_id", vendorID),
		zap.String("period", report.Period),
		zap.String("kind", string(kind)),
		zap.String("data_version", version),
		zap.Int("invoices", len(invoices)),
	)
	return report, nil
}

// Export encodes the report and writes it to the sink under
// reports/<vendor>/<period>/<kind>-<version>.<ext>. Re-exporting an unchanged
// report overwrites the same object with the same bytes.
func (s *Service) Export(ctx context.Context, report *reportdomain.Report, format reportdomain.Format) (*reportdomain.Export, error) {
	if report == nil || !report.Kind.Valid() {
		return nil, reportdomain.ErrInvalidKind.WithField("kind")
	}
	data, err := export.Encode(report, format)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(report, format)
	if err := s.sink.Put(ctx, key, format.ContentType(), data); err != nil {
		return nil, err
	}

	out := &reportdomain.Export{
		ID:          ulid.Make().String(),
		Kind:        report.Kind,
		Format:      format,
		ObjectKey:   key,
		ContentType: format.ContentType(),
		Size:        int64(len(data)),
	}
	s.log.Info("report exported",
		zap.String("export_id", out.ID),
		zap.String("object_key", key),
		zap.Int64("size", out.Size),
	)
	return out, nil
}

func (s *Service) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil, reportdomain.ErrReportNotFound.WithField("object_key")
	}
	return s.sink.Get(ctx, objectKey)
}

// ObjectKey is the sink path of a report export.
func ObjectKey(report *reportdomain.Report, format reportdomain.Format) string {
	return fmt.Sprintf("reports/%s/%s/%s-%s.%s",
		slug.Make(report.VendorID),
		report.Period,
		report.Kind,
		slug.Make(report.DataVersion),
		format,
	)
}

func (s *Service) cached(ctx context.Context, key string) (*reportdomain.Report, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var report reportdomain.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false
	}
	return &report, true
}

func cacheKey(vendorID string, period fiscal.Period, kind reportdomain.Kind, version string) string {
	return fmt.Sprintf("report:%s:%s:%s:%s", vendorID, period.Key(), kind, version)
}
