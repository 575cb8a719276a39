package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesGenerated   metric.Int64Counter
	sequenceAllocations metric.Int64Counter
	ledgerEntries       metric.Int64Counter
	tdsWithheld         metric.Int64Counter
	reportsGenerated    metric.Int64Counter
	payoutDispatches    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "gstengine"
	}
	meter := provider.Meter(name)

	invoicesGenerated, err := meter.Int64Counter("gstengine_invoices_generated_total")
	if err != nil {
		return nil, err
	}
	sequenceAllocations, err := meter.Int64Counter("gstengine_sequence_allocations_total")
	if err != nil {
		return nil, err
	}
	ledgerEntries, err := meter.Int64Counter("gstengine_ledger_entries_total")
	if err != nil {
		return nil, err
	}
	tdsWithheld, err := meter.Int64Counter("gstengine_tds_withheld_minor_total")
	if err != nil {
		return nil, err
	}
	reportsGenerated, err := meter.Int64Counter("gstengine_reports_generated_total")
	if err != nil {
		return nil, err
	}
	payoutDispatches, err := meter.Int64Counter("gstengine_payout_dispatch_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesGenerated:   invoicesGenerated,
		sequenceAllocations: sequenceAllocations,
		ledgerEntries:       ledgerEntries,
		tdsWithheld:         tdsWithheld,
		reportsGenerated:    reportsGenerated,
		payoutDispatches:    payoutDispatches,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider, for tests and tools.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordInvoiceGenerated increments invoice counts by supply category.
func (m *Metrics) RecordInvoiceGenerated(ctx context.Context, category string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("category", strings.TrimSpace(category)))
	m.invoicesGenerated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSequenceAllocation counts allocator outcomes (ok, retried, conflict, failed).
func (m *Metrics) RecordSequenceAllocation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.sequenceAllocations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLedgerEntry counts ledger writes; outcome is inserted or replayed.
func (m *Metrics) RecordLedgerEntry(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.ledgerEntries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTDSWithheld adds withheld minor units.
func (m *Metrics) RecordTDSWithheld(ctx context.Context, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.tdsWithheld.Add(ctx, amount)
}

// RecordReportGenerated counts report builds; cache is hit or miss.
func (m *Metrics) RecordReportGenerated(ctx context.Context, kind, cache string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("cache", strings.TrimSpace(cache)),
	)
	m.reportsGenerated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPayoutDispatch counts payout attempts by provider and outcome.
func (m *Metrics) RecordPayoutDispatch(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.payoutDispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"category": {},
	"outcome":  {},
	"kind":     {},
	"cache":    {},
	"provider": {},
	"reason":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
