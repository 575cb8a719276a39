package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("category", "B2B"),
		attribute.String("vendor_id", "V1"),
		attribute.String("outcome", "inserted"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "vendor_id" {
			t.Fatalf("vendor_id must be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordInvoiceGenerated(ctx, "B2B")
	m.RecordSequenceAllocation(ctx, "ok")
	m.RecordLedgerEntry(ctx, "inserted")
	m.RecordTDSWithheld(ctx, 100)
	m.RecordReportGenerated(ctx, "gstr1", "miss")
	m.RecordPayoutDispatch(ctx, "manual", "ok")
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatalf("expected noop metrics")
	}
	m.RecordInvoiceGenerated(context.Background(), "B2CS")
}
