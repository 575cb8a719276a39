package tracing

import (
	"context"
	"testing"

	"github.com/smallbiznis/gstengine/pkg/telemetry/correlation"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewProviderDisabledIsNoop(t *testing.T) {
	tp, err := NewProvider(fxtest.NewLifecycle(t), Config{}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, noop.TracerProvider{}, tp)
}

func TestNewProviderRejectsUnknownProtocol(t *testing.T) {
	_, err := NewProvider(fxtest.NewLifecycle(t), Config{Enabled: true, ExporterProtocol: "udp"}, zap.NewNop())
	require.ErrorContains(t, err, "unsupported OTLP protocol")
}

func TestSpansCarryCorrelationID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := newSDKProvider(resource.Empty(), sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx := correlation.ContextWithCorrelationID(context.Background(), "ord-7")
	_, span := tp.Tracer("test").Start(ctx, "settle")
	span.End()
	_, bare := tp.Tracer("test").Start(context.Background(), "bare")
	bare.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Contains(t, spans[0].Attributes(), attribute.String("correlation_id", "ord-7"))
	for _, kv := range spans[1].Attributes() {
		require.NotEqual(t, attribute.Key("correlation_id"), kv.Key)
	}
}
