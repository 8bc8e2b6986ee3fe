package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrsOf(kvs []attribute.KeyValue) map[string]interface{} {
	out := make(map[string]interface{}, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartClientSpan_PushLifecycle(t *testing.T) {
	sr := recordSpans(t)
	tenant := uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001")

	_, span := telemetry.StartClientSpan(context.Background(), "sync_bridge", "push_invoice",
		telemetry.Tenant(tenant),
		telemetry.AttrEntityType.String("INVOICE"),
	)
	span.AddEvent("platform_pushed", trace.WithAttributes(telemetry.AttrExternalID.String("ext-9")))
	telemetry.Settle(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "sync_bridge.push_invoice", got.Name())
	assert.Equal(t, trace.SpanKindClient, got.SpanKind())
	assert.Equal(t, codes.Ok, got.Status().Code)

	attrs := attrsOf(got.Attributes())
	assert.Equal(t, tenant.String(), attrs["tenant_id"])
	assert.Equal(t, "INVOICE", attrs["entity_type"])
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "ext-9", attrsOf(got.Events()[0].Attributes)["external_id"])
}

func TestStartServiceSpan_WindowAttributes(t *testing.T) {
	sr := recordSpans(t)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, span := telemetry.StartServiceSpan(context.Background(), "aggregator", "series",
		telemetry.Window(from, time.Time{})...,
	)
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, trace.SpanKindInternal, got.SpanKind())
	assert.Equal(t, map[string]interface{}{"window_from": "2025-01-01"}, attrsOf(got.Attributes()))
}

func TestWindow(t *testing.T) {
	assert.Empty(t, telemetry.Window(time.Time{}, time.Time{}))

	to := time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC)
	attrs := telemetry.Window(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, []attribute.KeyValue{
		telemetry.AttrWindowFrom.String("2025-03-01"),
		telemetry.AttrWindowTo.String("2025-03-31"),
	}, attrs)
}

func TestFailAndSettle(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "fact_loader", "load")
	telemetry.Fail(span, nil)
	telemetry.Settle(span, errors.New("store unavailable"))
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "store unavailable", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}
