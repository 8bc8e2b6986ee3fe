package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, bm)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestBusinessMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: provider.Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordIdentityResolution(ctx, "session")
	bm.RecordIdentityResolution(ctx, "session")
	bm.RecordIdentityResolution(ctx, "fixed_fallback")
	bm.RecordSyncPush(ctx, "ledger", "INVOICE", "OK", 120*time.Millisecond)
	bm.RecordAggregation(ctx, "snapshot", 5*time.Millisecond)
	bm.RecordExport(ctx, "csv")

	metrics := collect(t, reader)

	resolutions, ok := metrics["identity_resolutions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	total := int64(0)
	for _, dp := range resolutions.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, resolutions.DataPoints, 2)

	pushes, ok := metrics["sync_pushes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, pushes.DataPoints, 1)
	outcome, _ := pushes.DataPoints[0].Attributes.Value(telemetry.AttrSyncOutcome)
	assert.Equal(t, "OK", outcome.AsString())

	assert.Contains(t, metrics, "aggregation_duration_seconds")
	assert.Contains(t, metrics, "sync_push_duration_seconds")
	assert.Contains(t, metrics, "exports_total")
}

func TestBusinessMetrics_InFlight(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"),
	})
	require.NoError(t, err)
	ctx := context.Background()

	bm.PushStarted(ctx)
	bm.PushStarted(ctx)
	bm.PushStarted(ctx)
	bm.PushFinished(ctx)
	assert.Equal(t, int64(2), bm.InFlight())

	gauge, ok := collect(t, reader)["sync_pushes_in_flight"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value)
}
