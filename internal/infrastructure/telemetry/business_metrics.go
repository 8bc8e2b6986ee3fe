package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ErrMeterNil is returned by NewBusinessMetrics without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BusinessMetrics counts what the finance engine does: identity fallbacks,
// platform pushes, integrity warnings, exports and aggregation latency.
type BusinessMetrics struct {
	logger *zap.Logger

	identityResolutions *Counter
	syncPushes          *Counter
	integrityWarnings   *Counter
	exports             *Counter

	aggregationDuration *Histogram
	syncPushDuration    *Histogram

	inFlight atomic.Int64
}

type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{logger: cfg.Logger}
	if bm.logger == nil {
		bm.logger = zap.NewNop()
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.identityResolutions, "identity_resolutions_total", "Principal resolutions by fallback step", "{resolution}"},
		{&bm.syncPushes, "sync_pushes_total", "Pushes to external accounting platforms", "{push}"},
		{&bm.integrityWarnings, "invoice_integrity_warnings_total", "Invoices whose stored totals disagree with a recomputation", "{invoice}"},
		{&bm.exports, "exports_total", "Rendered exports by format", "{export}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	if bm.aggregationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "aggregation_duration_seconds",
		Description: "Time spent loading facts and building a report",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.syncPushDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sync_push_duration_seconds",
		Description: "Time spent pushing one entity to one platform",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}

	if _, err := cfg.Meter.Int64ObservableGauge("sync_pushes_in_flight",
		metric.WithDescription("Background pushes that have not finished"),
		metric.WithUnit("{push}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(bm.inFlight.Load())
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return bm, nil
}

// NewNoopBusinessMetrics returns metrics backed by a no-op meter.
func NewNoopBusinessMetrics() *BusinessMetrics {
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: noop.NewMeterProvider().Meter(TracerName)})
	if err != nil {
		panic(err)
	}
	return bm
}

func (bm *BusinessMetrics) RecordIdentityResolution(ctx context.Context, step string) {
	bm.identityResolutions.Inc(ctx, AttrIdentityStep.String(step))
}

// RecordSyncPush counts one push attempt and records its latency.
func (bm *BusinessMetrics) RecordSyncPush(ctx context.Context, platform, entityType, outcome string, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrPlatform.String(platform),
		AttrEntityType.String(entityType),
		AttrSyncOutcome.String(outcome),
	}
	bm.syncPushes.Inc(ctx, attrs...)
	bm.syncPushDuration.RecordDuration(ctx, d, attrs...)
}

func (bm *BusinessMetrics) PushStarted(context.Context) {
	bm.inFlight.Add(1)
}

func (bm *BusinessMetrics) PushFinished(context.Context) {
	bm.inFlight.Add(-1)
}

// InFlight returns the number of background pushes currently running.
func (bm *BusinessMetrics) InFlight() int64 {
	return bm.inFlight.Load()
}

func (bm *BusinessMetrics) RecordAggregation(ctx context.Context, operation string, d time.Duration) {
	bm.aggregationDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

func (bm *BusinessMetrics) RecordIntegrityWarning(ctx context.Context) {
	bm.integrityWarnings.Inc(ctx)
}

func (bm *BusinessMetrics) RecordExport(ctx context.Context, format string) {
	bm.exports.Inc(ctx, AttrExportFormat.String(format))
}
