package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// restoreGlobals puts the otel globals back after a test that calls Setup.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp, mp, lp := otel.GetTracerProvider(), otel.GetMeterProvider(), global.GetLoggerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		global.SetLoggerProvider(lp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestSetup_Disabled(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	p, err := Setup(context.Background(), Config{ServiceName: "fincore"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Same(t, before, otel.GetTracerProvider())
	assert.NotNil(t, p.Meter("fincore"))
	assert.False(t, p.ZapCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))

	p.EnableSpanProfiles()
	assert.False(t, p.SpanProfilesEnabled())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_EnabledWithoutCollector(t *testing.T) {
	restoreGlobals(t)

	// gRPC exporters dial lazily, so Setup succeeds with nothing listening
	p, err := Setup(context.Background(), Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		Insecure:          true,
		ServiceName:       "fincore-test",
		ServiceVersion:    "1.0.0",
		Environment:       "test",
		SamplingRatio:     1,
		MetricsInterval:   time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	assert.True(t, p.Enabled())
	assert.Same(t, p.traces, otel.GetTracerProvider())

	core := p.ZapCore(zapcore.WarnLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	p.EnableSpanProfiles()
	p.EnableSpanProfiles()
	assert.True(t, p.SpanProfilesEnabled())
	_, plain := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, plain, "global provider should be the profiling wrapper")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", sampler(1.5).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "ParentBased{root:TraceIDRatioBased{0.25}")
}
