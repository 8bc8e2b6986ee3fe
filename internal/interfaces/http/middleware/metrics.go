package middleware

import (
	"fmt"
	"time"

	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
)

// export files dominate the upper buckets
var responseSizeBuckets = []float64{1e2, 1e3, 1e4, 1e5, 1e6, 1e7}

type requestMetrics struct {
	served   *telemetry.Counter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	var (
		m         requestMetrics
		err, ierr error
	)
	m.served, ierr = telemetry.NewCounter(meter, "http_server_request_total", "Requests served", "{request}")
	err = multierr.Append(err, ierr)
	m.latency, ierr = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "Request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	err = multierr.Append(err, ierr)
	m.size, ierr = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "Response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	})
	err = multierr.Append(err, ierr)
	m.inFlight, ierr = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests being served"),
		metric.WithUnit("{request}"))
	err = multierr.Append(err, ierr)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// HTTPMetrics counts and times requests by method and matched route. The
// identity source labels the request counter; tenant ids never label
// anything. A nil meter, or one that rejects an instrument, disables it.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newRequestMetrics(meter)
	if err != nil {
		return passThrough
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		m.latency.RecordDuration(ctx, time.Since(start), attrs...)
		if size := c.Writer.Size(); size > 0 {
			m.size.Record(ctx, float64(size), attrs...)
		}

		attrs = append(attrs, attribute.String("http.status_group", StatusGroup(c.Writer.Status())))
		if p, ok := GetPrincipal(c); ok {
			attrs = append(attrs, attribute.String("identity_source", string(p.Source)))
		}
		m.served.Inc(ctx, attrs...)
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// StatusGroup is the class of a status code, "2xx" to "5xx", or "other".
func StatusGroup(status int) string {
	if status < 200 || status > 599 {
		return "other"
	}
	return fmt.Sprintf("%dxx", status/100)
}
