package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (metric.Meter, func() metricdata.ResourceMetrics) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp.Meter("http.server"), func() metricdata.ResourceMetrics {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		return rm
	}
}

func metricNamed(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	meter, collect := newTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetrics(meter))
	router.Use(func(c *gin.Context) {
		c.Set(PrincipalKey, identity.NewPrincipal(uuid.New(), "", true, identity.SourceDemoProfile))
		c.Next()
	})
	router.GET("/api/v1/invoices/:id", func(c *gin.Context) {
		c.String(http.StatusNotFound, "missing")
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	rm := collect()

	total := metricNamed(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	dp := sum.DataPoints[0]
	assert.Equal(t, int64(2), dp.Value)

	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/api/v1/invoices/:id", route.AsString())
	group, _ := dp.Attributes.Value(attribute.Key("http.status_group"))
	assert.Equal(t, "4xx", group.AsString())
	source, _ := dp.Attributes.Value(attribute.Key("identity_source"))
	assert.Equal(t, "demo_profile", source.AsString())

	duration := metricNamed(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	_, labelled := hist.DataPoints[0].Attributes.Value(attribute.Key("identity_source"))
	assert.False(t, labelled)

	size := metricNamed(rm, "http_server_response_size_bytes")
	require.NotNil(t, size)

	active := metricNamed(rm, "http_server_active_requests")
	require.NotNil(t, active)
	activeSum := active.Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(0), activeSum.DataPoints[0].Value)
}

func TestStatusGroup(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		302: "3xx",
		409: "4xx",
		503: "5xx",
		599: "5xx",
		100: "other",
		0:   "other",
		600: "other",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusGroup(code))
	}
}
