package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResourceFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/invoices/:id/send", "invoices"},
		{"/api/v1/reports/top-customers", "reports"},
		{"/api/v2/exports/:format/archive", "exports"},
		{"/health", "health"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, resourceFromRoute(tt.route))
		})
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("V12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("values"))
}

func TestProfiling_SetsLabels(t *testing.T) {
	tenantID := uuid.New()
	labels := map[string]string{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(PrincipalKey, identity.NewPrincipal(tenantID, "", false, identity.SourceSession))
		c.Next()
	})
	router.Use(Profiling(true))
	router.POST("/api/v1/invoices/:id/send", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			labels[key] = value
			return true
		})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/send", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "POST", labels["method"])
	assert.Equal(t, "/api/v1/invoices/:id/send", labels["route"])
	assert.Equal(t, "invoices", labels["controller"])
	assert.Equal(t, tenantID.String(), labels["tenant_id"])
}

func TestProfiling_DisabledAndSkipped(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		var found bool
		router := gin.New()
		router.Use(Profiling(enabled))
		router.GET("/health", func(c *gin.Context) {
			pprof.ForLabels(c.Request.Context(), func(string, string) bool {
				found = true
				return false
			})
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, found)
	}
}
