package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/api/v1/invoices", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com"}

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantCredHdr string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantOrigin: "https://app.example.com", wantCredHdr: "true"},
		{name: "unknown origin", method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "same origin request", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight allowed", method: http.MethodOptions, origin: "https://app.example.com", wantStatus: http.StatusNoContent, wantOrigin: "https://app.example.com", wantCredHdr: "true"},
		{name: "preflight unknown", method: http.MethodOptions, origin: "https://evil.example.com", wantStatus: http.StatusNoContent},
	}

	router := newCORSRouter(cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/invoices", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredHdr, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSWithConfig_Wildcard(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"*"}
	router := newCORSRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), DemoModeHeader)
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORSConfigFromHTTP(t *testing.T) {
	c := CORSConfigFromHTTP(config.HTTPConfig{CORSAllowOrigins: []string{"https://app.example.com"}})
	assert.Equal(t, []string{"https://app.example.com"}, c.AllowOrigins)
	assert.Equal(t, DefaultCORSConfig().AllowMethods, c.AllowMethods)

	c = CORSConfigFromHTTP(config.HTTPConfig{CORSAllowMethods: []string{"GET"}})
	assert.Empty(t, c.AllowOrigins)
	assert.Equal(t, []string{"GET"}, c.AllowMethods)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seenGin, seenCtx string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seenGin = GetRequestID(c)
		seenCtx = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 32)
		assert.Equal(t, id, seenGin)
		assert.Equal(t, id, seenCtx)
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-123", seenGin)
	})

	t.Run("truncates oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", 300))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, seenGin, MaxRequestIDLength)
	})
}

func TestGenerateRequestID(t *testing.T) {
	a, b := generateRequestID(), generateRequestID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}

func TestSecure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Secure())
	router.GET("/api/v1/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}
