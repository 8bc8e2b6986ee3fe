package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/fincore/internal/infrastructure/auth"
	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "fincore-test",
	})
}

func newSessionRouter(svc *auth.JWTService, seen **auth.Claims) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	handler := func(c *gin.Context) {
		*seen = SessionClaims(c)
		c.Status(http.StatusOK)
	}
	router.Group("/api/v1", SessionAuth(svc, nil)).GET("/invoices", handler)
	router.GET("/health", handler)
	return router
}

func TestSessionAuth(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()
	token, err := svc.GenerateToken(auth.GenerateTokenInput{TenantID: tenantID, UserID: uuid.New(), Email: "owner@acme.test"})
	require.NoError(t, err)

	var seen *auth.Claims
	router := newSessionRouter(svc, &seen)

	t.Run("valid token stores claims", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, tenantID.String(), seen.TenantID)
		assert.Equal(t, "owner@acme.test", seen.Email)
	})

	t.Run("missing header passes without session", func(t *testing.T) {
		seen = &auth.Claims{}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, seen)
	})

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "wrong scheme", header: "Basic abc", wantCode: dto.ErrCodeTokenInvalid},
		{name: "scheme only", header: "Bearer", wantCode: dto.ErrCodeTokenInvalid},
		{name: "empty bearer", header: "Bearer ", wantCode: dto.ErrCodeTokenInvalid},
		{name: "garbage token", header: "Bearer not.a.token", wantCode: dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}

	t.Run("routes outside the api group ignore tokens", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSessionAuth_ExpiredToken(t *testing.T) {
	issued := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	svc := newTestJWTService().WithClock(func() time.Time { return issued })
	token, err := svc.GenerateToken(auth.GenerateTokenInput{TenantID: uuid.New()})
	require.NoError(t, err)
	svc.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })

	var seen *auth.Claims
	router := newSessionRouter(svc, &seen)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeTokenExpired)
}

func TestSessionAuth_LowercaseScheme(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateToken(auth.GenerateTokenInput{TenantID: uuid.New()})
	require.NoError(t, err)

	var seen *auth.Claims
	router := newSessionRouter(svc, &seen)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, seen)
}
