package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SwaggerConfig
		remoteAddr string
		want       int
	}{
		{name: "disabled", cfg: config.SwaggerConfig{}, remoteAddr: "10.0.0.1:1234", want: http.StatusNotFound},
		{name: "open", cfg: config.SwaggerConfig{Enabled: true}, remoteAddr: "203.0.113.9:1234", want: http.StatusOK},
		{name: "exact ip allowed", cfg: config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, remoteAddr: "10.0.0.1:1234", want: http.StatusOK},
		{name: "cidr allowed", cfg: config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, remoteAddr: "192.168.4.20:1234", want: http.StatusOK},
		{name: "outside list", cfg: config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1", "192.168.0.0/16"}}, remoteAddr: "203.0.113.9:1234", want: http.StatusForbidden},
		{name: "garbage list refuses all", cfg: config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"not-an-ip"}}, remoteAddr: "10.0.0.1:1234", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/swagger/*any", SwaggerProtection(tt.cfg), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
