package middleware

import (
	"context"
	"strings"

	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// profilingSkipPrefixes never get profiling labels
var profilingSkipPrefixes = []string{"/health", "/swagger"}

// Profiling labels the request goroutine for Pyroscope with method, route,
// resource and tenant. It must run after Identity so the tenant is known.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range profilingSkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels extracts low cardinality labels from the gin context
func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	var tenantID string
	if p, ok := GetPrincipal(c); ok {
		tenantID = p.TenantID.String()
	}
	return telemetry.HTTPRequestLabels(resourceFromRoute(route), route, c.Request.Method, tenantID)
}

// resourceFromRoute derives the resource name from the route pattern.
// Example: "/api/v1/invoices/:id/send" -> "invoices"
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
