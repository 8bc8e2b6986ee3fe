package middleware

import (
	"context"
	"errors"
	"strings"

	appidentity "github.com/erp/fincore/internal/application/identity"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PrincipalKey is the gin context key of the resolved principal
const PrincipalKey = "principal"

// PrincipalResolver resolves the identity a request acts for
type PrincipalResolver interface {
	Resolve(ctx context.Context, req appidentity.ResolveRequest) (identity.Principal, error)
}

// IdentityConfig holds configuration for the identity middleware
type IdentityConfig struct {
	Resolver PrincipalResolver
	// DemoModeHeaderEnabled honours X-Demo-Mode: true
	DemoModeHeaderEnabled bool
	Logger                *zap.Logger
}

// Identity resolves the principal from the session claims and the demo
// header and stores it on the gin and request contexts. An unresolved
// identity is answered with 401.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		req := appidentity.ResolveRequest{
			DemoMode: cfg.DemoModeHeaderEnabled && strings.EqualFold(c.GetHeader(DemoModeHeader), "true"),
		}
		if claims := SessionClaims(c); claims != nil {
			session, err := claims.Session()
			if err != nil {
				log.Warn("session claims invalid", zap.Error(err))
				abortUnauthorized(c, err)
				return
			}
			req.Session = session
		}

		ctx := c.Request.Context()
		p, err := cfg.Resolver.Resolve(ctx, req)
		if err != nil {
			code, msg := dto.ErrCodeInternal, "An unexpected error occurred"
			if errors.Is(err, shared.ErrNoIdentity) {
				code, msg = dto.ErrCodeNoIdentity, err.Error()
			} else {
				log.Error("identity resolution failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c)))
			return
		}

		ctx = logger.WithPrincipal(ctx, p.TenantID.String(), string(p.Source))
		trace.SpanFromContext(ctx).SetAttributes(
			telemetry.Tenant(p.TenantID),
			telemetry.AttrIdentitySource.String(string(p.Source)),
			telemetry.AttrDemo.Bool(p.IsDemo),
		)
		c.Request = c.Request.WithContext(ctx)
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the principal stored by Identity
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok && p.IsResolved()
}
