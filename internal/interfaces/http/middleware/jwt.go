package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/fincore/internal/infrastructure/auth"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionClaimsKey = "session_claims"
	bearerScheme     = "Bearer"
)

// TokenValidator validates session tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

var errMalformedAuthorization = errors.New("authorization header is not a bearer token")

// SessionAuth reads the session from an optional bearer token. Without an
// Authorization header the request continues with no session so identity
// resolution can fall back; a header that does not validate is a 401.
func SessionAuth(tokens TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		claims, err := validateBearer(tokens, header)
		if err != nil {
			log.Warn("session token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, err)
			return
		}
		c.Set(SessionClaimsKey, claims)
		log.Debug("session token accepted", zap.String("tenant_id", claims.TenantID), zap.Bool("demo", claims.Demo))
		c.Next()
	}
}

func validateBearer(tokens TokenValidator, header string) (*auth.Claims, error) {
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return nil, errMalformedAuthorization
	}
	return tokens.ValidateToken(token)
}

// abortUnauthorized answers 401, telling expired tokens apart from every
// other rejection.
func abortUnauthorized(c *gin.Context, err error) {
	resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenInvalid, "Invalid token", GetRequestID(c))
	if errors.Is(err, auth.ErrExpiredToken) {
		resp = dto.NewErrorResponseWithRequestID(dto.ErrCodeTokenExpired, "Token has expired", GetRequestID(c))
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// SessionClaims returns the claims SessionAuth accepted, or nil.
func SessionClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(SessionClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}
