package auth

import (
	"errors"
	"time"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiration is the lifetime of tokens minted by GenerateToken
const DefaultTokenExpiration = time.Hour

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingSecret    = errors.New("jwt secret is not configured")
)

// Claims are the session claims handed over by the identity subsystem
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	Demo     bool   `json:"demo,omitempty"`
}

// JWTService validates session tokens
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: DefaultTokenExpiration,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Email    string
	Demo     bool
}

// GenerateToken signs a session token. Used by the local dev tooling and tests;
// production tokens come from the identity subsystem.
func (s *JWTService) GenerateToken(input GenerateTokenInput) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if input.TenantID == uuid.Nil {
		return "", ErrMissingTenantID
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: input.TenantID.String(),
		Email:    input.Email,
		Demo:     input.Demo,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and validates a session token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Session converts the claims to the session handed to the identity resolver
func (c *Claims) Session() (*identity.Session, error) {
	tenantID, err := uuid.Parse(c.TenantID)
	if err != nil {
		return nil, ErrInvalidClaims
	}
	// Subject is optional; service tokens carry no user
	userID, _ := uuid.Parse(c.Subject)
	return &identity.Session{
		TenantID: tenantID,
		UserID:   userID,
		Email:    c.Email,
		IsDemo:   c.Demo,
	}, nil
}

// GetExpiresAtTime returns the token's expiration time as time.Time
func (c *Claims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}
