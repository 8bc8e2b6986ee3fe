package identity

import (
	"github.com/google/uuid"
)

// Source records which resolution step produced a Principal
type Source string

const (
	SourceSession        Source = "session"
	SourceDemoProfile    Source = "demo_profile"
	SourceSaleFactTenant Source = "sale_fact_tenant"
	SourceFixedFallback  Source = "fixed_fallback"
)

// Principal is the resolved identity on whose behalf every fact store call is
// made. It is never persisted.
type Principal struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email,omitempty"`
	IsDemo   bool      `json:"is_demo"`
	Source   Source    `json:"source"`
}

// NewPrincipal creates a principal for a tenant
func NewPrincipal(tenantID uuid.UUID, email string, isDemo bool, source Source) Principal {
	return Principal{
		TenantID: tenantID,
		Email:    email,
		IsDemo:   isDemo,
		Source:   source,
	}
}

// IsResolved reports whether the principal carries a tenant
func (p Principal) IsResolved() bool {
	return p.TenantID != uuid.Nil
}

// Session is the authenticated session handed over by the auth subsystem
type Session struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Email    string
	IsDemo   bool
}
