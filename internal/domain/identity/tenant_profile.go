package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantProfile is the read-only view of a tenant row owned by the identity
// subsystem.
type TenantProfile struct {
	ID           uuid.UUID
	Name         string
	Email        string
	CurrencyCode string
}

// TenantProfileLookup finds any tenant profile. It is not tenant-scoped and is
// only consulted by the demo step of identity resolution.
type TenantProfileLookup interface {
	FindAnyProfile(ctx context.Context) (*TenantProfile, error)
}

// SaleFactTenantLookup finds the tenant of any recorded sale
type SaleFactTenantLookup interface {
	FindAnySaleTenant(ctx context.Context) (uuid.UUID, error)
}
