// Package tenant scopes GORM statements to the tenant of an explicit Principal.
//
// Every repository call receives the resolved identity.Principal as an
// argument instead of reading it from the request context:
//
//	db, err := tenant.DB(ctx, r.db, p)
//	if err != nil {
//		return err // ErrNoIdentity, nothing was sent to the store
//	}
//	db.Find(&rows) // WHERE tenant_id = p.TenantID
package tenant

import (
	"context"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant discriminator present on every tenant-owned table
const Column = "tenant_id"

// Scope applies tenant filtering to GORM queries
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", tenantID)
	}
}

// Guard rejects a principal without a tenant
func Guard(p identity.Principal) error {
	if !p.IsResolved() {
		return shared.ErrNoIdentity
	}
	return nil
}

// DB returns db bound to ctx and filtered to p's tenant. It fails with
// shared.ErrNoIdentity for an unresolved principal.
func DB(ctx context.Context, db *gorm.DB, p identity.Principal) (*gorm.DB, error) {
	if err := Guard(p); err != nil {
		return nil, err
	}
	return db.WithContext(ctx).Where(Column+" = ?", p.TenantID), nil
}

// Transaction runs fn inside a transaction after checking p. fn receives the
// unscoped transaction; it must add the tenant condition itself (via Scope)
// since inserts and scoped updates need different shapes.
func Transaction(ctx context.Context, db *gorm.DB, p identity.Principal, fn func(tx *gorm.DB) error) error {
	if err := Guard(p); err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(fn)
}
