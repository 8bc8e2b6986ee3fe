package persistence

import (
	"context"
	"errors"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translateError maps a GORM/driver error onto the domain error taxonomy.
// Domain errors and context cancellation pass through unchanged; anything the
// store cannot explain is reported as unavailable with the driver error kept
// as the cause.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var de *shared.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.ErrConstraintViolation.WithCause(err)
	default:
		return shared.ErrStoreUnavailable.WithCause(err)
	}
}

// notFound returns a not-found error naming the entity
func notFound(entity string) error {
	return shared.ErrNotFound.WithMessage(entity + " not found")
}

// checkOwner refuses writes of an entity that belongs to another tenant
func checkOwner(p identity.Principal, tenantID uuid.UUID) error {
	if err := tenant.Guard(p); err != nil {
		return err
	}
	if tenantID != p.TenantID {
		return shared.ErrInvalidInput.WithMessage("Entity does not belong to the current tenant")
	}
	return nil
}

// lookupError reports a missing row as not-found for entity
func lookupError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return translateError(err)
}

// staleOrMissing explains an optimistic update that matched no row.
// db must carry no conditions of its own.
func staleOrMissing(db *gorm.DB, p identity.Principal, model any, id uuid.UUID, entity string) error {
	var count int64
	if err := db.Model(model).Scopes(tenant.Scope(p.TenantID)).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return notFound(entity)
	}
	return shared.ErrStaleWrite
}
