package persistence

import (
	"context"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantProfileRepository reads tenant profiles owned by the identity subsystem
type GormTenantProfileRepository struct {
	db *gorm.DB
}

// NewGormTenantProfileRepository creates a new GormTenantProfileRepository
func NewGormTenantProfileRepository(db *gorm.DB) *GormTenantProfileRepository {
	return &GormTenantProfileRepository{db: db}
}

// FindAnyProfile returns the oldest tenant profile, or shared.ErrNotFound
func (r *GormTenantProfileRepository) FindAnyProfile(ctx context.Context) (*identity.TenantProfile, error) {
	var row models.TenantProfileModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return row.ToDomain(), nil
}
