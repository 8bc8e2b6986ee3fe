package persistence

import (
	"context"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"github.com/erp/fincore/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncRecordRepository implements SyncRecordRepository using GORM
type GormSyncRecordRepository struct {
	db *gorm.DB
}

// NewGormSyncRecordRepository creates a new GormSyncRecordRepository
func NewGormSyncRecordRepository(db *gorm.DB) *GormSyncRecordRepository {
	return &GormSyncRecordRepository{db: db}
}

// FindByLocal finds the record of a local entity on a platform
func (r *GormSyncRecordRepository) FindByLocal(ctx context.Context, p identity.Principal, platform integration.PlatformCode, entityType integration.EntityType, localID uuid.UUID) (*integration.SyncRecord, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var model models.SyncRecordModel
	if err := db.Where("platform = ? AND entity_type = ? AND local_id = ?", string(platform), entityType, localID).
		Take(&model).Error; err != nil {
		return nil, lookupError(err, "sync record")
	}
	return model.ToDomain(), nil
}

// FindAll returns every record of the tenant
func (r *GormSyncRecordRepository) FindAll(ctx context.Context, p identity.Principal) ([]integration.SyncRecord, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var rows []models.SyncRecordModel
	if err := db.Order("entity_type, local_id, platform").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	records := make([]integration.SyncRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Save inserts or updates a record keyed by (tenant, platform, entity type,
// local id). The stored id is kept when the key already exists.
func (r *GormSyncRecordRepository) Save(ctx context.Context, p identity.Principal, rec *integration.SyncRecord) error {
	if err := checkOwner(p, rec.TenantID); err != nil {
		return err
	}

	m := models.SyncRecordModelFromDomain(rec)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "platform"}, {Name: "entity_type"}, {Name: "local_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id",
			"local_version",
			"last_outcome",
			"last_attempt_at",
			"last_error",
			"last_synced_at",
			"updated_at",
		}),
	}).Create(m).Error
	return translateError(err)
}

// Ensure GormSyncRecordRepository implements SyncRecordRepository
var _ integration.SyncRecordRepository = (*GormSyncRecordRepository)(nil)
