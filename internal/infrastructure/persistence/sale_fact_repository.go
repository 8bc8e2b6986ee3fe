package persistence

import (
	"context"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"github.com/erp/fincore/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSaleFactRepository reads point-of-sale facts using GORM
type GormSaleFactRepository struct {
	db *gorm.DB
}

// NewGormSaleFactRepository creates a new GormSaleFactRepository
func NewGormSaleFactRepository(db *gorm.DB) *GormSaleFactRepository {
	return &GormSaleFactRepository{db: db}
}

// FindInWindow returns the tenant's sales inside w, newest first
func (r *GormSaleFactRepository) FindInWindow(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]finance.SaleFact, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var rows []models.SaleFactModel
	if err := windowed(db, "occurred_at", w).Order("occurred_at DESC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	sales := make([]finance.SaleFact, len(rows))
	for i := range rows {
		sales[i] = rows[i].ToDomain()
	}
	return sales, nil
}

// FindAnySaleTenant returns the tenant of the oldest recorded sale. This is
// the only unscoped sale query and serves identity resolution alone.
func (r *GormSaleFactRepository) FindAnySaleTenant(ctx context.Context) (uuid.UUID, error) {
	var row models.SaleFactModel
	if err := r.db.WithContext(ctx).Select("tenant_id").Order("occurred_at ASC").Take(&row).Error; err != nil {
		return uuid.Nil, translateError(err)
	}
	return row.TenantID, nil
}

// Record inserts a sale fact. The engine never writes sales itself; this is
// used by seeding and tests standing in for the POS subsystem.
func (r *GormSaleFactRepository) Record(ctx context.Context, s finance.SaleFact) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Create(models.SaleFactModelFromDomain(s)).Error)
}

// windowed restricts column to the window bounds that are set
func windowed(db *gorm.DB, column string, w finance.DateWindow) *gorm.DB {
	if !w.From.IsZero() {
		db = db.Where(column+" >= ?", w.From)
	}
	if !w.To.IsZero() {
		db = db.Where(column+" <= ?", w.To)
	}
	return db
}
