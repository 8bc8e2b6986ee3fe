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

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*finance.Expense, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var row models.ExpenseModel
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, lookupError(err, "expense")
	}
	e := row.ToDomain()
	return &e, nil
}

// FindInWindow returns expenses paid inside w, newest first
func (r *GormExpenseRepository) FindInWindow(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]finance.Expense, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var rows []models.ExpenseModel
	if err := windowed(db, "paid_at", w).Order("paid_at DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	expenses := make([]finance.Expense, len(rows))
	for i := range rows {
		expenses[i] = rows[i].ToDomain()
	}
	return expenses, nil
}

// Count returns the number of expenses of the tenant
func (r *GormExpenseRepository) Count(ctx context.Context, p identity.Principal) (int64, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.ExpenseModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Create inserts a new expense
func (r *GormExpenseRepository) Create(ctx context.Context, p identity.Principal, e finance.Expense) error {
	if err := checkOwner(p, e.TenantID); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(models.ExpenseModelFromDomain(e)).Error)
}

// Update persists e if the stored row still holds version e.Version-1
func (r *GormExpenseRepository) Update(ctx context.Context, p identity.Principal, e finance.Expense) error {
	if err := checkOwner(p, e.TenantID); err != nil {
		return err
	}

	m := models.ExpenseModelFromDomain(e)
	db := r.db.WithContext(ctx)
	result := db.Model(&models.ExpenseModel{}).
		Scopes(tenant.Scope(p.TenantID)).
		Where("id = ? AND version = ?", e.ID, e.Version-1).
		Updates(map[string]any{
			"amount":         m.Amount,
			"currency_code":  m.CurrencyCode,
			"description":    m.Description,
			"category":       m.Category,
			"paid_at":        m.PaidAt,
			"payment_method": m.PaymentMethod,
			"reference":      m.Reference,
			"version":        m.Version,
			"updated_at":     m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return staleOrMissing(db, p, &models.ExpenseModel{}, e.ID, "expense")
	}
	return nil
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
