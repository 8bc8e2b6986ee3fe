package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"github.com/erp/fincore/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*finance.Customer, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var model models.CustomerModel
	if err := db.Where("id = ?", id).Take(&model).Error; err != nil {
		return nil, lookupError(err, "customer")
	}
	c := model.ToDomain()
	return &c, nil
}

// FindByName finds a customer by normalised name, case-insensitively
func (r *GormCustomerRepository) FindByName(ctx context.Context, p identity.Principal, name string) (*finance.Customer, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var model models.CustomerModel
	if err := db.Where("name_key = ?", models.CustomerNameKey(name)).Take(&model).Error; err != nil {
		return nil, lookupError(err, "customer")
	}
	c := model.ToDomain()
	return &c, nil
}

// FindAll returns a page of customers and the total count
func (r *GormCustomerRepository) FindAll(ctx context.Context, p identity.Principal, filter shared.Filter) ([]finance.Customer, int64, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, 0, err
	}
	filter = filter.Normalize()

	query := r.applySearch(db.Model(&models.CustomerModel{}), filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.CustomerModel
	if err := query.Clauses(customerSorting.orderBy(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	customers := make([]finance.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, total, nil
}

// Count returns the number of customers of the tenant
func (r *GormCustomerRepository) Count(ctx context.Context, p identity.Principal) (int64, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.CustomerModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, p identity.Principal, c finance.Customer) error {
	if err := checkOwner(p, c.TenantID); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(c)).Error)
}

// Update persists c if the stored row still holds version c.Version-1
func (r *GormCustomerRepository) Update(ctx context.Context, p identity.Principal, c finance.Customer) error {
	if err := checkOwner(p, c.TenantID); err != nil {
		return err
	}

	m := models.CustomerModelFromDomain(c)
	db := r.db.WithContext(ctx)
	result := db.Model(&models.CustomerModel{}).
		Scopes(tenant.Scope(p.TenantID)).
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Updates(map[string]any{
			"name":          m.Name,
			"name_key":      m.NameKey,
			"email":         m.Email,
			"phone":         m.Phone,
			"address":       m.Address,
			"currency_code": m.CurrencyCode,
			"enabled":       m.Enabled,
			"version":       m.Version,
			"updated_at":    m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return staleOrMissing(db, p, &models.CustomerModel{}, c.ID, "customer")
	}
	return nil
}

// UpsertByName returns the customer with the given name, creating it when
// absent. A concurrent creation of the same name is resolved by reading the
// winner back.
func (r *GormCustomerRepository) UpsertByName(ctx context.Context, p identity.Principal, name, currency string) (*finance.Customer, bool, error) {
	existing, err := r.FindByName(ctx, p, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	c, err := finance.NewCustomer(p.TenantID, finance.CustomerInput{Name: name, CurrencyCode: currency})
	if err != nil {
		return nil, false, err
	}
	if err := r.Create(ctx, p, c); err != nil {
		if errors.Is(err, shared.ErrConstraintViolation) {
			existing, findErr := r.FindByName(ctx, p, name)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return &c, true, nil
}

// applySearch matches the search term against name and email
func (r *GormCustomerRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return query
	}
	pattern := "%" + search + "%"
	return query.Where("name_key LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ finance.CustomerRepository = (*GormCustomerRepository)(nil)
