package persistence

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/persistence/models"
	"github.com/erp/fincore/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM.
// An invoice row and its item rows are always written in one transaction.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*finance.Invoice, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var model models.InvoiceModel
	if err := db.Preload("Items", orderedItems).Where("id = ?", id).Take(&model).Error; err != nil {
		return nil, lookupError(err, "invoice")
	}
	inv := model.ToDomain()
	return &inv, nil
}

// FindByNumber finds an invoice by its tenant-unique number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, p identity.Principal, number string) (*finance.Invoice, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	var model models.InvoiceModel
	if err := db.Preload("Items", orderedItems).
		Where("invoice_number = ?", strings.TrimSpace(number)).
		Take(&model).Error; err != nil {
		return nil, lookupError(err, "invoice")
	}
	inv := model.ToDomain()
	return &inv, nil
}

// FindInWindow returns invoices issued inside q.Window with their items, newest first
func (r *GormInvoiceRepository) FindInWindow(ctx context.Context, p identity.Principal, q finance.InvoiceQuery) ([]finance.Invoice, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return nil, err
	}

	query := windowed(db, "issue_date", q.Window)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.CustomerID != uuid.Nil {
		query = query.Where("customer_id = ?", q.CustomerID)
	}

	var rows []models.InvoiceModel
	if err := query.Preload("Items", orderedItems).
		Order("issue_date DESC").
		Order("invoice_number DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	invoices := make([]finance.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// Count returns the number of invoices of the tenant
func (r *GormInvoiceRepository) Count(ctx context.Context, p identity.Principal) (int64, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.InvoiceModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// NextInvoiceNumber returns the number following the highest one issued in
// at's month. Two concurrent callers may get the same number; the unique
// index rejects the second insert.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, p identity.Principal, at time.Time) (string, error) {
	db, err := tenant.DB(ctx, r.db, p)
	if err != nil {
		return "", err
	}

	prefix := strings.TrimSuffix(finance.FormatInvoiceNumber(at, 0), "00000")
	var numbers []string
	if err := db.Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error; err != nil {
		return "", translateError(err)
	}

	next := 1
	if len(numbers) > 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix)); err == nil {
			next = n + 1
		}
	}
	return finance.FormatInvoiceNumber(at, next), nil
}

// Create inserts the invoice and all of its items atomically
func (r *GormInvoiceRepository) Create(ctx context.Context, p identity.Principal, inv finance.Invoice) error {
	if err := checkOwner(p, inv.TenantID); err != nil {
		return err
	}
	if !inv.Status.IsStorable() {
		return shared.ErrInvalidState.WithMessage("Invoice status " + inv.Status.String() + " cannot be stored")
	}

	m := models.InvoiceModelFromDomain(inv)
	err := tenant.Transaction(ctx, r.db, p, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrDuplicateInvoiceNumber.WithCause(err)
			}
			return err
		}
		if len(m.Items) > 0 {
			if err := tx.Create(&m.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

// Update persists inv and replaces its items atomically if the stored row
// still holds version inv.Version-1
func (r *GormInvoiceRepository) Update(ctx context.Context, p identity.Principal, inv finance.Invoice) error {
	if err := checkOwner(p, inv.TenantID); err != nil {
		return err
	}
	if !inv.Status.IsStorable() {
		return shared.ErrInvalidState.WithMessage("Invoice status " + inv.Status.String() + " cannot be stored")
	}

	m := models.InvoiceModelFromDomain(inv)
	err := tenant.Transaction(ctx, r.db, p, func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Scopes(tenant.Scope(p.TenantID)).
			Where("id = ? AND version = ?", inv.ID, inv.Version-1).
			Updates(map[string]any{
				"invoice_number":    m.InvoiceNumber,
				"customer_id":       m.CustomerID,
				"customer_name":     m.CustomerName,
				"issue_date":        m.IssueDate,
				"due_date":          m.DueDate,
				"status":            m.Status,
				"subtotal":          m.Subtotal,
				"discount":          m.Discount,
				"tax":               m.Tax,
				"total":             m.Total,
				"vat_rate":          m.VATRate,
				"currency_code":     m.CurrencyCode,
				"notes":             m.Notes,
				"sent_at":           m.SentAt,
				"paid_at":           m.PaidAt,
				"cancelled_at":      m.CancelledAt,
				"payment_method":    m.PaymentMethod,
				"payment_reference": m.PaymentReference,
				"version":           m.Version,
				"updated_at":        m.UpdatedAt,
			})
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return shared.ErrDuplicateInvoiceNumber.WithCause(result.Error)
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return staleOrMissing(tx, p, &models.InvoiceModel{}, inv.ID, "invoice")
		}

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		if len(m.Items) > 0 {
			if err := tx.Create(&m.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
