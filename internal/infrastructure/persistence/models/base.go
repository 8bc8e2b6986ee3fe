package models

import (
	"time"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides the persistence fields shared by every mutable fact:
// identity, timestamps and the optimistic locking version.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// FromDomainRoot populates AggregateModel and returns the tenant of root
func (m *AggregateModel) FromDomainRoot(root shared.TenantAggregateRoot) uuid.UUID {
	m.ID = root.ID
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
	m.Version = root.Version
	return root.TenantID
}

// ToDomainRoot builds the domain root for a row owned by tenantID
func (m *AggregateModel) ToDomainRoot(tenantID uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		TenantID: tenantID,
		Version:  m.Version,
	}
}

// All returns every model owned by this module, in dependency order
func All() []any {
	return []any{
		&TenantProfileModel{},
		&SaleFactModel{},
		&CustomerModel{},
		&ExpenseModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&SyncRecordModel{},
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
