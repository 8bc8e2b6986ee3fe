package models

import (
	"time"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/google/uuid"
)

// TenantProfileModel maps the tenants table owned by the identity subsystem.
// Only the columns needed for demo identity resolution are read.
type TenantProfileModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(200);not null"`
	Email        string    `gorm:"type:varchar(200)"`
	CurrencyCode string    `gorm:"type:varchar(3);not null;default:'USD'"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantProfileModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain TenantProfile
func (m *TenantProfileModel) ToDomain() *identity.TenantProfile {
	return &identity.TenantProfile{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		CurrencyCode: m.CurrencyCode,
	}
}
