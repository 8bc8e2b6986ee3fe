package models

import (
	"time"

	"github.com/erp/fincore/internal/domain/integration"
	"github.com/google/uuid"
)

// SyncRecordModel is the persistence model for the SyncRecord side table
type SyncRecordModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_sync_records_local,priority:1"`
	Platform      string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_sync_records_local,priority:2"`
	EntityType    integration.EntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_sync_records_local,priority:3"`
	LocalID       uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_sync_records_local,priority:4"`
	ExternalID    string                 `gorm:"type:varchar(200)"`
	LocalVersion  int                    `gorm:"not null;default:0"`
	LastOutcome   integration.Outcome    `gorm:"type:varchar(20);not null"`
	LastAttemptAt time.Time              `gorm:"not null"`
	LastError     string                 `gorm:"type:text"`
	LastSyncedAt  *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRecordModel) TableName() string {
	return "sync_records"
}

// ToDomain converts the persistence model to a domain SyncRecord
func (m *SyncRecordModel) ToDomain() *integration.SyncRecord {
	return &integration.SyncRecord{
		ID:            m.ID,
		TenantID:      m.TenantID,
		Platform:      integration.PlatformCode(m.Platform),
		EntityType:    m.EntityType,
		LocalID:       m.LocalID,
		ExternalID:    m.ExternalID,
		LocalVersion:  m.LocalVersion,
		LastOutcome:   m.LastOutcome,
		LastAttemptAt: m.LastAttemptAt.UTC(),
		LastError:     m.LastError,
		LastSyncedAt:  utcPtr(m.LastSyncedAt),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

// SyncRecordModelFromDomain creates a persistence model from a domain SyncRecord
func SyncRecordModelFromDomain(r *integration.SyncRecord) *SyncRecordModel {
	return &SyncRecordModel{
		ID:            r.ID,
		TenantID:      r.TenantID,
		Platform:      string(r.Platform),
		EntityType:    r.EntityType,
		LocalID:       r.LocalID,
		ExternalID:    r.ExternalID,
		LocalVersion:  r.LocalVersion,
		LastOutcome:   r.LastOutcome,
		LastAttemptAt: r.LastAttemptAt.UTC(),
		LastError:     r.LastError,
		LastSyncedAt:  utcPtr(r.LastSyncedAt),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}
