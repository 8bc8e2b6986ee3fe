package integration

import (
	"context"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/google/uuid"
)

// EntityType is the kind of local entity mirrored to a platform
type EntityType string

const (
	EntityTypeCustomer EntityType = "CUSTOMER"
	EntityTypeInvoice  EntityType = "INVOICE"
	EntityTypeExpense  EntityType = "EXPENSE"
)

// AllEntityTypes lists every syncable entity type
var AllEntityTypes = []EntityType{EntityTypeCustomer, EntityTypeInvoice, EntityTypeExpense}

// IsValid returns true if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCustomer, EntityTypeInvoice, EntityTypeExpense:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// Outcome is the result of one push attempt
type Outcome string

const (
	// OutcomeOK means the platform accepted the entity
	OutcomeOK Outcome = "OK"
	// OutcomeSkipped means no platform is configured for the tenant
	OutcomeSkipped Outcome = "SKIPPED"
	// OutcomeFailed means the platform rejected the entity or was unreachable
	OutcomeFailed Outcome = "FAILED"
)

// SyncRecord maps a local entity to its counterpart on one platform.
// This is an Entity (not Aggregate Root): it lives in a side table next to
// the facts and is updated in place on every attempt.
type SyncRecord struct {
	// ID is the unique identifier of this record
	ID uuid.UUID
	// TenantID is the tenant this record belongs to
	TenantID uuid.UUID
	// Platform identifies which platform this record is for
	Platform PlatformCode
	// EntityType is the kind of the local entity
	EntityType EntityType
	// LocalID is the local entity ID
	LocalID uuid.UUID
	// ExternalID is the entity ID on the platform, empty until the first success
	ExternalID string
	// LocalVersion is the local entity version last pushed successfully
	LocalVersion int
	// LastOutcome is the result of the last attempt
	LastOutcome Outcome
	// LastAttemptAt is when the last push was attempted
	LastAttemptAt time.Time
	// LastError contains the error of the last attempt, if it failed
	LastError string
	// LastSyncedAt is when the last successful push completed
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSyncRecord creates an empty record for a local entity
func NewSyncRecord(tenantID uuid.UUID, platform PlatformCode, entityType EntityType, localID uuid.UUID) (*SyncRecord, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidSyncTenantID
	}
	if !platform.IsValid() {
		return nil, ErrInvalidPlatformCode
	}
	if !entityType.IsValid() {
		return nil, ErrInvalidEntityType
	}
	if localID == uuid.Nil {
		return nil, ErrInvalidLocalID
	}
	now := time.Now().UTC()
	return &SyncRecord{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Platform:   platform,
		EntityType: entityType,
		LocalID:    localID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HasExternal reports whether the entity already exists on the platform
func (r *SyncRecord) HasExternal() bool {
	return r.ExternalID != ""
}

// IsSynced reports whether the last attempt succeeded
func (r *SyncRecord) IsSynced() bool {
	return r.HasExternal() && r.LastOutcome == OutcomeOK
}

// NeedsPush reports whether the local entity at localVersion differs from
// what the platform last accepted
func (r *SyncRecord) NeedsPush(localVersion int) bool {
	return !r.IsSynced() || r.LocalVersion < localVersion
}

// RecordSuccess stores the external id and the version that was accepted
func (r *SyncRecord) RecordSuccess(externalID string, localVersion int, at time.Time) {
	at = at.UTC()
	r.ExternalID = externalID
	r.LocalVersion = localVersion
	r.LastOutcome = OutcomeOK
	r.LastAttemptAt = at
	r.LastError = ""
	r.LastSyncedAt = &at
	r.UpdatedAt = at
}

// RecordFailure stores the error of a failed attempt. The external id of an
// earlier success is kept so the next attempt still updates in place.
func (r *SyncRecord) RecordFailure(err error, at time.Time) {
	at = at.UTC()
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	r.LastOutcome = OutcomeFailed
	r.LastAttemptAt = at
	r.LastError = strings.TrimSpace(msg)
	r.UpdatedAt = at
}

// SyncRecordRepository defines the interface for sync record persistence
type SyncRecordRepository interface {
	// FindByLocal finds the record of a local entity on a platform.
	// Returns shared.ErrNotFound when the entity was never attempted.
	FindByLocal(ctx context.Context, p identity.Principal, platform PlatformCode, entityType EntityType, localID uuid.UUID) (*SyncRecord, error)

	// FindAll returns every record of the tenant
	FindAll(ctx context.Context, p identity.Principal) ([]SyncRecord, error)

	// Save inserts or updates a record keyed by (platform, entity type, local id)
	Save(ctx context.Context, p identity.Principal, r *SyncRecord) error
}
