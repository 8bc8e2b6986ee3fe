package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps of a stored fact.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantAggregateRoot carries identity, tenant ownership and the optimistic
// locking version shared by every mutable fact.
//
// Aggregates are values: a state transition returns a copy produced by Next,
// which bumps Version. Repositories expect the stored row to hold Version-1.
type TenantAggregateRoot struct {
	BaseEntity
	TenantID uuid.UUID
	Version  int
}

// NewTenantAggregateRoot starts version 1 of a new aggregate owned by tenantID.
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now().UTC()
	return TenantAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		TenantID:   tenantID,
		Version:    1,
	}
}

// Next returns the root for the following version of the aggregate
func (a TenantAggregateRoot) Next(now time.Time) TenantAggregateRoot {
	next := a
	next.Version++
	next.UpdatedAt = now.UTC()
	return next
}
