package integration

import (
	"errors"

	"github.com/google/uuid"
)

// PlatformResult is the outcome of a push to one platform
type PlatformResult struct {
	Platform   PlatformCode `json:"platform"`
	Outcome    Outcome      `json:"outcome"`
	ExternalID string       `json:"external_id,omitempty"`
	Created    bool         `json:"created"`
	Error      string       `json:"error,omitempty"`
}

// PushResult is the outcome of pushing one entity to every configured
// platform: Ok when all succeeded, Skipped when none is configured and Failed
// when at least one failed.
type PushResult struct {
	EntityType EntityType       `json:"entity_type"`
	LocalID    uuid.UUID        `json:"local_id"`
	Outcome    Outcome          `json:"outcome"`
	ExternalID string           `json:"external_id,omitempty"`
	Platforms  []PlatformResult `json:"platforms,omitempty"`
	Err        error            `json:"-"`
}

// Skipped returns the result for a tenant without configured platforms
func Skipped(entityType EntityType, localID uuid.UUID) PushResult {
	return PushResult{EntityType: entityType, LocalID: localID, Outcome: OutcomeSkipped}
}

// Combine folds per-platform results into a PushResult
func Combine(entityType EntityType, localID uuid.UUID, results []PlatformResult, errs []error) PushResult {
	if len(results) == 0 {
		return Skipped(entityType, localID)
	}
	res := PushResult{
		EntityType: entityType,
		LocalID:    localID,
		Outcome:    OutcomeOK,
		Platforms:  results,
	}
	for _, r := range results {
		if r.Outcome == OutcomeFailed {
			res.Outcome = OutcomeFailed
			continue
		}
		if res.ExternalID == "" {
			res.ExternalID = r.ExternalID
		}
	}
	res.Err = errors.Join(errs...)
	return res
}

// IsOK reports whether every platform accepted the entity
func (r PushResult) IsOK() bool {
	return r.Outcome == OutcomeOK
}
