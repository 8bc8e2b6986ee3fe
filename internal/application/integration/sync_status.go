package integration

import (
	"context"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EntityStatus counts the sync state of one entity type
type EntityStatus struct {
	Total   int64 `json:"total"`
	Synced  int64 `json:"synced"`
	Pending int64 `json:"pending"` // Total - Synced
	Failed  int64 `json:"failed"`  // Last attempt failed on at least one platform
}

// SyncStatus is the tenant's view of what reached the configured platforms
type SyncStatus struct {
	Platforms []integration.PlatformCode              `json:"platforms"`
	Entities  map[integration.EntityType]EntityStatus `json:"entities"`
	LastError map[integration.EntityType]string       `json:"last_error,omitempty"`
	CheckedAt time.Time                               `json:"checked_at"`
}

// TriggerResult summarises an explicit sync run
type TriggerResult struct {
	Pushed  int                      `json:"pushed"`
	Failed  int                      `json:"failed"`
	Skipped bool                     `json:"skipped"` // No platform is configured
	Results []integration.PushResult `json:"results,omitempty"`
}

type recordKey struct {
	platform   integration.PlatformCode
	entityType integration.EntityType
	localID    uuid.UUID
}

func (b *SyncBridge) recordIndex(ctx context.Context, p identity.Principal) (map[recordKey]integration.SyncRecord, error) {
	records, err := b.records.FindAll(ctx, p)
	if err != nil {
		return nil, err
	}
	index := make(map[recordKey]integration.SyncRecord, len(records))
	for _, r := range records {
		index[recordKey{r.Platform, r.EntityType, r.LocalID}] = r
	}
	return index, nil
}

// SyncStatus reports per entity type how many local entities every
// configured platform has accepted. It never calls a platform.
func (b *SyncBridge) SyncStatus(ctx context.Context, p identity.Principal) (SyncStatus, error) {
	if !p.IsResolved() {
		return SyncStatus{}, shared.ErrNoIdentity
	}

	platforms := b.configured(p.TenantID)
	status := SyncStatus{
		Platforms: make([]integration.PlatformCode, 0, len(platforms)),
		Entities:  make(map[integration.EntityType]EntityStatus, len(integration.AllEntityTypes)),
		LastError: make(map[integration.EntityType]string),
		CheckedAt: b.now().UTC(),
	}
	for _, pl := range platforms {
		status.Platforms = append(status.Platforms, pl.Code())
	}

	totals := map[integration.EntityType]func(context.Context, identity.Principal) (int64, error){
		integration.EntityTypeCustomer: b.customers.Count,
		integration.EntityTypeInvoice:  b.invoices.Count,
		integration.EntityTypeExpense:  b.expenses.Count,
	}
	for _, t := range integration.AllEntityTypes {
		total, err := totals[t](ctx, p)
		if err != nil {
			return SyncStatus{}, err
		}
		status.Entities[t] = EntityStatus{Total: total, Pending: total}
	}
	if len(platforms) == 0 {
		return status, nil
	}

	records, err := b.records.FindAll(ctx, p)
	if err != nil {
		return SyncStatus{}, err
	}

	// An entity is synced once every configured platform holds it
	synced := make(map[recordKey]int)
	failed := make(map[recordKey]bool)
	configured := make(map[integration.PlatformCode]bool, len(platforms))
	for _, pl := range platforms {
		configured[pl.Code()] = true
	}
	lastAttempt := make(map[integration.EntityType]time.Time)
	for _, r := range records {
		if !configured[r.Platform] {
			continue
		}
		key := recordKey{entityType: r.EntityType, localID: r.LocalID}
		if r.IsSynced() {
			synced[key]++
		}
		if r.LastOutcome == integration.OutcomeFailed {
			failed[key] = true
			if r.LastAttemptAt.After(lastAttempt[r.EntityType]) {
				lastAttempt[r.EntityType] = r.LastAttemptAt
				status.LastError[r.EntityType] = r.LastError
			}
		}
	}

	for key, n := range synced {
		if n < len(platforms) {
			continue
		}
		s := status.Entities[key.entityType]
		s.Synced++
		status.Entities[key.entityType] = s
	}
	for key := range failed {
		s := status.Entities[key.entityType]
		s.Failed++
		status.Entities[key.entityType] = s
	}
	for t, s := range status.Entities {
		s.Pending = max(s.Total-s.Synced, 0)
		status.Entities[t] = s
	}
	return status, nil
}

// TriggerSync pushes every entity whose record is missing, failed or older
// than the local version. Only one run per tenant may be active; a concurrent
// call gets shared.ErrSyncInProgress.
func (b *SyncBridge) TriggerSync(ctx context.Context, p identity.Principal) (TriggerResult, error) {
	if !p.IsResolved() {
		return TriggerResult{}, shared.ErrNoIdentity
	}
	platforms := b.configured(p.TenantID)
	if len(platforms) == 0 {
		return TriggerResult{Skipped: true}, nil
	}

	if b.lock != nil {
		release, acquired, err := b.lock.TryLock(ctx, "sync:trigger:"+p.TenantID.String(), b.cfg.LockTTL)
		if err != nil {
			return TriggerResult{}, shared.ErrStoreUnavailable.WithCause(err)
		}
		if !acquired {
			return TriggerResult{}, shared.ErrSyncInProgress
		}
		defer release()
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sync_bridge", "trigger", telemetry.Tenant(p.TenantID))
	defer span.End()
	log := logger.Enrich(ctx, b.logger)

	index, err := b.recordIndex(ctx, p)
	if err != nil {
		telemetry.Fail(span, err)
		return TriggerResult{}, err
	}
	needsPush := func(t integration.EntityType, id uuid.UUID, version int) bool {
		for _, pl := range platforms {
			r, ok := index[recordKey{pl.Code(), t, id}]
			if !ok || r.NeedsPush(version) {
				return true
			}
		}
		return false
	}

	var result TriggerResult
	collect := func(r integration.PushResult) {
		result.Results = append(result.Results, r)
		if r.IsOK() {
			result.Pushed++
		} else {
			result.Failed++
		}
	}

	// Customers go first so invoices can reference their external ids
	customers, err := b.allCustomers(ctx, p)
	if err != nil {
		telemetry.Fail(span, err)
		return TriggerResult{}, err
	}
	for _, c := range customers {
		if needsPush(integration.EntityTypeCustomer, c.ID, c.Version) {
			collect(b.PushCustomer(ctx, p, c))
		}
	}

	invoices, err := b.invoices.FindInWindow(ctx, p, finance.InvoiceQuery{})
	if err != nil {
		telemetry.Fail(span, err)
		return result, err
	}
	for _, inv := range invoices {
		if needsPush(integration.EntityTypeInvoice, inv.ID, inv.Version) {
			collect(b.PushInvoice(ctx, p, inv))
		}
	}

	expenses, err := b.expenses.FindInWindow(ctx, p, finance.DateWindow{})
	if err != nil {
		telemetry.Fail(span, err)
		return result, err
	}
	for _, e := range expenses {
		if needsPush(integration.EntityTypeExpense, e.ID, e.Version) {
			collect(b.PushExpense(ctx, p, e))
		}
	}

	span.SetAttributes(attribute.Int("pushed", result.Pushed), attribute.Int("failed", result.Failed))
	log.Info("sync.triggered",
		zap.Int("pushed", result.Pushed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (b *SyncBridge) allCustomers(ctx context.Context, p identity.Principal) ([]finance.Customer, error) {
	filter := shared.Filter{Page: 1, PageSize: 200, OrderBy: "created_at", OrderDir: "asc"}
	var all []finance.Customer
	for {
		page, total, err := b.customers.FindAll(ctx, p, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filter.Page++
	}
}
