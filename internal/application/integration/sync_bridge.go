// Package integration mirrors committed facts to external accounting platforms.
package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultPushTimeout bounds a single platform call
const DefaultPushTimeout = 5 * time.Second

// DefaultLockTTL bounds how long a trigger_sync run holds the tenant lock
const DefaultLockTTL = 2 * time.Minute

// SyncLock serialises explicit sync runs of one tenant across instances
type SyncLock interface {
	// TryLock takes key for ttl. acquired is false when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// SyncBridgeConfig holds the bridge timeouts
type SyncBridgeConfig struct {
	PushTimeout time.Duration
	LockTTL     time.Duration
}

// SyncBridge pushes customers, invoices and expenses to every platform the
// tenant configured. Each platform gets exactly one attempt per push; there
// are no automatic retries.
type SyncBridge struct {
	registry  integration.PlatformRegistry
	records   integration.SyncRecordRepository
	customers finance.CustomerRepository
	invoices  finance.InvoiceRepository
	expenses  finance.ExpenseRepository
	lock      SyncLock
	cfg       SyncBridgeConfig
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
	now       func() time.Time
	entities  entityLocks
}

// NewSyncBridge creates a new SyncBridge
func NewSyncBridge(
	registry integration.PlatformRegistry,
	records integration.SyncRecordRepository,
	customers finance.CustomerRepository,
	invoices finance.InvoiceRepository,
	expenses finance.ExpenseRepository,
	lock SyncLock,
	cfg SyncBridgeConfig,
	metrics *telemetry.BusinessMetrics,
	log *zap.Logger,
) *SyncBridge {
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if metrics == nil {
		metrics = telemetry.NewNoopBusinessMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncBridge{
		registry:  registry,
		records:   records,
		customers: customers,
		invoices:  invoices,
		expenses:  expenses,
		lock:      lock,
		cfg:       cfg,
		metrics:   metrics,
		logger:    log,
		now:       time.Now,
		entities:  entityLocks{held: make(map[string]*entityLock)},
	}
}

// entityLocks serialises pushes of one local entity within the process, so
// the sync record read at the start of a push always reflects the previous
// push of that entity.
type entityLocks struct {
	mu   sync.Mutex
	held map[string]*entityLock
}

type entityLock struct {
	sync.Mutex
	waiters int
}

func (l *entityLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	el, ok := l.held[key]
	if !ok {
		el = &entityLock{}
		l.held[key] = el
	}
	el.waiters++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		if el.waiters--; el.waiters == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}

// WithClock replaces the time source stamped on sync records
func (b *SyncBridge) WithClock(now func() time.Time) *SyncBridge {
	b.now = now
	return b
}

func (b *SyncBridge) configured(tenantID uuid.UUID) []integration.AccountingPlatform {
	if b.registry == nil {
		return nil
	}
	return b.registry.ListConfigured(tenantID)
}

// PushCustomer creates or updates the customer on every configured platform
func (b *SyncBridge) PushCustomer(ctx context.Context, p identity.Principal, c finance.Customer) integration.PushResult {
	payload := CustomerPayload(c)
	return b.push(ctx, p, integration.EntityTypeCustomer, c.ID, c.Version,
		func(ctx context.Context, platform integration.AccountingPlatform, externalID string) (string, error) {
			if externalID != "" {
				return externalID, platform.UpdateCustomer(ctx, p.TenantID, externalID, payload)
			}
			return platform.CreateCustomer(ctx, p.TenantID, payload)
		})
}

// PushInvoice creates or updates the invoice on every configured platform.
// The customer's external id is attached when the customer was synced before.
func (b *SyncBridge) PushInvoice(ctx context.Context, p identity.Principal, inv finance.Invoice) integration.PushResult {
	return b.push(ctx, p, integration.EntityTypeInvoice, inv.ID, inv.Version,
		func(ctx context.Context, platform integration.AccountingPlatform, externalID string) (string, error) {
			payload := InvoicePayload(inv, b.externalID(ctx, p, platform.Code(), integration.EntityTypeCustomer, inv.CustomerID))
			if externalID != "" {
				return externalID, platform.UpdateInvoice(ctx, p.TenantID, externalID, payload)
			}
			return platform.CreateInvoice(ctx, p.TenantID, payload)
		})
}

// PushExpense creates or updates the expense on every configured platform
func (b *SyncBridge) PushExpense(ctx context.Context, p identity.Principal, e finance.Expense) integration.PushResult {
	payload := ExpensePayload(e)
	return b.push(ctx, p, integration.EntityTypeExpense, e.ID, e.Version,
		func(ctx context.Context, platform integration.AccountingPlatform, externalID string) (string, error) {
			if externalID != "" {
				return externalID, platform.UpdateExpense(ctx, p.TenantID, externalID, payload)
			}
			return platform.CreateExpense(ctx, p.TenantID, payload)
		})
}

// pushFunc sends one entity to one platform. externalID is empty when the
// entity was never accepted there; the returned id is the one to record.
type pushFunc func(ctx context.Context, platform integration.AccountingPlatform, externalID string) (string, error)

func (b *SyncBridge) push(
	ctx context.Context,
	p identity.Principal,
	entityType integration.EntityType,
	localID uuid.UUID,
	version int,
	send pushFunc,
) integration.PushResult {
	if !p.IsResolved() {
		return integration.PushResult{
			EntityType: entityType,
			LocalID:    localID,
			Outcome:    integration.OutcomeFailed,
			Err:        shared.ErrNoIdentity,
		}
	}

	platforms := b.configured(p.TenantID)
	if len(platforms) == 0 {
		b.metrics.RecordSyncPush(ctx, "", entityType.String(), string(integration.OutcomeSkipped), 0)
		return integration.Skipped(entityType, localID)
	}

	unlock := b.entities.lock(p.TenantID.String() + "/" + entityType.String() + "/" + localID.String())
	defer unlock()

	ctx, span := telemetry.StartClientSpan(ctx, "sync_bridge", "push_"+lower(entityType),
		telemetry.Tenant(p.TenantID),
		telemetry.AttrEntityType.String(entityType.String()),
	)
	defer span.End()

	log := logger.Enrich(ctx, b.logger).With(
		zap.String("entity_type", entityType.String()),
		zap.String("local_id", localID.String()),
	)

	results := make([]integration.PlatformResult, 0, len(platforms))
	var errs []error
	for _, platform := range platforms {
		res, err := b.pushOne(ctx, log, p, platform, entityType, localID, version, send)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}

	result := integration.Combine(entityType, localID, results, errs)
	span.SetAttributes(telemetry.AttrSyncOutcome.String(string(result.Outcome)))
	telemetry.Settle(span, result.Err)
	return result
}

func (b *SyncBridge) pushOne(
	ctx context.Context,
	log *zap.Logger,
	p identity.Principal,
	platform integration.AccountingPlatform,
	entityType integration.EntityType,
	localID uuid.UUID,
	version int,
	send pushFunc,
) (integration.PlatformResult, error) {
	code := platform.Code()
	result := integration.PlatformResult{Platform: code, Outcome: integration.OutcomeFailed}
	start := time.Now()

	record, err := b.records.FindByLocal(ctx, p, code, entityType, localID)
	if errors.Is(err, shared.ErrNotFound) {
		record, err = integration.NewSyncRecord(p.TenantID, code, entityType, localID)
	}
	if err != nil {
		// Without the record an update could turn into a duplicate create
		result.Error = err.Error()
		b.metrics.RecordSyncPush(ctx, code.String(), entityType.String(), string(result.Outcome), time.Since(start))
		log.Warn("sync.record_unavailable", zap.String("platform", code.String()), zap.Error(err))
		return result, fmt.Errorf("%s: %w", code, err)
	}

	pctx, cancel := context.WithTimeout(ctx, b.cfg.PushTimeout)
	externalID, pushErr := send(pctx, platform, record.ExternalID)
	if pushErr != nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
		pushErr = fmt.Errorf("%w after %s: %w", integration.ErrPlatformTimeout, b.cfg.PushTimeout, pushErr)
	}
	cancel()

	now := b.now()
	if pushErr == nil && externalID == "" {
		pushErr = integration.ErrPlatformInvalidResponse
	}
	if pushErr != nil {
		record.RecordFailure(pushErr, now)
		result.Error = pushErr.Error()
		log.Warn("sync.push_failed",
			zap.String("platform", code.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(pushErr),
		)
	} else {
		result.Created = !record.HasExternal()
		record.RecordSuccess(externalID, version, now)
		result.Outcome = integration.OutcomeOK
		result.ExternalID = externalID
		trace.SpanFromContext(ctx).AddEvent("platform_pushed", trace.WithAttributes(
			telemetry.AttrPlatform.String(code.String()),
			telemetry.AttrExternalID.String(externalID),
		))
		log.Info("sync.pushed",
			zap.String("platform", code.String()),
			zap.String("external_id", externalID),
			zap.Bool("created", result.Created),
		)
	}
	b.metrics.RecordSyncPush(ctx, code.String(), entityType.String(), string(result.Outcome), time.Since(start))

	if err := b.records.Save(ctx, p, record); err != nil {
		log.Error("sync.record_save_failed", zap.String("platform", code.String()), zap.Error(err))
		if pushErr == nil {
			return result, fmt.Errorf("%s: %w", code, err)
		}
	}
	if pushErr != nil {
		return result, fmt.Errorf("%s: %w", code, pushErr)
	}
	return result, nil
}

// externalID returns the id of a local entity on a platform, or "" when unknown
func (b *SyncBridge) externalID(
	ctx context.Context,
	p identity.Principal,
	code integration.PlatformCode,
	entityType integration.EntityType,
	localID uuid.UUID,
) string {
	if localID == uuid.Nil {
		return ""
	}
	record, err := b.records.FindByLocal(ctx, p, code, entityType, localID)
	if err != nil || !record.HasExternal() {
		return ""
	}
	return record.ExternalID
}

func lower(t integration.EntityType) string {
	switch t {
	case integration.EntityTypeCustomer:
		return "customer"
	case integration.EntityTypeInvoice:
		return "invoice"
	case integration.EntityTypeExpense:
		return "expense"
	}
	return "entity"
}
