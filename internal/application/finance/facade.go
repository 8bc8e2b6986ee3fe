// Package finance is the entry point the HTTP layer calls. Writes commit to
// the fact store first and mirror to accounting platforms in the background;
// reads only touch the fact store and the aggregator.
package finance

import (
	"context"
	"time"

	appintegration "github.com/erp/fincore/internal/application/integration"
	appreport "github.com/erp/fincore/internal/application/report"
	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/infrastructure/export"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncBridge mirrors committed entities to the configured platforms
type SyncBridge interface {
	PushCustomer(ctx context.Context, p identity.Principal, c finance.Customer) integration.PushResult
	PushInvoice(ctx context.Context, p identity.Principal, inv finance.Invoice) integration.PushResult
	PushExpense(ctx context.Context, p identity.Principal, e finance.Expense) integration.PushResult
	SyncStatus(ctx context.Context, p identity.Principal) (appintegration.SyncStatus, error)
	TriggerSync(ctx context.Context, p identity.Principal) (appintegration.TriggerResult, error)
}

// ArchiveStorage keeps rendered exports and hands out download links
type ArchiveStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	PresignDownload(ctx context.Context, key, fileName string, ttl time.Duration) (string, time.Time, error)
}

// Facade is the only place where the store-then-push policy lives
type Facade struct {
	invoices      finance.InvoiceRepository
	expenses      finance.ExpenseRepository
	customers     finance.CustomerRepository
	aggregator    *appreport.AggregatorService
	bridge        SyncBridge
	exporter      *export.Exporter
	archive       ArchiveStorage
	archiveExpiry time.Duration
	metrics       *telemetry.BusinessMetrics
	logger        *zap.Logger
	now           func() time.Time
	dispatcher    *dispatcher
}

// FacadeOption is a functional option for configuring Facade
type FacadeOption func(*Facade)

// WithSyncBridge enables background pushes after every committed write
func WithSyncBridge(b SyncBridge) FacadeOption {
	return func(f *Facade) {
		f.bridge = b
	}
}

// WithExporter enables statement exports
func WithExporter(e *export.Exporter) FacadeOption {
	return func(f *Facade) {
		f.exporter = e
	}
}

// WithArchiveStorage enables archived exports. A zero expiry uses the
// storage default.
func WithArchiveStorage(s ArchiveStorage, expiry time.Duration) FacadeOption {
	return func(f *Facade) {
		f.archive = s
		f.archiveExpiry = expiry
	}
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m *telemetry.BusinessMetrics) FacadeOption {
	return func(f *Facade) {
		f.metrics = m
	}
}

// WithLogger sets the facade logger
func WithLogger(l *zap.Logger) FacadeOption {
	return func(f *Facade) {
		f.logger = l
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) FacadeOption {
	return func(f *Facade) {
		f.now = now
	}
}

// NewFacade creates a new Facade
func NewFacade(
	invoices finance.InvoiceRepository,
	expenses finance.ExpenseRepository,
	customers finance.CustomerRepository,
	aggregator *appreport.AggregatorService,
	opts ...FacadeOption,
) *Facade {
	f := &Facade{
		invoices:   invoices,
		expenses:   expenses,
		customers:  customers,
		aggregator: aggregator,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics == nil {
		f.metrics = telemetry.NewNoopBusinessMetrics()
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	f.dispatcher = newDispatcher(f.metrics, f.logger)
	return f
}

// Drain stops scheduling pushes and waits for in-flight ones, bounded by ctx
func (f *Facade) Drain(ctx context.Context) error {
	return f.dispatcher.Drain(ctx)
}

// push runs steps in order on the background dispatcher, after every push
// already queued for the same entity. Outcomes are logged and never reach
// the caller of the write.
func (f *Facade) push(
	ctx context.Context,
	p identity.Principal,
	name string,
	entityType integration.EntityType,
	id uuid.UUID,
	steps ...func(context.Context) integration.PushResult,
) {
	if f.bridge == nil {
		return
	}
	key := p.TenantID.String() + "/" + entityType.String() + "/" + id.String()
	f.dispatcher.Go(ctx, key, name, func(ctx context.Context) {
		log := logger.Enrich(ctx, f.logger)
		for _, step := range steps {
			res := step(ctx)
			fields := []zap.Field{
				zap.String("tenant_id", p.TenantID.String()),
				zap.String("entity_type", res.EntityType.String()),
				zap.String("local_id", res.LocalID.String()),
				zap.String("outcome", string(res.Outcome)),
			}
			if res.Outcome == integration.OutcomeFailed {
				log.Warn("sync push failed", append(fields, zap.Error(res.Err))...)
				continue
			}
			log.Debug("sync push finished", fields...)
		}
	})
}

func (f *Facade) today() time.Time {
	return f.now().UTC()
}
