// Package identity resolves the Principal every request acts for.
package identity

import (
	"context"
	"errors"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultFallbackTenantID is the demo tenant used when nothing else resolves
var DefaultFallbackTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// ResolveRequest carries what the transport layer knows about the caller
type ResolveRequest struct {
	Session  *identity.Session
	DemoMode bool
}

// ResolverConfig controls the last step of the fallback chain
type ResolverConfig struct {
	FixedFallbackEnabled  bool
	FixedFallbackTenantID uuid.UUID
}

// Resolver walks the fallback chain session, demo profile, sale fact tenant
// and fixed fallback. It only reads.
type Resolver struct {
	profiles identity.TenantProfileLookup
	sales    identity.SaleFactTenantLookup
	cfg      ResolverConfig
	metrics  *telemetry.BusinessMetrics
	logger   *zap.Logger
}

// NewResolver creates a new Resolver
func NewResolver(
	profiles identity.TenantProfileLookup,
	sales identity.SaleFactTenantLookup,
	cfg ResolverConfig,
	metrics *telemetry.BusinessMetrics,
	log *zap.Logger,
) *Resolver {
	if cfg.FixedFallbackTenantID == uuid.Nil {
		cfg.FixedFallbackTenantID = DefaultFallbackTenantID
	}
	if metrics == nil {
		metrics = telemetry.NewNoopBusinessMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		profiles: profiles,
		sales:    sales,
		cfg:      cfg,
		metrics:  metrics,
		logger:   log,
	}
}

// Resolve returns the Principal for req. Lookup failures are logged and the
// chain moves on; with the fixed fallback enabled it never fails.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (identity.Principal, error) {
	log := logger.Enrich(ctx, r.logger)

	if s := req.Session; s != nil && s.TenantID != uuid.Nil {
		p := identity.NewPrincipal(s.TenantID, s.Email, s.IsDemo, identity.SourceSession)
		return r.resolved(ctx, log, "identity.session", p), nil
	}

	if req.DemoMode {
		profile, err := r.profiles.FindAnyProfile(ctx)
		switch {
		case err == nil && profile != nil && profile.ID != uuid.Nil:
			p := identity.NewPrincipal(profile.ID, profile.Email, true, identity.SourceDemoProfile)
			return r.resolved(ctx, log, "identity.demo_profile", p), nil
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			log.Warn("identity.lookup_failed", zap.String("step", string(identity.SourceDemoProfile)), zap.Error(err))
		}
	}

	tenantID, err := r.sales.FindAnySaleTenant(ctx)
	switch {
	case err == nil && tenantID != uuid.Nil:
		p := identity.NewPrincipal(tenantID, "", true, identity.SourceSaleFactTenant)
		return r.resolved(ctx, log, "identity.sale_fact_tenant", p), nil
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		log.Warn("identity.lookup_failed", zap.String("step", string(identity.SourceSaleFactTenant)), zap.Error(err))
	}

	if r.cfg.FixedFallbackEnabled {
		p := identity.NewPrincipal(r.cfg.FixedFallbackTenantID, "", true, identity.SourceFixedFallback)
		return r.resolved(ctx, log, "identity.fixed_fallback", p), nil
	}

	r.metrics.RecordIdentityResolution(ctx, "unresolved")
	log.Info("identity.unresolved", zap.Bool("demo_mode", req.DemoMode))
	return identity.Principal{}, shared.ErrNoIdentity
}

func (r *Resolver) resolved(ctx context.Context, log *zap.Logger, event string, p identity.Principal) identity.Principal {
	r.metrics.RecordIdentityResolution(ctx, string(p.Source))
	log.Debug(event,
		zap.String("tenant_id", p.TenantID.String()),
		zap.Bool("is_demo", p.IsDemo),
	)
	return p
}
