package finance

import (
	"context"

	appintegration "github.com/erp/fincore/internal/application/integration"
	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/report"
	"github.com/erp/fincore/internal/domain/shared"
)

// GetDashboardStats returns the dashboard snapshot of w
func (f *Facade) GetDashboardStats(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialSnapshot, error) {
	return f.aggregator.GetSnapshot(ctx, p, w)
}

// GetFinancialReports returns the statements of w
func (f *Facade) GetFinancialReports(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialReports, error) {
	return f.aggregator.GetFinancialReports(ctx, p, w)
}

// GetReportSeries returns one point per period of w. granularity is day,
// week or month; empty means day.
func (f *Facade) GetReportSeries(
	ctx context.Context,
	p identity.Principal,
	w finance.DateWindow,
	granularity string,
) ([]report.SeriesPoint, error) {
	g, err := report.ParseGranularity(granularity)
	if err != nil {
		return nil, err
	}
	return f.aggregator.GetReportSeries(ctx, p, w, g)
}

// GetTopCustomers ranks customers by invoiced revenue. n <= 0 uses the
// configured limit.
func (f *Facade) GetTopCustomers(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	return f.aggregator.TopCustomers(ctx, p, w, n)
}

// GetTopItems ranks invoice items by revenue
func (f *Facade) GetTopItems(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	return f.aggregator.TopItems(ctx, p, w, n)
}

// GetTaxReport returns the VAT and secondary fiscal figures of w
func (f *Facade) GetTaxReport(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.TaxReport, error) {
	return f.aggregator.GetTaxReport(ctx, p, w)
}

// SyncStatus reports what reached the configured platforms
func (f *Facade) SyncStatus(ctx context.Context, p identity.Principal) (appintegration.SyncStatus, error) {
	if !p.IsResolved() {
		return appintegration.SyncStatus{}, shared.ErrNoIdentity
	}
	if f.bridge == nil {
		return appintegration.SyncStatus{
			Platforms: []integration.PlatformCode{},
			Entities:  map[integration.EntityType]appintegration.EntityStatus{},
			CheckedAt: f.today(),
		}, nil
	}
	return f.bridge.SyncStatus(ctx, p)
}

// TriggerSync re-pushes every entity that is not in sync. It runs in the
// caller's request, unlike the pushes that follow writes.
func (f *Facade) TriggerSync(ctx context.Context, p identity.Principal) (appintegration.TriggerResult, error) {
	if !p.IsResolved() {
		return appintegration.TriggerResult{}, shared.ErrNoIdentity
	}
	if f.bridge == nil {
		return appintegration.TriggerResult{Skipped: true}, nil
	}
	return f.bridge.TriggerSync(ctx, p)
}
