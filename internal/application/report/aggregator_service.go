package report

import (
	"context"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/report"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultSeriesDays is the trailing window used by series queries without bounds
const DefaultSeriesDays = 30

// AggregatorConfig parameterises the aggregation math
type AggregatorConfig struct {
	Currency    valueobject.Currency
	VATRate     decimal.Decimal
	FiscalRates tax.FiscalRates
	TopN        int
	SeriesDays  int
}

// DefaultAggregatorConfig returns the default currency, tax rates and limits
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		Currency:    valueobject.DefaultCurrency,
		VATRate:     tax.DefaultVATRate,
		FiscalRates: tax.DefaultFiscalRates(),
		TopN:        report.DefaultTopN,
		SeriesDays:  DefaultSeriesDays,
	}
}

// AggregatorService builds read models from the facts of a window. Nothing it
// computes is stored; every call reads the facts again.
type AggregatorService struct {
	loader  *FactLoader
	cfg     AggregatorConfig
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewAggregatorService creates a new AggregatorService
func NewAggregatorService(
	loader *FactLoader,
	cfg AggregatorConfig,
	metrics *telemetry.BusinessMetrics,
	log *zap.Logger,
) *AggregatorService {
	if cfg.Currency == "" {
		cfg.Currency = valueobject.DefaultCurrency
	}
	if cfg.VATRate.IsZero() {
		cfg.VATRate = tax.DefaultVATRate
	}
	if cfg.FiscalRates == (tax.FiscalRates{}) {
		cfg.FiscalRates = tax.DefaultFiscalRates()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = report.DefaultTopN
	}
	if cfg.SeriesDays <= 0 {
		cfg.SeriesDays = DefaultSeriesDays
	}
	if metrics == nil {
		metrics = telemetry.NewNoopBusinessMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AggregatorService{
		loader:  loader,
		cfg:     cfg,
		metrics: metrics,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock replaces the time source used to derive overdue status
func (s *AggregatorService) WithClock(now func() time.Time) *AggregatorService {
	s.now = now
	return s
}

// Config returns the effective configuration
func (s *AggregatorService) Config() AggregatorConfig {
	return s.cfg
}

func (s *AggregatorService) settings() report.Settings {
	return report.Settings{
		Currency:    s.cfg.Currency,
		VATRate:     s.cfg.VATRate,
		FiscalRates: s.cfg.FiscalRates,
		Now:         s.now().UTC(),
		RecentLimit: 10,
	}
}

// load starts the operation span, reads the facts and records the latency.
// The returned finish func must be called once the read model is built.
func (s *AggregatorService) load(
	ctx context.Context,
	p identity.Principal,
	operation string,
	w finance.DateWindow,
) (report.Facts, trace.Span, func(), error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "aggregator", operation,
		append(telemetry.Window(w.From, w.To), telemetry.Tenant(p.TenantID))...,
	)

	finish := func() {
		s.metrics.RecordAggregation(ctx, operation, time.Since(start))
		span.End()
	}

	var facts report.Facts
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("aggregator."+operation, nil), func(c context.Context) {
		facts, err = s.loader.Load(c, p, w)
	})
	if err != nil {
		telemetry.Fail(span, err)
		logger.Enrich(ctx, s.logger).Warn("aggregation failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		finish()
		return report.Facts{}, span, func() {}, err
	}
	return facts, span, finish, nil
}

// GetSnapshot returns the dashboard summary of w. A zero window covers all facts.
func (s *AggregatorService) GetSnapshot(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialSnapshot, error) {
	facts, _, finish, err := s.load(ctx, p, "snapshot", w)
	if err != nil {
		return report.FinancialSnapshot{}, err
	}
	defer finish()

	return report.BuildSnapshot(facts, s.settings()), nil
}

// GetReportSeries returns revenue, expenses and profit per period of w. A
// window without both bounds defaults to the trailing configured days.
func (s *AggregatorService) GetReportSeries(
	ctx context.Context,
	p identity.Principal,
	w finance.DateWindow,
	g report.Granularity,
) ([]report.SeriesPoint, error) {
	now := s.now().UTC()
	if !w.IsBounded() {
		w = finance.TrailingDays(now, s.cfg.SeriesDays)
	}

	facts, span, finish, err := s.load(ctx, p, "series", w)
	if err != nil {
		return nil, err
	}
	defer finish()
	span.SetAttributes(telemetry.AttrGranularity.String(string(g)))

	points, err := report.BuildSeries(facts, g, now)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	return points, nil
}

// TopCustomers ranks customers by invoiced revenue inside w
func (s *AggregatorService) TopCustomers(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	facts, _, finish, err := s.load(ctx, p, "top_customers", w)
	if err != nil {
		return nil, err
	}
	defer finish()

	return report.TopCustomers(facts.Invoices, s.limit(n)), nil
}

// TopItems ranks invoice line items by revenue inside w
func (s *AggregatorService) TopItems(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	facts, _, finish, err := s.load(ctx, p, "top_items", w)
	if err != nil {
		return nil, err
	}
	defer finish()

	return report.TopItems(facts.Invoices, s.limit(n)), nil
}

// GetFinancialReports returns the profit and loss, balance sheet and cash flow of w
func (s *AggregatorService) GetFinancialReports(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialReports, error) {
	facts, _, finish, err := s.load(ctx, p, "financial_reports", w)
	if err != nil {
		return report.FinancialReports{}, err
	}
	defer finish()

	return report.BuildFinancialReports(facts, s.settings()), nil
}

// GetTaxReport returns VAT and secondary fiscal figures of w side by side
func (s *AggregatorService) GetTaxReport(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.TaxReport, error) {
	facts, _, finish, err := s.load(ctx, p, "tax_report", w)
	if err != nil {
		return report.TaxReport{}, err
	}
	defer finish()

	return report.BuildTaxReport(facts, s.settings()), nil
}

// Transactions returns every fact of w as a statement row, newest first
func (s *AggregatorService) Transactions(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]report.Transaction, error) {
	facts, _, finish, err := s.load(ctx, p, "transactions", w)
	if err != nil {
		return nil, err
	}
	defer finish()

	return report.Transactions(facts, s.now().UTC()), nil
}

func (s *AggregatorService) limit(n int) int {
	if n <= 0 {
		return s.cfg.TopN
	}
	return n
}
