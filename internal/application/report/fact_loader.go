// Package report serves the read side of the engine: dashboard snapshots,
// series, rankings and financial statements built from the three fact families.
package report

import (
	"context"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/report"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// FactLoader reads sales, invoices and expenses of one window concurrently
type FactLoader struct {
	sales    finance.SaleFactReader
	invoices finance.InvoiceRepository
	expenses finance.ExpenseRepository
}

// NewFactLoader creates a new FactLoader
func NewFactLoader(
	sales finance.SaleFactReader,
	invoices finance.InvoiceRepository,
	expenses finance.ExpenseRepository,
) *FactLoader {
	return &FactLoader{
		sales:    sales,
		invoices: invoices,
		expenses: expenses,
	}
}

// Load runs the three fact queries in parallel and joins the results. The
// first failing query cancels the others and its error is returned.
func (l *FactLoader) Load(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.Facts, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fact_loader", "load", telemetry.Tenant(p.TenantID))
	defer span.End()

	facts := report.Facts{Window: w}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sales, err := l.sales.FindInWindow(gctx, p, w)
		facts.Sales = sales
		return err
	})
	g.Go(func() error {
		invoices, err := l.invoices.FindInWindow(gctx, p, finance.InvoiceQuery{Window: w})
		facts.Invoices = invoices
		return err
	})
	g.Go(func() error {
		expenses, err := l.expenses.FindInWindow(gctx, p, w)
		facts.Expenses = expenses
		return err
	})

	if err := g.Wait(); err != nil {
		telemetry.Fail(span, err)
		return report.Facts{}, err
	}

	span.SetAttributes(
		attribute.Int("sales_count", len(facts.Sales)),
		attribute.Int("invoices_count", len(facts.Invoices)),
		attribute.Int("expenses_count", len(facts.Expenses)),
	)
	return facts, nil
}
