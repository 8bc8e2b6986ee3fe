package report

import (
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// Facts is the joined read of the three fact families for one window
type Facts struct {
	Window   finance.DateWindow
	Sales    []finance.SaleFact
	Invoices []finance.Invoice
	Expenses []finance.Expense
}

// Settings parameterises the aggregation math
type Settings struct {
	Currency    valueobject.Currency
	VATRate     decimal.Decimal
	FiscalRates tax.FiscalRates
	Now         time.Time
	RecentLimit int
}

// DefaultSettings returns settings with the default currency and tax rates
func DefaultSettings(now time.Time) Settings {
	return Settings{
		Currency:    valueobject.DefaultCurrency,
		VATRate:     tax.DefaultVATRate,
		FiscalRates: tax.DefaultFiscalRates(),
		Now:         now,
		RecentLimit: 10,
	}
}

// totals are the sums every report is built from
type totals struct {
	sales           decimal.Decimal
	invoiceRevenue  decimal.Decimal
	invoiceNet      decimal.Decimal
	invoiceTax      decimal.Decimal
	paidInvoices    decimal.Decimal
	receivables     decimal.Decimal
	expenses        decimal.Decimal
	invoiceCount    int
	overdueCount    int
	expenseCategory map[finance.ExpenseCategory]decimal.Decimal
}

func sum(f Facts, now time.Time) totals {
	t := totals{expenseCategory: make(map[finance.ExpenseCategory]decimal.Decimal)}
	for _, s := range f.Sales {
		t.sales = t.sales.Add(s.Total)
	}
	for _, inv := range f.Invoices {
		t.invoiceCount++
		status := inv.EffectiveStatus(now)
		if status == finance.InvoiceStatusOverdue {
			t.overdueCount++
		}
		if !status.CountsAsRevenue() {
			continue
		}
		t.invoiceRevenue = t.invoiceRevenue.Add(inv.Total)
		t.invoiceNet = t.invoiceNet.Add(inv.NetAmount())
		t.invoiceTax = t.invoiceTax.Add(inv.Tax)
		if status == finance.InvoiceStatusPaid {
			t.paidInvoices = t.paidInvoices.Add(inv.Total)
		} else {
			t.receivables = t.receivables.Add(inv.Total)
		}
	}
	for _, e := range f.Expenses {
		t.expenses = t.expenses.Add(e.Amount)
		t.expenseCategory[e.Category] = t.expenseCategory[e.Category].Add(e.Amount)
	}
	return t
}

func (t totals) revenue() decimal.Decimal {
	return t.sales.Add(t.invoiceRevenue)
}

func (t totals) vatCollected(s Settings) decimal.Decimal {
	salesVAT := tax.ApplyVAT(valueobject.MoneyOf(t.sales, s.Currency), s.VATRate).VAT
	return t.invoiceTax.Add(salesVAT.Amount())
}

func (t totals) secondaryTax(s Settings) tax.FiscalTax {
	return tax.ApplySecondaryFiscalTax(valueobject.MoneyOf(t.sales.Add(t.invoiceNet), s.Currency), s.FiscalRates)
}
