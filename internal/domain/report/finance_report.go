package report

import (
	"sort"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// CategoryAmount is an amount attributed to an expense category
type CategoryAmount struct {
	Category finance.ExpenseCategory `json:"category"`
	Amount   decimal.Decimal         `json:"amount"`
}

// RevenueBreakdown splits revenue by fact family
type RevenueBreakdown struct {
	Sales    decimal.Decimal `json:"sales"`    // Point-of-sale totals
	Invoices decimal.Decimal `json:"invoices"` // Sent and paid invoice totals
	Total    decimal.Decimal `json:"total"`
}

// ProfitLossStatement is a read model for profit and loss statement
type ProfitLossStatement struct {
	PeriodStart   time.Time        `json:"period_start"`
	PeriodEnd     time.Time        `json:"period_end"`
	Revenue       RevenueBreakdown `json:"revenue"`
	Expenses      []CategoryAmount `json:"expenses"`
	TotalExpenses decimal.Decimal  `json:"total_expenses"`
	NetProfit     decimal.Decimal  `json:"net_profit"` // Revenue.Total - TotalExpenses
	NetMargin     decimal.Decimal  `json:"net_margin"` // NetProfit / Revenue.Total * 100
	VATCollected  decimal.Decimal  `json:"vat_collected"`
	SecondaryTax  tax.FiscalTax    `json:"secondary_tax"`
}

// BalanceSheet is the financial position derived from the facts of a period
type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of"`
	Cash                      decimal.Decimal `json:"cash"`        // Sales + paid invoices - expenses
	Receivables               decimal.Decimal `json:"receivables"` // Sent and overdue invoices
	TotalAssets               decimal.Decimal `json:"total_assets"`
	VATPayable                decimal.Decimal `json:"vat_payable"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	Equity                    decimal.Decimal `json:"equity"` // TotalAssets - TotalLiabilities
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

// CashFlowStatement reports money that actually moved during the period
type CashFlowStatement struct {
	PeriodStart       time.Time        `json:"period_start"`
	PeriodEnd         time.Time        `json:"period_end"`
	SalesReceipts     decimal.Decimal  `json:"sales_receipts"`
	InvoiceReceipts   decimal.Decimal  `json:"invoice_receipts"` // Paid invoices only
	TotalInflows      decimal.Decimal  `json:"total_inflows"`
	Outflows          []CategoryAmount `json:"outflows"`
	TotalOutflows     decimal.Decimal  `json:"total_outflows"`
	NetCashFlow       decimal.Decimal  `json:"net_cash_flow"`
	PendingReceivable decimal.Decimal  `json:"pending_receivable"` // Billed but not yet collected
}

// FinancialReports bundles the three statements of a period
type FinancialReports struct {
	Currency     valueobject.Currency `json:"currency"`
	ProfitLoss   ProfitLossStatement  `json:"profit_loss"`
	BalanceSheet BalanceSheet         `json:"balance_sheet"`
	CashFlow     CashFlowStatement    `json:"cash_flow"`
}

// TaxReport puts the VAT figures and the reporting-only secondary regime side by side
type TaxReport struct {
	PeriodStart  time.Time            `json:"period_start"`
	PeriodEnd    time.Time            `json:"period_end"`
	Currency     valueobject.Currency `json:"currency"`
	VATRate      decimal.Decimal      `json:"vat_rate"`
	TaxableBase  decimal.Decimal      `json:"taxable_base"` // Sales + invoice net amounts
	InvoiceVAT   decimal.Decimal      `json:"invoice_vat"`
	SalesVAT     decimal.Decimal      `json:"sales_vat"`
	VATCollected decimal.Decimal      `json:"vat_collected"`
	SecondaryTax tax.FiscalTax        `json:"secondary_tax"`
}

func categories(m map[finance.ExpenseCategory]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for c, a := range m {
		out = append(out, CategoryAmount{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func periodEnd(w finance.DateWindow, now time.Time) time.Time {
	if w.To.IsZero() {
		return now.UTC()
	}
	return w.To
}

// BuildFinancialReports derives the profit and loss, balance sheet and cash
// flow statements from the same facts the snapshot uses.
func BuildFinancialReports(f Facts, s Settings) FinancialReports {
	t := sum(f, s.Now)
	revenue := t.revenue()
	vat := t.vatCollected(s)
	end := periodEnd(f.Window, s.Now)

	margin := decimal.Zero
	netProfit := revenue.Sub(t.expenses)
	if !revenue.IsZero() {
		margin = valueobject.RoundHalfUp(netProfit.Div(revenue).Mul(decimal.NewFromInt(100)), 2)
	}
	byCategory := categories(t.expenseCategory)

	pl := ProfitLossStatement{
		PeriodStart: f.Window.From,
		PeriodEnd:   end,
		Revenue: RevenueBreakdown{
			Sales:    t.sales,
			Invoices: t.invoiceRevenue,
			Total:    revenue,
		},
		Expenses:      byCategory,
		TotalExpenses: t.expenses,
		NetProfit:     netProfit,
		NetMargin:     margin,
		VATCollected:  vat,
		SecondaryTax:  t.secondaryTax(s),
	}

	cash := t.sales.Add(t.paidInvoices).Sub(t.expenses)
	assets := cash.Add(t.receivables)
	bs := BalanceSheet{
		AsOf:                      end,
		Cash:                      cash,
		Receivables:               t.receivables,
		TotalAssets:               assets,
		VATPayable:                vat,
		TotalLiabilities:          vat,
		Equity:                    assets.Sub(vat),
		TotalLiabilitiesAndEquity: assets,
	}

	inflows := t.sales.Add(t.paidInvoices)
	cf := CashFlowStatement{
		PeriodStart:       f.Window.From,
		PeriodEnd:         end,
		SalesReceipts:     t.sales,
		InvoiceReceipts:   t.paidInvoices,
		TotalInflows:      inflows,
		Outflows:          byCategory,
		TotalOutflows:     t.expenses,
		NetCashFlow:       inflows.Sub(t.expenses),
		PendingReceivable: t.receivables,
	}

	return FinancialReports{
		Currency:     s.Currency,
		ProfitLoss:   pl,
		BalanceSheet: bs,
		CashFlow:     cf,
	}
}

// BuildTaxReport derives the VAT and secondary fiscal figures of a period
func BuildTaxReport(f Facts, s Settings) TaxReport {
	t := sum(f, s.Now)
	salesVAT := tax.ApplyVAT(valueobject.MoneyOf(t.sales, s.Currency), s.VATRate).VAT.Amount()
	return TaxReport{
		PeriodStart:  f.Window.From,
		PeriodEnd:    periodEnd(f.Window, s.Now),
		Currency:     s.Currency,
		VATRate:      s.VATRate,
		TaxableBase:  t.sales.Add(t.invoiceNet),
		InvoiceVAT:   t.invoiceTax,
		SalesVAT:     salesVAT,
		VATCollected: t.invoiceTax.Add(salesVAT),
		SecondaryTax: t.secondaryTax(s),
	}
}
