package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType identifies the fact family a transaction row comes from
type TransactionType string

const (
	TransactionTypeInvoice TransactionType = "Invoice"
	TransactionTypeExpense TransactionType = "Expense"
	TransactionTypeSale    TransactionType = "Sale"
)

// SaleStatusCompleted is the status reported for point-of-sale rows
const SaleStatusCompleted = "COMPLETED"

// ExpenseStatusPaid is the status reported for expense rows
const ExpenseStatusPaid = "PAID"

// Transaction is one row of the unified statement
type Transaction struct {
	ID          uuid.UUID            `json:"id"`
	Type        TransactionType      `json:"type"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	Status      string               `json:"status"`
}

// FinancialSnapshot is the dashboard summary. It is derived on every request
// and never stored.
type FinancialSnapshot struct {
	Window             finance.DateWindow   `json:"-"`
	Currency           valueobject.Currency `json:"currency"`
	TotalRevenue       decimal.Decimal      `json:"total_revenue"`  // Sales + Sent/Paid invoices
	TotalExpenses      decimal.Decimal      `json:"total_expenses"` // Manual expenses
	NetProfit          decimal.Decimal      `json:"net_profit"`     // TotalRevenue - TotalExpenses
	VATCollected       decimal.Decimal      `json:"vat_collected"`
	SecondaryTax       tax.FiscalTax        `json:"secondary_tax"` // Reporting only
	InvoiceCount       int                  `json:"invoice_count"`
	OverdueCount       int                  `json:"overdue_count"`
	RecentTransactions []Transaction        `json:"recent_transactions"`
}

// BuildSnapshot aggregates facts into a dashboard snapshot. Draft and
// cancelled invoices never contribute revenue.
func BuildSnapshot(f Facts, s Settings) FinancialSnapshot {
	t := sum(f, s.Now)
	revenue := t.revenue()

	limit := s.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	recent := Transactions(f, s.Now)
	if len(recent) > limit {
		recent = recent[:limit]
	}

	return FinancialSnapshot{
		Window:             f.Window,
		Currency:           s.Currency,
		TotalRevenue:       revenue,
		TotalExpenses:      t.expenses,
		NetProfit:          revenue.Sub(t.expenses),
		VATCollected:       t.vatCollected(s),
		SecondaryTax:       t.secondaryTax(s),
		InvoiceCount:       t.invoiceCount,
		OverdueCount:       t.overdueCount,
		RecentTransactions: recent,
	}
}

// Transactions merges the three fact families into statement rows, newest
// first. Invoices carry their effective status at now.
func Transactions(f Facts, now time.Time) []Transaction {
	rows := make([]Transaction, 0, len(f.Sales)+len(f.Invoices)+len(f.Expenses))
	for _, inv := range f.Invoices {
		rows = append(rows, Transaction{
			ID:          inv.ID,
			Type:        TransactionTypeInvoice,
			Date:        inv.IssueDate,
			Description: fmt.Sprintf("Invoice %s - %s", inv.InvoiceNumber, inv.CustomerName),
			Amount:      inv.Total,
			Currency:    inv.CurrencyCode,
			Status:      inv.EffectiveStatus(now).String(),
		})
	}
	for _, e := range f.Expenses {
		rows = append(rows, Transaction{
			ID:          e.ID,
			Type:        TransactionTypeExpense,
			Date:        e.PaidAt,
			Description: e.Description,
			Amount:      e.Amount,
			Currency:    e.CurrencyCode,
			Status:      ExpenseStatusPaid,
		})
	}
	for _, s := range f.Sales {
		desc := "Sale"
		if s.Reference != "" {
			desc = "Sale " + s.Reference
		}
		rows = append(rows, Transaction{
			ID:          s.ID,
			Type:        TransactionTypeSale,
			Date:        s.OccurredAt,
			Description: desc,
			Amount:      s.Total,
			Currency:    s.CurrencyCode,
			Status:      SaleStatusCompleted,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})
	return rows
}
