package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItem is one priced line of an invoice
type InvoiceItem struct {
	ID        uuid.UUID
	Position  int
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	TaxRate   decimal.Decimal
}

// ItemInput describes a line to be priced
type ItemInput struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Payment settles an invoice
type Payment struct {
	Amount    decimal.Decimal
	PaidAt    time.Time
	Method    PaymentMethod
	Reference string
}

// Invoice is a bill issued to a customer. Its money fields always satisfy
// Total = Subtotal - Discount + Tax and Subtotal = sum of line totals.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber    string
	CustomerID       uuid.UUID
	CustomerName     string
	IssueDate        time.Time
	DueDate          time.Time
	Status           InvoiceStatus
	Items            []InvoiceItem
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
	VATRate          decimal.Decimal
	CurrencyCode     valueobject.Currency
	Notes            string
	SentAt           *time.Time
	PaidAt           *time.Time
	CancelledAt      *time.Time
	PaymentMethod    PaymentMethod
	PaymentReference string
}

// InvoiceInput carries what is needed to draft an invoice
type InvoiceInput struct {
	InvoiceNumber string
	CustomerID    uuid.UUID
	CustomerName  string
	IssueDate     time.Time
	DueDate       time.Time
	Items         []ItemInput
	Discount      decimal.Decimal
	VATRate       decimal.Decimal
	CurrencyCode  string
	Notes         string
}

// FormatInvoiceNumber builds the tenant-local invoice number for the n-th
// invoice of at's month.
func FormatInvoiceNumber(at time.Time, n int) string {
	return fmt.Sprintf("INV-%s-%05d", at.UTC().Format("200601"), n)
}

// NewInvoice drafts an invoice and prices it
func NewInvoice(tenantID uuid.UUID, in InvoiceInput) (Invoice, error) {
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	in.CustomerName = NormalizeCustomerName(in.CustomerName)

	switch {
	case in.InvoiceNumber == "":
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Invoice number cannot be empty")
	case len(in.InvoiceNumber) > 50:
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Invoice number cannot exceed 50 characters")
	case in.CustomerID == uuid.Nil || in.CustomerName == "":
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Invoice requires a customer")
	}
	issue, due, err := in.dates()
	if err != nil {
		return Invoice{}, err
	}

	inv := Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       in.InvoiceNumber,
		CustomerID:          in.CustomerID,
		CustomerName:        in.CustomerName,
		IssueDate:           issue,
		DueDate:             due,
		Status:              InvoiceStatusDraft,
		VATRate:             in.VATRate,
		CurrencyCode:        valueobject.ParseCurrency(in.CurrencyCode),
		Notes:               strings.TrimSpace(in.Notes),
	}
	return inv.priced(in.Items, in.Discount)
}

// ValidateTerms checks the dates, items, discount and rate of in, and the
// length of an explicit invoice number. A missing number and the customer are
// left to NewInvoice, so callers can reject bad terms before resolving either.
func (in InvoiceInput) ValidateTerms() error {
	if len(strings.TrimSpace(in.InvoiceNumber)) > 50 {
		return shared.ErrInvalidInput.WithMessage("Invoice number cannot exceed 50 characters")
	}
	if _, _, err := in.dates(); err != nil {
		return err
	}
	draft := Invoice{VATRate: in.VATRate, CurrencyCode: valueobject.ParseCurrency(in.CurrencyCode)}
	_, err := draft.priced(in.Items, in.Discount)
	return err
}

func (in InvoiceInput) dates() (issue, due time.Time, err error) {
	if in.IssueDate.IsZero() {
		return issue, due, shared.ErrInvalidInput.WithMessage("Issue date is required")
	}
	issue = StartOfDay(in.IssueDate)
	due = issue
	if !in.DueDate.IsZero() {
		due = StartOfDay(in.DueDate)
	}
	if due.Before(issue) {
		return issue, due, shared.ErrInvalidInput.WithMessage("Due date cannot be before the issue date")
	}
	return issue, due, nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return shared.ErrInvalidInput.WithMessage("Invoice must have at least one item")
	}
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Item %d requires a name", i+1))
		case it.Quantity.IsNegative():
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Item %d quantity cannot be negative", i+1))
		case it.Quantity.IsZero():
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Item %d quantity must be positive", i+1))
		case it.UnitPrice.IsNegative():
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Item %d unit price cannot be negative", i+1))
		}
	}
	return nil
}

// priced replaces the items and recomputes every money field
func (inv Invoice) priced(items []ItemInput, discount decimal.Decimal) (Invoice, error) {
	if err := validateItems(items); err != nil {
		return Invoice{}, err
	}

	lines := make([]tax.Line, len(items))
	for i, it := range items {
		lines[i] = tax.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	totals, err := tax.ComputeInvoiceTotals(lines, discount, inv.VATRate, inv.CurrencyCode)
	if err != nil {
		return Invoice{}, err
	}

	inv.Items = make([]InvoiceItem, len(items))
	for i, it := range items {
		inv.Items[i] = InvoiceItem{
			ID:        uuid.New(),
			Position:  i + 1,
			Name:      strings.TrimSpace(it.Name),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: totals.LineTotals[i].Amount(),
			TaxRate:   inv.VATRate,
		}
	}
	inv.Subtotal = totals.Subtotal.Amount()
	inv.Discount = totals.Discount.Amount()
	inv.Tax = totals.Tax.Amount()
	inv.Total = totals.Total.Amount()
	return inv, nil
}

// Recompute prices the stored items again
func (inv Invoice) Recompute() (tax.InvoiceTotals, error) {
	lines := make([]tax.Line, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = tax.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return tax.ComputeInvoiceTotals(lines, inv.Discount, inv.VATRate, inv.CurrencyCode)
}

// VerifyTotals returns a warning when the stored totals disagree with a
// recomputation of the stored items, and nil otherwise.
func (inv Invoice) VerifyTotals() *tax.IntegrityWarning {
	totals, err := inv.Recompute()
	if err != nil {
		return &tax.IntegrityWarning{Reason: err.Error()}
	}
	return tax.VerifyInvoiceTotals(tax.StoredTotals{
		Subtotal: inv.Subtotal,
		Discount: inv.Discount,
		Tax:      inv.Tax,
		Total:    inv.Total,
	}, totals)
}

// EffectiveStatus returns the status as seen at now: a sent invoice past its
// due date reads as overdue.
func (inv Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if inv.Status == InvoiceStatusSent && inv.DueDate.Before(StartOfDay(now)) {
		return InvoiceStatusOverdue
	}
	return inv.Status
}

// IsOverdue reports whether the invoice is overdue at now
func (inv Invoice) IsOverdue(now time.Time) bool {
	return inv.EffectiveStatus(now) == InvoiceStatusOverdue
}

// CountsAsRevenue reports whether the invoice contributes to revenue
func (inv Invoice) CountsAsRevenue() bool {
	return inv.Status.CountsAsRevenue()
}

// NetAmount returns Subtotal - Discount, the base VAT is charged on
func (inv Invoice) NetAmount() decimal.Decimal {
	return inv.Subtotal.Sub(inv.Discount)
}

// Money returns the invoice total as Money
func (inv Invoice) Money() valueobject.Money {
	return valueobject.MoneyOf(inv.Total, inv.CurrencyCode)
}

// ReplaceItems returns the next version of a draft invoice with new lines
func (inv Invoice) ReplaceItems(items []ItemInput, discount decimal.Decimal, now time.Time) (Invoice, error) {
	if !inv.Status.CanEdit() {
		return Invoice{}, shared.ErrInvalidState.WithMessage("Only draft invoices can be edited")
	}
	next, err := inv.priced(items, discount)
	if err != nil {
		return Invoice{}, err
	}
	next.TenantAggregateRoot = inv.Next(now)
	return next, nil
}

// Send returns the next version of the invoice in SENT state
func (inv Invoice) Send(now time.Time) (Invoice, error) {
	if !inv.Status.CanSend() {
		return Invoice{}, shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot send invoice in %s status", inv.Status))
	}
	next := inv
	next.TenantAggregateRoot = inv.Next(now)
	next.Status = InvoiceStatusSent
	sentAt := now.UTC()
	next.SentAt = &sentAt
	return next, nil
}

// MarkPaid returns the next version of the invoice settled by p. A zero
// payment amount means the full total.
func (inv Invoice) MarkPaid(p Payment, now time.Time) (Invoice, error) {
	if !inv.EffectiveStatus(now).CanPay() {
		return Invoice{}, shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot mark invoice paid in %s status", inv.Status))
	}
	if p.Amount.IsNegative() {
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Payment amount cannot be negative")
	}
	if !p.Amount.IsZero() && !p.Amount.Equal(inv.Total) {
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Payment amount must equal the invoice total")
	}
	if p.Method == "" {
		p.Method = PaymentMethodBankTransfer
	}
	if !p.Method.IsValid() {
		return Invoice{}, shared.ErrInvalidInput.WithMessage("Payment method is not valid")
	}
	paidAt := p.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	paidAt = paidAt.UTC()

	next := inv
	next.TenantAggregateRoot = inv.Next(now)
	next.Status = InvoiceStatusPaid
	next.PaidAt = &paidAt
	next.PaymentMethod = p.Method
	next.PaymentReference = strings.TrimSpace(p.Reference)
	return next, nil
}

// Cancel returns the next version of the invoice in CANCELLED state
func (inv Invoice) Cancel(now time.Time) (Invoice, error) {
	if !inv.Status.CanCancel() {
		return Invoice{}, shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	next := inv
	next.TenantAggregateRoot = inv.Next(now)
	next.Status = InvoiceStatusCancelled
	cancelledAt := now.UTC()
	next.CancelledAt = &cancelledAt
	return next, nil
}
