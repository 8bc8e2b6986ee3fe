package tax

import (
	"fmt"
	"strings"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Line is the priced part of an invoice item
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// InvoiceTotals is the recomputed money breakdown of an invoice
type InvoiceTotals struct {
	LineTotals []valueobject.Money
	Subtotal   valueobject.Money
	Discount   valueobject.Money
	Tax        valueobject.Money
	Total      valueobject.Money
	Rate       decimal.Decimal
}

// ComputeInvoiceTotals derives line totals, subtotal, VAT and total:
//
//	line     = round(qty * price)
//	subtotal = sum(line)
//	tax      = vat(subtotal - discount)
//	total    = subtotal - discount + tax
//
// The result depends only on its inputs, so recomputing a stored invoice is
// idempotent.
func ComputeInvoiceTotals(lines []Line, discount, rate decimal.Decimal, currency valueobject.Currency) (InvoiceTotals, error) {
	if discount.IsNegative() {
		return InvoiceTotals{}, shared.ErrInvalidInput.WithMessage("Discount cannot be negative")
	}
	if rate.IsNegative() {
		return InvoiceTotals{}, shared.ErrInvalidInput.WithMessage("Tax rate cannot be negative")
	}

	subtotal := valueobject.Zero(currency)
	lineTotals := make([]valueobject.Money, 0, len(lines))
	for i, l := range lines {
		if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
			return InvoiceTotals{}, shared.ErrInvalidInput.WithMessage(
				fmt.Sprintf("Line %d has a negative quantity or unit price", i+1))
		}
		lt := valueobject.MoneyOf(l.Quantity.Mul(l.UnitPrice), currency).Rounded()
		lineTotals = append(lineTotals, lt)
		subtotal = subtotal.MustAdd(lt)
	}

	disc := valueobject.MoneyOf(discount, currency).Rounded()
	if disc.Amount().GreaterThan(subtotal.Amount()) {
		return InvoiceTotals{}, shared.ErrInvalidInput.WithMessage("Discount cannot exceed the subtotal")
	}

	vat := ApplyVAT(subtotal.MustSubtract(disc), rate)
	return InvoiceTotals{
		LineTotals: lineTotals,
		Subtotal:   subtotal,
		Discount:   disc,
		Tax:        vat.VAT,
		Total:      vat.Gross,
		Rate:       rate,
	}, nil
}

// StoredTotals are the totals as persisted on an invoice row
type StoredTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// FieldMismatch is one stored value that differs from its recomputation
type FieldMismatch struct {
	Field    string          `json:"field"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
}

// IntegrityWarning reports stored invoice totals that disagree with a fresh
// recomputation. It is informational: callers log and surface it but never
// rewrite the stored figures.
type IntegrityWarning struct {
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// String summarises the mismatching fields
func (w *IntegrityWarning) String() string {
	parts := make([]string, 0, len(w.Mismatches)+1)
	if w.Reason != "" {
		parts = append(parts, w.Reason)
	}
	for _, m := range w.Mismatches {
		parts = append(parts, fmt.Sprintf("%s stored=%s expected=%s", m.Field, m.Stored, m.Expected))
	}
	return strings.Join(parts, "; ")
}

// VerifyInvoiceTotals compares stored figures with recomputed ones and returns
// nil when they agree.
func VerifyInvoiceTotals(stored StoredTotals, recomputed InvoiceTotals) *IntegrityWarning {
	checks := []struct {
		field    string
		stored   decimal.Decimal
		expected decimal.Decimal
	}{
		{"subtotal", stored.Subtotal, recomputed.Subtotal.Amount()},
		{"discount", stored.Discount, recomputed.Discount.Amount()},
		{"tax", stored.Tax, recomputed.Tax.Amount()},
		{"total", stored.Total, recomputed.Total.Amount()},
	}

	var w *IntegrityWarning
	for _, c := range checks {
		if c.stored.Equal(c.expected) {
			continue
		}
		if w == nil {
			w = &IntegrityWarning{}
		}
		w.Mismatches = append(w.Mismatches, FieldMismatch{Field: c.field, Stored: c.stored, Expected: c.expected})
	}
	return w
}
