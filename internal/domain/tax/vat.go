// Package tax holds the pure tax calculations applied to invoices and
// dashboard summaries. Nothing here performs I/O or reads the clock.
package tax

import (
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultVATRate is the VAT percentage applied when no rate is configured
var DefaultVATRate = decimal.NewFromInt(18)

// VATResult splits an amount into its net, tax and gross parts
type VATResult struct {
	Net   valueobject.Money `json:"net"`
	VAT   valueobject.Money `json:"vat"`
	Gross valueobject.Money `json:"gross"`
}

// ApplyVAT applies rate percent of VAT on top of amount. VAT is taken from the
// amount as given and rounded half-up to the currency's minor unit; Net is the
// amount unchanged and Gross is always Net + VAT.
func ApplyVAT(amount valueobject.Money, rate decimal.Decimal) VATResult {
	vat := amount.Percent(rate).Rounded()
	return VATResult{
		Net:   amount,
		VAT:   vat,
		Gross: amount.MustAdd(vat),
	}
}

// ApplyDefaultVAT applies DefaultVATRate
func ApplyDefaultVAT(amount valueobject.Money) VATResult {
	return ApplyVAT(amount, DefaultVATRate)
}
