package tax

import (
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FiscalRates are the percentages of the secondary fiscal-receipting regime
type FiscalRates struct {
	VAT         decimal.Decimal `json:"vat"`
	Income      decimal.Decimal `json:"income"`
	Withholding decimal.Decimal `json:"withholding"`
}

// DefaultFiscalRates returns 18% VAT, 30% income and 6% withholding
func DefaultFiscalRates() FiscalRates {
	return FiscalRates{
		VAT:         decimal.NewFromInt(18),
		Income:      decimal.NewFromInt(30),
		Withholding: decimal.NewFromInt(6),
	}
}

// FiscalTax is the reporting-only breakdown of the secondary regime. Its
// figures are never added to an invoice total.
type FiscalTax struct {
	Base        valueobject.Money `json:"base"`
	FiscalVAT   valueobject.Money `json:"fiscal_vat"`
	IncomeTax   valueobject.Money `json:"income_tax"`
	Withholding valueobject.Money `json:"withholding"`
}

// Total returns the sum of the three components
func (f FiscalTax) Total() valueobject.Money {
	return f.FiscalVAT.MustAdd(f.IncomeTax).MustAdd(f.Withholding)
}

// ApplySecondaryFiscalTax computes each component independently off the same base
func ApplySecondaryFiscalTax(base valueobject.Money, rates FiscalRates) FiscalTax {
	base = base.Rounded()
	return FiscalTax{
		Base:        base,
		FiscalVAT:   base.Percent(rates.VAT).Rounded(),
		IncomeTax:   base.Percent(rates.Income).Rounded(),
		Withholding: base.Percent(rates.Withholding).Rounded(),
	}
}
