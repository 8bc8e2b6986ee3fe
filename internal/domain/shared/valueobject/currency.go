package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	DOP Currency = "DOP"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
)

const DefaultCurrency = USD

// currencies without a minor unit; every other code has two decimals
var wholeUnitCurrencies = map[Currency]struct{}{JPY: {}, KRW: {}}

// ParseCurrency upper-cases code. Blank codes are DefaultCurrency.
func ParseCurrency(code string) Currency {
	if code = strings.TrimSpace(code); code == "" {
		return DefaultCurrency
	}
	return Currency(strings.ToUpper(code))
}

// MinorUnits is the number of decimals amounts in c are settled at.
func (c Currency) MinorUnits() int32 {
	if _, whole := wholeUnitCurrencies[c]; whole {
		return 0
	}
	return 2
}

func (c Currency) String() string {
	return string(c)
}

// RoundHalfUp rounds d to places decimals with exact halves going towards
// positive infinity, so -2.5 becomes -2.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(decimal.New(5, -1)).Floor().Shift(-places)
}
