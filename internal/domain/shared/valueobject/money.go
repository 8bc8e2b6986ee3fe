package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrCurrencyMismatch = errors.New("currency mismatch")

var hundred = decimal.NewFromInt(100)

// Money is an immutable amount in one currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// MoneyOf builds Money; an empty currency means DefaultCurrency.
func MoneyOf(amount decimal.Decimal, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{amount: amount, currency: currency}
}

func Zero(currency Currency) Money {
	return MoneyOf(decimal.Zero, currency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

// Add fails with ErrCurrencyMismatch when the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(other.amount)), nil
}

// Subtract fails with ErrCurrencyMismatch when the currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Sub(other.amount)), nil
}

// MustAdd is Add for sums whose currencies are already known to agree.
func (m Money) MustAdd(other Money) Money {
	return must(m.Add(other))
}

func (m Money) MustSubtract(other Money) Money {
	return must(m.Subtract(other))
}

func must(m Money, err error) Money {
	if err != nil {
		panic(err)
	}
	return m
}

// Percent is rate percent of m, not rounded.
func (m Money) Percent(rate decimal.Decimal) Money {
	return m.with(m.amount.Mul(rate).Div(hundred))
}

// Rounded rounds half-up to the currency's minor unit.
func (m Money) Rounded() Money {
	return m.with(RoundHalfUp(m.amount, m.currency.MinorUnits()))
}

// StringFixed formats the amount at the currency's minor unit.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(m.currency.MinorUnits())
}

func (m Money) String() string {
	return m.StringFixed() + " " + string(m.currency)
}
