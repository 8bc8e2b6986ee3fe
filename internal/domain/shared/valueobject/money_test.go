package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"1.005", 2, "1.01"},
		{"1.004", 2, "1"},
		{"2.5", 0, "3"},
		{"-2.5", 0, "-2"},
		{"-1.005", 2, "-1"},
		{"12.345", 2, "12.35"},
		{"0.125", 2, "0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundHalfUp(dec(tt.in), tt.places)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, int32(2), USD.MinorUnits())
	assert.Equal(t, int32(2), DOP.MinorUnits())
	assert.Equal(t, int32(0), JPY.MinorUnits())
	assert.Equal(t, int32(0), KRW.MinorUnits())
	assert.Equal(t, USD, ParseCurrency(" "))
	assert.Equal(t, EUR, ParseCurrency(" eur"))
	assert.Equal(t, DefaultCurrency, MoneyOf(dec("1"), "").Currency())
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MoneyOf(dec("10.10"), USD)
	b := MoneyOf(dec("0.25"), USD)

	assert.True(t, a.MustAdd(b).Amount().Equal(dec("10.35")))
	assert.True(t, a.MustSubtract(b).Amount().Equal(dec("9.85")))
	assert.True(t, a.Percent(dec("18")).Rounded().Amount().Equal(dec("1.82")))
	assert.True(t, a.MustSubtract(a).IsZero())
	assert.True(t, b.MustSubtract(a).IsNegative())

	_, err := a.Add(MoneyOf(dec("1"), EUR))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	assert.ErrorContains(t, err, "USD and EUR")
	assert.Panics(t, func() { a.MustSubtract(MoneyOf(dec("1"), EUR)) })
}

func TestMoney_MinorUnitFormatting(t *testing.T) {
	assert.True(t, MoneyOf(dec("99.5"), JPY).Rounded().Amount().Equal(dec("100")))
	assert.Equal(t, "100", MoneyOf(dec("100"), JPY).StringFixed())
	assert.Equal(t, "100.00 USD", MoneyOf(dec("100"), USD).String())
	assert.Equal(t, "0.00 DOP", Zero(DOP).String())
}
