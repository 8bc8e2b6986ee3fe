package tax

import (
	"testing"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func usd(s string) valueobject.Money {
	return valueobject.MoneyOf(d(s), valueobject.USD)
}

func TestApplyVAT(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		rate  string
		net   string
		vat   string
		gross string
	}{
		{"default rate", "100", "18", "100", "18", "118"},
		{"rounds half up", "10.25", "18", "10.25", "1.85", "12.10"},
		{"zero amount", "0", "18", "0", "0", "0"},
		{"custom rate", "200", "16", "200", "32", "232"},
		// 0.025 * 18% = 0.0045; rounding the amount first would give 0.01
		{"vat from unrounded amount", "0.025", "18", "0.025", "0", "0.025"},
		{"sub-cent net kept", "99.995", "18", "99.995", "18", "117.995"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyVAT(usd(tt.in), d(tt.rate))
			assert.True(t, got.Net.Amount().Equal(d(tt.net)), "net %s", got.Net)
			assert.True(t, got.VAT.Amount().Equal(d(tt.vat)), "vat %s", got.VAT)
			assert.True(t, got.Gross.Amount().Equal(d(tt.gross)), "gross %s", got.Gross)
		})
	}

	assert.True(t, ApplyDefaultVAT(usd("50")).VAT.Amount().Equal(d("9")))
}

func TestApplyVAT_ZeroMinorUnitCurrency(t *testing.T) {
	got := ApplyVAT(valueobject.MoneyOf(d("1003"), valueobject.JPY), DefaultVATRate)
	// 180.54 rounds to 181
	assert.True(t, got.VAT.Amount().Equal(d("181")))
}

func TestApplySecondaryFiscalTax(t *testing.T) {
	got := ApplySecondaryFiscalTax(usd("1000"), DefaultFiscalRates())

	assert.True(t, got.FiscalVAT.Amount().Equal(d("180")))
	assert.True(t, got.IncomeTax.Amount().Equal(d("300")))
	assert.True(t, got.Withholding.Amount().Equal(d("60")))
	assert.True(t, got.Total().Amount().Equal(d("540")))
	assert.True(t, got.Base.Amount().Equal(d("1000")))
}

func TestComputeInvoiceTotals(t *testing.T) {
	lines := []Line{
		{Quantity: d("2"), UnitPrice: d("50")},
		{Quantity: d("3"), UnitPrice: d("33.333")},
	}

	got, err := ComputeInvoiceTotals(lines, d("10"), DefaultVATRate, valueobject.USD)
	require.NoError(t, err)

	require.Len(t, got.LineTotals, 2)
	assert.True(t, got.LineTotals[1].Amount().Equal(d("100")))
	assert.True(t, got.Subtotal.Amount().Equal(d("200")))
	assert.True(t, got.Discount.Amount().Equal(d("10")))
	assert.True(t, got.Tax.Amount().Equal(d("34.2")))
	assert.True(t, got.Total.Amount().Equal(d("224.2")))

	// total = subtotal - discount + tax
	assert.True(t, got.Total.Amount().Equal(got.Subtotal.Amount().Sub(got.Discount.Amount()).Add(got.Tax.Amount())))
}

func TestComputeInvoiceTotals_Idempotent(t *testing.T) {
	lines := []Line{{Quantity: d("1.5"), UnitPrice: d("19.99")}}

	first, err := ComputeInvoiceTotals(lines, d("0"), DefaultVATRate, valueobject.USD)
	require.NoError(t, err)
	second, err := ComputeInvoiceTotals(lines, d("0"), DefaultVATRate, valueobject.USD)
	require.NoError(t, err)

	stored := StoredTotals{
		Subtotal: first.Subtotal.Amount(),
		Discount: first.Discount.Amount(),
		Tax:      first.Tax.Amount(),
		Total:    first.Total.Amount(),
	}
	assert.Nil(t, VerifyInvoiceTotals(stored, second))
}

func TestComputeInvoiceTotals_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		lines    []Line
		discount string
	}{
		{"negative quantity", []Line{{Quantity: d("-1"), UnitPrice: d("10")}}, "0"},
		{"negative price", []Line{{Quantity: d("1"), UnitPrice: d("-10")}}, "0"},
		{"negative discount", []Line{{Quantity: d("1"), UnitPrice: d("10")}}, "-1"},
		{"discount above subtotal", []Line{{Quantity: d("1"), UnitPrice: d("10")}}, "11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeInvoiceTotals(tt.lines, d(tt.discount), DefaultVATRate, valueobject.USD)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestVerifyInvoiceTotals_Mismatch(t *testing.T) {
	recomputed, err := ComputeInvoiceTotals([]Line{{Quantity: d("1"), UnitPrice: d("100")}}, d("0"), DefaultVATRate, valueobject.USD)
	require.NoError(t, err)

	w := VerifyInvoiceTotals(StoredTotals{
		Subtotal: d("100"),
		Discount: d("0"),
		Tax:      d("18"),
		Total:    d("120"),
	}, recomputed)

	require.NotNil(t, w)
	require.Len(t, w.Mismatches, 1)
	assert.Equal(t, "total", w.Mismatches[0].Field)
	assert.True(t, w.Mismatches[0].Expected.Equal(d("118")))
	assert.Contains(t, w.String(), "total stored=120 expected=118")
}
