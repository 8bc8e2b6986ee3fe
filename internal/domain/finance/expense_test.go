package finance_test

import (
	"testing"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense(t *testing.T) {
	tenantID := uuid.New()
	paidAt := time.Date(2026, 2, 1, 15, 0, 0, 0, time.FixedZone("AST", -4*3600))

	e, err := finance.NewExpense(tenantID, finance.ExpenseInput{
		Amount:      d("250.00"),
		Description: " Office rent ",
		Category:    finance.ExpenseCategoryRent,
		PaidAt:      paidAt,
	})
	require.NoError(t, err)

	assert.Equal(t, tenantID, e.TenantID)
	assert.Equal(t, "Office rent", e.Description)
	assert.Equal(t, valueobject.DefaultCurrency, e.CurrencyCode)
	assert.Equal(t, finance.PaymentMethodCash, e.PaymentMethod)
	assert.Equal(t, time.UTC, e.PaidAt.Location())
	assert.Equal(t, 1, e.Version)
}

func TestNewExpense_Validation(t *testing.T) {
	valid := finance.ExpenseInput{Amount: d("10"), Description: "Paper", PaidAt: issueDay}

	tests := []struct {
		name   string
		mutate func(in *finance.ExpenseInput)
	}{
		{"negative amount", func(in *finance.ExpenseInput) { in.Amount = d("-10") }},
		{"zero amount", func(in *finance.ExpenseInput) { in.Amount = d("0") }},
		{"blank description", func(in *finance.ExpenseInput) { in.Description = "  " }},
		{"unknown category", func(in *finance.ExpenseInput) { in.Category = "FOOD" }},
		{"unknown method", func(in *finance.ExpenseInput) { in.PaymentMethod = "BARTER" }},
		{"missing date", func(in *finance.ExpenseInput) { in.PaidAt = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := finance.NewExpense(uuid.New(), in)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestExpense_Update(t *testing.T) {
	e, err := finance.NewExpense(uuid.New(), finance.ExpenseInput{Amount: d("10"), Description: "Paper", PaidAt: issueDay})
	require.NoError(t, err)

	next, err := e.Update(finance.ExpenseInput{Amount: d("12"), Description: "Paper and toner", PaidAt: issueDay, Category: finance.ExpenseCategoryOffice}, issueDay.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, e.ID, next.ID)
	assert.Equal(t, 2, next.Version)
	assert.True(t, next.Amount.Equal(d("12")))
	assert.True(t, e.Amount.Equal(d("10")))

	_, err = e.Update(finance.ExpenseInput{Amount: d("-1"), Description: "x", PaidAt: issueDay}, issueDay)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCustomer(t *testing.T) {
	c, err := finance.NewCustomer(uuid.New(), finance.CustomerInput{Name: " Blue  Bird ", Email: "ap@bluebird.test"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Bird", c.Name)
	assert.True(t, c.Enabled)

	_, err = finance.NewCustomer(uuid.New(), finance.CustomerInput{Name: "x", Email: "nope"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	next, err := c.Update(finance.CustomerInput{Name: "Blue Bird Ltd"}, issueDay)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, "Blue Bird", c.Name)

	disabled := next.Disable(issueDay)
	assert.False(t, disabled.Enabled)
	assert.Equal(t, 3, disabled.Version)
}
