package finance

import (
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryRent        ExpenseCategory = "RENT"
	ExpenseCategoryUtilities   ExpenseCategory = "UTILITIES"
	ExpenseCategorySalary      ExpenseCategory = "SALARY"
	ExpenseCategoryOffice      ExpenseCategory = "OFFICE"
	ExpenseCategoryTravel      ExpenseCategory = "TRAVEL"
	ExpenseCategoryMarketing   ExpenseCategory = "MARKETING"
	ExpenseCategoryEquipment   ExpenseCategory = "EQUIPMENT"
	ExpenseCategoryMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseCategoryInsurance   ExpenseCategory = "INSURANCE"
	ExpenseCategoryTax         ExpenseCategory = "TAX"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryRent, ExpenseCategoryUtilities, ExpenseCategorySalary,
		ExpenseCategoryOffice, ExpenseCategoryTravel, ExpenseCategoryMarketing,
		ExpenseCategoryEquipment, ExpenseCategoryMaintenance, ExpenseCategoryInsurance,
		ExpenseCategoryTax, ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// Expense is a manually entered outgoing payment
type Expense struct {
	shared.TenantAggregateRoot
	Amount        decimal.Decimal
	CurrencyCode  valueobject.Currency
	Description   string
	Category      ExpenseCategory
	PaidAt        time.Time
	PaymentMethod PaymentMethod
	Reference     string
}

// ExpenseInput carries the caller-editable fields of an expense
type ExpenseInput struct {
	Amount        decimal.Decimal
	CurrencyCode  string
	Description   string
	Category      ExpenseCategory
	PaidAt        time.Time
	PaymentMethod PaymentMethod
	Reference     string
}

func (in ExpenseInput) normalize() (ExpenseInput, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Category == "" {
		in.Category = ExpenseCategoryOther
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentMethodCash
	}

	switch {
	case in.Amount.IsNegative():
		return in, shared.ErrInvalidInput.WithMessage("Expense amount cannot be negative")
	case in.Amount.IsZero():
		return in, shared.ErrInvalidInput.WithMessage("Expense amount must be positive")
	case in.Description == "":
		return in, shared.ErrInvalidInput.WithMessage("Description cannot be empty")
	case len(in.Description) > 500:
		return in, shared.ErrInvalidInput.WithMessage("Description cannot exceed 500 characters")
	case !in.Category.IsValid():
		return in, shared.ErrInvalidInput.WithMessage("Expense category is not valid")
	case !in.PaymentMethod.IsValid():
		return in, shared.ErrInvalidInput.WithMessage("Payment method is not valid")
	case in.PaidAt.IsZero():
		return in, shared.ErrInvalidInput.WithMessage("Payment date is required")
	}
	return in, nil
}

// NewExpense creates a validated expense for a tenant
func NewExpense(tenantID uuid.UUID, in ExpenseInput) (Expense, error) {
	in, err := in.normalize()
	if err != nil {
		return Expense{}, err
	}
	e := Expense{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	return e.apply(in), nil
}

// Update returns the next version of the expense carrying in
func (e Expense) Update(in ExpenseInput, now time.Time) (Expense, error) {
	in, err := in.normalize()
	if err != nil {
		return Expense{}, err
	}
	next := e.apply(in)
	next.TenantAggregateRoot = e.Next(now)
	return next, nil
}

func (e Expense) apply(in ExpenseInput) Expense {
	e.Amount = in.Amount
	e.CurrencyCode = valueobject.ParseCurrency(in.CurrencyCode)
	e.Description = in.Description
	e.Category = in.Category
	e.PaidAt = in.PaidAt.UTC()
	e.PaymentMethod = in.PaymentMethod
	e.Reference = strings.TrimSpace(in.Reference)
	return e
}

// Money returns the expense amount as Money
func (e Expense) Money() valueobject.Money {
	return valueobject.MoneyOf(e.Amount, e.CurrencyCode)
}
