package finance

import (
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Customer is a billed party. Customers named on an invoice but unknown to
// the tenant are created on the fly.
type Customer struct {
	shared.TenantAggregateRoot
	Name         string
	Email        string
	Phone        string
	Address      string
	CurrencyCode valueobject.Currency
	Enabled      bool
}

// CustomerInput carries the caller-editable fields of a customer
type CustomerInput struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	CurrencyCode string
}

// NormalizeCustomerName trims and collapses internal whitespace
func NormalizeCustomerName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func (in CustomerInput) normalize() (CustomerInput, error) {
	in.Name = NormalizeCustomerName(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	if in.Name == "" {
		return in, shared.ErrInvalidInput.WithMessage("Customer name cannot be empty")
	}
	if len(in.Name) > 200 {
		return in, shared.ErrInvalidInput.WithMessage("Customer name cannot exceed 200 characters")
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return in, shared.ErrInvalidInput.WithMessage("Customer email is not valid")
	}
	return in, nil
}

// NewCustomer creates a validated, enabled customer
func NewCustomer(tenantID uuid.UUID, in CustomerInput) (Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return Customer{}, err
	}
	c := Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Enabled:             true,
	}
	return c.apply(in), nil
}

// Update returns the next version of the customer carrying in
func (c Customer) Update(in CustomerInput, now time.Time) (Customer, error) {
	in, err := in.normalize()
	if err != nil {
		return Customer{}, err
	}
	next := c.apply(in)
	next.TenantAggregateRoot = c.Next(now)
	return next, nil
}

// Disable returns the next version of the customer marked disabled
func (c Customer) Disable(now time.Time) Customer {
	next := c
	next.Enabled = false
	next.TenantAggregateRoot = c.Next(now)
	return next
}

func (c Customer) apply(in CustomerInput) Customer {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.CurrencyCode = valueobject.ParseCurrency(in.CurrencyCode)
	return c
}
