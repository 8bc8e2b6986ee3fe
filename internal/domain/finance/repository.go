package finance

import (
	"context"
	"time"

	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/google/uuid"
)

// Every repository method takes the resolved Principal explicitly and scopes
// its statements to Principal.TenantID. An unresolved principal is rejected
// with shared.ErrNoIdentity before the store is touched.

// SaleFactReader reads point-of-sale facts
type SaleFactReader interface {
	// FindInWindow returns the tenant's sales that occurred inside w
	FindInWindow(ctx context.Context, p identity.Principal, w DateWindow) ([]SaleFact, error)
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID
	FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*Expense, error)

	// FindInWindow returns expenses paid inside w, newest first
	FindInWindow(ctx context.Context, p identity.Principal, w DateWindow) ([]Expense, error)

	// Count returns the number of expenses of the tenant
	Count(ctx context.Context, p identity.Principal) (int64, error)

	// Create inserts a new expense
	Create(ctx context.Context, p identity.Principal, e Expense) error

	// Update persists e if the stored row still holds version e.Version-1
	Update(ctx context.Context, p identity.Principal, e Expense) error
}

// InvoiceQuery filters invoice listings
type InvoiceQuery struct {
	Window     DateWindow
	Status     InvoiceStatus
	CustomerID uuid.UUID
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice with its items
	FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its tenant-unique number
	FindByNumber(ctx context.Context, p identity.Principal, number string) (*Invoice, error)

	// FindInWindow returns invoices issued inside q.Window with their items,
	// newest first. Status filters on the stored status.
	FindInWindow(ctx context.Context, p identity.Principal, q InvoiceQuery) ([]Invoice, error)

	// Count returns the number of invoices of the tenant
	Count(ctx context.Context, p identity.Principal) (int64, error)

	// NextInvoiceNumber returns the next free number for at's month
	NextInvoiceNumber(ctx context.Context, p identity.Principal, at time.Time) (string, error)

	// Create inserts the invoice and all of its items atomically
	Create(ctx context.Context, p identity.Principal, inv Invoice) error

	// Update persists inv and replaces its items atomically if the stored row
	// still holds version inv.Version-1
	Update(ctx context.Context, p identity.Principal, inv Invoice) error
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*Customer, error)

	// FindByName finds a customer by normalised name, case-insensitively
	FindByName(ctx context.Context, p identity.Principal, name string) (*Customer, error)

	// FindAll returns a page of customers and the total count
	FindAll(ctx context.Context, p identity.Principal, filter shared.Filter) ([]Customer, int64, error)

	// Count returns the number of customers of the tenant
	Count(ctx context.Context, p identity.Principal) (int64, error)

	// Create inserts a new customer
	Create(ctx context.Context, p identity.Principal, c Customer) error

	// Update persists c if the stored row still holds version c.Version-1
	Update(ctx context.Context, p identity.Principal, c Customer) error

	// UpsertByName returns the customer with the given name, creating it when
	// absent. created reports whether a row was inserted.
	UpsertByName(ctx context.Context, p identity.Principal, name, currency string) (c *Customer, created bool, err error)
}
