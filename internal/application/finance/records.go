package finance

import (
	"context"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/google/uuid"
)

// GetExpenses lists expenses paid inside w, newest first
func (f *Facade) GetExpenses(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]ExpenseResponse, error) {
	expenses, err := f.expenses.FindInWindow(ctx, p, w)
	if err != nil {
		return nil, err
	}
	out := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = ToExpenseResponse(&expenses[i])
	}
	return out, nil
}

// CreateExpense stores an expense and schedules its push
func (f *Facade) CreateExpense(ctx context.Context, p identity.Principal, req ExpenseRequest) (*ExpenseResponse, error) {
	in := req.input()
	if in.CurrencyCode == "" {
		in.CurrencyCode = f.aggregator.Config().Currency.String()
	}
	e, err := finance.NewExpense(p.TenantID, in)
	if err != nil {
		return nil, err
	}
	if err := f.expenses.Create(ctx, p, e); err != nil {
		return nil, err
	}

	f.push(ctx, p, "create_expense", integration.EntityTypeExpense, e.ID, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushExpense(ctx, p, e)
	})
	resp := ToExpenseResponse(&e)
	return &resp, nil
}

// UpdateExpense replaces the fields of an expense. A non-zero req.Version
// must match the stored version.
func (f *Facade) UpdateExpense(ctx context.Context, p identity.Principal, id uuid.UUID, req ExpenseRequest) (*ExpenseResponse, error) {
	current, err := f.expenses.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != current.Version {
		return nil, shared.ErrStaleWrite
	}

	in := req.input()
	if in.CurrencyCode == "" {
		in.CurrencyCode = current.CurrencyCode.String()
	}
	next, err := current.Update(in, f.today())
	if err != nil {
		return nil, err
	}
	if err := f.expenses.Update(ctx, p, next); err != nil {
		return nil, err
	}

	f.push(ctx, p, "update_expense", integration.EntityTypeExpense, next.ID, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushExpense(ctx, p, next)
	})
	resp := ToExpenseResponse(&next)
	return &resp, nil
}

// GetCustomers returns a page of customers
func (f *Facade) GetCustomers(ctx context.Context, p identity.Principal, filter shared.Filter) (shared.Paginated[CustomerResponse], error) {
	filter = filter.Normalize()
	customers, total, err := f.customers.FindAll(ctx, p, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, err
	}
	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// CreateCustomer stores a customer and schedules its push
func (f *Facade) CreateCustomer(ctx context.Context, p identity.Principal, req CustomerRequest) (*CustomerResponse, error) {
	in := req.input()
	if in.CurrencyCode == "" {
		in.CurrencyCode = f.aggregator.Config().Currency.String()
	}
	c, err := finance.NewCustomer(p.TenantID, in)
	if err != nil {
		return nil, err
	}
	if err := f.customers.Create(ctx, p, c); err != nil {
		return nil, err
	}

	f.push(ctx, p, "create_customer", integration.EntityTypeCustomer, c.ID, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushCustomer(ctx, p, c)
	})
	resp := ToCustomerResponse(&c)
	return &resp, nil
}

// UpdateCustomer replaces the fields of a customer. A non-zero req.Version
// must match the stored version.
func (f *Facade) UpdateCustomer(ctx context.Context, p identity.Principal, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	current, err := f.customers.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != current.Version {
		return nil, shared.ErrStaleWrite
	}

	in := req.input()
	if in.CurrencyCode == "" {
		in.CurrencyCode = current.CurrencyCode.String()
	}
	next, err := current.Update(in, f.today())
	if err != nil {
		return nil, err
	}
	if err := f.customers.Update(ctx, p, next); err != nil {
		return nil, err
	}

	f.push(ctx, p, "update_customer", integration.EntityTypeCustomer, next.ID, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushCustomer(ctx, p, next)
	})
	resp := ToCustomerResponse(&next)
	return &resp, nil
}
