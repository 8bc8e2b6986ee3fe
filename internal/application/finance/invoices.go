package finance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// invoiceNumberAttempts bounds retries of generated numbers that lost a race
const invoiceNumberAttempts = 3

// GetInvoices lists invoices issued inside q.Window. Status filters on the
// effective status, so OVERDUE selects sent invoices past their due date and
// SENT excludes them.
func (f *Facade) GetInvoices(ctx context.Context, p identity.Principal, q finance.InvoiceQuery) ([]InvoiceResponse, error) {
	if q.Status != "" && !q.Status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Invoice status is not valid")
	}
	stored := q
	if q.Status == finance.InvoiceStatusOverdue {
		stored.Status = finance.InvoiceStatusSent
	}

	invoices, err := f.invoices.FindInWindow(ctx, p, stored)
	if err != nil {
		return nil, err
	}

	now := f.today()
	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		if q.Status != "" && invoices[i].EffectiveStatus(now) != q.Status {
			continue
		}
		out = append(out, f.invoiceResponse(ctx, &invoices[i], now))
	}
	return out, nil
}

// GetInvoice returns one invoice. Stored totals that disagree with a
// recomputation are reported as an integrity warning, not an error.
func (f *Facade) GetInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := f.invoices.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resp := f.invoiceResponse(ctx, inv, f.today())
	return &resp, nil
}

func (f *Facade) invoiceResponse(ctx context.Context, inv *finance.Invoice, now time.Time) InvoiceResponse {
	resp := ToInvoiceResponse(inv, now)
	if warning := inv.VerifyTotals(); warning != nil {
		logger.Enrich(ctx, f.logger).Warn("invoice totals do not match their items",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("warning", warning.String()),
		)
		f.metrics.RecordIntegrityWarning(ctx)
		resp.IntegrityWarning = warning
	}
	return resp
}

// CreateInvoice drafts and stores an invoice. A customer named but unknown
// to the tenant is created first. An empty invoice number is generated from
// the issue month.
func (f *Facade) CreateInvoice(ctx context.Context, p identity.Principal, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	cfg := f.aggregator.Config()
	currency := req.CurrencyCode
	if currency == "" {
		currency = cfg.Currency.String()
	}

	now := f.today()
	issue := req.IssueDate
	if issue.IsZero() {
		issue = now
	}
	vatRate := cfg.VATRate
	if req.VATRate != nil {
		vatRate = *req.VATRate
	}
	in := finance.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     issue,
		DueDate:       req.DueDate,
		Items:         toItemInputs(req.Items),
		Discount:      req.Discount,
		VATRate:       vatRate,
		CurrencyCode:  currency,
		Notes:         req.Notes,
	}
	// Customers are upserted by name and commit on their own
	if err := in.ValidateTerms(); err != nil {
		return nil, err
	}

	customer, created, err := f.resolveCustomer(ctx, p, req, currency)
	if err != nil {
		return nil, err
	}
	in.CustomerID = customer.ID
	in.CustomerName = customer.Name

	generated := strings.TrimSpace(req.InvoiceNumber) == ""
	var inv finance.Invoice
	for attempt := 1; ; attempt++ {
		if generated {
			in.InvoiceNumber, err = f.invoices.NextInvoiceNumber(ctx, p, issue)
			if err != nil {
				return nil, err
			}
		}
		inv, err = finance.NewInvoice(p.TenantID, in)
		if err != nil {
			return nil, err
		}
		err = f.invoices.Create(ctx, p, inv)
		if err == nil {
			break
		}
		if !generated || attempt >= invoiceNumberAttempts || !errors.Is(err, shared.ErrConstraintViolation) {
			return nil, err
		}
		logger.Enrich(ctx, f.logger).Debug("generated invoice number taken, retrying",
			zap.String("invoice_number", in.InvoiceNumber),
			zap.Int("attempt", attempt),
		)
	}

	steps := make([]func(context.Context) integration.PushResult, 0, 2)
	if created {
		c := *customer
		steps = append(steps, func(ctx context.Context) integration.PushResult {
			return f.bridge.PushCustomer(ctx, p, c)
		})
	}
	steps = append(steps, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushInvoice(ctx, p, inv)
	})
	f.push(ctx, p, "create_invoice", integration.EntityTypeInvoice, inv.ID, steps...)

	resp := ToInvoiceResponse(&inv, now)
	return &resp, nil
}

func (f *Facade) resolveCustomer(
	ctx context.Context,
	p identity.Principal,
	req CreateInvoiceRequest,
	currency string,
) (*finance.Customer, bool, error) {
	if req.CustomerID != nil && *req.CustomerID != uuid.Nil {
		c, err := f.customers.FindByID(ctx, p, *req.CustomerID)
		if err != nil {
			return nil, false, err
		}
		if !c.Enabled {
			return nil, false, shared.ErrInvalidState.WithMessage("Customer is disabled")
		}
		return c, false, nil
	}
	if finance.NormalizeCustomerName(req.CustomerName) == "" {
		return nil, false, shared.ErrInvalidInput.WithMessage("Invoice requires a customer")
	}
	return f.customers.UpsertByName(ctx, p, req.CustomerName, currency)
}

// UpdateInvoiceItems replaces the lines of a draft invoice and recomputes
// its totals. A non-zero req.Version must match the stored version.
func (f *Facade) UpdateInvoiceItems(
	ctx context.Context,
	p identity.Principal,
	id uuid.UUID,
	req UpdateInvoiceItemsRequest,
) (*InvoiceResponse, error) {
	return f.transition(ctx, p, id, "update_invoice_items", req.Version,
		func(inv finance.Invoice, now time.Time) (finance.Invoice, error) {
			return inv.ReplaceItems(toItemInputs(req.Items), req.Discount, now)
		})
}

// SendInvoice moves a draft invoice to SENT
func (f *Facade) SendInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return f.transition(ctx, p, id, "send_invoice", 0, finance.Invoice.Send)
}

// MarkPaid settles a sent or overdue invoice
func (f *Facade) MarkPaid(ctx context.Context, p identity.Principal, id uuid.UUID, req MarkPaidRequest) (*InvoiceResponse, error) {
	payment := finance.Payment{
		Amount:    req.Amount,
		PaidAt:    req.PaidAt,
		Method:    finance.PaymentMethod(req.Method),
		Reference: req.Reference,
	}
	return f.transition(ctx, p, id, "mark_invoice_paid", 0,
		func(inv finance.Invoice, now time.Time) (finance.Invoice, error) {
			return inv.MarkPaid(payment, now)
		})
}

// CancelInvoice cancels an unpaid invoice
func (f *Facade) CancelInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return f.transition(ctx, p, id, "cancel_invoice", 0, finance.Invoice.Cancel)
}

// transition loads an invoice, applies change, stores the next version and
// schedules its push
func (f *Facade) transition(
	ctx context.Context,
	p identity.Principal,
	id uuid.UUID,
	name string,
	expectedVersion int,
	change func(finance.Invoice, time.Time) (finance.Invoice, error),
) (*InvoiceResponse, error) {
	inv, err := f.invoices.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && expectedVersion != inv.Version {
		return nil, shared.ErrStaleWrite
	}

	now := f.today()
	next, err := change(*inv, now)
	if err != nil {
		return nil, err
	}
	if err := f.invoices.Update(ctx, p, next); err != nil {
		return nil, err
	}

	f.push(ctx, p, name, integration.EntityTypeInvoice, next.ID, func(ctx context.Context) integration.PushResult {
		return f.bridge.PushInvoice(ctx, p, next)
	})
	resp := ToInvoiceResponse(&next, now)
	return &resp, nil
}
