package integration

import (
	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/integration"
)

// CustomerPayload maps a customer to the platform-neutral payload
func CustomerPayload(c finance.Customer) integration.CustomerPayload {
	return integration.CustomerPayload{
		LocalID:  c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		Currency: c.CurrencyCode.String(),
	}
}

// InvoicePayload maps an invoice to the platform-neutral payload.
// customerExternalID is the customer's id on the target platform, if known.
func InvoicePayload(inv finance.Invoice, customerExternalID string) integration.InvoicePayload {
	lines := make([]integration.InvoiceLinePayload, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = integration.InvoiceLinePayload{
			Description: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
			TaxRate:     it.TaxRate,
		}
	}
	return integration.InvoicePayload{
		LocalID:            inv.ID,
		Number:             inv.InvoiceNumber,
		CustomerLocalID:    inv.CustomerID,
		CustomerExternalID: customerExternalID,
		CustomerName:       inv.CustomerName,
		IssueDate:          inv.IssueDate,
		DueDate:            inv.DueDate,
		Status:             inv.Status.String(),
		Currency:           inv.CurrencyCode.String(),
		Lines:              lines,
		Subtotal:           inv.Subtotal,
		Discount:           inv.Discount,
		Tax:                inv.Tax,
		Total:              inv.Total,
	}
}

// ExpensePayload maps an expense to the platform-neutral payload
func ExpensePayload(e finance.Expense) integration.ExpensePayload {
	return integration.ExpensePayload{
		LocalID:       e.ID,
		Description:   e.Description,
		Category:      e.Category.String(),
		Amount:        e.Amount,
		Currency:      e.CurrencyCode.String(),
		PaidAt:        e.PaidAt,
		PaymentMethod: e.PaymentMethod.String(),
	}
}
