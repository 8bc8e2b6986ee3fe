package finance

import (
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Invoice DTOs
// =============================================================================

// InvoiceItemRequest is one line of an invoice request
type InvoiceItemRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Quantity  decimal.Decimal `json:"quantity" binding:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"gte=0"`
}

// CreateInvoiceRequest drafts an invoice. Either CustomerID or CustomerName
// is required; an unknown name creates the customer.
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" binding:"omitempty,max=50"`
	CustomerID    *uuid.UUID           `json:"customer_id"`
	CustomerName  string               `json:"customer_name" binding:"omitempty,max=200"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       time.Time            `json:"due_date"`
	Items         []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      decimal.Decimal      `json:"discount" binding:"gte=0"`
	VATRate       *decimal.Decimal     `json:"vat_rate"`
	CurrencyCode  string               `json:"currency" binding:"omitempty,len=3"`
	Notes         string               `json:"notes" binding:"max=2000"`
}

// UpdateInvoiceItemsRequest replaces the lines of a draft invoice. A non-zero
// Version must match the stored version.
type UpdateInvoiceItemsRequest struct {
	Items    []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount decimal.Decimal      `json:"discount" binding:"gte=0"`
	Version  int                  `json:"version" binding:"gte=0"`
}

// MarkPaidRequest settles an invoice. A zero amount means the full total.
type MarkPaidRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"gte=0"`
	PaidAt    time.Time       `json:"paid_at"`
	Method    string          `json:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CARD CHECK OTHER"`
	Reference string          `json:"reference" binding:"max=100"`
}

// InvoiceItemResponse is one priced line
type InvoiceItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Position  int             `json:"position"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

// InvoiceResponse represents an invoice in API responses. Status is the
// effective status; StoredStatus is what the store holds.
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	TenantID         uuid.UUID             `json:"tenant_id"`
	InvoiceNumber    string                `json:"invoice_number"`
	CustomerID       uuid.UUID             `json:"customer_id"`
	CustomerName     string                `json:"customer_name"`
	IssueDate        time.Time             `json:"issue_date"`
	DueDate          time.Time             `json:"due_date"`
	Status           string                `json:"status"`
	StoredStatus     string                `json:"stored_status"`
	Items            []InvoiceItemResponse `json:"items,omitempty"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	Discount         decimal.Decimal       `json:"discount"`
	Tax              decimal.Decimal       `json:"tax"`
	Total            decimal.Decimal       `json:"total"`
	VATRate          decimal.Decimal       `json:"vat_rate"`
	Currency         string                `json:"currency"`
	Notes            string                `json:"notes,omitempty"`
	SentAt           *time.Time            `json:"sent_at,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	PaymentMethod    string                `json:"payment_method,omitempty"`
	PaymentReference string                `json:"payment_reference,omitempty"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	IntegrityWarning *tax.IntegrityWarning `json:"integrity_warning,omitempty"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse as seen at now
func ToInvoiceResponse(inv *finance.Invoice, now time.Time) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:        it.ID,
			Position:  it.Position,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			TaxRate:   it.TaxRate,
		}
	}
	return InvoiceResponse{
		ID:               inv.ID,
		TenantID:         inv.TenantID,
		InvoiceNumber:    inv.InvoiceNumber,
		CustomerID:       inv.CustomerID,
		CustomerName:     inv.CustomerName,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		Status:           inv.EffectiveStatus(now).String(),
		StoredStatus:     inv.Status.String(),
		Items:            items,
		Subtotal:         inv.Subtotal,
		Discount:         inv.Discount,
		Tax:              inv.Tax,
		Total:            inv.Total,
		VATRate:          inv.VATRate,
		Currency:         inv.CurrencyCode.String(),
		Notes:            inv.Notes,
		SentAt:           inv.SentAt,
		PaidAt:           inv.PaidAt,
		CancelledAt:      inv.CancelledAt,
		PaymentMethod:    string(inv.PaymentMethod),
		PaymentReference: inv.PaymentReference,
		Version:          inv.Version,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

func toItemInputs(items []InvoiceItemRequest) []finance.ItemInput {
	out := make([]finance.ItemInput, len(items))
	for i, it := range items {
		out[i] = finance.ItemInput{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// =============================================================================
// Expense DTOs
// =============================================================================

// ExpenseRequest creates or replaces an expense
type ExpenseRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"gt=0"`
	CurrencyCode  string          `json:"currency" binding:"omitempty,len=3"`
	Description   string          `json:"description" binding:"required,min=1,max=500"`
	Category      string          `json:"category" binding:"omitempty,max=50"`
	PaidAt        time.Time       `json:"paid_at" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=CASH BANK_TRANSFER CARD CHECK OTHER"`
	Reference     string          `json:"reference" binding:"max=100"`
	Version       int             `json:"version"` // Update only; non-zero must match
}

func (r ExpenseRequest) input() finance.ExpenseInput {
	return finance.ExpenseInput{
		Amount:        r.Amount,
		CurrencyCode:  r.CurrencyCode,
		Description:   r.Description,
		Category:      finance.ExpenseCategory(r.Category),
		PaidAt:        r.PaidAt,
		PaymentMethod: finance.PaymentMethod(r.PaymentMethod),
		Reference:     r.Reference,
	}
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PaidAt        time.Time       `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToExpenseResponse converts a domain Expense to ExpenseResponse
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Amount:        e.Amount,
		Currency:      e.CurrencyCode.String(),
		Description:   e.Description,
		Category:      e.Category.String(),
		PaidAt:        e.PaidAt,
		PaymentMethod: string(e.PaymentMethod),
		Reference:     e.Reference,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// =============================================================================
// Customer DTOs
// =============================================================================

// CustomerRequest creates or replaces a customer
type CustomerRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=200"`
	Email        string `json:"email" binding:"omitempty,email,max=200"`
	Phone        string `json:"phone" binding:"max=50"`
	Address      string `json:"address" binding:"max=500"`
	CurrencyCode string `json:"currency" binding:"omitempty,len=3"`
	Version      int    `json:"version"` // Update only; non-zero must match
}

func (r CustomerRequest) input() finance.CustomerInput {
	return finance.CustomerInput{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		CurrencyCode: r.CurrencyCode,
	}
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Currency  string    `json:"currency"`
	Enabled   bool      `json:"enabled"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCustomerResponse converts a domain Customer to CustomerResponse
func ToCustomerResponse(c *finance.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Currency:  c.CurrencyCode.String(),
		Enabled:   c.Enabled,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// =============================================================================
// Export DTOs
// =============================================================================

// ArchiveResponse points at an archived export
type ArchiveResponse struct {
	Key       string    `json:"key"`
	FileName  string    `json:"file_name"`
	Format    string    `json:"format"`
	Size      int       `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
