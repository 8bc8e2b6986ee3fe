package models

import (
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleFactModel is the persistence model for point-of-sale facts. Rows are
// written by the POS subsystem.
type SaleFactModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_facts_tenant_occurred,priority:1"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrencyCode string          `gorm:"type:varchar(3);not null;default:'USD'"`
	OccurredAt   time.Time       `gorm:"not null;index:idx_sale_facts_tenant_occurred,priority:2"`
	Reference    string          `gorm:"type:varchar(100)"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleFactModel) TableName() string {
	return "sale_facts"
}

// ToDomain converts the persistence model to a domain SaleFact
func (m *SaleFactModel) ToDomain() finance.SaleFact {
	return finance.SaleFact{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Total:        m.Total,
		CurrencyCode: valueobject.ParseCurrency(m.CurrencyCode),
		OccurredAt:   m.OccurredAt.UTC(),
		Reference:    m.Reference,
	}
}

// SaleFactModelFromDomain creates a persistence model from a domain SaleFact
func SaleFactModelFromDomain(s finance.SaleFact) *SaleFactModel {
	return &SaleFactModel{
		ID:           s.ID,
		TenantID:     s.TenantID,
		Total:        s.Total,
		CurrencyCode: s.CurrencyCode.String(),
		OccurredAt:   s.OccurredAt.UTC(),
		Reference:    s.Reference,
		CreatedAt:    time.Now().UTC(),
	}
}

// ExpenseModel is the persistence model for the Expense aggregate
type ExpenseModel struct {
	AggregateModel
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;index:idx_expenses_tenant_paid,priority:1"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	CurrencyCode  string                  `gorm:"type:varchar(3);not null;default:'USD'"`
	Description   string                  `gorm:"type:varchar(500);not null"`
	Category      finance.ExpenseCategory `gorm:"type:varchar(30);not null"`
	PaidAt        time.Time               `gorm:"not null;index:idx_expenses_tenant_paid,priority:2"`
	PaymentMethod finance.PaymentMethod   `gorm:"type:varchar(30);not null"`
	Reference     string                  `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() finance.Expense {
	return finance.Expense{
		TenantAggregateRoot: m.ToDomainRoot(m.TenantID),
		Amount:              m.Amount,
		CurrencyCode:        valueobject.ParseCurrency(m.CurrencyCode),
		Description:         m.Description,
		Category:            m.Category,
		PaidAt:              m.PaidAt.UTC(),
		PaymentMethod:       m.PaymentMethod,
		Reference:           m.Reference,
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Amount:        e.Amount,
		CurrencyCode:  e.CurrencyCode.String(),
		Description:   e.Description,
		Category:      e.Category,
		PaidAt:        e.PaidAt.UTC(),
		PaymentMethod: e.PaymentMethod,
		Reference:     e.Reference,
	}
	m.TenantID = m.FromDomainRoot(e.TenantAggregateRoot)
	return m
}

// CustomerModel is the persistence model for the Customer aggregate.
// NameKey is the lower-cased name; it is unique per tenant so lazy creation
// by name cannot produce duplicates.
type CustomerModel struct {
	AggregateModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customers_tenant_name_key,priority:1"`
	Name         string    `gorm:"type:varchar(200);not null"`
	NameKey      string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_customers_tenant_name_key,priority:2"`
	Email        string    `gorm:"type:varchar(200)"`
	Phone        string    `gorm:"type:varchar(50)"`
	Address      string    `gorm:"type:text"`
	CurrencyCode string    `gorm:"type:varchar(3);not null;default:'USD'"`
	Enabled      bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// CustomerNameKey returns the uniqueness key of a customer name
func CustomerNameKey(name string) string {
	return strings.ToLower(finance.NormalizeCustomerName(name))
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() finance.Customer {
	return finance.Customer{
		TenantAggregateRoot: m.ToDomainRoot(m.TenantID),
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		CurrencyCode:        valueobject.ParseCurrency(m.CurrencyCode),
		Enabled:             m.Enabled,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c finance.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:         c.Name,
		NameKey:      CustomerNameKey(c.Name),
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		CurrencyCode: c.CurrencyCode.String(),
		Enabled:      c.Enabled,
	}
	m.TenantID = m.FromDomainRoot(c.TenantAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	AggregateModel
	TenantID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number,priority:1;index:idx_invoices_tenant_issue,priority:1"`
	InvoiceNumber    string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	CustomerID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerName     string                `gorm:"type:varchar(200);not null"`
	IssueDate        time.Time             `gorm:"not null;index:idx_invoices_tenant_issue,priority:2"`
	DueDate          time.Time             `gorm:"not null"`
	Status           finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Subtotal         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Discount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Tax              decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Total            decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	VATRate          decimal.Decimal       `gorm:"column:vat_rate;type:decimal(5,2);not null"`
	CurrencyCode     string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes            string                `gorm:"type:text"`
	SentAt           *time.Time
	PaidAt           *time.Time
	CancelledAt      *time.Time
	PaymentMethod    finance.PaymentMethod `gorm:"type:varchar(30)"`
	PaymentReference string                `gorm:"type:varchar(100)"`
	Items            []InvoiceItemModel    `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model and its loaded items to a domain Invoice
func (m *InvoiceModel) ToDomain() finance.Invoice {
	items := make([]finance.InvoiceItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return finance.Invoice{
		TenantAggregateRoot: m.ToDomainRoot(m.TenantID),
		InvoiceNumber:       m.InvoiceNumber,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		IssueDate:           m.IssueDate.UTC(),
		DueDate:             m.DueDate.UTC(),
		Status:              m.Status,
		Items:               items,
		Subtotal:            m.Subtotal,
		Discount:            m.Discount,
		Tax:                 m.Tax,
		Total:               m.Total,
		VATRate:             m.VATRate,
		CurrencyCode:        valueobject.ParseCurrency(m.CurrencyCode),
		Notes:               m.Notes,
		SentAt:              utcPtr(m.SentAt),
		PaidAt:              utcPtr(m.PaidAt),
		CancelledAt:         utcPtr(m.CancelledAt),
		PaymentMethod:       m.PaymentMethod,
		PaymentReference:    m.PaymentReference,
	}
}

// InvoiceModelFromDomain creates a persistence model, items included, from a domain Invoice
func InvoiceModelFromDomain(inv finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber:    inv.InvoiceNumber,
		CustomerID:       inv.CustomerID,
		CustomerName:     inv.CustomerName,
		IssueDate:        inv.IssueDate.UTC(),
		DueDate:          inv.DueDate.UTC(),
		Status:           inv.Status,
		Subtotal:         inv.Subtotal,
		Discount:         inv.Discount,
		Tax:              inv.Tax,
		Total:            inv.Total,
		VATRate:          inv.VATRate,
		CurrencyCode:     inv.CurrencyCode.String(),
		Notes:            inv.Notes,
		SentAt:           utcPtr(inv.SentAt),
		PaidAt:           utcPtr(inv.PaidAt),
		CancelledAt:      utcPtr(inv.CancelledAt),
		PaymentMethod:    inv.PaymentMethod,
		PaymentReference: inv.PaymentReference,
	}
	m.TenantID = m.FromDomainRoot(inv.TenantAggregateRoot)
	m.Items = InvoiceItemModelsFromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for one invoice line
type InvoiceItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_items_position,priority:1"`
	Position  int             `gorm:"not null;uniqueIndex:idx_invoice_items_position,priority:2"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() finance.InvoiceItem {
	return finance.InvoiceItem{
		ID:        m.ID,
		Position:  m.Position,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		LineTotal: m.LineTotal,
		TaxRate:   m.TaxRate,
	}
}

// InvoiceItemModelsFromDomain maps the lines of inv
func InvoiceItemModelsFromDomain(inv finance.Invoice) []InvoiceItemModel {
	items := make([]InvoiceItemModel, len(inv.Items))
	for i, it := range inv.Items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		items[i] = InvoiceItemModel{
			ID:        id,
			TenantID:  inv.TenantID,
			InvoiceID: inv.ID,
			Position:  it.Position,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
			TaxRate:   it.TaxRate,
		}
	}
	return items
}
