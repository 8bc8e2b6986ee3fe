package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// AccountingPlatform Errors
// ---------------------------------------------------------------------------

var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformNotFound        = errors.New("integration: platform not registered")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformTimeout         = errors.New("integration: platform call timed out")

	ErrInvalidEntityType    = errors.New("integration: invalid entity type")
	ErrInvalidPlatformCode  = errors.New("integration: invalid platform code")
	ErrInvalidLocalID       = errors.New("integration: invalid local entity ID")
	ErrInvalidSyncTenantID  = errors.New("integration: invalid tenant ID")
	ErrSyncRecordNotFound   = errors.New("integration: sync record not found")
	ErrDuplicatePlatformKey = errors.New("integration: platform already registered")
)

// ---------------------------------------------------------------------------
// PlatformCode identifies an external accounting platform
// ---------------------------------------------------------------------------

// PlatformCode identifies an external accounting platform
type PlatformCode string

// NewPlatformCode normalises and validates a platform code
func NewPlatformCode(s string) (PlatformCode, error) {
	c := PlatformCode(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatformCode, s)
	}
	return c, nil
}

// IsValid returns true for non-empty codes of letters, digits, '_' and '-'
func (c PlatformCode) IsValid() bool {
	if c == "" || len(c) > 32 {
		return false
	}
	for _, r := range c {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// Payloads pushed to platforms
// ---------------------------------------------------------------------------

// CustomerPayload is the platform-neutral shape of a customer
type CustomerPayload struct {
	LocalID  uuid.UUID `json:"local_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Address  string    `json:"address,omitempty"`
	Currency string    `json:"currency"`
}

// InvoiceLinePayload is one invoice line
type InvoiceLinePayload struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// InvoicePayload is the platform-neutral shape of an invoice
type InvoicePayload struct {
	LocalID            uuid.UUID            `json:"local_id"`
	Number             string               `json:"number"`
	CustomerLocalID    uuid.UUID            `json:"customer_local_id"`
	CustomerExternalID string               `json:"customer_external_id,omitempty"`
	CustomerName       string               `json:"customer_name"`
	IssueDate          time.Time            `json:"issue_date"`
	DueDate            time.Time            `json:"due_date"`
	Status             string               `json:"status"`
	Currency           string               `json:"currency"`
	Lines              []InvoiceLinePayload `json:"lines"`
	Subtotal           decimal.Decimal      `json:"subtotal"`
	Discount           decimal.Decimal      `json:"discount"`
	Tax                decimal.Decimal      `json:"tax"`
	Total              decimal.Decimal      `json:"total"`
}

// ExpensePayload is the platform-neutral shape of an expense
type ExpensePayload struct {
	LocalID       uuid.UUID       `json:"local_id"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaidAt        time.Time       `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
}

// ---------------------------------------------------------------------------
// AccountingPlatform Port Interface
// ---------------------------------------------------------------------------

// AccountingPlatform defines the port for an external accounting system.
// Create* returns the external id of the new entity; Update* overwrites the
// entity with the given external id.
type AccountingPlatform interface {
	// Code returns the platform code this adapter handles
	Code() PlatformCode

	// IsConfigured returns true if the tenant has credentials for this platform
	IsConfigured(tenantID uuid.UUID) bool

	CreateCustomer(ctx context.Context, tenantID uuid.UUID, c CustomerPayload) (string, error)
	UpdateCustomer(ctx context.Context, tenantID uuid.UUID, externalID string, c CustomerPayload) error

	CreateInvoice(ctx context.Context, tenantID uuid.UUID, inv InvoicePayload) (string, error)
	UpdateInvoice(ctx context.Context, tenantID uuid.UUID, externalID string, inv InvoicePayload) error

	CreateExpense(ctx context.Context, tenantID uuid.UUID, e ExpensePayload) (string, error)
	UpdateExpense(ctx context.Context, tenantID uuid.UUID, externalID string, e ExpensePayload) error
}

// PlatformRegistry provides access to registered accounting platforms
type PlatformRegistry interface {
	// GetPlatform returns the adapter for the specified code
	GetPlatform(code PlatformCode) (AccountingPlatform, error)

	// ListPlatforms returns all registered adapters ordered by code
	ListPlatforms() []AccountingPlatform

	// ListConfigured returns the adapters the tenant has configured
	ListConfigured(tenantID uuid.UUID) []AccountingPlatform
}

// Registry is the in-process PlatformRegistry
type Registry struct {
	mu        sync.RWMutex
	platforms map[PlatformCode]AccountingPlatform
}

// NewRegistry creates a registry holding the given platforms
func NewRegistry(platforms ...AccountingPlatform) (*Registry, error) {
	r := &Registry{platforms: make(map[PlatformCode]AccountingPlatform)}
	for _, p := range platforms {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a platform adapter
func (r *Registry) Register(p AccountingPlatform) error {
	if !p.Code().IsValid() {
		return ErrInvalidPlatformCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.platforms[p.Code()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlatformKey, p.Code())
	}
	r.platforms[p.Code()] = p
	return nil
}

// GetPlatform returns the adapter for the specified code
func (r *Registry) GetPlatform(code PlatformCode) (AccountingPlatform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotFound, code)
	}
	return p, nil
}

// ListPlatforms returns all registered adapters ordered by code
func (r *Registry) ListPlatforms() []AccountingPlatform {
	r.mu.RLock()
	out := make([]AccountingPlatform, 0, len(r.platforms))
	for _, p := range r.platforms {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}

// ListConfigured returns the adapters the tenant has configured
func (r *Registry) ListConfigured(tenantID uuid.UUID) []AccountingPlatform {
	all := r.ListPlatforms()
	out := all[:0]
	for _, p := range all {
		if p.IsConfigured(tenantID) {
			out = append(out, p)
		}
	}
	return out
}
