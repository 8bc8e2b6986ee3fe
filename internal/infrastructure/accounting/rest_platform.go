// Package accounting adapts external accounting systems to the
// integration.AccountingPlatform port.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/erp/fincore/internal/domain/integration"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseSize limits the response body read from a platform
const maxResponseSize = 1 << 20

// Resource paths
const (
	resourceCustomers = "customers"
	resourceInvoices  = "invoices"
	resourceExpenses  = "expenses"
)

// createdResponse is the body a platform answers a create with
type createdResponse struct {
	ID string `json:"id"`
}

// errorResponse is the body a platform answers a rejected request with
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RESTPlatform speaks JSON over HTTP to a generic accounting API:
// POST /<resource> creates and returns {"id": "..."}; PUT /<resource>/{id}
// overwrites.
type RESTPlatform struct {
	code       integration.PlatformCode
	config     *RESTConfig
	httpClient *http.Client
	logger     *zap.Logger

	// tenantConfigs override the default credentials per tenant
	tenantConfigs map[uuid.UUID]*RESTConfig
	mu            sync.RWMutex
}

// RESTPlatformOption is a functional option for configuring RESTPlatform
type RESTPlatformOption func(*RESTPlatform)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) RESTPlatformOption {
	return func(p *RESTPlatform) {
		p.httpClient = c
	}
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) RESTPlatformOption {
	return func(p *RESTPlatform) {
		p.logger = l
	}
}

// NewRESTPlatform creates an adapter. A nil config means only tenants with
// their own credentials are configured.
func NewRESTPlatform(code integration.PlatformCode, config *RESTConfig, opts ...RESTPlatformOption) (*RESTPlatform, error) {
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrInvalidPlatformCode, code)
	}
	timeout := DefaultRequestTimeout
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		if config.Timeout > 0 {
			timeout = config.Timeout
		}
	}

	p := &RESTPlatform{
		code:          code,
		config:        config,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        zap.NewNop(),
		tenantConfigs: make(map[uuid.UUID]*RESTConfig),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// SetTenantConfig sets the credentials for a specific tenant
func (p *RESTPlatform) SetTenantConfig(tenantID uuid.UUID, config *RESTConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tenantConfigs[tenantID] = config
	return nil
}

// getTenantConfig retrieves the credentials for a tenant
func (p *RESTPlatform) getTenantConfig(tenantID uuid.UUID) (*RESTConfig, error) {
	p.mu.RLock()
	config, ok := p.tenantConfigs[tenantID]
	p.mu.RUnlock()
	if ok {
		return config, nil
	}
	if p.config != nil {
		return p.config, nil
	}
	return nil, integration.ErrPlatformNotConfigured
}

// Code returns the platform code this adapter handles
func (p *RESTPlatform) Code() integration.PlatformCode {
	return p.code
}

// IsConfigured returns true if the tenant has credentials
func (p *RESTPlatform) IsConfigured(tenantID uuid.UUID) bool {
	_, err := p.getTenantConfig(tenantID)
	return err == nil
}

// ---------------------------------------------------------------------------
// Entity operations
// ---------------------------------------------------------------------------

// CreateCustomer creates a customer and returns its external id
func (p *RESTPlatform) CreateCustomer(ctx context.Context, tenantID uuid.UUID, c integration.CustomerPayload) (string, error) {
	return p.create(ctx, tenantID, resourceCustomers, c)
}

// UpdateCustomer overwrites the customer with the given external id
func (p *RESTPlatform) UpdateCustomer(ctx context.Context, tenantID uuid.UUID, externalID string, c integration.CustomerPayload) error {
	return p.update(ctx, tenantID, resourceCustomers, externalID, c)
}

// CreateInvoice creates an invoice and returns its external id
func (p *RESTPlatform) CreateInvoice(ctx context.Context, tenantID uuid.UUID, inv integration.InvoicePayload) (string, error) {
	return p.create(ctx, tenantID, resourceInvoices, inv)
}

// UpdateInvoice overwrites the invoice with the given external id
func (p *RESTPlatform) UpdateInvoice(ctx context.Context, tenantID uuid.UUID, externalID string, inv integration.InvoicePayload) error {
	return p.update(ctx, tenantID, resourceInvoices, externalID, inv)
}

// CreateExpense creates an expense and returns its external id
func (p *RESTPlatform) CreateExpense(ctx context.Context, tenantID uuid.UUID, e integration.ExpensePayload) (string, error) {
	return p.create(ctx, tenantID, resourceExpenses, e)
}

// UpdateExpense overwrites the expense with the given external id
func (p *RESTPlatform) UpdateExpense(ctx context.Context, tenantID uuid.UUID, externalID string, e integration.ExpensePayload) error {
	return p.update(ctx, tenantID, resourceExpenses, externalID, e)
}

func (p *RESTPlatform) create(ctx context.Context, tenantID uuid.UUID, resource string, payload any) (string, error) {
	config, err := p.getTenantConfig(tenantID)
	if err != nil {
		return "", err
	}
	body, err := p.doRequest(ctx, config, http.MethodPost, config.endpoint(resource), payload)
	if err != nil {
		return "", err
	}

	var resp createdResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", fmt.Errorf("%w: missing id", integration.ErrPlatformInvalidResponse)
	}
	return resp.ID, nil
}

func (p *RESTPlatform) update(ctx context.Context, tenantID uuid.UUID, resource, externalID string, payload any) error {
	if externalID == "" {
		return fmt.Errorf("%w: external id is required", integration.ErrPlatformRequestFailed)
	}
	config, err := p.getTenantConfig(tenantID)
	if err != nil {
		return err
	}
	_, err = p.doRequest(ctx, config, http.MethodPut, config.endpoint(resource, externalID), payload)
	return err
}

// doRequest sends payload as JSON and returns the response body of a 2xx
// answer
func (p *RESTPlatform) doRequest(ctx context.Context, config *RESTConfig, method, url string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("accounting: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("accounting: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.APIKey)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	p.logger.Debug("accounting request",
		zap.String("platform", p.code.String()),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w: HTTP %d%s",
			integration.ErrPlatformRequestFailed, integration.ErrPlatformAuthFailed, resp.StatusCode, detail(body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d%s", integration.ErrPlatformRequestFailed, resp.StatusCode, detail(body))
	}
	return body, nil
}

// detail extracts the platform's error message, if any
func detail(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	if msg == "" {
		return ""
	}
	return " - " + msg
}

// Ensure RESTPlatform implements AccountingPlatform
var _ integration.AccountingPlatform = (*RESTPlatform)(nil)
