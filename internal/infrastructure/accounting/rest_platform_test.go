package accounting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestRESTConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RESTConfig
		wantErr error
	}{
		{
			name:   "valid config",
			config: &RESTConfig{BaseURL: "https://ledger.example.com/api", APIKey: "key"},
		},
		{
			name:    "missing base URL",
			config:  &RESTConfig{APIKey: "key"},
			wantErr: ErrRESTConfigMissingBaseURL,
		},
		{
			name:    "relative base URL",
			config:  &RESTConfig{BaseURL: "ledger/api", APIKey: "key"},
			wantErr: ErrRESTConfigInvalidBaseURL,
		},
		{
			name:    "missing API key",
			config:  &RESTConfig{BaseURL: "https://ledger.example.com"},
			wantErr: ErrRESTConfigMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRESTConfig_Endpoint(t *testing.T) {
	c := &RESTConfig{BaseURL: "https://ledger.example.com/api/"}
	assert.Equal(t, "https://ledger.example.com/api/invoices", c.endpoint("invoices"))
	assert.Equal(t, "https://ledger.example.com/api/invoices/a%2Fb", c.endpoint("invoices", "a/b"))
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type ledgerServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newLedgerServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *ledgerServer {
	t.Helper()
	s := &ledgerServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ledgerServer) last() capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestPlatform(t *testing.T, baseURL string) *RESTPlatform {
	t.Helper()
	p, err := NewRESTPlatform("LEDGER", &RESTConfig{BaseURL: baseURL, APIKey: "default-key"},
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return p
}

func TestNewRESTPlatform(t *testing.T) {
	_, err := NewRESTPlatform("bad code", nil)
	assert.ErrorIs(t, err, integration.ErrInvalidPlatformCode)

	_, err = NewRESTPlatform("LEDGER", &RESTConfig{BaseURL: "https://x"})
	assert.ErrorIs(t, err, ErrRESTConfigMissingAPIKey)

	p, err := NewRESTPlatform("LEDGER", nil)
	require.NoError(t, err)
	assert.Equal(t, integration.PlatformCode("LEDGER"), p.Code())
	assert.False(t, p.IsConfigured(uuid.New()))
}

func TestRESTPlatform_TenantConfig(t *testing.T) {
	server := newLedgerServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c-1"}`))
	})
	p, err := NewRESTPlatform("LEDGER", nil)
	require.NoError(t, err)

	tenantID := uuid.New()
	assert.Error(t, p.SetTenantConfig(tenantID, &RESTConfig{}))
	require.NoError(t, p.SetTenantConfig(tenantID, &RESTConfig{BaseURL: server.URL, APIKey: "tenant-key"}))

	assert.True(t, p.IsConfigured(tenantID))
	assert.False(t, p.IsConfigured(uuid.New()))

	id, err := p.CreateCustomer(context.Background(), tenantID, integration.CustomerPayload{Name: "Initech"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
	assert.Equal(t, "Bearer tenant-key", server.last().Auth)

	_, err = p.CreateCustomer(context.Background(), uuid.New(), integration.CustomerPayload{Name: "Initech"})
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
}

func TestRESTPlatform_CreateAndUpdate(t *testing.T) {
	server := newLedgerServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"inv-42"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	p := newTestPlatform(t, server.URL)
	ctx := context.Background()
	tenantID := uuid.New()

	payload := integration.InvoicePayload{
		LocalID: uuid.New(),
		Number:  "INV-202603-00001",
		Total:   decimal.RequireFromString("1180"),
	}
	id, err := p.CreateInvoice(ctx, tenantID, payload)
	require.NoError(t, err)
	assert.Equal(t, "inv-42", id)

	req := server.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/invoices", req.Path)
	assert.Equal(t, "Bearer default-key", req.Auth)
	assert.Equal(t, "INV-202603-00001", req.Body["number"])
	assert.Equal(t, "1180", req.Body["total"])

	require.NoError(t, p.UpdateInvoice(ctx, tenantID, "inv-42", payload))
	req = server.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/invoices/inv-42", req.Path)

	_, err = p.CreateExpense(ctx, tenantID, integration.ExpensePayload{Description: "Rent"})
	require.NoError(t, err)
	assert.Equal(t, "/expenses", server.last().Path)

	require.NoError(t, p.UpdateCustomer(ctx, tenantID, "cus-1", integration.CustomerPayload{Name: "Initech"}))
	assert.Equal(t, "/customers/cus-1", server.last().Path)

	require.NoError(t, p.UpdateExpense(ctx, tenantID, "exp-1", integration.ExpensePayload{}))
	assert.Equal(t, "/expenses/exp-1", server.last().Path)

	assert.ErrorIs(t, p.UpdateExpense(ctx, tenantID, "", integration.ExpensePayload{}), integration.ErrPlatformRequestFailed)
}

func TestRESTPlatform_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		extra   error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`, wantErr: integration.ErrPlatformRequestFailed},
		{name: "validation error", status: http.StatusUnprocessableEntity, body: `{"error":"name required"}`, wantErr: integration.ErrPlatformRequestFailed},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: integration.ErrPlatformRequestFailed, extra: integration.ErrPlatformAuthFailed},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: integration.ErrPlatformInvalidResponse},
		{name: "missing id", status: http.StatusOK, body: `{"id":""}`, wantErr: integration.ErrPlatformInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newLedgerServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			p := newTestPlatform(t, server.URL)

			_, err := p.CreateCustomer(context.Background(), uuid.New(), integration.CustomerPayload{Name: "Initech"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.extra != nil {
				assert.ErrorIs(t, err, tt.extra)
			}
		})
	}
}

func TestRESTPlatform_ErrorMessageIncludesPlatformDetail(t *testing.T) {
	server := newLedgerServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"currency not supported"}`))
	})
	p := newTestPlatform(t, server.URL)

	_, err := p.CreateExpense(context.Background(), uuid.New(), integration.ExpensePayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400 - currency not supported")
}

func TestRESTPlatform_TransportErrors(t *testing.T) {
	t.Run("unreachable host is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		p := newTestPlatform(t, url)
		_, err := p.CreateCustomer(context.Background(), uuid.New(), integration.CustomerPayload{})
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := newLedgerServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		p := newTestPlatform(t, server.URL)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := p.CreateCustomer(ctx, uuid.New(), integration.CustomerPayload{})
		assert.ErrorIs(t, err, integration.ErrPlatformTimeout)
	})
}

func TestNewRegistry(t *testing.T) {
	cfg := config.SyncConfig{
		Enabled: true,
		Platforms: []config.PlatformConfig{
			{Code: "ledger", BaseURL: "https://ledger.example.com", APIKey: "k", Enabled: true},
			{Code: "books", BaseURL: "https://books.example.com", APIKey: "k", Enabled: false},
		},
	}
	registry, err := NewRegistry(cfg, nil)
	require.NoError(t, err)

	platforms := registry.ListPlatforms()
	require.Len(t, platforms, 1)
	assert.Equal(t, integration.PlatformCode("LEDGER"), platforms[0].Code())

	cfg.Enabled = false
	registry, err = NewRegistry(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, registry.ListPlatforms())

	cfg.Enabled = true
	cfg.Platforms[0].APIKey = ""
	_, err = NewRegistry(cfg, nil)
	assert.ErrorIs(t, err, ErrRESTConfigMissingAPIKey)
}
