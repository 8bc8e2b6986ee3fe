package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appfinance "github.com/erp/fincore/internal/application/finance"
	appintegration "github.com/erp/fincore/internal/application/integration"
	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/domain/report"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/export"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testPrincipal = identity.NewPrincipal(
	uuid.MustParse("00000000-0000-0000-0000-0000000000a1"),
	"owner@example.com",
	false,
	identity.SourceSession,
)

// MockFinanceService is a testify mock of FinanceService
type MockFinanceService struct {
	mock.Mock
}

var _ FinanceService = (*MockFinanceService)(nil)

func (m *MockFinanceService) GetInvoices(ctx context.Context, p identity.Principal, q finance.InvoiceQuery) ([]appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appfinance.InvoiceResponse), args.Error(1)
}

func (m *MockFinanceService) GetInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, id)
	return invoiceResult(args)
}

func (m *MockFinanceService) CreateInvoice(ctx context.Context, p identity.Principal, req appfinance.CreateInvoiceRequest) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, req)
	return invoiceResult(args)
}

func (m *MockFinanceService) UpdateInvoiceItems(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.UpdateInvoiceItemsRequest) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, id, req)
	return invoiceResult(args)
}

func (m *MockFinanceService) SendInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, id)
	return invoiceResult(args)
}

func (m *MockFinanceService) MarkPaid(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.MarkPaidRequest) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, id, req)
	return invoiceResult(args)
}

func (m *MockFinanceService) CancelInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, p, id)
	return invoiceResult(args)
}

func invoiceResult(args mock.Arguments) (*appfinance.InvoiceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.InvoiceResponse), args.Error(1)
}

func (m *MockFinanceService) GetExpenses(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]appfinance.ExpenseResponse, error) {
	args := m.Called(ctx, p, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appfinance.ExpenseResponse), args.Error(1)
}

func (m *MockFinanceService) CreateExpense(ctx context.Context, p identity.Principal, req appfinance.ExpenseRequest) (*appfinance.ExpenseResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ExpenseResponse), args.Error(1)
}

func (m *MockFinanceService) UpdateExpense(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.ExpenseRequest) (*appfinance.ExpenseResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ExpenseResponse), args.Error(1)
}

func (m *MockFinanceService) GetCustomers(ctx context.Context, p identity.Principal, filter shared.Filter) (shared.Paginated[appfinance.CustomerResponse], error) {
	args := m.Called(ctx, p, filter)
	return args.Get(0).(shared.Paginated[appfinance.CustomerResponse]), args.Error(1)
}

func (m *MockFinanceService) CreateCustomer(ctx context.Context, p identity.Principal, req appfinance.CustomerRequest) (*appfinance.CustomerResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CustomerResponse), args.Error(1)
}

func (m *MockFinanceService) UpdateCustomer(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.CustomerRequest) (*appfinance.CustomerResponse, error) {
	args := m.Called(ctx, p, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CustomerResponse), args.Error(1)
}

func (m *MockFinanceService) GetDashboardStats(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialSnapshot, error) {
	args := m.Called(ctx, p, w)
	return args.Get(0).(report.FinancialSnapshot), args.Error(1)
}

func (m *MockFinanceService) GetFinancialReports(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialReports, error) {
	args := m.Called(ctx, p, w)
	return args.Get(0).(report.FinancialReports), args.Error(1)
}

func (m *MockFinanceService) GetReportSeries(ctx context.Context, p identity.Principal, w finance.DateWindow, granularity string) ([]report.SeriesPoint, error) {
	args := m.Called(ctx, p, w, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.SeriesPoint), args.Error(1)
}

func (m *MockFinanceService) GetTopCustomers(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	args := m.Called(ctx, p, w, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.RankedEntry), args.Error(1)
}

func (m *MockFinanceService) GetTopItems(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error) {
	args := m.Called(ctx, p, w, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.RankedEntry), args.Error(1)
}

func (m *MockFinanceService) GetTaxReport(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.TaxReport, error) {
	args := m.Called(ctx, p, w)
	return args.Get(0).(report.TaxReport), args.Error(1)
}

func (m *MockFinanceService) SyncStatus(ctx context.Context, p identity.Principal) (appintegration.SyncStatus, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(appintegration.SyncStatus), args.Error(1)
}

func (m *MockFinanceService) TriggerSync(ctx context.Context, p identity.Principal) (appintegration.TriggerResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(appintegration.TriggerResult), args.Error(1)
}

func (m *MockFinanceService) Export(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (export.File, error) {
	args := m.Called(ctx, p, format, w)
	return args.Get(0).(export.File), args.Error(1)
}

func (m *MockFinanceService) ArchiveExport(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (*appfinance.ArchiveResponse, error) {
	args := m.Called(ctx, p, format, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ArchiveResponse), args.Error(1)
}

// withPrincipal stands in for the identity middleware
func withPrincipal(p identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, p)
		c.Next()
	}
}

func newTestRouter(p identity.Principal) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), withPrincipal(p))
	return r
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			reader = bytes.NewBuffer(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"no identity", shared.ErrNoIdentity, http.StatusUnauthorized, dto.ErrCodeNoIdentity, shared.ErrNoIdentity.Message},
		{"stale write", shared.ErrStaleWrite, http.StatusConflict, dto.ErrCodeConstraintViolation, "Record was modified by another writer"},
		{"store unavailable", shared.ErrStoreUnavailable, http.StatusServiceUnavailable, dto.ErrCodeStoreUnavailable, shared.ErrStoreUnavailable.Message},
		{"invalid input", shared.ErrInvalidInput.WithMessage("bad"), http.StatusBadRequest, dto.ErrCodeInvalidInput, "bad"},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, shared.ErrInvalidState.Message},
		{"sync in progress", shared.ErrSyncInProgress, http.StatusConflict, dto.ErrCodeSyncInProgress, shared.ErrSyncInProgress.Message},
		{"wrapped", errors.Join(errors.New("ctx"), shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.Use(middleware.RequestID())
			r.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doRequest(r, http.MethodGet, "/", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_Window(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantWindow finance.DateWindow
	}{
		{"open", "", http.StatusOK, finance.DateWindow{}},
		{"bounded", "?from=2026-03-01&to=2026-03-31", http.StatusOK, finance.DateWindow{
			From: day("2026-03-01"),
			To:   finance.EndOfDay(day("2026-03-31")),
		}},
		{"from only", "?from=2026-03-01", http.StatusOK, finance.DateWindow{From: day("2026-03-01")}},
		{"bad date", "?from=03/01/2026", http.StatusBadRequest, finance.DateWindow{}},
		{"reversed", "?from=2026-04-01&to=2026-03-01", http.StatusBadRequest, finance.DateWindow{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			var got finance.DateWindow
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				w, ok := h.window(c)
				if !ok {
					return
				}
				got = w
				c.Status(http.StatusOK)
			})

			w := doRequest(r, http.MethodGet, "/"+tt.query, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, tt.wantWindow.From.Equal(got.From))
				assert.True(t, tt.wantWindow.To.Equal(got.To))
			} else {
				assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
			}
		})
	}
}

func TestBaseHandler_MissingPrincipal(t *testing.T) {
	svc := new(MockFinanceService)
	h := NewInvoiceHandler(svc)
	r := gin.New()
	r.GET("/invoices", h.List)

	w := doRequest(r, http.MethodGet, "/invoices", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeNoIdentity, decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "GetInvoices", mock.Anything, mock.Anything, mock.Anything)
}
