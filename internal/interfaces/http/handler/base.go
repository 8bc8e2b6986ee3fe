package handler

import (
	"context"
	"net/http"
	"strconv"
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
)

// DateLayout is the layout of the from/to query parameters
const DateLayout = "2006-01-02"

// FinanceService is the subset of the finance facade the handlers call
type FinanceService interface {
	GetInvoices(ctx context.Context, p identity.Principal, q finance.InvoiceQuery) ([]appfinance.InvoiceResponse, error)
	GetInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error)
	CreateInvoice(ctx context.Context, p identity.Principal, req appfinance.CreateInvoiceRequest) (*appfinance.InvoiceResponse, error)
	UpdateInvoiceItems(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.UpdateInvoiceItemsRequest) (*appfinance.InvoiceResponse, error)
	SendInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error)
	MarkPaid(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.MarkPaidRequest) (*appfinance.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error)

	GetExpenses(ctx context.Context, p identity.Principal, w finance.DateWindow) ([]appfinance.ExpenseResponse, error)
	CreateExpense(ctx context.Context, p identity.Principal, req appfinance.ExpenseRequest) (*appfinance.ExpenseResponse, error)
	UpdateExpense(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.ExpenseRequest) (*appfinance.ExpenseResponse, error)

	GetCustomers(ctx context.Context, p identity.Principal, filter shared.Filter) (shared.Paginated[appfinance.CustomerResponse], error)
	CreateCustomer(ctx context.Context, p identity.Principal, req appfinance.CustomerRequest) (*appfinance.CustomerResponse, error)
	UpdateCustomer(ctx context.Context, p identity.Principal, id uuid.UUID, req appfinance.CustomerRequest) (*appfinance.CustomerResponse, error)

	GetDashboardStats(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialSnapshot, error)
	GetFinancialReports(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.FinancialReports, error)
	GetReportSeries(ctx context.Context, p identity.Principal, w finance.DateWindow, granularity string) ([]report.SeriesPoint, error)
	GetTopCustomers(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error)
	GetTopItems(ctx context.Context, p identity.Principal, w finance.DateWindow, n int) ([]report.RankedEntry, error)
	GetTaxReport(ctx context.Context, p identity.Principal, w finance.DateWindow) (report.TaxReport, error)

	SyncStatus(ctx context.Context, p identity.Principal) (appintegration.SyncStatus, error)
	TriggerSync(ctx context.Context, p identity.Principal) (appintegration.TriggerResult, error)

	Export(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (export.File, error)
	ArchiveExport(ctx context.Context, p identity.Principal, format string, w finance.DateWindow) (*appfinance.ArchiveResponse, error)
}

var _ FinanceService = (*appfinance.Facade)(nil)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts domain errors to HTTP responses. Anything that is not
// a DomainError is reported as an internal error without its message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	code, status, message := dto.ErrorStatus(err)
	h.Error(c, status, code, message)
}

// principal returns the resolved caller or writes a 401 and reports false
func (h *BaseHandler) principal(c *gin.Context) (identity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeNoIdentity, shared.ErrNoIdentity.Message)
		return identity.Principal{}, false
	}
	return p, true
}

// pathID parses the :id path parameter or writes a 400 and reports false
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// window parses the from/to query parameters. Both are optional; an absent
// bound leaves that side open and the services apply their defaults.
func (h *BaseHandler) window(c *gin.Context) (finance.DateWindow, bool) {
	from, ok := h.queryDate(c, "from")
	if !ok {
		return finance.DateWindow{}, false
	}
	to, ok := h.queryDate(c, "to")
	if !ok {
		return finance.DateWindow{}, false
	}
	w, err := finance.NewDateWindow(from, to)
	if err != nil {
		h.HandleError(c, err)
		return finance.DateWindow{}, false
	}
	return w, true
}

func (h *BaseHandler) queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// queryLimit parses an optional positive limit; 0 means the service default
func (h *BaseHandler) queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
