package handler

import (
	"net/http"
	"testing"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/report"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupReportRouter() (*gin.Engine, *MockFinanceService) {
	svc := new(MockFinanceService)
	h := NewReportHandler(svc)
	r := newTestRouter(testPrincipal)
	r.GET("/dashboard/stats", h.DashboardStats)
	r.GET("/reports/financial", h.Financial)
	r.GET("/reports/series", h.Series)
	r.GET("/reports/tax", h.Tax)
	r.GET("/reports/top-customers", h.TopCustomers)
	r.GET("/reports/top-items", h.TopItems)
	return r, svc
}

func TestReportHandler_DashboardStats(t *testing.T) {
	r, svc := setupReportRouter()
	svc.On("GetDashboardStats", mock.Anything, testPrincipal, finance.DateWindow{}).
		Return(report.FinancialSnapshot{}, nil)

	w := doRequest(r, http.MethodGet, "/dashboard/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
	svc.AssertExpectations(t)
}

func TestReportHandler_Financial_StoreDown(t *testing.T) {
	r, svc := setupReportRouter()
	svc.On("GetFinancialReports", mock.Anything, testPrincipal, mock.Anything).
		Return(report.FinancialReports{}, shared.ErrStoreUnavailable)

	w := doRequest(r, http.MethodGet, "/reports/financial?from=2026-01-01&to=2026-01-31", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReportHandler_Series(t *testing.T) {
	t.Run("passes granularity through", func(t *testing.T) {
		r, svc := setupReportRouter()
		svc.On("GetReportSeries", mock.Anything, testPrincipal, finance.DateWindow{}, "week").
			Return([]report.SeriesPoint{}, nil)

		w := doRequest(r, http.MethodGet, "/reports/series?granularity=week", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown granularity", func(t *testing.T) {
		r, svc := setupReportRouter()
		svc.On("GetReportSeries", mock.Anything, testPrincipal, finance.DateWindow{}, "hour").
			Return(nil, shared.ErrInvalidInput.WithMessage("Unknown granularity: hour"))

		w := doRequest(r, http.MethodGet, "/reports/series?granularity=hour", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
	})
}

func TestReportHandler_Tax(t *testing.T) {
	r, svc := setupReportRouter()
	svc.On("GetTaxReport", mock.Anything, testPrincipal, mock.Anything).Return(report.TaxReport{}, nil)

	w := doRequest(r, http.MethodGet, "/reports/tax", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestReportHandler_Rankings(t *testing.T) {
	t.Run("top customers with limit", func(t *testing.T) {
		r, svc := setupReportRouter()
		svc.On("GetTopCustomers", mock.Anything, testPrincipal, finance.DateWindow{}, 3).
			Return([]report.RankedEntry{{Label: "Acme"}}, nil)

		w := doRequest(r, http.MethodGet, "/reports/top-customers?limit=3", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("top items default limit", func(t *testing.T) {
		r, svc := setupReportRouter()
		svc.On("GetTopItems", mock.Anything, testPrincipal, finance.DateWindow{}, 0).
			Return([]report.RankedEntry{}, nil)

		w := doRequest(r, http.MethodGet, "/reports/top-items", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		r, svc := setupReportRouter()

		w := doRequest(r, http.MethodGet, "/reports/top-items?limit=-1", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetTopItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
