package handler

import (
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the aggregated views of the fact store
type ReportHandler struct {
	BaseHandler
	service FinanceService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service FinanceService) *ReportHandler {
	return &ReportHandler{service: service}
}

// DashboardStats godoc
//
//	@Summary		Dashboard statistics
//	@Description	Revenue, expense, profit and receivable totals of the window plus the combined transaction feed
//	@Tags			reports
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200		{object}	APIResponse[report.FinancialSnapshot]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/dashboard/stats [get]
func (h *ReportHandler) DashboardStats(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	stats, err := h.service.GetDashboardStats(c.Request.Context(), p, w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Financial godoc
//
//	@Summary		Financial reports
//	@Description	Profit and loss, cash flow and tax summary of the window
//	@Tags			reports
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200		{object}	APIResponse[report.FinancialReports]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/financial [get]
func (h *ReportHandler) Financial(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	reports, err := h.service.GetFinancialReports(c.Request.Context(), p, w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reports)
}

// Series godoc
//
//	@Summary		Revenue and expense series
//	@Description	One point per period. Without a window the trailing configured number of days is used.
//	@Tags			reports
//	@Produce		json
//	@Param			from		query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to			query		string	false	"Window end (YYYY-MM-DD)"
//	@Param			granularity	query		string	false	"Period length"	Enums(day, week, month)	default(day)
//	@Success		200			{object}	APIResponse[[]report.SeriesPoint]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/series [get]
func (h *ReportHandler) Series(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	points, err := h.service.GetReportSeries(c.Request.Context(), p, w, c.Query("granularity"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, points)
}

// Tax godoc
//
//	@Summary		Tax report
//	@Description	Collected VAT per rate for the window
//	@Tags			reports
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200		{object}	APIResponse[report.TaxReport]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/tax [get]
func (h *ReportHandler) Tax(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	tax, err := h.service.GetTaxReport(c.Request.Context(), p, w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tax)
}

// TopCustomers godoc
//
//	@Summary		Top customers
//	@Description	Customers ranked by invoiced revenue
//	@Tags			reports
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Param			limit	query		int		false	"Number of entries"
//	@Success		200		{object}	APIResponse[[]report.RankedEntry]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/top-customers [get]
func (h *ReportHandler) TopCustomers(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	n, ok := h.queryLimit(c)
	if !ok {
		return
	}
	entries, err := h.service.GetTopCustomers(c.Request.Context(), p, w, n)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// TopItems godoc
//
//	@Summary		Top items
//	@Description	Invoice items ranked by revenue
//	@Tags			reports
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Param			limit	query		int		false	"Number of entries"
//	@Success		200		{object}	APIResponse[[]report.RankedEntry]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reports/top-items [get]
func (h *ReportHandler) TopItems(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	n, ok := h.queryLimit(c)
	if !ok {
		return
	}
	entries, err := h.service.GetTopItems(c.Request.Context(), p, w, n)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
