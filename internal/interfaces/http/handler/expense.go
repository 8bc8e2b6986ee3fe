package handler

import (
	appfinance "github.com/erp/fincore/internal/application/finance"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles expense endpoints
type ExpenseHandler struct {
	BaseHandler
	service FinanceService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service FinanceService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// List godoc
//
//	@Summary		List expenses
//	@Description	Expenses of the caller's tenant paid inside the window, newest first
//	@Tags			expenses
//	@Produce		json
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200		{object}	APIResponse[[]appfinance.ExpenseResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	expenses, err := h.service.GetExpenses(c.Request.Context(), p, w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expenses)
}

// Create godoc
//
//	@Summary		Create expense
//	@Description	Records an expense and mirrors it to accounting platforms after commit
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appfinance.ExpenseRequest	true	"Expense"
//	@Success		201		{object}	APIResponse[appfinance.ExpenseResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req appfinance.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	e, err := h.service.CreateExpense(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, e)
}

// Update godoc
//
//	@Summary		Update expense
//	@Description	Replaces an expense. A non-zero version must match the stored one.
//	@Tags			expenses
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Expense ID"	format(uuid)
//	@Param			request	body		appfinance.ExpenseRequest	true	"Expense"
//	@Success		200		{object}	APIResponse[appfinance.ExpenseResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appfinance.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	e, err := h.service.UpdateExpense(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, e)
}
