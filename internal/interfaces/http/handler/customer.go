package handler

import (
	"net/http"

	appfinance "github.com/erp/fincore/internal/application/finance"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	service FinanceService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service FinanceService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// List godoc
//
//	@Summary		List customers
//	@Description	Paginated customers of the caller's tenant
//	@Tags			customers
//	@Produce		json
//	@Param			search		query		string	false	"Search by name or email"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_by	query		string	false	"Order by field"	default(created_at)
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)	default(desc)
//	@Success		200			{object}	APIResponse[[]appfinance.CustomerResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	page, err := h.service.GetCustomers(c.Request.Context(), p, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Create godoc
//
//	@Summary		Create customer
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appfinance.CustomerRequest	true	"Customer"
//	@Success		201		{object}	APIResponse[appfinance.CustomerResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req appfinance.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	cust, err := h.service.CreateCustomer(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cust)
}

// Update godoc
//
//	@Summary		Update customer
//	@Description	Replaces a customer. A non-zero version must match the stored one.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Customer ID"	format(uuid)
//	@Param			request	body		appfinance.CustomerRequest	true	"Customer"
//	@Success		200		{object}	APIResponse[appfinance.CustomerResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appfinance.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	cust, err := h.service.UpdateCustomer(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cust)
}
