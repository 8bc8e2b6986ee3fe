package handler

import (
	"context"
	"net/http"
	"strings"

	appfinance "github.com/erp/fincore/internal/application/finance"
	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/identity"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	service FinanceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service FinanceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// List godoc
//
//	@Summary		List invoices
//	@Description	Invoices of the caller's tenant issued inside the window, newest first. Status filters on the effective status, so OVERDUE is accepted.
//	@Tags			invoices
//	@Produce		json
//	@Param			from		query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to			query		string	false	"Window end (YYYY-MM-DD)"
//	@Param			status		query		string	false	"Effective status"	Enums(DRAFT, SENT, PAID, OVERDUE, CANCELLED)
//	@Param			customer_id	query		string	false	"Customer ID"
//	@Success		200			{object}	APIResponse[[]appfinance.InvoiceResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	q := finance.InvoiceQuery{Window: w}
	if raw := c.Query("status"); raw != "" {
		status := finance.InvoiceStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Unknown invoice status: "+raw)
			return
		}
		q.Status = status
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id format")
			return
		}
		q.CustomerID = id
	}

	invoices, err := h.service.GetInvoices(c.Request.Context(), p, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// Get godoc
//
//	@Summary		Get invoice
//	@Description	One invoice with its items and integrity warning, if any
//	@Tags			invoices
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"	format(uuid)
//	@Success		200	{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	inv, err := h.service.GetInvoice(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Create godoc
//
//	@Summary		Create invoice
//	@Description	Drafts an invoice. An unknown customer_name creates the customer. The invoice is mirrored to accounting platforms after commit.
//	@Tags			invoices
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appfinance.CreateInvoiceRequest	true	"Invoice"
//	@Success		201		{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req appfinance.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	inv, err := h.service.CreateInvoice(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// UpdateItems godoc
//
//	@Summary		Replace invoice items
//	@Description	Replaces the lines of a draft invoice and recomputes its totals. A non-zero version must match the stored one.
//	@Tags			invoices
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Invoice ID"	format(uuid)
//	@Param			request	body		appfinance.UpdateInvoiceItemsRequest	true	"Items"
//	@Success		200		{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices/{id} [put]
func (h *InvoiceHandler) UpdateItems(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appfinance.UpdateInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}
	inv, err := h.service.UpdateInvoiceItems(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Send godoc
//
//	@Summary		Send invoice
//	@Description	Moves a draft invoice to SENT
//	@Tags			invoices
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"	format(uuid)
//	@Success		200	{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.act(c, h.service.SendInvoice)
}

// Cancel godoc
//
//	@Summary		Cancel invoice
//	@Description	Cancels an unpaid invoice
//	@Tags			invoices
//	@Produce		json
//	@Param			id	path		string	true	"Invoice ID"	format(uuid)
//	@Success		200	{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.act(c, h.service.CancelInvoice)
}

// Pay godoc
//
//	@Summary		Mark invoice paid
//	@Description	Settles a sent or overdue invoice. The amount must equal the total; zero or absent means the full total.
//	@Tags			invoices
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Invoice ID"	format(uuid)
//	@Param			request	body		appfinance.MarkPaidRequest	false	"Payment"
//	@Success		200		{object}	APIResponse[appfinance.InvoiceResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appfinance.MarkPaidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithBindError(c, err)
			return
		}
	}
	inv, err := h.service.MarkPaid(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

type invoiceAction func(ctx context.Context, p identity.Principal, id uuid.UUID) (*appfinance.InvoiceResponse, error)

func (h *InvoiceHandler) act(c *gin.Context, action invoiceAction) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	inv, err := action(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}
