package handler

import (
	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the accounting platform sync state
type SyncHandler struct {
	BaseHandler
	service FinanceService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service FinanceService) *SyncHandler {
	return &SyncHandler{service: service}
}

// Status godoc
//
//	@Summary		Sync status
//	@Description	How many customers, invoices and expenses of the tenant reached every configured platform
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	APIResponse[appintegration.SyncStatus]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	status, err := h.service.SyncStatus(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Trigger godoc
//
//	@Summary		Trigger sync
//	@Description	Re-pushes every entity that is missing, failed or outdated on a platform. Only one run per tenant at a time.
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	APIResponse[appintegration.TriggerResult]
//	@Failure		409	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/sync/trigger [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.service.TriggerSync(c.Request.Context(), p)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
