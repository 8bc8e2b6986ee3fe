package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExportHandler renders statements for download or archiving
type ExportHandler struct {
	BaseHandler
	service FinanceService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service FinanceService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Download godoc
//
//	@Summary		Download statement
//	@Description	Renders the transactions of the window as an attachment
//	@Tags			exports
//	@Produce		text/csv
//	@Produce		application/pdf
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			format	path		string	true	"Export format"	Enums(csv, pdf, xlsx)
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports/{format} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), p, c.Param("format"), w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(file.Name)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Archive godoc
//
//	@Summary		Archive statement
//	@Description	Renders the statement, stores it in object storage and returns a time-limited download link
//	@Tags			exports
//	@Produce		json
//	@Param			format	path		string	true	"Export format"	Enums(csv, pdf, xlsx)
//	@Param			from	query		string	false	"Window start (YYYY-MM-DD)"
//	@Param			to		query		string	false	"Window end (YYYY-MM-DD)"
//	@Success		201		{object}	APIResponse[appfinance.ArchiveResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/exports/{format}/archive [post]
func (h *ExportHandler) Archive(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	w, ok := h.window(c)
	if !ok {
		return
	}
	archived, err := h.service.ArchiveExport(c.Request.Context(), p, c.Param("format"), w)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, archived)
}
