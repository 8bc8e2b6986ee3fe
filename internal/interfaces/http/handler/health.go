package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthPingTimeout bounds the database ping of a health check
const HealthPingTimeout = 2 * time.Second

// Pinger reports whether the fact store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db      Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler. A nil db reports the
// database as not configured.
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health godoc
//
//	@Summary		Health check
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	APIResponse[HealthData]
//	@Failure		503	{object}	APIResponse[HealthData]
//	@Router			/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	data := HealthData{Status: "healthy", Database: "up", Version: h.version}
	if h.db == nil {
		data.Database = "not_configured"
		c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthPingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		logger.FromGin(c).Warn("Health check failed", zap.Error(err))
		data.Status = "unhealthy"
		data.Database = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: data})
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}
