package handler

import (
	"net/http"
	"testing"

	appintegration "github.com/erp/fincore/internal/application/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupSyncRouter() (*gin.Engine, *MockFinanceService) {
	svc := new(MockFinanceService)
	h := NewSyncHandler(svc)
	r := newTestRouter(testPrincipal)
	r.GET("/sync/status", h.Status)
	r.POST("/sync/trigger", h.Trigger)
	return r, svc
}

func TestSyncHandler_Status(t *testing.T) {
	r, svc := setupSyncRouter()
	svc.On("SyncStatus", mock.Anything, testPrincipal).Return(appintegration.SyncStatus{}, nil)

	w := doRequest(r, http.MethodGet, "/sync/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSyncHandler_Trigger(t *testing.T) {
	t.Run("runs", func(t *testing.T) {
		r, svc := setupSyncRouter()
		svc.On("TriggerSync", mock.Anything, testPrincipal).
			Return(appintegration.TriggerResult{Pushed: 4}, nil)

		w := doRequest(r, http.MethodPost, "/sync/trigger", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, float64(4), data["pushed"])
	})

	t.Run("already running", func(t *testing.T) {
		r, svc := setupSyncRouter()
		svc.On("TriggerSync", mock.Anything, testPrincipal).
			Return(appintegration.TriggerResult{}, shared.ErrSyncInProgress)

		w := doRequest(r, http.MethodPost, "/sync/trigger", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeSyncInProgress, decodeResponse(t, w).Error.Code)
	})
}
