package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/fincore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Name     string          `json:"name" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"gt=0"`
}

type invoiceInput struct {
	CustomerName string      `json:"customer_name" binding:"required,max=10"`
	Currency     string      `json:"currency" binding:"omitempty,len=3"`
	Items        []lineInput `json:"items" binding:"required,min=1,dive"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req invoiceInput
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithBindError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.CustomerName))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAbortWithBindError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports every failed field", func(t *testing.T) {
		w := postJSON(router, `{"customer_name":"Initech Corporation","currency":"EURO","items":[{"name":"","quantity":"0"}]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-42", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be at most 10 characters", fields["customer_name"])
		assert.Equal(t, "Must be exactly 3 characters", fields["currency"])
		assert.Equal(t, "This field is required", fields["items[0].name"])
		assert.Equal(t, "Must be greater than 0", fields["items[0].quantity"])
	})

	t.Run("empty items", func(t *testing.T) {
		w := postJSON(router, `{"customer_name":"Initech","items":[]}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Must contain at least 1 item(s)")
	})

	t.Run("malformed JSON is invalid input", func(t *testing.T) {
		w := postJSON(router, `{"customer_name":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidInput)
	})

	t.Run("valid input passes", func(t *testing.T) {
		w := postJSON(router, `{"customer_name":"Initech","currency":"EUR","items":[{"name":"Widget","quantity":"2"}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
