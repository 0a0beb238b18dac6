package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantry.io/app/internal/http/middleware"
	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/inventory"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/modules/payments"
	"merchantry.io/app/internal/modules/pricing"
	"merchantry.io/app/internal/shared/apperr"
)

func testEngine(h *CheckoutHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(l))
	r.POST("/api/stores/:store_id/checkout", h.Create)
	return r
}

func TestCheckoutBindErrorRendersFields(t *testing.T) {
	// binding fails before the service is touched, so a nil service is fine
	h := NewCheckoutHandler(nil, nil, nil)
	r := testEngine(h)

	body := `{"customer_id":"","items":[]}`
	req := httptest.NewRequest("POST", "/api/stores/store-1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error     string            `json:"error"`
		RequestID string            `json:"request_id"`
		Fields    map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Contains(t, resp.Fields, "customer_id")
	assert.Contains(t, resp.Fields, "items")
}

func TestCheckoutMalformedJSON(t *testing.T) {
	h := NewCheckoutHandler(nil, nil, nil)
	r := testEngine(h)

	req := httptest.NewRequest("POST", "/api/stores/store-1/checkout", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMapCheckoutError(t *testing.T) {
	cases := []struct {
		name       string
		in         error
		wantStatus int
	}{
		{"validation", &orders.ValidationError{Fields: map[string]string{"items": "required"}}, http.StatusBadRequest},
		{"store not found", catalog.ErrStoreNotFound, http.StatusNotFound},
		{"product not found", &catalog.ProductNotFoundError{StoreID: "s", ProductID: "p"}, http.StatusNotFound},
		{"shipping method", &catalog.InvalidShippingMethodError{StoreID: "s", MethodID: "m"}, http.StatusBadRequest},
		{"insufficient stock", &inventory.InsufficientStockError{}, http.StatusConflict},
		{"currency mismatch", pricing.ErrCurrencyMismatch, http.StatusBadRequest},
		{"intent not found", payments.ErrIntentNotFound, http.StatusBadRequest},
		{"amount mismatch", &payments.ValidationError{Reason: payments.ReasonAmountMismatch}, http.StatusBadRequest},
		{"intent reused", &payments.ValidationError{Reason: payments.ReasonAlreadyUsed}, http.StatusConflict},
		{"duplicate payment", &payments.DuplicatePaymentError{StoreID: "s", GatewayPaymentID: "pi"}, http.StatusConflict},
		{"transient", &orders.TransientError{Err: assert.AnError}, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapCheckoutError(tc.in)
			assert.Equal(t, tc.wantStatus, apperr.HTTPStatus(mapped))
		})
	}
}
