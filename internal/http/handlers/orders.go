package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"merchantry.io/app/internal/http/middleware"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/shared/apperr"
)

type OrdersHandler struct {
	repo *orders.Repo
}

func NewOrdersHandler(repo *orders.Repo) *OrdersHandler {
	return &OrdersHandler{repo: repo}
}

// Get handles GET /api/stores/:store_id/orders/:id.
func (h *OrdersHandler) Get(c *gin.Context) {
	storeID := c.Param("store_id")
	id := c.Param("id")

	o, items, err := h.repo.GetWithItems(c.Request.Context(), storeID, id)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(200, toOrderResponse(o, items))
}

type orderSummary struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	TotalAmount int64     `json:"totalAmount"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// List handles GET /api/stores/:store_id/orders?customer_id=...&page=...&status=...
func (h *OrdersHandler) List(c *gin.Context) {
	storeID := c.Param("store_id")
	customerID := c.Query("customer_id")
	if customerID == "" {
		middleware.Fail(c, apperr.InvalidErr("customer_id is required.", nil))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	res, err := h.repo.ListByCustomer(c.Request.Context(), orders.ListByCustomerParams{
		StoreID:    storeID,
		CustomerID: customerID,
		Page:       page,
		PageSize:   size,
		Status:     c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]orderSummary, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, orderSummary{
			ID:          it.Order.ID,
			OrderNumber: it.Order.OrderNumber,
			Status:      it.Order.Status,
			Currency:    it.Order.Currency,
			TotalAmount: it.Order.TotalCents,
			ItemCount:   it.Count,
			CreatedAt:   it.Order.CreatedAt,
		})
	}

	c.JSON(200, gin.H{
		"orders": out,
		"total":  res.Total,
		"page":   page,
	})
}
