package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"merchantry.io/app/internal/http/middleware"
	"merchantry.io/app/internal/http/validation"
	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/email"
	"merchantry.io/app/internal/modules/idempotency"
	"merchantry.io/app/internal/modules/inventory"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/modules/payments"
	"merchantry.io/app/internal/modules/pricing"
	"merchantry.io/app/internal/modules/receipts"
	"merchantry.io/app/internal/shared/apperr"
)

type CheckoutHandler struct {
	svc      *orders.Service
	receipts *receipts.Service
	mail     *email.ConfirmationService
}

func NewCheckoutHandler(svc *orders.Service, rcpt *receipts.Service, mail *email.ConfirmationService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, receipts: rcpt, mail: mail}
}

type checkoutLine struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

type checkoutAddress struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Address1   string `json:"address1" binding:"required"`
	Address2   string `json:"address2"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone"`
}

type checkoutRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`

	Items            []checkoutLine  `json:"items" binding:"required,min=1,dive"`
	ShippingMethodID string          `json:"shipping_method_id" binding:"required"`
	ShippingAddress  checkoutAddress `json:"shipping_address" binding:"required"`
	BillingAddress   *checkoutAddress `json:"billing_address"`

	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	DiscountCode    string `json:"discount_code"`
}

type orderItemResponse struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Total     int64  `json:"total"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"orderNumber"`
	Status         string              `json:"status"`
	Currency       string              `json:"currency"`
	Subtotal       int64               `json:"subtotal"`
	TaxAmount      int64               `json:"taxAmount"`
	ShippingAmount int64               `json:"shippingAmount"`
	DiscountAmount int64               `json:"discountAmount"`
	TotalAmount    int64               `json:"totalAmount"`
	Items          []orderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"createdAt"`

	DiscountRejected     bool   `json:"discountRejected,omitempty"`
	DiscountRejectReason string `json:"discountRejectReason,omitempty"`
	Idempotent           bool   `json:"idempotent,omitempty"`
}

func toOrderResponse(o orders.Order, items []orders.OrderItem) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		Currency:       o.Currency,
		Subtotal:       o.SubtotalCents,
		TaxAmount:      o.TaxCents,
		ShippingAmount: o.ShippingCents,
		DiscountAmount: o.DiscountCents,
		TotalAmount:    o.TotalCents,
		CreatedAt:      o.CreatedAt,
		Items:          make([]orderItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPriceCents,
			Total:     it.TotalCents,
		})
	}
	return resp
}

// Create handles POST /api/stores/:store_id/checkout.
func (h *CheckoutHandler) Create(c *gin.Context) {
	storeID := c.Param("store_id")

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := validation.FromBindError(err, &req)
		middleware.Fail(c, apperr.InvalidErr("Request is invalid.", fields))
		return
	}

	in := orders.CreateOrderInput{
		StoreID:          storeID,
		CustomerID:       req.CustomerID,
		ShippingMethodID: req.ShippingMethodID,
		PaymentIntentID:  req.PaymentIntentID,
		DiscountCode:     req.DiscountCode,
		IdempotencyKey:   c.GetHeader(idempotency.Header),
		ShippingAddress:  toAddress(req.ShippingAddress),
	}
	if req.BillingAddress != nil {
		b := toAddress(*req.BillingAddress)
		in.BillingAddress = &b
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, pricing.LineItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	res, err := h.svc.CreateOrder(c.Request.Context(), in)
	if err != nil {
		middleware.Fail(c, mapCheckoutError(err))
		return
	}

	// Post-commit extras. The order is durable; these only log on failure.
	if !res.Idempotent {
		receiptURL := ""
		if h.receipts != nil {
			if url, err := h.receipts.Generate(c.Request.Context(), &res.Order, res.Items); err == nil {
				receiptURL = url
			} else {
				log.Printf("checkout: receipt generation failed for %s: %v", res.Order.ID, err)
			}
		}
		if h.mail != nil && req.CustomerEmail != "" {
			_ = h.mail.SendOrderConfirmation(c.Request.Context(), req.CustomerEmail, &res.Order, res.Items, receiptURL)
		}
	}

	resp := toOrderResponse(res.Order, res.Items)
	resp.DiscountRejected = res.DiscountRejected
	resp.DiscountRejectReason = res.DiscountRejectReason
	resp.Idempotent = res.Idempotent

	status := http.StatusCreated
	if res.Idempotent {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func toAddress(a checkoutAddress) orders.Address {
	return orders.Address{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func mapCheckoutError(err error) error {
	var (
		verr  *orders.ValidationError
		pnf   *catalog.ProductNotFoundError
		ship  *catalog.InvalidShippingMethodError
		stock *inventory.InsufficientStockError
		pverr *payments.ValidationError
		dup   *payments.DuplicatePaymentError
		trans *orders.TransientError
	)
	var qty *pricing.InvalidQuantityError
	switch {
	case errors.As(err, &verr):
		return apperr.InvalidErr("Request is invalid.", verr.Fields)
	case errors.Is(err, catalog.ErrStoreNotFound):
		return apperr.NotFoundErr("Store not found.")
	case errors.As(err, &pnf):
		return apperr.NotFoundErr("Product not found.")
	case errors.As(err, &ship):
		return apperr.InvalidErr("Shipping method is not available.", nil)
	case errors.Is(err, pricing.ErrNoLineItems), errors.As(err, &qty):
		return apperr.InvalidErr("Request is invalid.", nil)
	case errors.Is(err, pricing.ErrCurrencyMismatch):
		return apperr.InvalidErr("Item currency does not match the store currency.", nil)
	case errors.Is(err, payments.ErrIntentNotFound):
		return apperr.InvalidErr("Payment intent not found.", nil)
	case errors.As(err, &stock):
		return apperr.ConflictErr("Some items are no longer in stock.")
	case errors.As(err, &pverr):
		if pverr.Reason == payments.ReasonAlreadyUsed {
			return apperr.ConflictErr("Payment intent has already been used.")
		}
		return apperr.InvalidErr("Payment could not be validated: "+pverr.Reason+".", nil)
	case errors.As(err, &dup):
		return apperr.ConflictErr("Payment intent has already been used.")
	case errors.As(err, &trans):
		return apperr.UnavailableErr("Checkout is temporarily unavailable. Retry with the same Idempotency-Key.")
	default:
		return apperr.Wrap(err)
	}
}
