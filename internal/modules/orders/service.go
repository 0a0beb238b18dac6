package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/idempotency"
	"merchantry.io/app/internal/modules/inventory"
	"merchantry.io/app/internal/modules/payments"
	"merchantry.io/app/internal/modules/pricing"
	"merchantry.io/app/pkg/metrics"
)

type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type CreateOrderInput struct {
	StoreID    string
	CustomerID string

	Items            []pricing.LineItem
	ShippingMethodID string
	ShippingAddress  Address
	BillingAddress   *Address

	PaymentIntentID string
	DiscountCode    string
	IdempotencyKey  string
}

type CreateOrderResult struct {
	Order Order
	Items []OrderItem

	DiscountRejected     bool
	DiscountRejectReason string

	// Idempotent marks a replay answered from the cache.
	Idempotent bool
}

// EventPublisher receives post-commit notifications. Implemented by the
// kafka publisher; nil disables publishing.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o Order, items []OrderItem) error
}

// Service is the checkout orchestrator: pricing, payment validation,
// reservation and persistence as one all-or-nothing unit.
type Service struct {
	pricing   *pricing.Calculator
	validator *payments.Validator
	store     Store
	cache     idempotency.Cache
	provider  string

	events  EventPublisher
	metrics *metrics.CheckoutMetrics
	idemTTL time.Duration
}

func NewService(calc *pricing.Calculator, validator *payments.Validator, store Store, cache idempotency.Cache, provider string) *Service {
	return &Service{
		pricing:   calc,
		validator: validator,
		store:     store,
		cache:     cache,
		provider:  provider,
		idemTTL:   idempotency.DefaultTTL,
	}
}

func (s *Service) WithEvents(p EventPublisher) *Service          { s.events = p; return s }
func (s *Service) WithMetrics(m *metrics.CheckoutMetrics) *Service { s.metrics = m; return s }

func (s *Service) WithIdempotencyTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.idemTTL = ttl
	}
	return s
}

// cachedCheckout is the idempotency payload: either a committed order or a
// terminal payment failure. Retryable failures are never cached.
type cachedCheckout struct {
	OrderID   string `json:"order_id,omitempty"`
	ErrKind   string `json:"err_kind,omitempty"` // payment_validation | duplicate_payment
	ErrReason string `json:"err_reason,omitempty"`
	IntentID  string `json:"intent_id,omitempty"`
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	start := time.Now()
	res, err := s.createOrder(ctx, in)
	if s.metrics != nil {
		s.metrics.CheckoutSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		} else if res.Idempotent {
			s.metrics.IdempotentHits.Inc()
		} else {
			s.metrics.OrdersCreated.WithLabelValues(in.StoreID).Inc()
		}
	}
	return res, err
}

func (s *Service) createOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := validateInput(in); err != nil {
		return CreateOrderResult{}, err
	}
	idemKey := strings.TrimSpace(in.IdempotencyKey)

	// Replay short-circuit. Expired or missing entries fall through to the
	// full path; the unique payment index is the backstop either way.
	if idemKey != "" && s.cache != nil {
		if res, err, hit := s.replay(ctx, in.StoreID, idemKey); hit {
			return res, err
		}
	}

	priced, err := s.pricing.Calculate(ctx, in.StoreID, in.Items, in.ShippingMethodID, in.DiscountCode)
	if err != nil {
		return CreateOrderResult{}, err
	}

	val, err := s.validator.ValidatePaymentIntent(ctx, in.StoreID, in.PaymentIntentID, priced.GrandTotalCents, priced.Currency, idemKey)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if !val.IsValid {
		verr := &payments.ValidationError{PaymentIntentID: in.PaymentIntentID, Reason: val.Reason}
		s.cacheTerminal(ctx, in.StoreID, idemKey, cachedCheckout{
			ErrKind:   "payment_validation",
			ErrReason: val.Reason,
			IntentID:  in.PaymentIntentID,
		})
		return CreateOrderResult{}, verr
	}

	shipJSON, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return CreateOrderResult{}, err
	}
	var billJSON []byte
	if in.BillingAddress != nil {
		if billJSON, err = json.Marshal(in.BillingAddress); err != nil {
			return CreateOrderResult{}, err
		}
	}

	ord, items, err := s.store.CreateOrderGraph(ctx, CreateGraphInput{
		StoreID:             in.StoreID,
		CustomerID:          in.CustomerID,
		Pricing:             priced,
		GatewayPaymentID:    in.PaymentIntentID,
		Provider:            s.provider,
		ShippingAddressJSON: shipJSON,
		BillingAddressJSON:  billJSON,
	})
	if err != nil {
		var dup *payments.DuplicatePaymentError
		if errors.As(err, &dup) {
			s.cacheTerminal(ctx, in.StoreID, idemKey, cachedCheckout{
				ErrKind:   "duplicate_payment",
				ErrReason: payments.ReasonAlreadyUsed,
				IntentID:  in.PaymentIntentID,
			})
		}
		return CreateOrderResult{}, err
	}

	s.cacheTerminal(ctx, in.StoreID, idemKey, cachedCheckout{OrderID: ord.ID})

	if s.events != nil {
		if err := s.events.OrderCreated(ctx, ord, items); err != nil {
			// post-commit: the order is durable, publishing is not load-bearing
			log.Printf("CreateOrder: order.created publish failed for %s: %v", ord.ID, err)
		}
	}

	return CreateOrderResult{
		Order:                ord,
		Items:                items,
		DiscountRejected:     priced.DiscountRejected,
		DiscountRejectReason: priced.DiscountRejectReason,
	}, nil
}

func (s *Service) replay(ctx context.Context, storeID, idemKey string) (CreateOrderResult, error, bool) {
	raw, err := s.cache.Get(ctx, idempotency.OpCheckout, storeID, idemKey)
	if err != nil {
		log.Printf("CreateOrder: idempotency read failed for store %s: %v", storeID, err)
		return CreateOrderResult{}, nil, false
	}
	if raw == nil {
		return CreateOrderResult{}, nil, false
	}

	var cc cachedCheckout
	if err := json.Unmarshal(raw, &cc); err != nil {
		log.Printf("CreateOrder: bad idempotency payload for store %s: %v", storeID, err)
		return CreateOrderResult{}, nil, false
	}

	switch {
	case cc.OrderID != "":
		ord, items, err := s.store.GetOrderWithItems(ctx, storeID, cc.OrderID)
		if err != nil {
			log.Printf("CreateOrder: cached order %s unreadable: %v", cc.OrderID, err)
			return CreateOrderResult{}, nil, false
		}
		return CreateOrderResult{Order: ord, Items: items, Idempotent: true}, nil, true
	case cc.ErrKind == "duplicate_payment":
		return CreateOrderResult{}, &payments.DuplicatePaymentError{StoreID: storeID, GatewayPaymentID: cc.IntentID}, true
	case cc.ErrKind == "payment_validation":
		return CreateOrderResult{}, &payments.ValidationError{PaymentIntentID: cc.IntentID, Reason: cc.ErrReason}, true
	}
	return CreateOrderResult{}, nil, false
}

func (s *Service) cacheTerminal(ctx context.Context, storeID, idemKey string, cc cachedCheckout) {
	if idemKey == "" || s.cache == nil {
		return
	}
	raw, err := json.Marshal(cc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, idempotency.OpCheckout, storeID, idemKey, raw, s.idemTTL); err != nil {
		log.Printf("CreateOrder: idempotency write failed for store %s: %v", storeID, err)
	}
}

func validateInput(in CreateOrderInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.StoreID) == "" {
		fields["store_id"] = "required"
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		fields["customer_id"] = "required"
	}
	if len(in.Items) == 0 {
		fields["items"] = "at least one line item required"
	}
	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			fields["items"] = "line item missing product id"
		}
		if it.Quantity < 1 || it.Quantity > pricing.MaxLineQuantity {
			fields["items"] = "line item quantity out of range"
		}
	}
	if strings.TrimSpace(in.ShippingMethodID) == "" {
		fields["shipping_method_id"] = "required"
	}
	if strings.TrimSpace(in.PaymentIntentID) == "" {
		fields["payment_intent_id"] = "required"
	}

	addr := in.ShippingAddress
	switch {
	case strings.TrimSpace(addr.FirstName) == "", strings.TrimSpace(addr.LastName) == "",
		strings.TrimSpace(addr.Address1) == "", strings.TrimSpace(addr.City) == "",
		strings.TrimSpace(addr.PostalCode) == "", strings.TrimSpace(addr.Country) == "":
		fields["shipping_address"] = "incomplete address"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func failureReason(err error) string {
	var (
		verr  *ValidationError
		pnf   *catalog.ProductNotFoundError
		ship  *catalog.InvalidShippingMethodError
		stock *inventory.InsufficientStockError
		pverr *payments.ValidationError
		dup   *payments.DuplicatePaymentError
		trans *TransientError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &pnf):
		return "product_not_found"
	case errors.As(err, &ship):
		return "shipping_method"
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.As(err, &pverr):
		return "payment_validation"
	case errors.As(err, &dup):
		return "duplicate_payment"
	case errors.As(err, &trans):
		return "transient"
	default:
		return "internal"
	}
}
