package payments

import "time"

const (
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

// Payment is the record that claims a gateway payment intent for an order.
// The (store_id, gateway_payment_id) unique index is the authoritative
// single-use guard: two orders can never reference the same intent within a
// store, whatever the validator saw earlier.
type Payment struct {
	ID               string    `gorm:"type:char(36);primaryKey"`
	StoreID          string    `gorm:"type:char(36);not null;uniqueIndex:ux_payments_store_intent"`
	OrderID          string    `gorm:"type:char(36);not null;index:ix_payments_order_id"`
	Provider         string    `gorm:"type:varchar(64);not null"`
	GatewayPaymentID string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_payments_store_intent"`
	Status           string    `gorm:"type:varchar(32);not null"`
	AmountCents      int64     `gorm:"not null"`
	Currency         string    `gorm:"type:char(3);not null"`
	CreatedAt        time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt        time.Time `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "payments" }
