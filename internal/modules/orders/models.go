package orders

import "time"

// Order amounts are copied from the pricing result at commit time and never
// change afterwards, even when catalog prices move. Addresses are snapshots,
// not references.
type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	StoreID     string `gorm:"type:char(36);not null;uniqueIndex:ux_orders_store_number;index:ix_orders_store_id"`
	CustomerID  string `gorm:"type:char(36);not null;index:ix_orders_customer_id"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_store_number"`
	Status      string `gorm:"type:varchar(32);not null"`

	SubtotalCents int64  `gorm:"not null"`
	TaxCents      int64  `gorm:"not null"`
	ShippingCents int64  `gorm:"not null"`
	DiscountCents int64  `gorm:"not null"`
	TotalCents    int64  `gorm:"not null"`
	Currency      string `gorm:"type:char(3);not null"`

	DiscountCode *string `gorm:"type:varchar(64)"`

	ShippingAddressJSON []byte `gorm:"type:json;not null"`
	BillingAddressJSON  []byte `gorm:"type:json"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is an immutable snapshot of name/sku/price/quantity at order
// time, decoupled from future catalog edits.
type OrderItem struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	OrderID   string `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID string `gorm:"type:char(36);not null"`
	VariantID string `gorm:"type:char(36);not null"`

	Name string `gorm:"type:varchar(255);not null"`
	SKU  string `gorm:"type:varchar(64);not null"`

	Quantity       int64 `gorm:"not null"`
	UnitPriceCents int64 `gorm:"not null"`
	SubtotalCents  int64 `gorm:"not null"`
	TaxCents       int64 `gorm:"not null"`
	DiscountCents  int64 `gorm:"not null"`
	TotalCents     int64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderCounter backs the store-scoped human-readable order sequence.
type OrderCounter struct {
	StoreID    string `gorm:"type:char(36);primaryKey"`
	NextNumber int64  `gorm:"not null"`
}

func (OrderCounter) TableName() string { return "order_counters" }
