package catalog

import "time"

type Store struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Slug       string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_stores_slug"`
	Currency   string    `gorm:"type:char(3);not null"`
	TaxRateBps int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt  time.Time `gorm:"type:datetime(3);not null"`
}

func (Store) TableName() string { return "stores" }

type Product struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	StoreID   string    `gorm:"type:char(36);not null;index:ix_products_store_id"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Slug      string    `gorm:"type:varchar(255);not null"`
	Status    string    `gorm:"type:varchar(32);not null"` // draft|active|archived
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`

	Variants []Variant `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

type Variant struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	ProductID      string    `gorm:"type:char(36);not null;index:ix_variants_product_id"`
	SKU            string    `gorm:"type:varchar(64);not null"`
	PriceCents     int64     `gorm:"not null"`
	Currency       string    `gorm:"type:char(3);not null"`
	Stock          int64     `gorm:"not null;default:0"`
	TrackInventory bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (Variant) TableName() string { return "product_variants" }

type ShippingMethod struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	StoreID   string    `gorm:"type:char(36);not null;index:ix_shipping_methods_store_id"`
	Code      string    `gorm:"type:varchar(32);not null"`
	Label     string    `gorm:"type:varchar(255);not null"`
	CostCents int64     `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (ShippingMethod) TableName() string { return "shipping_methods" }

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

type DiscountCode struct {
	ID               string     `gorm:"type:char(36);primaryKey"`
	StoreID          string     `gorm:"type:char(36);not null;uniqueIndex:ux_discounts_store_code"`
	Code             string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_discounts_store_code"`
	Kind             string     `gorm:"type:varchar(16);not null"` // percent|fixed
	Value            int64      `gorm:"not null"`                  // percent: whole percent, fixed: cents
	MinSubtotalCents int64      `gorm:"not null;default:0"`
	UsageLimit       int64      `gorm:"not null;default:0"` // 0 = unlimited
	UsedCount        int64      `gorm:"not null;default:0"`
	ExpiresAt        *time.Time `gorm:"type:datetime(3)"`
	Active           bool       `gorm:"not null;default:true"`
	CreatedAt        time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt        time.Time  `gorm:"type:datetime(3);not null"`
}

func (DiscountCode) TableName() string { return "discount_codes" }
