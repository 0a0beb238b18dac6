package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"merchantry.io/app/internal/shared/slug"
)

// SaleItem is the sellable view of a product/variant the pricing calculator
// and inventory reservation work from.
type SaleItem struct {
	ProductID      string
	VariantID      string
	Name           string
	SKU            string
	UnitPriceCents int64
	Currency       string
	Stock          int64
	TrackInventory bool
}

// Reader is the catalog surface the checkout core consumes. The gorm Repo is
// the production implementation; tests substitute their own.
type Reader interface {
	GetStore(ctx context.Context, storeID string) (Store, error)
	GetSaleItem(ctx context.Context, storeID, productID, variantID string) (SaleItem, error)
	GetShippingMethod(ctx context.Context, storeID, methodID string) (ShippingMethod, error)
	GetDiscountCode(ctx context.Context, storeID, code string) (DiscountCode, error)
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

func (r *Repo) GetStore(ctx context.Context, storeID string) (Store, error) {
	var s Store
	err := r.db.WithContext(ctx).First(&s, "id = ?", storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Store{}, ErrStoreNotFound
	}
	return s, err
}

type saleRow struct {
	ProductID      string `gorm:"column:product_id"`
	VariantID      string `gorm:"column:variant_id"`
	Name           string `gorm:"column:name"`
	SKU            string `gorm:"column:sku"`
	PriceCents     int64  `gorm:"column:price_cents"`
	Currency       string `gorm:"column:currency"`
	Stock          int64  `gorm:"column:stock"`
	TrackInventory bool   `gorm:"column:track_inventory"`
}

// GetSaleItem resolves a product (+ optional variant) inside one store's
// catalog. variantID == "" picks the product's oldest variant.
func (r *Repo) GetSaleItem(ctx context.Context, storeID, productID, variantID string) (SaleItem, error) {
	q := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select(`p.id AS product_id,
			v.id AS variant_id,
			p.name AS name,
			v.sku AS sku,
			v.price_cents AS price_cents,
			v.currency AS currency,
			v.stock AS stock,
			v.track_inventory AS track_inventory`).
		Joins("JOIN products p ON p.id = v.product_id").
		Where("p.store_id = ? AND p.id = ? AND p.status = ?", storeID, productID, "active")

	if variantID != "" {
		q = q.Where("v.id = ?", variantID)
	} else {
		q = q.Order("v.created_at ASC")
	}

	var row saleRow
	err := q.Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SaleItem{}, &ProductNotFoundError{StoreID: storeID, ProductID: productID, VariantID: variantID}
	}
	if err != nil {
		return SaleItem{}, err
	}

	return SaleItem{
		ProductID:      row.ProductID,
		VariantID:      row.VariantID,
		Name:           row.Name,
		SKU:            row.SKU,
		UnitPriceCents: row.PriceCents,
		Currency:       strings.ToUpper(row.Currency),
		Stock:          row.Stock,
		TrackInventory: row.TrackInventory,
	}, nil
}

func (r *Repo) GetShippingMethod(ctx context.Context, storeID, methodID string) (ShippingMethod, error) {
	var m ShippingMethod
	err := r.db.WithContext(ctx).
		First(&m, "id = ? AND store_id = ? AND active = ?", methodID, storeID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ShippingMethod{}, &InvalidShippingMethodError{StoreID: storeID, MethodID: methodID}
	}
	return m, err
}

func (r *Repo) GetDiscountCode(ctx context.Context, storeID, code string) (DiscountCode, error) {
	var d DiscountCode
	err := r.db.WithContext(ctx).
		First(&d, "store_id = ? AND code = ?", storeID, strings.ToUpper(strings.TrimSpace(code))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DiscountCode{}, ErrDiscountNotFound
	}
	return d, err
}

// --- admin-side writes, used by the createtable seed and store tooling ---

func (r *Repo) CreateStore(ctx context.Context, name, storeSlug, currency string, taxRateBps int64) (Store, error) {
	if storeSlug == "" {
		storeSlug = slug.FromName(name)
	}
	s := Store{
		ID:         uuid.NewString(),
		Name:       name,
		Slug:       storeSlug,
		Currency:   strings.ToUpper(currency),
		TaxRateBps: taxRateBps,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return Store{}, err
	}
	return s, nil
}

func (r *Repo) CreateProduct(ctx context.Context, storeID, name, productSlug, status string) (Product, error) {
	if productSlug == "" {
		productSlug = slug.FromName(name)
	}
	p := Product{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Name:      name,
		Slug:      productSlug,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) AddVariant(ctx context.Context, productID, sku string, priceCents int64, currency string, stock int64, trackInventory bool) (Variant, error) {
	v := Variant{
		ID:             uuid.NewString(),
		ProductID:      productID,
		SKU:            sku,
		PriceCents:     priceCents,
		Currency:       strings.ToUpper(currency),
		Stock:          stock,
		TrackInventory: trackInventory,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return Variant{}, err
	}
	return v, nil
}

func (r *Repo) AddShippingMethod(ctx context.Context, storeID, code, label string, costCents int64) (ShippingMethod, error) {
	m := ShippingMethod{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Code:      code,
		Label:     label,
		CostCents: costCents,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return ShippingMethod{}, err
	}
	return m, nil
}

func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
