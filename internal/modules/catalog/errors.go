package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrDiscountNotFound = errors.New("discount code not found")
)

// ProductNotFoundError: the requested product/variant does not resolve inside
// the store's catalog. A product ID that exists in another store must still
// produce this error (tenant boundary).
type ProductNotFoundError struct {
	StoreID   string
	ProductID string
	VariantID string
}

func (e *ProductNotFoundError) Error() string {
	if e.VariantID != "" {
		return fmt.Sprintf("product not found: store=%s product=%s variant=%s", e.StoreID, e.ProductID, e.VariantID)
	}
	return fmt.Sprintf("product not found: store=%s product=%s", e.StoreID, e.ProductID)
}

type InvalidShippingMethodError struct {
	StoreID  string
	MethodID string
}

func (e *InvalidShippingMethodError) Error() string {
	return fmt.Sprintf("invalid shipping method: store=%s method=%s", e.StoreID, e.MethodID)
}
