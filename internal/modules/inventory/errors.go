package inventory

import "fmt"

type InsufficientItem struct {
	ProductID string
	VariantID string
	Requested int64
	Available int64
}

type InsufficientStockError struct {
	Items []InsufficientItem
}

func (e *InsufficientStockError) Error() string {
	if len(e.Items) == 0 {
		return "insufficient stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("insufficient stock: product=%s variant=%s requested=%d available=%d",
		it.ProductID, it.VariantID, it.Requested, it.Available)
}
