package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrNoLineItems      = errors.New("checkout has no line items")
	ErrCurrencyMismatch = errors.New("currency mismatch in checkout")
)

type InvalidQuantityError struct {
	ProductID string
	Quantity  int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}
