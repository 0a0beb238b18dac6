package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/storage"
)

// Service writes an immutable JSON snapshot of a completed order to blob
// storage. The snapshot is what the customer sees in the confirmation email;
// it never changes when the catalog does.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

type receiptLine struct {
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	TotalCents     int64  `json:"totalCents"`
}

type receipt struct {
	OrderID       string        `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	StoreID       string        `json:"storeId"`
	Currency      string        `json:"currency"`
	SubtotalCents int64         `json:"subtotalCents"`
	TaxCents      int64         `json:"taxCents"`
	ShippingCents int64         `json:"shippingCents"`
	DiscountCents int64         `json:"discountCents"`
	TotalCents    int64         `json:"totalCents"`
	Lines         []receiptLine `json:"lines"`
	IssuedAt      time.Time     `json:"issuedAt"`
}

// Generate stores the receipt and returns its public URL.
func (s *Service) Generate(ctx context.Context, o *orders.Order, items []orders.OrderItem) (string, error) {
	if s == nil || s.store == nil {
		return "", nil
	}

	r := receipt{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		StoreID:       o.StoreID,
		Currency:      o.Currency,
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		ShippingCents: o.ShippingCents,
		DiscountCents: o.DiscountCents,
		TotalCents:    o.TotalCents,
		IssuedAt:      time.Now().UTC(),
	}
	for _, it := range items {
		r.Lines = append(r.Lines, receiptLine{
			Name:           it.Name,
			SKU:            it.SKU,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     it.TotalCents,
		})
	}

	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("receipt marshal failed: %w", err)
	}

	res, err := s.store.Put(ctx, bytes.NewReader(raw), storage.PutInput{
		Filename:    fmt.Sprintf("%s.json", o.OrderNumber),
		ContentType: "application/json",
		Size:        int64(len(raw)),
	})
	if err != nil {
		return "", fmt.Errorf("receipt store failed: %w", err)
	}
	return res.URL, nil
}
