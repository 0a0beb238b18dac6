package pricing

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/pkg/money"
)

// Discount rejection reasons surfaced on the result. An invalid code never
// fails the checkout; it degrades to "no discount applied".
const (
	DiscountReasonNotFound    = "not found"
	DiscountReasonInactive    = "inactive"
	DiscountReasonExpired     = "expired"
	DiscountReasonUsageLimit  = "usage limit reached"
	DiscountReasonMinSubtotal = "minimum subtotal not met"
)

// MaxLineQuantity bounds a single line so int64 cent arithmetic can never
// overflow mid-computation.
const MaxLineQuantity = 1_000_000

type LineItem struct {
	ProductID string
	VariantID string // optional; empty resolves the product's default variant
	Quantity  int64
}

type PricedLine struct {
	ProductID      string
	VariantID      string
	Name           string
	SKU            string
	Quantity       int64
	UnitPriceCents int64
	SubtotalCents  int64
	TaxCents       int64
	DiscountCents  int64
	TotalCents     int64
	TrackInventory bool
}

type Result struct {
	Currency string
	Lines    []PricedLine

	SubtotalCents   int64
	TaxCents        int64
	ShippingCents   int64
	DiscountCents   int64
	GrandTotalCents int64

	DiscountCode         string
	DiscountRejected     bool
	DiscountRejectReason string
}

// Calculator recomputes authoritative totals from current catalog state.
// Client-submitted prices are never consulted.
type Calculator struct {
	catalog catalog.Reader

	// Tax overrides the store-configured flat rate when set.
	Tax TaxStrategy
}

func NewCalculator(cat catalog.Reader) *Calculator {
	return &Calculator{catalog: cat}
}

func (c *Calculator) Calculate(ctx context.Context, storeID string, items []LineItem, shippingMethodID, discountCode string) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrNoLineItems
	}

	store, err := c.catalog.GetStore(ctx, storeID)
	if err != nil {
		return Result{}, err
	}
	currency := strings.ToUpper(store.Currency)

	tax := c.Tax
	if tax == nil {
		tax = FlatRate{Bps: store.TaxRateBps}
	}

	res := Result{Currency: currency, Lines: make([]PricedLine, 0, len(items))}

	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity {
			return Result{}, &InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity}
		}

		sale, err := c.catalog.GetSaleItem(ctx, storeID, it.ProductID, it.VariantID)
		if err != nil {
			return Result{}, err
		}
		if !strings.EqualFold(sale.Currency, currency) {
			return Result{}, ErrCurrencyMismatch
		}

		sub := sale.UnitPriceCents * it.Quantity
		lineTax := tax.LineTax(sub)
		if lineTax < 0 {
			lineTax = 0
		}

		res.Lines = append(res.Lines, PricedLine{
			ProductID:      sale.ProductID,
			VariantID:      sale.VariantID,
			Name:           sale.Name,
			SKU:            sale.SKU,
			Quantity:       it.Quantity,
			UnitPriceCents: sale.UnitPriceCents,
			SubtotalCents:  sub,
			TaxCents:       lineTax,
			TotalCents:     sub + lineTax,
			TrackInventory: sale.TrackInventory,
		})
		res.SubtotalCents += sub
		res.TaxCents += lineTax
	}

	method, err := c.catalog.GetShippingMethod(ctx, storeID, shippingMethodID)
	if err != nil {
		return Result{}, err
	}
	res.ShippingCents = method.CostCents

	if code := strings.TrimSpace(discountCode); code != "" {
		res.DiscountCode = strings.ToUpper(code)
		amount, reason, err := c.resolveDiscount(ctx, storeID, res.DiscountCode, res.SubtotalCents)
		if err != nil {
			return Result{}, err
		}
		if reason != "" {
			log.Printf("Calculate: discount %q rejected for store %s: %s", res.DiscountCode, storeID, reason)
			res.DiscountRejected = true
			res.DiscountRejectReason = reason
		} else {
			// cap so the grand total never goes negative
			max := res.SubtotalCents + res.TaxCents + res.ShippingCents
			if amount > max {
				amount = max
			}
			res.DiscountCents = amount
			c.allocateDiscount(&res)
		}
	}

	res.GrandTotalCents = res.SubtotalCents + res.TaxCents + res.ShippingCents - res.DiscountCents
	return res, nil
}

// resolveDiscount returns (amount, "", nil) for a usable code and
// (0, reason, nil) for a rejected one. Only infra faults are errors.
func (c *Calculator) resolveDiscount(ctx context.Context, storeID, code string, subtotalCents int64) (int64, string, error) {
	d, err := c.catalog.GetDiscountCode(ctx, storeID, code)
	if errors.Is(err, catalog.ErrDiscountNotFound) {
		return 0, DiscountReasonNotFound, nil
	}
	if err != nil {
		return 0, "", err
	}

	switch {
	case !d.Active:
		return 0, DiscountReasonInactive, nil
	case d.ExpiresAt != nil && d.ExpiresAt.Before(time.Now()):
		return 0, DiscountReasonExpired, nil
	case d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit:
		return 0, DiscountReasonUsageLimit, nil
	case d.MinSubtotalCents > 0 && subtotalCents < d.MinSubtotalCents:
		return 0, DiscountReasonMinSubtotal, nil
	}

	switch d.Kind {
	case catalog.DiscountPercent:
		return money.Percent(subtotalCents, d.Value), "", nil
	case catalog.DiscountFixed:
		return d.Value, "", nil
	default:
		return 0, DiscountReasonInactive, nil
	}
}

// allocateDiscount spreads the aggregate discount across lines in proportion
// to line subtotal, remainder on the last line. Any part of the discount that
// covers shipping stays aggregate-only; lines never go negative.
func (c *Calculator) allocateDiscount(res *Result) {
	if res.DiscountCents <= 0 || res.SubtotalCents <= 0 {
		return
	}

	lineTotal := int64(0)
	for _, ln := range res.Lines {
		lineTotal += ln.TotalCents
	}
	remaining := res.DiscountCents
	if remaining > lineTotal {
		remaining = lineTotal
	}
	toAllocate := remaining

	for i := range res.Lines {
		ln := &res.Lines[i]
		share := toAllocate * ln.SubtotalCents / res.SubtotalCents
		if i == len(res.Lines)-1 {
			share = remaining
		}
		if share > ln.TotalCents {
			share = ln.TotalCents
		}
		ln.DiscountCents = share
		ln.TotalCents -= share
		remaining -= share
	}
}
