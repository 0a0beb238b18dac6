package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantry.io/app/internal/modules/catalog"
)

type stubCatalog struct {
	store     catalog.Store
	items     map[string]catalog.SaleItem
	methods   map[string]catalog.ShippingMethod
	discounts map[string]catalog.DiscountCode
}

func (s *stubCatalog) GetStore(_ context.Context, storeID string) (catalog.Store, error) {
	if storeID != s.store.ID {
		return catalog.Store{}, catalog.ErrStoreNotFound
	}
	return s.store, nil
}

func (s *stubCatalog) GetSaleItem(_ context.Context, storeID, productID, variantID string) (catalog.SaleItem, error) {
	it, ok := s.items[productID]
	if !ok || storeID != s.store.ID || (variantID != "" && variantID != it.VariantID) {
		return catalog.SaleItem{}, &catalog.ProductNotFoundError{StoreID: storeID, ProductID: productID, VariantID: variantID}
	}
	return it, nil
}

func (s *stubCatalog) GetShippingMethod(_ context.Context, storeID, methodID string) (catalog.ShippingMethod, error) {
	m, ok := s.methods[methodID]
	if !ok || storeID != s.store.ID {
		return catalog.ShippingMethod{}, &catalog.InvalidShippingMethodError{StoreID: storeID, MethodID: methodID}
	}
	return m, nil
}

func (s *stubCatalog) GetDiscountCode(_ context.Context, storeID, code string) (catalog.DiscountCode, error) {
	d, ok := s.discounts[code]
	if !ok || storeID != s.store.ID {
		return catalog.DiscountCode{}, catalog.ErrDiscountNotFound
	}
	return d, nil
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		store: catalog.Store{ID: "store-1", Currency: "EUR", TaxRateBps: 0},
		items: map[string]catalog.SaleItem{
			"p1": {ProductID: "p1", VariantID: "v1", Name: "Mug", SKU: "MUG", UnitPriceCents: 1000, Currency: "EUR", TrackInventory: true},
			"p2": {ProductID: "p2", VariantID: "v2", Name: "Shirt", SKU: "SHIRT", UnitPriceCents: 333, Currency: "EUR", TrackInventory: true},
		},
		methods: map[string]catalog.ShippingMethod{
			"ship1": {ID: "ship1", StoreID: "store-1", CostCents: 500, Active: true},
		},
		discounts: map[string]catalog.DiscountCode{},
	}
}

func TestCalculate_SubtotalAndShipping(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 2}}, "ship1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(3666), res.SubtotalCents)
	assert.Equal(t, int64(500), res.ShippingCents)
	assert.Equal(t, int64(0), res.TaxCents)
	assert.Equal(t, int64(4166), res.GrandTotalCents)
	assert.Equal(t, "EUR", res.Currency)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, int64(3000), res.Lines[0].SubtotalCents)
}

func TestCalculate_TaxRoundsHalfUpPerLine(t *testing.T) {
	cat := newStubCatalog()
	cat.store.TaxRateBps = 1900 // 19%
	calc := NewCalculator(cat)

	// p2: 2 x 333 = 666; 19% = 126.54 -> 127 (per line, not on the float total)
	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p2", Quantity: 2}}, "ship1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(127), res.TaxCents)
	assert.Equal(t, int64(666+127+500), res.GrandTotalCents)
	assert.Equal(t, int64(127), res.Lines[0].TaxCents)
}

func TestCalculate_PerLineTaxThenSum(t *testing.T) {
	cat := newStubCatalog()
	cat.store.TaxRateBps = 1900
	calc := NewCalculator(cat)

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 1}}, "ship1", "")
	require.NoError(t, err)

	// 1000 -> 190; 333 -> 63.27 -> 63; summed after rounding
	assert.Equal(t, int64(190+63), res.TaxCents)
}

func TestCalculate_TenantBoundary(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	_, err := calc.Calculate(context.Background(), "store-2",
		[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship1", "")
	assert.ErrorIs(t, err, catalog.ErrStoreNotFound)
}

func TestCalculate_UnknownShippingMethod(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	_, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship-nope", "")

	var ism *catalog.InvalidShippingMethodError
	require.ErrorAs(t, err, &ism)
	assert.Equal(t, "ship-nope", ism.MethodID)
}

func TestCalculate_InvalidQuantity(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	_, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 0}}, "ship1", "")

	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
}

func TestCalculate_QuantityAboveMaxRejected(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	// an absurd quantity must be rejected before the multiply, never
	// overflow into a negative subtotal
	_, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1 << 60}}, "ship1", "")

	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
	assert.Equal(t, int64(1<<60), iq.Quantity)
}

func TestCalculate_NoLineItems(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	_, err := calc.Calculate(context.Background(), "store-1", nil, "ship1", "")
	assert.ErrorIs(t, err, ErrNoLineItems)
}

func TestCalculate_CurrencyMismatch(t *testing.T) {
	cat := newStubCatalog()
	it := cat.items["p1"]
	it.Currency = "USD"
	cat.items["p1"] = it
	calc := NewCalculator(cat)

	_, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship1", "")
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestCalculate_PercentDiscount(t *testing.T) {
	cat := newStubCatalog()
	cat.discounts["SAVE10"] = catalog.DiscountCode{
		StoreID: "store-1", Code: "SAVE10",
		Kind: catalog.DiscountPercent, Value: 10, Active: true,
	}
	calc := NewCalculator(cat)

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 3}}, "ship1", "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, int64(300), res.DiscountCents) // 10% of 3000
	assert.Equal(t, int64(3000+500-300), res.GrandTotalCents)
	assert.False(t, res.DiscountRejected)
	assert.Equal(t, int64(300), res.Lines[0].DiscountCents)
}

func TestCalculate_FixedDiscountCappedAtTotal(t *testing.T) {
	cat := newStubCatalog()
	cat.discounts["MEGA"] = catalog.DiscountCode{
		StoreID: "store-1", Code: "MEGA",
		Kind: catalog.DiscountFixed, Value: 99999, Active: true,
	}
	calc := NewCalculator(cat)

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship1", "MEGA")
	require.NoError(t, err)

	// capped: grand total never goes negative
	assert.Equal(t, int64(1500), res.DiscountCents)
	assert.Equal(t, int64(0), res.GrandTotalCents)
}

func TestCalculate_DiscountRejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name   string
		code   catalog.DiscountCode
		reason string
	}{
		{"inactive", catalog.DiscountCode{StoreID: "store-1", Code: "C", Kind: catalog.DiscountPercent, Value: 10, Active: false}, DiscountReasonInactive},
		{"expired", catalog.DiscountCode{StoreID: "store-1", Code: "C", Kind: catalog.DiscountPercent, Value: 10, Active: true, ExpiresAt: &past}, DiscountReasonExpired},
		{"usage limit", catalog.DiscountCode{StoreID: "store-1", Code: "C", Kind: catalog.DiscountPercent, Value: 10, Active: true, UsageLimit: 5, UsedCount: 5}, DiscountReasonUsageLimit},
		{"min subtotal", catalog.DiscountCode{StoreID: "store-1", Code: "C", Kind: catalog.DiscountPercent, Value: 10, Active: true, MinSubtotalCents: 99999}, DiscountReasonMinSubtotal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := newStubCatalog()
			cat.discounts["C"] = tc.code
			calc := NewCalculator(cat)

			res, err := calc.Calculate(context.Background(), "store-1",
				[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship1", "C")
			require.NoError(t, err, "rejected discounts must not fail the checkout")

			assert.True(t, res.DiscountRejected)
			assert.Equal(t, tc.reason, res.DiscountRejectReason)
			assert.Equal(t, int64(0), res.DiscountCents)
			assert.Equal(t, int64(1500), res.GrandTotalCents)
		})
	}
}

func TestCalculate_UnknownDiscountRejected(t *testing.T) {
	calc := NewCalculator(newStubCatalog())

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 1}}, "ship1", "NOPE")
	require.NoError(t, err)
	assert.True(t, res.DiscountRejected)
	assert.Equal(t, DiscountReasonNotFound, res.DiscountRejectReason)
}

func TestCalculate_GrandTotalInvariant(t *testing.T) {
	cat := newStubCatalog()
	cat.store.TaxRateBps = 1900
	cat.discounts["SAVE10"] = catalog.DiscountCode{
		StoreID: "store-1", Code: "SAVE10",
		Kind: catalog.DiscountPercent, Value: 10, Active: true,
	}
	calc := NewCalculator(cat)

	res, err := calc.Calculate(context.Background(), "store-1",
		[]LineItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 3}}, "ship1", "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, res.SubtotalCents+res.TaxCents+res.ShippingCents-res.DiscountCents, res.GrandTotalCents)
	assert.GreaterOrEqual(t, res.GrandTotalCents, int64(0))

	lineSub, lineTax := int64(0), int64(0)
	for _, ln := range res.Lines {
		lineSub += ln.SubtotalCents
		lineTax += ln.TaxCents
	}
	assert.Equal(t, res.SubtotalCents, lineSub)
	assert.Equal(t, res.TaxCents, lineTax)
}
