package receipts

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/storage"
)

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Put(ctx context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return storage.PutResult{}, err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[in.Filename] = raw
	return storage.PutResult{Key: in.Filename, URL: "https://cdn.example/receipts/" + in.Filename}, nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestGenerate(t *testing.T) {
	st := &memStorage{}
	svc := NewService(st)

	o := &orders.Order{
		ID:            "ord-1",
		StoreID:       "store-1",
		OrderNumber:   "ORD-001001",
		Currency:      "EUR",
		SubtotalCents: 3000,
		ShippingCents: 500,
		TotalCents:    3500,
	}
	items := []orders.OrderItem{
		{Name: "Tea Kettle", SKU: "TK-1", Quantity: 3, UnitPriceCents: 1000, TotalCents: 3000},
	}

	url, err := svc.Generate(context.Background(), o, items)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/receipts/ORD-001001.json", url)

	raw, ok := st.objects["ORD-001001.json"]
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "ORD-001001", got["orderNumber"])
	assert.Equal(t, float64(3500), got["totalCents"])
	lines := got["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "Tea Kettle", lines[0].(map[string]any)["name"])
}

func TestGenerateNilStorage(t *testing.T) {
	svc := NewService(nil)
	url, err := svc.Generate(context.Background(), &orders.Order{}, nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}
