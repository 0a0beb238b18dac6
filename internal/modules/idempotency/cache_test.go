package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb), mr
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OpCheckout, "store-1", "k1", []byte(`{"order_id":"o1"}`), time.Hour))

	got, err := c.Get(ctx, OpCheckout, "store-1", "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"o1"}`, string(got))
}

func TestCache_MissingKeyIsNil(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), OpCheckout, "store-1", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_ScopedByStoreAndOp(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OpCheckout, "store-1", "k1", []byte("a"), time.Hour))

	got, err := c.Get(ctx, OpCheckout, "store-2", "k1")
	require.NoError(t, err)
	assert.Nil(t, got, "another store's key must not resolve")

	got, err = c.Get(ctx, OpPaymentIntent, "store-1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got, "another operation's key must not resolve")
}

func TestCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OpCheckout, "store-1", "k1", []byte("a"), time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, OpCheckout, "store-1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries are treated as absent")
}

func TestCache_EmptyKeyIsNoop(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, OpCheckout, "store-1", "", []byte("a"), time.Hour))
	got, err := c.Get(ctx, OpCheckout, "store-1", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}
