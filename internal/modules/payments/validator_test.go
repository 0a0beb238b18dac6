package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usedLookupStub struct {
	inUse bool
	err   error
	calls int
}

func (s *usedLookupStub) IntentInUse(_ context.Context, _, _ string) (bool, error) {
	s.calls++
	return s.inUse, s.err
}

// mapCache implements idempotency.Cache in memory for validator tests.
type mapCache struct {
	data    map[string][]byte
	lastTTL time.Duration
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, op, storeID, key string) ([]byte, error) {
	return c.data[op+":"+storeID+":"+key], nil
}

func (c *mapCache) Set(_ context.Context, op, storeID, key string, payload []byte, ttl time.Duration) error {
	c.data[op+":"+storeID+":"+key] = payload
	c.lastTTL = ttl
	return nil
}

func seededGateway(in Intent) *MockGateway {
	gw := NewMockGateway()
	gw.Seed(in)
	return gw
}

func TestValidate_Success(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	v := NewValidator(gw, &usedLookupStub{}, nil)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Reason)
	assert.Equal(t, int64(3500), res.AmountCents)
}

func TestValidate_AmountMismatch(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3400, Currency: "EUR", Status: IntentStatusRequiresCapture})
	v := NewValidator(gw, &usedLookupStub{}, nil)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonAmountMismatch, res.Reason)
}

func TestValidate_CurrencyMismatch(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "USD", Status: IntentStatusSucceeded})
	v := NewValidator(gw, &usedLookupStub{}, nil)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonCurrencyMismatch, res.Reason)
}

func TestValidate_DeadIntent(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusCanceled})
	v := NewValidator(gw, &usedLookupStub{}, nil)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonNotPayable, res.Reason)
}

func TestValidate_AlreadyUsed(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	v := NewValidator(gw, &usedLookupStub{inUse: true}, nil)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonAlreadyUsed, res.Reason)
}

func TestValidate_UnknownIntent(t *testing.T) {
	v := NewValidator(NewMockGateway(), &usedLookupStub{}, nil)

	_, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_missing", 3500, "EUR", "")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestValidate_CachedResultSkipsGatewayAndDB(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	used := &usedLookupStub{}
	cache := newMapCache()
	v := NewValidator(gw, used, cache)

	first, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)
	require.True(t, first.IsValid)
	require.Equal(t, 1, used.calls)

	// Second call with the same key must not touch gateway or DB again: the
	// intent being marked used now must not change the cached answer.
	used.inUse = true
	second, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)
	assert.True(t, second.IsValid)
	assert.Equal(t, 1, used.calls, "lookup must be served from cache")
}

func TestValidate_CacheIgnoredForDifferentIntent(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	gw.Seed(Intent{ID: "pi_2", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	used := &usedLookupStub{}
	cache := newMapCache()
	v := NewValidator(gw, used, cache)

	_, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)

	// Same key, different intent: cached entry must not be returned.
	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_2", 3500, "EUR", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_2", res.PaymentIntentID)
	assert.Equal(t, 2, used.calls)
}

func TestValidate_CacheIgnoredForDifferentAmount(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	used := &usedLookupStub{}
	cache := newMapCache()
	v := NewValidator(gw, used, cache)

	first, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)
	require.True(t, first.IsValid)

	// Same key and intent but a repriced total (e.g. a corrected-quantity
	// retry): the stale cached success must not validate an amount the
	// intent does not cover.
	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 1500, "EUR", "key-1")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonAmountMismatch, res.Reason)
	assert.Equal(t, 1, used.calls, "invalid amount must be rejected before the DB lookup")
}

func TestValidate_CacheIgnoredForDifferentCurrency(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	used := &usedLookupStub{}
	cache := newMapCache()
	v := NewValidator(gw, used, cache)

	_, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)

	res, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "USD", "key-1")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonCurrencyMismatch, res.Reason)
}

func TestValidate_UsesConfiguredTTL(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	cache := newMapCache()
	v := NewValidator(gw, &usedLookupStub{}, cache).WithTTL(2 * time.Hour)

	_, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "key-1")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cache.lastTTL)
}

func TestValidate_LookupErrorPropagates(t *testing.T) {
	gw := seededGateway(Intent{ID: "pi_1", AmountCents: 3500, Currency: "EUR", Status: IntentStatusRequiresCapture})
	boom := errors.New("db down")
	v := NewValidator(gw, &usedLookupStub{err: boom}, nil)

	_, err := v.ValidatePaymentIntent(context.Background(), "store-1", "pi_1", 3500, "EUR", "")
	assert.ErrorIs(t, err, boom)
}
