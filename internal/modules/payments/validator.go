package payments

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"merchantry.io/app/internal/modules/idempotency"
)

const (
	ReasonAmountMismatch   = "amount mismatch"
	ReasonCurrencyMismatch = "currency mismatch"
	ReasonNotPayable       = "payment intent not payable"
	ReasonAlreadyUsed      = "payment intent already used"
)

type ValidationResult struct {
	IsValid         bool   `json:"is_valid"`
	Reason          string `json:"reason,omitempty"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// UsedIntentLookup reports whether any committed payment row in the store
// already references the intent. Implemented by the orders store.
type UsedIntentLookup interface {
	IntentInUse(ctx context.Context, storeID, intentID string) (bool, error)
}

// Validator fail-fasts bad intents before any transaction opens. It is an
// optimization: the unique payment index is the race-closing guard.
type Validator struct {
	gateway Gateway
	used    UsedIntentLookup
	cache   idempotency.Cache
	ttl     time.Duration
}

func NewValidator(gw Gateway, used UsedIntentLookup, cache idempotency.Cache) *Validator {
	return &Validator{gateway: gw, used: used, cache: cache, ttl: idempotency.DefaultTTL}
}

func (v *Validator) WithTTL(ttl time.Duration) *Validator {
	if ttl > 0 {
		v.ttl = ttl
	}
	return v
}

func (v *Validator) ValidatePaymentIntent(ctx context.Context, storeID, intentID string, expectedAmountCents int64, currency, idemKey string) (ValidationResult, error) {
	intentID = strings.TrimSpace(intentID)

	// Cached result first: a network retry must not hit the provider again.
	// The cached entry only answers for the exact intent, amount and currency
	// it validated; a retry that repriced to a different total falls through
	// to full validation.
	if idemKey != "" && v.cache != nil {
		raw, err := v.cache.Get(ctx, idempotency.OpPaymentIntent, storeID, idemKey)
		if err != nil {
			log.Printf("ValidatePaymentIntent: cache read failed for store %s: %v", storeID, err)
		} else if raw != nil {
			var cached ValidationResult
			if err := json.Unmarshal(raw, &cached); err == nil &&
				cached.PaymentIntentID == intentID &&
				cached.AmountCents == expectedAmountCents &&
				strings.EqualFold(cached.Currency, currency) {
				return cached, nil
			}
		}
	}

	intent, err := v.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return ValidationResult{}, err
	}

	res := ValidationResult{
		PaymentIntentID: intentID,
		AmountCents:     intent.AmountCents,
		Currency:        strings.ToUpper(intent.Currency),
	}

	switch {
	case !payable(intent.Status):
		res.Reason = ReasonNotPayable
	case intent.AmountCents != expectedAmountCents:
		// zero tolerance: amounts are integer minor units
		res.Reason = ReasonAmountMismatch
	case !strings.EqualFold(intent.Currency, currency):
		res.Reason = ReasonCurrencyMismatch
	}
	if res.Reason != "" {
		return res, nil
	}

	inUse, err := v.used.IntentInUse(ctx, storeID, intentID)
	if err != nil {
		return ValidationResult{}, err
	}
	if inUse {
		res.Reason = ReasonAlreadyUsed
		return res, nil
	}

	res.IsValid = true

	if idemKey != "" && v.cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			if err := v.cache.Set(ctx, idempotency.OpPaymentIntent, storeID, idemKey, raw, v.ttl); err != nil {
				log.Printf("ValidatePaymentIntent: cache write failed for store %s: %v", storeID, err)
			}
		}
	}

	return res, nil
}
