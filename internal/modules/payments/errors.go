package payments

import "fmt"

// ValidationError: the intent cannot back this checkout (wrong amount,
// already consumed, dead intent). Never retried with the same intent.
type ValidationError struct {
	PaymentIntentID string
	Reason          string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payment validation failed for %s: %s", e.PaymentIntentID, e.Reason)
}

// DuplicatePaymentError: the unique (store_id, gateway_payment_id) index
// caught a race the validator missed.
type DuplicatePaymentError struct {
	StoreID          string
	GatewayPaymentID string
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("payment intent %s already claimed in store %s", e.GatewayPaymentID, e.StoreID)
}
