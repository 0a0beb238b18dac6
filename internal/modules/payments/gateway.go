package payments

import (
	"context"
	"errors"
	"sync"
)

const (
	IntentStatusRequiresCapture = "requires_capture"
	IntentStatusAuthorized      = "authorized"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusCanceled        = "canceled"
	IntentStatusFailed          = "failed"
)

// Intent is the provider-side view of a pending/authorized charge.
type Intent struct {
	ID          string
	AmountCents int64
	Currency    string
	Status      string
}

var ErrIntentNotFound = errors.New("payment intent not found")

// Gateway is the payment-provider surface the validator consumes. Webhook
// handling is a separate flow and not part of this interface.
type Gateway interface {
	Name() string
	GetPaymentIntent(ctx context.Context, intentID string) (Intent, error)
}

// payable: the intent can still back a new order.
func payable(status string) bool {
	switch status {
	case IntentStatusRequiresCapture, IntentStatusAuthorized, IntentStatusSucceeded:
		return true
	}
	return false
}

// MockGateway serves seeded intents from memory. Used by tests and the
// local dev entrypoint when no real provider is configured.
type MockGateway struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

func NewMockGateway() *MockGateway {
	return &MockGateway{intents: make(map[string]Intent)}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Seed(in Intent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[in.ID] = in
}

func (g *MockGateway) GetPaymentIntent(_ context.Context, intentID string) (Intent, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	in, ok := g.intents[intentID]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	return in, nil
}
