// Package payment mediates between orders and the external payment
// provider: creating payment intents, polling status, consuming webhooks
// and driving the order's payment-state machine.
package payment

import (
	"context"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

// Provider statuses as reported by the payment gateway.
const (
	ProviderPending           = "pending"
	ProviderWaitingForCapture = "waiting_for_capture"
	ProviderSucceeded         = "succeeded"
	ProviderCanceled          = "canceled"
	ProviderFailed            = "failed"
)

type PaymentInfo struct {
	ID              string `json:"payment_id"`
	Status          string `json:"status"`
	Paid            bool   `json:"paid"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// Provider is the abstract gateway contract. CreatePayment is expected to
// be called at most once per order; the coordinator enforces idempotency by
// reusing the payment id already stored on the order.
type Provider interface {
	CreatePayment(ctx context.Context, order *models.Order) (*PaymentInfo, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
	CancelPayment(ctx context.Context, paymentID string) (bool, error)
}
