package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name          string
		paymentStatus models.PaymentStatus
		orderStatus   models.OrderStatus
		event         Event
		want          Change
	}{
		{
			name:          "pending to succeeded",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: ProviderSucceeded, Paid: true},
			want: Change{
				Applied:       true,
				PaymentStatus: models.PaymentStatusSucceeded,
				OrderStatus:   models.OrderStatusPaid,
				SetPaidAt:     true,
			},
		},
		{
			name:          "succeeded without paid flag is ignored",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: ProviderSucceeded, Paid: false},
			want:          Change{},
		},
		{
			name:          "pending to cancelled",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: ProviderCanceled},
			want: Change{
				Applied:       true,
				PaymentStatus: models.PaymentStatusCancelled,
				OrderStatus:   models.OrderStatusCancelled,
			},
		},
		{
			name:          "pending to failed keeps order status",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: "failed"},
			want: Change{
				Applied:       true,
				PaymentStatus: models.PaymentStatusFailed,
				OrderStatus:   models.OrderStatusPending,
			},
		},
		{
			name:          "failed can still succeed",
			paymentStatus: models.PaymentStatusFailed,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: ProviderSucceeded, Paid: true},
			want: Change{
				Applied:       true,
				PaymentStatus: models.PaymentStatusSucceeded,
				OrderStatus:   models.OrderStatusPaid,
				SetPaidAt:     true,
			},
		},
		{
			name:          "repeated failure is a no-op",
			paymentStatus: models.PaymentStatusFailed,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: "failed"},
			want:          Change{},
		},
		{
			name:          "succeeded absorbs repeat success",
			paymentStatus: models.PaymentStatusSucceeded,
			orderStatus:   models.OrderStatusPaid,
			event:         Event{Status: ProviderSucceeded, Paid: true},
			want:          Change{},
		},
		{
			name:          "succeeded absorbs late cancellation",
			paymentStatus: models.PaymentStatusSucceeded,
			orderStatus:   models.OrderStatusPaid,
			event:         Event{Status: ProviderCanceled},
			want:          Change{},
		},
		{
			name:          "cancelled absorbs late success",
			paymentStatus: models.PaymentStatusCancelled,
			orderStatus:   models.OrderStatusCancelled,
			event:         Event{Status: ProviderSucceeded, Paid: true},
			want:          Change{},
		},
		{
			name:          "waiting_for_capture does not change state",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: ProviderWaitingForCapture},
			want:          Change{},
		},
		{
			name:          "unknown provider status is ignored",
			paymentStatus: models.PaymentStatusPending,
			orderStatus:   models.OrderStatusPending,
			event:         Event{Status: "refund_pending"},
			want:          Change{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.paymentStatus, tt.orderStatus, tt.event)
			assert.Equal(t, tt.want, got)
		})
	}
}
