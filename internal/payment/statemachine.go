package payment

import "github.com/dmitriyvasukov/crazy-hamburg/internal/models"

// Event is a provider-side state report, delivered by webhook or obtained
// by polling.
type Event struct {
	PaymentID string
	Status    string
	Paid      bool
}

// Change is the order mutation an event produces. Applied=false means the
// event is a no-op for the order's current state (repeat webhook delivery,
// out-of-order report), which callers acknowledge silently.
type Change struct {
	Applied       bool
	PaymentStatus models.PaymentStatus
	OrderStatus   models.OrderStatus
	SetPaidAt     bool
}

// Transition computes the payment-state transition for an order. The
// machine is monotonic: terminal states absorb every further event, so
// webhook retries and concurrent status polls converge on the same result
// regardless of ordering.
func Transition(current models.PaymentStatus, orderStatus models.OrderStatus, ev Event) Change {
	switch current {
	case models.PaymentStatusSucceeded, models.PaymentStatusCancelled:
		return Change{}
	}

	// pending and failed accept a new terminal report; failed stays
	// retryable so a re-created payment can still complete the order.
	switch {
	case ev.Status == ProviderSucceeded && ev.Paid:
		return Change{
			Applied:       true,
			PaymentStatus: models.PaymentStatusSucceeded,
			OrderStatus:   models.OrderStatusPaid,
			SetPaidAt:     true,
		}
	case ev.Status == ProviderCanceled:
		return Change{
			Applied:       true,
			PaymentStatus: models.PaymentStatusCancelled,
			OrderStatus:   models.OrderStatusCancelled,
		}
	case ev.Status == ProviderFailed:
		if current == models.PaymentStatusFailed {
			return Change{}
		}
		return Change{
			Applied:       true,
			PaymentStatus: models.PaymentStatusFailed,
			OrderStatus:   orderStatus,
		}
	}

	return Change{}
}
