package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

// Coordinator owns the order side of the payment flow: creating provider
// payments for orders and applying provider events to order state.
type Coordinator struct {
	db            *sql.DB
	provider      Provider
	webhookSecret string
	log           *logrus.Logger
}

func NewCoordinator(db *sql.DB, provider Provider, webhookSecret string, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		db:            db,
		provider:      provider,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// CreateForOrder obtains a payment for the order. An order that already
// carries a payment id gets the stored payment back without a provider
// call, so retried create requests cannot spawn duplicate payments. An
// already-paid order is rejected.
func (c *Coordinator) CreateForOrder(ctx context.Context, order *models.Order) (*PaymentInfo, error) {
	if order.PaymentStatus == models.PaymentStatusSucceeded {
		return nil, database.ErrAlreadyPaid
	}

	if order.PaymentID != nil && *order.PaymentID != "" {
		info := &PaymentInfo{ID: *order.PaymentID, Status: ProviderPending}
		if order.PaymentURL != nil {
			info.ConfirmationURL = *order.PaymentURL
		}
		return info, nil
	}

	info, err := c.provider.CreatePayment(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := store.SetOrderPaymentInfo(ctx, c.db, order.ID, info.ID, info.ConfirmationURL); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"payment_id": info.ID,
	}).Info("payment created")

	return info, nil
}

// Apply drives the order's payment-state machine with a provider event.
// The order is locked by payment id for the duration; an event for an
// unknown payment id is acknowledged and dropped. The returned Change
// reports whether anything was persisted.
func (c *Coordinator) Apply(ctx context.Context, ev Event) (Change, error) {
	var change Change

	err := database.WithTransaction(ctx, c.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order, err := store.GetOrderByPaymentIDForUpdate(ctx, tx, ev.PaymentID)
		if err != nil {
			if errors.Is(err, database.ErrOrderNotFound) {
				c.log.WithField("payment_id", ev.PaymentID).Warn("event for unknown payment ignored")
				return nil
			}
			return err
		}

		change = Transition(order.PaymentStatus, order.Status, ev)
		if !change.Applied {
			return nil
		}

		return store.UpdateOrderPaymentState(ctx, tx, order.ID,
			change.PaymentStatus, change.OrderStatus, change.SetPaidAt)
	})
	if err != nil {
		return Change{}, err
	}

	if change.Applied {
		c.log.WithFields(logrus.Fields{
			"payment_id":     ev.PaymentID,
			"payment_status": change.PaymentStatus,
			"order_status":   change.OrderStatus,
		}).Info("payment state applied")
	}
	return change, nil
}

// Sync polls the provider for the payment's current state, applies it and
// returns the provider view.
func (c *Coordinator) Sync(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	info, err := c.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if _, err := c.Apply(ctx, Event{PaymentID: info.ID, Status: info.Status, Paid: info.Paid}); err != nil {
		return nil, err
	}
	return info, nil
}

// Cancel asks the provider to cancel the payment and, when the provider
// confirms, applies the cancellation to the order.
func (c *Coordinator) Cancel(ctx context.Context, paymentID string) error {
	cancelled, err := c.provider.CancelPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !cancelled {
		return database.ErrPaymentConflict
	}

	_, err = c.Apply(ctx, Event{PaymentID: paymentID, Status: ProviderCanceled})
	return err
}

// HandleWebhook verifies and applies a raw webhook delivery. Signature
// verification is skipped when no webhook secret is configured.
func (c *Coordinator) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !VerifySignature(body, signature, c.webhookSecret) {
		return ErrBadSignature
	}

	ev, err := ParseWebhook(body)
	if err != nil {
		return err
	}

	_, err = c.Apply(ctx, ev)
	return err
}
