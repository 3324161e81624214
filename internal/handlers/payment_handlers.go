package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/payment"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

func (h *Handlers) CreatePayment(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), h.DB, orderID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Заказ не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	if order.UserID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Доступ запрещён"})
		return
	}

	info, err := h.Payments.CreateForOrder(c.Request.Context(), order)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyPaid) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Заказ уже оплачен"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":       info.ID,
		"confirmation_url": info.ConfirmationURL,
		"order_number":     order.OrderNumber,
	})
}

// GetPaymentStatus polls the provider and opportunistically promotes the
// order when the payment has settled since the last webhook.
func (h *Handlers) GetPaymentStatus(c *gin.Context) {
	paymentID := c.Param("payment_id")

	order, err := store.GetOrderByPaymentID(c.Request.Context(), h.DB, paymentID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Платёж не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	if order.UserID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Доступ запрещён"})
		return
	}

	info, err := h.Payments.Sync(c.Request.Context(), paymentID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *Handlers) CancelPayment(c *gin.Context) {
	paymentID := c.Param("payment_id")

	order, err := store.GetOrderByPaymentID(c.Request.Context(), h.DB, paymentID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Платёж не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	if order.UserID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Доступ запрещён"})
		return
	}

	if err := h.Payments.Cancel(c.Request.Context(), paymentID); err != nil {
		if errors.Is(err, database.ErrPaymentConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Не удалось отменить платёж"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// PaymentWebhook consumes provider notifications. The provider only needs
// an acknowledgement, so processing failures are reported in the body with
// a 200 to stop redelivery storms; a bad signature is still rejected.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if err := h.Payments.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "invalid signature"})
			return
		}
		h.Log.WithError(err).Warn("webhook processing failed")
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
