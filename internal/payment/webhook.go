package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadSignature = errors.New("webhook signature mismatch")

type webhookNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Paid   bool   `json:"paid"`
	} `json:"object"`
}

// ParseWebhook decodes a provider notification body into an Event.
func ParseWebhook(body []byte) (Event, error) {
	var n webhookNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return Event{}, fmt.Errorf("decode webhook: %w", err)
	}
	if n.Object.ID == "" {
		return Event{}, fmt.Errorf("webhook without payment id")
	}
	return Event{
		PaymentID: n.Object.ID,
		Status:    n.Object.Status,
		Paid:      n.Object.Paid,
	}, nil
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body against the
// shared webhook secret. Deliveries are rejected on mismatch only when a
// secret is configured.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
