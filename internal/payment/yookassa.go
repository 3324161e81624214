package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

// YooKassaClient talks to the YooKassa REST API. Every call goes through a
// circuit breaker so a degraded gateway fails fast instead of tying up
// request goroutines.
type YooKassaClient struct {
	baseURL   string
	shopID    string
	secretKey string
	returnURL string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
}

func NewYooKassaClient(cfg config.PaymentConfig) *YooKassaClient {
	return &YooKassaClient{
		baseURL:   cfg.APIURL,
		shopID:    cfg.ShopID,
		secretKey: cfg.SecretKey,
		returnURL: cfg.ReturnURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "yookassa",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type yooKassaPayment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Paid         bool   `json:"paid"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

func (p yooKassaPayment) info() *PaymentInfo {
	return &PaymentInfo{
		ID:              p.ID,
		Status:          p.Status,
		Paid:            p.Paid,
		ConfirmationURL: p.Confirmation.ConfirmationURL,
	}
}

func (c *YooKassaClient) CreatePayment(ctx context.Context, order *models.Order) (*PaymentInfo, error) {
	body := map[string]interface{}{
		"amount": map[string]string{
			"value":    order.FinalAmount.StringFixed(2),
			"currency": "RUB",
		},
		"capture": true,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": c.returnURL,
		},
		"description": fmt.Sprintf("Заказ %s", order.OrderNumber),
		"metadata": map[string]string{
			"order_number": order.OrderNumber,
		},
	}

	var out yooKassaPayment
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return out.info(), nil
}

func (c *YooKassaClient) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	var out yooKassaPayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out); err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return out.info(), nil
}

func (c *YooKassaClient) CancelPayment(ctx context.Context, paymentID string) (bool, error) {
	var out yooKassaPayment
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/cancel", struct{}{}, &out); err != nil {
		return false, fmt.Errorf("cancel payment: %w", err)
	}
	return out.Status == ProviderCanceled, nil
}

func (c *YooKassaClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.shopID, c.secretKey)
		req.Header.Set("Content-Type", "application/json")
		if method == http.MethodPost {
			req.Header.Set("Idempotence-Key", uuid.NewString())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, data)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	return err
}
