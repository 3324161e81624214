// Package sms sends customer notifications through the configured provider.
package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
)

type Sender interface {
	SendMessage(ctx context.Context, phone, message string) error
}

// NewSender picks the sender by configured provider. Anything other than
// "smsru" falls back to the log sender, so local and test environments
// never hit a real gateway.
func NewSender(cfg config.SMSConfig, log *logrus.Logger) Sender {
	if cfg.Provider == "smsru" && cfg.APIKey != "" {
		return &smsRuSender{
			apiKey: cfg.APIKey,
			client: &http.Client{},
			log:    log,
		}
	}
	return &logSender{log: log}
}

type logSender struct {
	log *logrus.Logger
}

func (s *logSender) SendMessage(_ context.Context, phone, message string) error {
	s.log.WithFields(logrus.Fields{
		"phone":   phone,
		"message": message,
	}).Info("sms (test provider)")
	return nil
}

type smsRuSender struct {
	apiKey string
	client *http.Client
	log    *logrus.Logger
}

func (s *smsRuSender) SendMessage(ctx context.Context, phone, message string) error {
	params := url.Values{
		"api_id": {s.apiKey},
		"to":     {phone},
		"msg":    {message},
		"json":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://sms.ru/sms/send?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms provider returned %d", resp.StatusCode)
	}

	s.log.WithField("phone", phone).Info("sms sent")
	return nil
}
