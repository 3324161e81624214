package sms

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
)

func TestNewSenderFallsBackToLog(t *testing.T) {
	log := logrus.New()

	sender := NewSender(config.SMSConfig{Provider: "test"}, log)
	_, isLog := sender.(*logSender)
	assert.True(t, isLog)

	// smsru without an API key cannot call the gateway.
	sender = NewSender(config.SMSConfig{Provider: "smsru"}, log)
	_, isLog = sender.(*logSender)
	assert.True(t, isLog)

	sender = NewSender(config.SMSConfig{Provider: "smsru", APIKey: "key"}, log)
	_, isSMSRu := sender.(*smsRuSender)
	assert.True(t, isSMSRu)

	assert.NoError(t, NewSender(config.SMSConfig{Provider: "test"}, log).
		SendMessage(context.Background(), "+79161234567", "test"))
}
