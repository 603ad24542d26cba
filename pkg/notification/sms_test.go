package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlert(t *testing.T) {
	cli := NewLogSMSClient(nil)
	sms := NewSMS(SMSConfig{SignName: "GuardianAI", TemplateCode: "SOS_1"}, cli)

	require.NoError(t, sms.SendAlert(context.Background(), " +1 234 567 8901 ", map[string]string{"lat": "37.7"}))
	sent := cli.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+1 234 567 8901", sent[0].Phone)
	assert.Equal(t, "GuardianAI", sent[0].Sign)
	assert.Equal(t, "SOS_1", sent[0].Template)
}

func TestSendAlertErrors(t *testing.T) {
	assert.Error(t, NewSMS(SMSConfig{}, nil).SendAlert(context.Background(), "1", nil))

	sms := NewSMS(SMSConfig{}, NewLogSMSClient(nil))
	assert.Error(t, sms.SendAlert(context.Background(), "  ", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sms.SendAlert(ctx, "1", nil), context.Canceled)
}
