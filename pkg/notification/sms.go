package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type SMSConfig struct {
	SignName     string
	TemplateCode string
}

// SMSClient is the gateway boundary. Real providers implement it; LogSMSClient
// is used when none is configured.
type SMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

type SMS struct {
	cfg SMSConfig
	cli SMSClient
}

func NewSMS(cfg SMSConfig, cli SMSClient) *SMS {
	return &SMS{cfg: cfg, cli: cli}
}

// SendAlert sends the emergency template to one phone number.
func (s *SMS) SendAlert(ctx context.Context, phone string, params map[string]string) error {
	if s.cli == nil {
		return fmt.Errorf("sms client not configured")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("empty phone number")
	}
	return s.cli.Send(ctx, phone, s.cfg.SignName, s.cfg.TemplateCode, params)
}

// LogSMSClient records messages in the log instead of sending them.
type LogSMSClient struct {
	lg *zap.Logger

	mu   sync.Mutex
	sent []SentSMS
}

type SentSMS struct {
	Phone    string
	Sign     string
	Template string
	Params   map[string]string
}

func NewLogSMSClient(lg *zap.Logger) *LogSMSClient {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &LogSMSClient{lg: lg}
}

func (c *LogSMSClient) Send(ctx context.Context, phone, sign, template string, params map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, SentSMS{Phone: phone, Sign: sign, Template: template, Params: params})
	c.mu.Unlock()
	c.lg.Info("sms sent",
		zap.String("phone", phone),
		zap.String("sign", sign),
		zap.String("template", template),
		zap.Any("params", params),
	)
	return nil
}

// Sent returns a copy of every message recorded so far.
func (c *LogSMSClient) Sent() []SentSMS {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentSMS, len(c.sent))
	copy(out, c.sent)
	return out
}
