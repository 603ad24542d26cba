// Package chat keeps the conversation with the safety assistant.
package chat

import (
	"context"
	"slices"
	"strings"
	"sync"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EmptyReplyFallback = "I'm having trouble responding right now."

var ErrEmptyMessage = errors.Sentinel(errors.CodeEmptyMessage, "message is empty")

// Advisor answers one user message.
type Advisor interface {
	GetSafetyAdvice(ctx context.Context, userText, situation string) string
}

// Transcript is append-only. Replies land in the order they arrive.
type Transcript struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
	onAppend []func(models.ChatMessage)

	advisor Advisor
	clock   clock.Clock
	lg      *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Transcript)

func WithClock(c clock.Clock) Option {
	return func(t *Transcript) { t.clock = c }
}

func WithLogger(lg *zap.Logger) Option {
	return func(t *Transcript) { t.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transcript) { t.metrics = m }
}

func New(advisor Advisor, opts ...Option) *Transcript {
	t := &Transcript{advisor: advisor, clock: clock.New()}
	for _, opt := range opts {
		opt(t)
	}
	if t.lg == nil {
		t.lg = logger.Named("chat")
	}
	t.messages = []models.ChatMessage{{
		ID:        "1",
		Role:      models.RoleAssistant,
		Content:   models.GreetingMessage,
		Timestamp: t.clock.Now(),
	}}
	return t
}

// OnAppend registers fn for every message added after construction.
func (t *Transcript) OnAppend(fn func(models.ChatMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAppend = append(t.onAppend, fn)
}

// Send appends the user message, asks the advisor and appends its reply,
// which is also returned. The advisor call runs without the lock held.
func (t *Transcript) Send(ctx context.Context, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	t.append(models.RoleUser, text)

	reply := t.advisor.GetSafetyAdvice(ctx, text, "")
	if reply == "" {
		t.lg.Warn("advisor returned an empty reply")
		reply = EmptyReplyFallback
	}
	msg := t.append(models.RoleAssistant, reply)
	return &msg, nil
}

func (t *Transcript) append(role models.ChatRole, content string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: t.clock.Now(),
	}
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	observers := slices.Clone(t.onAppend)
	t.mu.Unlock()

	t.metrics.RecordChatMessage(string(role))
	for _, fn := range observers {
		fn(msg)
	}
	return msg
}

func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.ChatMessage(nil), t.messages...)
}
