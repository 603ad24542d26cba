// Package location holds the latest geolocation fix and fans new fixes out
// to scoped subscribers.
package location

import (
	"sync"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/errors"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Sources label where a fix came from in logs and metrics.
const (
	SourceHTTP   = "http"
	SourceStream = "websocket"
	SourceMQTT   = "mqtt"
)

var ErrInvalidFix = errors.Sentinel(errors.CodeInvalidFix, "invalid location fix")

type Watcher struct {
	mu     sync.Mutex
	latest *models.Location
	subs   map[uint64]chan models.Location
	nextID uint64
	closed bool

	clock   clock.Clock
	lg      *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Watcher)

func WithClock(c clock.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

func WithLogger(lg *zap.Logger) Option {
	return func(w *Watcher) { w.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

func NewWatcher(opts ...Option) *Watcher {
	w := &Watcher{
		subs:  make(map[uint64]chan models.Location),
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.lg == nil {
		w.lg = logger.Named("location")
	}
	return w
}

// Subscribe returns a channel receiving every later fix, primed with the
// latest one when known. Each channel holds one pending fix; a slow reader
// sees only the newest. The returned func unsubscribes and closes the
// channel, and may be called any number of times.
func (w *Watcher) Subscribe() (<-chan models.Location, func()) {
	ch := make(chan models.Location, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	if w.latest != nil {
		ch <- *w.latest
	}
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if c, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(c)
			}
		})
	}
}

// Update accepts a fix pushed over the HTTP API.
func (w *Watcher) Update(loc models.Location) error {
	return w.UpdateFrom(SourceHTTP, loc)
}

// UpdateFrom validates loc, stamps it with the receive time and publishes it.
// Rejected fixes leave the latest fix untouched.
func (w *Watcher) UpdateFrom(source string, loc models.Location) error {
	if err := loc.Validate(); err != nil {
		w.metrics.RecordLocation(source, false)
		w.lg.Debug("rejected fix", zap.String("source", source), zap.Error(err))
		return errors.WrapCode(err, errors.CodeInvalidFix, "invalid location fix")
	}
	loc.UpdatedAt = w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	fix := loc
	w.latest = &fix
	for _, ch := range w.subs {
		offer(ch, loc)
	}
	w.metrics.RecordLocation(source, true)
	return nil
}

// offer replaces any pending fix with loc. Callers hold w.mu, so ch is open.
func offer(ch chan models.Location, loc models.Location) {
	select {
	case ch <- loc:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- loc:
	default:
	}
}

// Latest returns a copy of the most recent fix, or nil before the first one.
func (w *Watcher) Latest() *models.Location {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		return nil
	}
	fix := *w.latest
	return &fix
}

// Report records an acquisition failure from a source. Such errors are
// never surfaced to callers.
func (w *Watcher) Report(err error) {
	if err == nil {
		return
	}
	w.lg.Warn("location acquisition failed", zap.Error(err))
}

// Subscribers is the number of open subscriptions.
func (w *Watcher) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Close ends every subscription. Later updates are dropped.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}
