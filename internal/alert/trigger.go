// Package alert implements the countdown-gated SOS trigger.
//
// A press starts a five second countdown. Cancelling during the countdown
// returns to idle; letting it run out triggers the alert, switches the
// safety status to DANGER and notifies OnTrigger observers exactly once. A
// press while triggered stands the alert down.
package alert

import (
	"sync"
	"time"

	"GuardianAI/internal/models"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle         State = "IDLE"
	StateCountingDown State = "COUNTING_DOWN"
	StateTriggered    State = "TRIGGERED"
)

const InitialCountdown = 5

const tickInterval = time.Second

// Snapshot is the observable state after a transition.
type Snapshot struct {
	State     State               `json:"state"`
	Remaining int                 `json:"remaining"`
	Status    models.SafetyStatus `json:"status"`
	ChangedAt time.Time           `json:"changedAt"`
}

// Event describes one triggered alert. Location is nil when no fix was
// known at trigger time; LocationUnknown flags that case for consumers.
type Event struct {
	ID              string                    `json:"id"`
	Location        *models.Location          `json:"location"`
	LocationUnknown bool                      `json:"locationUnknown"`
	Contacts        []models.EmergencyContact `json:"contacts"`
	FiredAt         time.Time                 `json:"firedAt"`
	// StoodDownAt is set on the copy handed to OnStandDown observers.
	StoodDownAt     time.Time                 `json:"stoodDownAt,omitempty"`
}

// LocationSource is what the trigger reads the last known fix from.
type LocationSource interface {
	Latest() *models.Location
}

type Trigger struct {
	mu        sync.Mutex
	state     State
	remaining int
	status    models.SafetyStatus
	changedAt time.Time
	current   *Event
	closed    bool

	// ticker is the single countdown timer; gen tells its goroutine apart
	// from the one of a previous countdown.
	ticker *clock.Ticker
	stop   chan struct{}
	gen    uint64

	// emitMu keeps observer calls in transition order without holding mu.
	emitMu      sync.Mutex
	onChange    []func(Snapshot)
	onTrigger   []func(Event)
	onStandDown []func(Event)

	clock     clock.Clock
	locations LocationSource
	contacts  []models.EmergencyContact
	lg        *zap.Logger
	metrics   *metrics.Metrics
}

type Option func(*Trigger)

func WithClock(c clock.Clock) Option {
	return func(t *Trigger) { t.clock = c }
}

func WithLogger(lg *zap.Logger) Option {
	return func(t *Trigger) { t.lg = lg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trigger) { t.metrics = m }
}

func New(locations LocationSource, contacts []models.EmergencyContact, opts ...Option) *Trigger {
	t := &Trigger{
		state:     StateIdle,
		remaining: InitialCountdown,
		status:    models.StatusSafe,
		clock:     clock.New(),
		locations: locations,
		contacts:  append([]models.EmergencyContact(nil), contacts...),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.lg == nil {
		t.lg = logger.Named("alert")
	}
	t.changedAt = t.clock.Now()
	return t
}

// OnChange registers fn for every transition. Observers must not call back
// into Press, Cancel or Tick.
func (t *Trigger) OnChange(fn func(Snapshot)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onChange = append(t.onChange, fn)
}

func (t *Trigger) OnTrigger(fn func(Event)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onTrigger = append(t.onTrigger, fn)
}

func (t *Trigger) OnStandDown(fn func(Event)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	t.onStandDown = append(t.onStandDown, fn)
}

func (t *Trigger) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Trigger) snapshotLocked() Snapshot {
	return Snapshot{State: t.state, Remaining: t.remaining, Status: t.status, ChangedAt: t.changedAt}
}

// Event returns the alert of the current triggered cycle, or nil.
func (t *Trigger) Event() *Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	ev := *t.current
	return &ev
}

// emission is what a transition hands to observers once mu is released.
type emission struct {
	snap      *Snapshot
	triggered *Event
	stoodDown *Event
}

// Press starts the countdown from idle and stands a triggered alert down.
// Pressing while counting down changes nothing.
func (t *Trigger) Press() Snapshot {
	t.mu.Lock()
	if t.closed {
		defer t.mu.Unlock()
		return t.snapshotLocked()
	}

	var out emission
	switch t.state {
	case StateIdle:
		t.transitionLocked(StateCountingDown, InitialCountdown, t.status)
		t.startTickerLocked()
		out.snap = t.snapPtrLocked()
	case StateTriggered:
		ev := t.current
		t.current = nil
		t.transitionLocked(StateIdle, InitialCountdown, models.StatusSafe)
		out.snap = t.snapPtrLocked()
		if ev != nil {
			down := *ev
			down.StoodDownAt = out.snap.ChangedAt
			out.stoodDown = &down
		}
	case StateCountingDown:
		t.lg.Info("press ignored during countdown", zap.Int("remaining", t.remaining))
	}
	snap := t.snapshotLocked()
	t.emit(out)
	return snap
}

// Cancel aborts a running countdown. It does nothing in other states.
func (t *Trigger) Cancel() Snapshot {
	t.mu.Lock()
	var out emission
	if !t.closed && t.state == StateCountingDown {
		t.stopTickerLocked()
		t.transitionLocked(StateIdle, InitialCountdown, t.status)
		out.snap = t.snapPtrLocked()
	}
	snap := t.snapshotLocked()
	t.emit(out)
	return snap
}

// Tick advances the countdown by one second.
func (t *Trigger) Tick() Snapshot {
	t.mu.Lock()
	return t.tickLocked()
}

func (t *Trigger) tickGen(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.tickLocked()
}

// tickLocked is entered with mu held and releases it.
func (t *Trigger) tickLocked() Snapshot {
	var out emission
	if !t.closed && t.state == StateCountingDown {
		if t.remaining > 1 {
			t.transitionLocked(StateCountingDown, t.remaining-1, t.status)
		} else {
			t.stopTickerLocked()
			t.transitionLocked(StateTriggered, 0, models.StatusDanger)
			t.current = t.newEventLocked()
			ev := *t.current
			out.triggered = &ev
			t.metrics.RecordSOSTrigger()
		}
		out.snap = t.snapPtrLocked()
	}
	snap := t.snapshotLocked()
	t.emit(out)
	return snap
}

func (t *Trigger) newEventLocked() *Event {
	ev := &Event{
		ID:       uuid.NewString(),
		Contacts: append([]models.EmergencyContact(nil), t.contacts...),
		FiredAt:  t.changedAt,
	}
	if t.locations != nil {
		ev.Location = t.locations.Latest()
	}
	if ev.Location == nil {
		ev.LocationUnknown = true
		t.lg.Warn("sos triggered without a known location", zap.String("event_id", ev.ID))
	}
	return ev
}

func (t *Trigger) transitionLocked(to State, remaining int, status models.SafetyStatus) {
	from := t.state
	t.state = to
	t.remaining = remaining
	t.status = status
	t.changedAt = t.clock.Now()
	if from != to {
		t.metrics.RecordSOSTransition(string(from), string(to))
		t.lg.Debug("sos transition", zap.String("from", string(from)), zap.String("to", string(to)))
	}
}

func (t *Trigger) snapPtrLocked() *Snapshot {
	s := t.snapshotLocked()
	return &s
}

// emit is entered with mu held. It takes emitMu before releasing mu so
// observers see transitions in order.
func (t *Trigger) emit(out emission) {
	t.emitMu.Lock()
	t.mu.Unlock()
	defer t.emitMu.Unlock()

	if out.snap != nil {
		for _, fn := range t.onChange {
			fn(*out.snap)
		}
	}
	if out.triggered != nil {
		for _, fn := range t.onTrigger {
			fn(*out.triggered)
		}
	}
	if out.stoodDown != nil {
		for _, fn := range t.onStandDown {
			fn(*out.stoodDown)
		}
	}
}

func (t *Trigger) startTickerLocked() {
	t.stopTickerLocked()
	t.gen++
	gen := t.gen
	ticker := t.clock.Ticker(tickInterval)
	stop := make(chan struct{})
	t.ticker, t.stop = ticker, stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.tickGen(gen)
			}
		}
	}()
}

func (t *Trigger) stopTickerLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.stop)
	t.ticker, t.stop = nil, nil
	t.gen++
}

// Close stops the countdown timer. The trigger ignores input afterwards.
func (t *Trigger) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickerLocked()
	t.closed = true
}
