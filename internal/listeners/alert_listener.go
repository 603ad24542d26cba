package listeners

import (
	"context"
	"fmt"
	"time"

	"GuardianAI/internal/alert"
	"GuardianAI/internal/models"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"
	"GuardianAI/pkg/notification"
	"GuardianAI/pkg/sse"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Event names on the dashboard stream.
const (
	EventStatus   = "status"
	EventSOS      = "sos"
	EventLocation = "location"
	EventReport   = "report"
	EventChat     = "chat"
)

const smsTimeout = 10 * time.Second

// AlertDeps are the side-effect sinks of the SOS trigger. Nil members are
// skipped.
type AlertDeps struct {
	DB      *gorm.DB
	SMS     *notification.SMS
	Hub     *sse.Hub
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// StatusEvent is the payload of the status stream event.
type StatusEvent struct {
	Status  models.SafetyStatus `json:"status"`
	AlertID string              `json:"alertId,omitempty"`
	Alert   *alert.Event        `json:"alert,omitempty"`
}

// InitAlertListeners wires the trigger's transitions to logging, contact
// notification, the audit log and the event stream.
func InitAlertListeners(t *alert.Trigger, deps AlertDeps) {
	lg := deps.Logger
	if lg == nil {
		lg = logger.Named("listeners")
	}

	t.OnChange(func(s alert.Snapshot) {
		if deps.Hub != nil {
			deps.Hub.Publish(EventSOS, s)
		}
	})

	t.OnTrigger(func(ev alert.Event) {
		if ev.Location != nil {
			lg.Warn("SOS triggered, sending coordinates to contacts",
				zap.String("event_id", ev.ID),
				zap.Float64("lat", ev.Location.Lat),
				zap.Float64("lng", ev.Location.Lng),
				zap.Int("contacts", len(ev.Contacts)))
		} else {
			lg.Warn("SOS triggered, location unknown",
				zap.String("event_id", ev.ID),
				zap.Int("contacts", len(ev.Contacts)))
		}

		if deps.SMS != nil {
			for _, c := range ev.Contacts {
				go notifyContact(deps.SMS, deps.Metrics, lg, c, ev)
			}
		}

		if deps.DB != nil {
			details := models.AlertDetails{Location: ev.Location, Contacts: ev.Contacts}
			if _, err := models.CreateAlert(deps.DB, ev.ID, details, ev.FiredAt); err != nil {
				lg.Error("record alert failed", zap.String("event_id", ev.ID), zap.Error(err))
			}
		}

		if deps.Hub != nil {
			deps.Hub.Publish(EventStatus, StatusEvent{Status: models.StatusDanger, AlertID: ev.ID, Alert: &ev})
		}
	})

	t.OnStandDown(func(ev alert.Event) {
		lg.Info("SOS stood down", zap.String("event_id", ev.ID))
		if deps.DB != nil {
			err := models.ResolveAlert(deps.DB, ev.ID, models.AlertStatusCompleted, models.ActionStandDown, ev.StoodDownAt)
			if err != nil {
				lg.Error("resolve alert failed", zap.String("event_id", ev.ID), zap.Error(err))
			}
		}
		if deps.Hub != nil {
			deps.Hub.Publish(EventStatus, StatusEvent{Status: models.StatusSafe, AlertID: ev.ID})
		}
	})
}

func notifyContact(sms *notification.SMS, m *metrics.Metrics, lg *zap.Logger, c models.EmergencyContact, ev alert.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), smsTimeout)
	defer cancel()

	where := "unknown"
	if ev.Location != nil {
		where = fmt.Sprintf("%.6f,%.6f", ev.Location.Lat, ev.Location.Lng)
	}
	err := sms.SendAlert(ctx, c.Phone, map[string]string{
		"name":     c.Name,
		"location": where,
		"time":     ev.FiredAt.Format(time.RFC3339),
	})
	m.RecordNotification("sms", err)
	if err != nil {
		lg.Warn("send sms failed", zap.String("contact", c.Name), zap.Error(err))
	}
}
