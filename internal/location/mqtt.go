package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GuardianAI/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

// mqttFix is the payload published by trackers on the location topic.
type mqttFix struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// MQTTSource feeds fixes from a broker topic into a Watcher.
type MQTTSource struct {
	cfg     MQTTConfig
	watcher *Watcher
	lg      *zap.Logger
	client  mqtt.Client
}

func NewMQTTSource(cfg MQTTConfig, w *Watcher, lg *zap.Logger) *MQTTSource {
	if lg == nil {
		lg = w.lg
	}
	return &MQTTSource{cfg: cfg, watcher: w, lg: lg.With(zap.String("topic", cfg.Topic))}
}

// Run connects, subscribes and blocks until ctx is done, then unsubscribes
// and disconnects.
func (s *MQTTSource) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.watcher.Report(fmt.Errorf("mqtt connection lost: %w", err))
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			// resubscribe after every reconnect
			if token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handle); token.Wait() && token.Error() != nil {
				s.watcher.Report(fmt.Errorf("mqtt subscribe %s: %w", s.cfg.Topic, token.Error()))
			}
		})

	s.client = mqtt.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to broker: %w", token.Error())
	}
	s.lg.Info("mqtt location source connected", zap.String("broker", s.cfg.Broker))

	<-ctx.Done()

	if token := s.client.Unsubscribe(s.cfg.Topic); token.WaitTimeout(time.Second) && token.Error() != nil {
		s.lg.Warn("mqtt unsubscribe failed", zap.Error(token.Error()))
	}
	s.client.Disconnect(250)
	s.lg.Info("mqtt location source stopped")
	return nil
}

func (s *MQTTSource) handle(_ mqtt.Client, msg mqtt.Message) {
	loc, err := decodeFix(msg.Payload())
	if err != nil {
		s.watcher.Report(fmt.Errorf("mqtt payload on %s: %w", msg.Topic(), err))
		return
	}
	if err := s.watcher.UpdateFrom(SourceMQTT, loc); err != nil {
		s.watcher.Report(err)
	}
}

func decodeFix(payload []byte) (models.Location, error) {
	var fix mqttFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		return models.Location{}, err
	}
	if fix.Lat == nil || fix.Lng == nil {
		return models.Location{}, fmt.Errorf("lat and lng are required")
	}
	return models.Location{Lat: *fix.Lat, Lng: *fix.Lng, Accuracy: fix.Accuracy}, nil
}
