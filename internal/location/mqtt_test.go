package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTSource_HandleFix(t *testing.T) {
	w, _ := newTestWatcher()
	src := NewMQTTSource(MQTTConfig{Topic: "guardian/location"}, w, zap.NewNop())

	src.handle(nil, fakeMessage{topic: "guardian/location", payload: []byte(`{"lat":37.78,"lng":-122.41,"accuracy":12.5}`)})

	got := w.Latest()
	require.NotNil(t, got)
	assert.Equal(t, 37.78, got.Lat)
	require.NotNil(t, got.Accuracy)
	assert.Equal(t, 12.5, *got.Accuracy)
}

func TestMQTTSource_IgnoresBadPayloads(t *testing.T) {
	w, _ := newTestWatcher()
	src := NewMQTTSource(MQTTConfig{Topic: "t"}, w, zap.NewNop())

	for _, p := range []string{`not json`, `{"lat":1}`, `{"lat":100,"lng":0}`} {
		src.handle(nil, fakeMessage{topic: "t", payload: []byte(p)})
	}
	assert.Nil(t, w.Latest())
}
