package listeners

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"GuardianAI/internal/alert"
	"GuardianAI/internal/chat"
	"GuardianAI/internal/location"
	"GuardianAI/internal/models"
	"GuardianAI/internal/reports"
	"GuardianAI/pkg/notification"
	"GuardianAI/pkg/sse"
	"GuardianAI/pkg/util"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedLocation struct{ loc *models.Location }

func (f fixedLocation) Latest() *models.Location { return f.loc }

func nextEvent(t *testing.T, c *sse.Client) string {
	t.Helper()
	select {
	case msg := <-c.Events():
		return msg
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return ""
}

func TestAlertListeners_TriggerAndStandDown(t *testing.T) {
	db, err := util.InitDatabase(io.Discard, "sqlite", "")
	require.NoError(t, err)
	require.NoError(t, models.MigrateAlerts(db))

	smsClient := notification.NewLogSMSClient(zap.NewNop())
	hub := sse.NewHub(time.Minute)
	statusClient := hub.AddClient("status", EventStatus)

	loc := &models.Location{Lat: 37.7749, Lng: -122.4194}
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC))
	tr := alert.New(fixedLocation{loc}, models.DefaultContacts(), alert.WithClock(mock), alert.WithLogger(zap.NewNop()))
	defer tr.Close()
	InitAlertListeners(tr, AlertDeps{
		DB:     db,
		SMS:    notification.NewSMS(notification.SMSConfig{SignName: "GuardianAI", TemplateCode: "SOS_1"}, smsClient),
		Hub:    hub,
		Logger: zap.NewNop(),
	})

	tr.Press()
	for i := 0; i < alert.InitialCountdown; i++ {
		tr.Tick()
	}
	ev := tr.Event()
	require.NotNil(t, ev)

	msg := nextEvent(t, statusClient)
	assert.Contains(t, msg, "event: status")
	assert.Contains(t, msg, `"status":"DANGER"`)

	require.Eventually(t, func() bool { return len(smsClient.Sent()) == 2 }, time.Second, 5*time.Millisecond)
	phones := []string{smsClient.Sent()[0].Phone, smsClient.Sent()[1].Phone}
	assert.ElementsMatch(t, []string{"+1 234 567 8901", "+1 987 654 3210"}, phones)
	assert.Equal(t, "37.774900,-122.419400", smsClient.Sent()[0].Params["location"])

	row, err := models.GetAlertByEventID(db, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusPending, row.Status)
	assert.Contains(t, row.AlertDetails, "Sarah")

	mock.Add(3 * time.Minute)
	standDownAt := mock.Now()
	tr.Press()
	msg = nextEvent(t, statusClient)
	assert.Contains(t, msg, `"status":"SAFE"`)

	row, err = models.GetAlertByEventID(db, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusCompleted, row.Status)
	actions, err := models.ListAlertActions(db, row.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionTrigger, actions[0].Action)
	assert.Equal(t, models.ActionStandDown, actions[1].Action)
	assert.True(t, actions[0].ActionTime.Equal(ev.FiredAt), "trigger at %s", actions[0].ActionTime)
	assert.True(t, actions[1].ActionTime.Equal(standDownAt), "stand down at %s", actions[1].ActionTime)
}

func TestAlertListeners_CountdownEvents(t *testing.T) {
	hub := sse.NewHub(time.Minute)
	sos := hub.AddClient("sos", EventSOS)

	tr := alert.New(fixedLocation{}, nil, alert.WithClock(clock.NewMock()), alert.WithLogger(zap.NewNop()))
	defer tr.Close()
	InitAlertListeners(tr, AlertDeps{Hub: hub, Logger: zap.NewNop()})

	tr.Press()
	tr.Tick()
	tr.Cancel()

	assert.Contains(t, nextEvent(t, sos), `"remaining":5`)
	assert.Contains(t, nextEvent(t, sos), `"remaining":4`)
	last := nextEvent(t, sos)
	assert.Contains(t, last, `"state":"IDLE"`)
}

func TestStreamListeners(t *testing.T) {
	hub := sse.NewHub(time.Minute)
	all := hub.AddClient("all")

	store := reports.New(nil, reports.WithLogger(zap.NewNop()))
	transcript := chat.New(adviceFunc(func() string { return "stay safe" }), chat.WithLogger(zap.NewNop()))
	InitStreamListeners(hub, store, transcript)

	_, err := store.Submit(context.Background(), reports.SubmitRequest{Type: models.ReportSafeZone, Description: "lit"}, &models.Location{Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.Contains(t, nextEvent(t, all), "event: report")

	_, err = transcript.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, nextEvent(t, all), `"role":"user"`)
	assert.Contains(t, nextEvent(t, all), `"content":"stay safe"`)
}

type adviceFunc func() string

func (f adviceFunc) GetSafetyAdvice(context.Context, string, string) string { return f() }

func TestForwardLocations(t *testing.T) {
	hub := sse.NewHub(time.Minute)
	client := hub.AddClient("loc", EventLocation)
	w := location.NewWatcher(location.WithLogger(zap.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	ForwardLocations(ctx, w, hub)
	require.Eventually(t, func() bool { return w.Subscribers() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, w.Update(models.Location{Lat: 12.5, Lng: 45}))
	msg := nextEvent(t, client)
	assert.True(t, strings.HasPrefix(msg, "id: "))
	assert.Contains(t, msg, `"lat":12.5`)

	cancel()
	require.Eventually(t, func() bool { return w.Subscribers() == 0 }, time.Second, time.Millisecond)
}
