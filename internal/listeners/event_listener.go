package listeners

import (
	"context"

	"GuardianAI/internal/chat"
	"GuardianAI/internal/location"
	"GuardianAI/internal/models"
	"GuardianAI/internal/reports"
	"GuardianAI/pkg/sse"
)

// InitStreamListeners forwards new reports and chat messages to the stream.
func InitStreamListeners(hub *sse.Hub, store *reports.Store, transcript *chat.Transcript) {
	store.OnAdd(func(r models.CommunityReport) {
		hub.Publish(EventReport, r)
	})
	transcript.OnAppend(func(m models.ChatMessage) {
		hub.Publish(EventChat, m)
	})
}

// ForwardLocations publishes every fix as a location event until ctx is
// done or the watcher closes.
func ForwardLocations(ctx context.Context, w *location.Watcher, hub *sse.Hub) {
	fixes, unsubscribe := w.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case loc, ok := <-fixes:
				if !ok {
					return
				}
				hub.Publish(EventLocation, loc)
			}
		}
	}()
}
