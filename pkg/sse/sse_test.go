package sse

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	h := NewHub(time.Minute)
	a := h.AddClient("a")
	b := h.AddClient("b")
	h.Join("b", "sos")

	h.Publish("status", map[string]string{"status": "DANGER"})
	h.Publish("sos", map[string]int{"remaining": 4})

	assert.Len(t, a.ch, 2)
	require.Len(t, b.ch, 1)
	msg := <-b.ch
	assert.Contains(t, msg, "event: sos\n")
	assert.Contains(t, msg, `data: {"remaining":4}`)
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(time.Minute)
	h.AddClient("slow")
	var dropped int
	h.OnDrop(func(string) { dropped++ })

	for i := 0; i < 70; i++ {
		h.Publish("location", i)
	}
	assert.Equal(t, 6, dropped)
}

func TestRemoveClient(t *testing.T) {
	h := NewHub(time.Minute)
	c := h.AddClient("x")
	h.Join("x", "chat")
	h.RemoveClient("x")
	h.RemoveClient("x")

	assert.Equal(t, 0, h.Clients())
	_, open := <-c.done
	assert.False(t, open)
	assert.Empty(t, h.topics["chat"])
}

func TestServeStreamsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(time.Minute)
	r := gin.New()
	r.GET("/events", func(c *gin.Context) { h.Serve(c, "client-1") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?topics=report", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	assert.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)
	h.Publish("chat", "ignored")
	h.Publish("report", map[string]string{"id": "r3"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 4 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "retry:") {
			lines = append(lines, strings.TrimSpace(line))
		}
		if strings.HasPrefix(line, "data:") {
			break
		}
	}
	assert.Contains(t, lines, "event: report")
	assert.Contains(t, lines, `data: {"id":"r3"}`)
	assert.NotContains(t, lines, "event: chat")
}

func TestCloseEndsStreamsOnShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub(time.Minute)
	engine := gin.New()
	engine.GET("/events", func(c *gin.Context) { h.Serve(c, "dash") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: engine}
	srv.RegisterOnShutdown(h.Close)
	go func() { _ = srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, h.Clients())

	late := h.AddClient("late")
	_, open := <-late.done
	assert.False(t, open)
}
