package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Client is one connected event stream. A client with no topics receives
// every event; otherwise only events whose name it joined.
type Client struct {
	id     string
	topics map[string]bool
	ch     chan string
	done   chan struct{}
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	topics   map[string]map[string]bool // topic -> clientID set
	interval time.Duration
	retryMs  int
	seq      atomic.Uint64
	dropped  func(event string)
	counted  func(clients int)
	closed   bool
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*Client),
		topics:   make(map[string]map[string]bool),
		interval: interval,
		retryMs:  5000,
	}
}

// OnDrop registers a callback for events discarded because a client buffer was full.
func (h *Hub) OnDrop(fn func(event string)) {
	h.mu.Lock()
	h.dropped = fn
	h.mu.Unlock()
}

// OnClientCount registers a callback run with the client count after every
// connect and disconnect.
func (h *Hub) OnClientCount(fn func(clients int)) {
	h.mu.Lock()
	h.counted = fn
	h.mu.Unlock()
}

// Events is the raw stream of formatted messages queued for the client.
func (c *Client) Events() <-chan string {
	return c.ch
}

// AddClient registers a client already subscribed to topics.
func (h *Hub) AddClient(id string, topics ...string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, topics: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	if h.closed {
		close(c.done)
		return c
	}
	h.clients[id] = c
	for _, t := range topics {
		h.joinLocked(c, t)
	}
	if h.counted != nil {
		h.counted(len(h.clients))
	}
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	close(c.done)
	for t := range c.topics {
		delete(h.topics[t], id)
	}
	delete(h.clients, id)
	if h.counted != nil {
		h.counted(len(h.clients))
	}
}

// Close disconnects every client and makes later streams end at once.
// http.Server.Shutdown does not cancel running handlers, so servers register
// it with RegisterOnShutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.done)
		delete(h.clients, id)
	}
	h.topics = make(map[string]map[string]bool)
	if h.counted != nil {
		h.counted(0)
	}
}

func (h *Hub) Join(id, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		h.joinLocked(c, topic)
	}
}

func (h *Hub) joinLocked(c *Client, topic string) {
	c.topics[topic] = true
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[string]bool)
	}
	h.topics[topic][c.id] = true
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends v as a named event to every interested client. Full client
// buffers drop the event instead of blocking the publisher.
func (h *Hub) Publish(event string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	msg := formatEvent(h.seq.Add(1), event, string(b))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if len(c.topics) > 0 && !h.topics[event][id] {
			continue
		}
		select {
		case c.ch <- msg:
		default:
			if h.dropped != nil {
				h.dropped(event)
			}
		}
	}
}

func formatEvent(id uint64, event, data string) string {
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
}

// Serve streams events to the request until it is cancelled or the client
// is removed. ?topics=a,b restricts the stream to those event names.
func (h *Hub) Serve(c *gin.Context, clientID string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	var topics []string
	for _, t := range strings.Split(c.Query("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	client := h.AddClient(clientID, topics...)
	defer h.RemoveClient(clientID)

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			_, _ = c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
