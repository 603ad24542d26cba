package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultConnectionTimeout = 60 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultMessageBufferSize = 16
	DefaultReadBufferSize    = 1024
	DefaultWriteBufferSize   = 1024
	DefaultMaxMessageSize    = 4096
)

var ErrSessionClosed = errors.New("websocket session closed")

type Config struct {
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int64
	MessageBufferSize int
	HeartbeatInterval time.Duration
	// ConnectionTimeout is how long the peer may stay silent, pongs included.
	ConnectionTimeout time.Duration
	WriteTimeout      time.Duration
	CheckOrigin       func(r *http.Request) bool
}

func DefaultConfig() Config {
	return Config{
		ReadBufferSize:    DefaultReadBufferSize,
		WriteBufferSize:   DefaultWriteBufferSize,
		MaxMessageSize:    DefaultMaxMessageSize,
		MessageBufferSize: DefaultMessageBufferSize,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ConnectionTimeout: DefaultConnectionTimeout,
		WriteTimeout:      DefaultWriteTimeout,
	}
}

// Session is one upgraded connection with a buffered, non-blocking send side.
type Session struct {
	ID   string
	conn *websocket.Conn
	cfg  Config
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Upgrade switches the request to the websocket protocol.
func Upgrade(w http.ResponseWriter, r *http.Request, cfg Config) (*Session, error) {
	up := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     cfg.CheckOrigin,
	}
	if up.CheckOrigin == nil {
		up.CheckOrigin = func(r *http.Request) bool { return true }
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	size := cfg.MessageBufferSize
	if size <= 0 {
		size = DefaultMessageBufferSize
	}
	return &Session{
		ID:   uuid.NewString(),
		conn: conn,
		cfg:  cfg,
		send: make(chan []byte, size),
		done: make(chan struct{}),
	}, nil
}

// Run pumps frames until the peer disconnects, ctx is cancelled or Close is
// called. onMessage runs on the reading goroutine, one frame at a time.
func (s *Session) Run(ctx context.Context, onMessage func(msg []byte)) error {
	go s.writePump()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	defer s.Close()
	return s.readPump(onMessage)
}

func (s *Session) readPump(onMessage func([]byte)) error {
	if s.cfg.MaxMessageSize > 0 {
		s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	}
	timeout := s.cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = DefaultConnectionTimeout
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			select {
			case <-s.done:
				return nil
			default:
			}
			return err
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
		onMessage(msg)
	}
}

func (s *Session) writePump() {
	interval := s.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}

// SendJSON queues v without blocking. It reports false when the session is
// closed or its buffer is full.
func (s *Session) SendJSON(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- b:
		return true
	default:
		return false
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}
