package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/veriscan/go-docscan/internal/log"
)

const (
	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 10 * time.Second

	// writeWait is how long to wait for a write to complete.
	writeWait = 10 * time.Second

	// maxMessageSize is the largest inbound message accepted. Completion
	// messages carry a base64 best image, so allow a few megabytes.
	maxMessageSize = 8 * 1024 * 1024
)

// WSChannel is the websocket implementation of Channel. A fresh session ID
// is attached to every connection so backend logs can correlate streams.
type WSChannel struct {
	endpoint string
	token    string

	mu        sync.Mutex
	conn      *websocket.Conn
	status    Status
	disposed  bool
	sessionID string

	onStatus  func(Status)
	onMessage func([]byte)
	onError   func(error)
}

// NewWSChannel creates a channel addressing the given websocket endpoint.
// The token is sent as a bearer credential during the handshake.
func NewWSChannel(endpoint, token string) *WSChannel {
	return &WSChannel{
		endpoint: endpoint,
		token:    token,
		status:   StatusDisconnected,
	}
}

// OnStatus registers the connection-state callback.
func (c *WSChannel) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// OnMessage registers the inbound-message callback.
func (c *WSChannel) OnMessage(fn func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// OnError registers the inbound-error callback.
func (c *WSChannel) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Status returns the current connection state.
func (c *WSChannel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SessionID returns the ID of the current connection, empty before the
// first Connect.
func (c *WSChannel) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Connect dials the backend and starts the read pump.
func (c *WSChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.sessionID = uuid.NewString()
	sessionID := c.sessionID
	c.mu.Unlock()

	c.setStatus(StatusConnecting)

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	header.Set("X-Session-ID", sessionID)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		c.setStatus(StatusError)
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("transport: dial %s: %w", c.endpoint, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		conn.Close()
		return ErrDisposed
	}
	c.conn = conn
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	log.Info("transport connected", "endpoint", c.endpoint, "session", sessionID)

	go c.readPump(conn)
	return nil
}

// Send writes one binary message to the backend.
func (c *WSChannel) Send(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if conn == nil || c.status != StatusConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	// Hold the lock across the write: gorilla connections allow only
	// one concurrent writer.
	defer c.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Disconnect closes the current connection. The channel can be connected
// again afterwards.
func (c *WSChannel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
	c.setStatus(StatusDisconnected)
}

// Dispose permanently shuts the channel down. Idempotent.
func (c *WSChannel) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	conn := c.conn
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// readPump delivers inbound messages until the connection drops.
func (c *WSChannel) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			disposed := c.disposed
			current := c.conn == conn
			if current {
				c.conn = nil
			}
			c.mu.Unlock()

			// Stale pump after Disconnect/Dispose: stay quiet.
			if disposed || !current {
				return
			}

			log.Warn("transport read failed", "err", err)
			c.emitError(err)
			c.setStatus(StatusError)
			c.setStatus(StatusDisconnected)
			conn.Close()
			return
		}
		c.emitMessage(data)
	}
}

func (c *WSChannel) setStatus(s Status) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	fn := c.onStatus
	c.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

func (c *WSChannel) emitMessage(data []byte) {
	c.mu.Lock()
	fn := c.onMessage
	disposed := c.disposed
	c.mu.Unlock()
	if fn != nil && !disposed {
		fn(data)
	}
}

func (c *WSChannel) emitError(err error) {
	c.mu.Lock()
	fn := c.onError
	disposed := c.disposed
	c.mu.Unlock()
	if fn != nil && !disposed {
		fn(err)
	}
}
