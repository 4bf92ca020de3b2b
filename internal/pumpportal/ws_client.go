package pumpportal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket transport behavior.
type WSConfig struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// CloseTimeout bounds the close frame sent on teardown.
	CloseTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
// There is deliberately no read timeout: the feed may stay quiet for long periods.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		CloseTimeout:     time.Second,
	}
}

// WSTransport implements Transport using gorilla/websocket.
type WSTransport struct {
	config WSConfig
	dialer *websocket.Dialer
}

// NewWSTransport creates a transport. A nil config uses DefaultWSConfig.
func NewWSTransport(config *WSConfig) *WSTransport {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	return &WSTransport{
		config: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Compile-time interface check.
var _ Transport = (*WSTransport)(nil)

// Dial establishes a WebSocket connection.
func (t *WSTransport) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, resp, err := t.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{conn: conn, config: t.config}, nil
}

// wsConn adapts *websocket.Conn to Conn.
type wsConn struct {
	conn      *websocket.Conn
	config    WSConfig
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Send(data []byte) error {
	if c.config.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *wsConn) Receive() (Frame, error) {
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Frame{}, fmt.Errorf("%w: %v", ErrClosedByPeer, err)
		}
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return Frame{Text: msgType == websocket.TextMessage, Data: data}, nil
}

// Close sends a best-effort close frame and closes the socket.
// Concurrent calls with Receive are allowed; the blocked read returns an error.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.config.CloseTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.closeErr = err
		}
	})
	return c.closeErr
}
