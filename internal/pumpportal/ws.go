// Package pumpportal implements the PumpPortal data feed protocol:
// wire types, frame parsing and a WebSocket transport.
package pumpportal

import (
	"context"
	"errors"
)

// DefaultEndpoint is the public PumpPortal data feed.
const DefaultEndpoint = "wss://pumpportal.fun/api/data"

// ErrClosedByPeer is returned by Conn.Receive when the remote end closed the
// connection with a normal or going-away close frame.
var ErrClosedByPeer = errors.New("connection closed by peer")

// Transport opens feed connections.
type Transport interface {
	// Dial connects to endpoint. It must honor ctx cancellation.
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Conn is one feed connection. It supports a single reader and a single
// writer; callers must not use it concurrently.
type Conn interface {
	// Send writes data as one text frame.
	Send(data []byte) error

	// Receive blocks until the next frame arrives.
	// Returns an error wrapping ErrClosedByPeer on a clean remote close.
	Receive() (Frame, error)

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Frame is a single received WebSocket message.
type Frame struct {
	Text bool
	Data []byte
}
