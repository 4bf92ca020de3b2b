package listener

import (
	"context"
	"errors"
	"time"

	"pump-listener/internal/domain"
)

// Session errors. Outcome.Err wraps one of these together with the cause.
var (
	// ErrConnectFailed is returned when the transport could not connect.
	ErrConnectFailed = errors.New("connect failed")

	// ErrSessionFailed is returned for transport faults after connect and
	// for sink failures.
	ErrSessionFailed = errors.New("session failed")
)

// EventSink receives token creation events. A returned error terminates the
// session that emitted the event.
type EventSink interface {
	Emit(ctx context.Context, event domain.TokenCreationEvent) error
}

// OutcomeKind classifies how a session ended.
type OutcomeKind int

const (
	// OutcomeConnectFailed: the transport could not establish a connection.
	OutcomeConnectFailed OutcomeKind = iota + 1
	// OutcomeClosedByPeer: the remote end closed the connection cleanly.
	OutcomeClosedByPeer
	// OutcomeSessionError: any other transport fault or a sink failure.
	OutcomeSessionError
	// OutcomeCancelled: the context was cancelled.
	OutcomeCancelled
)

// String returns the metric label for k.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeConnectFailed:
		return "connect_failed"
	case OutcomeClosedByPeer:
		return "closed_by_peer"
	case OutcomeSessionError:
		return "session_error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SessionState is the lifecycle position of a session.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateSubscribed
	StateReceiving
	StateClosed
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReceiving:
		return "receiving"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionStats counts frames handled by one session.
type SessionStats struct {
	Frames    int
	Emitted   int
	Malformed int
	Discarded int
}

// Outcome is the result of one session.
type Outcome struct {
	Kind       OutcomeKind
	Err        error // cause; wraps ErrConnectFailed or ErrSessionFailed where applicable
	SessionID  string
	FinalState SessionState
	Stats      SessionStats
	Duration   time.Duration
}
