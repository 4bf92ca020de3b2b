// Package listener runs the feed subscription: a Session owns one connection
// from connect to termination, and a Supervisor restarts sessions forever.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"pump-listener/internal/observability"
	"pump-listener/internal/pumpportal"
)

// SessionOptions contains configuration for creating a Session.
type SessionOptions struct {
	Endpoint  string
	Transport pumpportal.Transport
	Parser    *pumpportal.Parser // Default: pumpportal.NewParser("")
	Sink      EventSink
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
	Now       func() time.Time // Default: time.Now
}

// Session handles a single connection lifetime. It is not reusable.
type Session struct {
	id        string
	endpoint  string
	transport pumpportal.Transport
	parser    *pumpportal.Parser
	sink      EventSink
	metrics   *observability.Metrics
	logger    zerolog.Logger
	now       func() time.Time

	state SessionState
	stats SessionStats
}

// NewSession creates a session with a fresh session ID.
func NewSession(opts SessionOptions) *Session {
	parser := opts.Parser
	if parser == nil {
		parser = pumpportal.NewParser("")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	id := newSessionID(now)

	return &Session{
		id:        id,
		endpoint:  opts.Endpoint,
		transport: opts.Transport,
		parser:    parser,
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With().Str("session", id).Logger(),
		now:       now,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Run connects, subscribes and processes frames until the connection ends or
// ctx is cancelled. The connection is closed before Run returns.
func (s *Session) Run(ctx context.Context) Outcome {
	start := s.now()
	s.metrics.RecordSessionStarted()

	out := s.run(ctx)
	out.SessionID = s.id
	out.FinalState = s.state
	out.Stats = s.stats
	out.Duration = s.now().Sub(start)
	return out
}

func (s *Session) run(ctx context.Context) Outcome {
	s.setState(StateConnecting)
	if err := ctx.Err(); err != nil {
		return s.cancelled(err)
	}

	s.logger.Info().Str("endpoint", s.endpoint).Msg("Connecting to feed")
	conn, err := s.transport.Dial(ctx, s.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancelled(ctx.Err())
		}
		return s.fail(OutcomeConnectFailed, fmt.Errorf("%w: %w", ErrConnectFailed, err))
	}

	// A blocked Receive only returns once the connection is torn down.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
	}()

	s.logger.Info().Msg("Connected to feed")

	payload, err := json.Marshal(pumpportal.NewTokenSubscription())
	if err != nil {
		return s.fail(OutcomeSessionError, fmt.Errorf("%w: encode subscribe: %w", ErrSessionFailed, err))
	}
	if err := conn.Send(payload); err != nil {
		if ctx.Err() != nil {
			return s.cancelled(ctx.Err())
		}
		return s.fail(OutcomeSessionError, fmt.Errorf("%w: subscribe: %w", ErrSessionFailed, err))
	}
	s.setState(StateSubscribed)
	s.logger.Info().Str("method", pumpportal.MethodSubscribeNewToken).Msg("Subscribed to new token stream")

	s.setState(StateReceiving)
	for {
		if err := ctx.Err(); err != nil {
			return s.cancelled(err)
		}

		frame, err := conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return s.cancelled(ctx.Err())
			}
			if errors.Is(err, pumpportal.ErrClosedByPeer) {
				s.setState(StateClosed)
				return Outcome{Kind: OutcomeClosedByPeer, Err: err}
			}
			return s.fail(OutcomeSessionError, fmt.Errorf("%w: %w", ErrSessionFailed, err))
		}

		if err := s.handleFrame(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return s.cancelled(ctx.Err())
			}
			return s.fail(OutcomeSessionError, fmt.Errorf("%w: %w", ErrSessionFailed, err))
		}
	}
}

// handleFrame parses one frame and emits it if it is a create event.
// Only sink failures are returned; malformed and filtered frames are not errors.
func (s *Session) handleFrame(ctx context.Context, frame pumpportal.Frame) error {
	s.stats.Frames++
	s.metrics.RecordFrame()

	event, err := s.parser.Parse(frame.Data)
	if err != nil {
		s.stats.Malformed++
		s.metrics.RecordMalformed()
		s.logger.Warn().Err(err).Bool("text", frame.Text).Int("bytes", len(frame.Data)).
			Msg("Failed to process message")
		return nil
	}

	if event == nil {
		s.stats.Discarded++
		s.metrics.RecordDiscarded()
		s.logger.Debug().Int("bytes", len(frame.Data)).Msg("Discarded non-create frame")
		return nil
	}

	if err := s.sink.Emit(ctx, *event); err != nil {
		return fmt.Errorf("emit event %s: %w", event.MintAddress, err)
	}

	s.stats.Emitted++
	s.metrics.RecordEmitted(s.now())
	s.logger.Debug().Str("mint", event.MintAddress).Str("symbol", event.Symbol).Msg("Token creation emitted")
	return nil
}

func (s *Session) setState(state SessionState) {
	s.state = state
	s.logger.Debug().Stringer("state", state).Msg("Session state")
}

func (s *Session) fail(kind OutcomeKind, err error) Outcome {
	s.setState(StateFailed)
	return Outcome{Kind: kind, Err: err}
}

func (s *Session) cancelled(err error) Outcome {
	s.setState(StateClosed)
	return Outcome{Kind: OutcomeCancelled, Err: err}
}

func newSessionID(now func() time.Time) string {
	id, err := gonanoid.New(12)
	if err != nil {
		return strconv.FormatInt(now().UnixNano(), 36)
	}
	return id
}
