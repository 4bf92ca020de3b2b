package listener

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pump-listener/internal/observability"
	"pump-listener/internal/pumpportal"
)

// DefaultRetryDelay is the constant pause between sessions.
const DefaultRetryDelay = 10 * time.Second

// Observer is told about every session termination and restart.
type Observer interface {
	// SessionEnded reports a non-cancelled session outcome.
	SessionEnded(out Outcome)
	// RetryScheduled reports the pause before the next attempt (1-based).
	RetryScheduled(nextAttempt int, delay time.Duration)
	// Stopped reports that the supervisor is returning because of cause.
	Stopped(cause error)
}

// SupervisorOptions contains configuration for creating a Supervisor.
type SupervisorOptions struct {
	Endpoint   string
	Transport  pumpportal.Transport
	Parser     *pumpportal.Parser
	Sink       EventSink
	RetryDelay time.Duration // Default: 10s, constant between attempts
	Observer   Observer      // Default: LogObserver
	Metrics    *observability.Metrics
	Logger     zerolog.Logger

	// Sleep waits d or until ctx is done. Default: timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Supervisor keeps a session running. It restarts after every termination
// with a fixed delay and only returns when its context is cancelled.
// There is no backoff, jitter or retry cap.
type Supervisor struct {
	opts   SupervisorOptions
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	obs    Observer
	logger zerolog.Logger
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	if opts.Parser == nil {
		opts.Parser = pumpportal.NewParser("")
	}

	obs := opts.Observer
	if obs == nil {
		obs = NewLogObserver(opts.Logger, opts.Metrics)
	}

	return &Supervisor{
		opts:   opts,
		delay:  delay,
		sleep:  sleep,
		obs:    obs,
		logger: opts.Logger,
	}
}

// Run blocks until ctx is cancelled and returns ctx.Err().
// At most one session is active at any time.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info().Str("endpoint", s.opts.Endpoint).Dur("retry_delay", s.delay).
		Msg("Starting listener loop")

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			s.obs.Stopped(err)
			return err
		}

		session := NewSession(SessionOptions{
			Endpoint:  s.opts.Endpoint,
			Transport: s.opts.Transport,
			Parser:    s.opts.Parser,
			Sink:      s.opts.Sink,
			Metrics:   s.opts.Metrics,
			Logger:    s.logger.With().Int("attempt", attempt).Logger(),
		})

		out := session.Run(ctx)
		if out.Kind == OutcomeCancelled {
			s.obs.Stopped(out.Err)
			return ctx.Err()
		}

		s.obs.SessionEnded(out)
		s.obs.RetryScheduled(attempt+1, s.delay)

		if err := s.sleep(ctx, s.delay); err != nil {
			s.obs.Stopped(err)
			return err
		}
	}
}

// sleepContext waits d, returning early with ctx.Err() on cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
