package listener

import (
	"time"

	"github.com/rs/zerolog"

	"pump-listener/internal/observability"
)

// LogObserver reports supervisor events to the logger and metrics.
type LogObserver struct {
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewLogObserver creates a LogObserver. metrics may be nil.
func NewLogObserver(logger zerolog.Logger, metrics *observability.Metrics) *LogObserver {
	return &LogObserver{logger: logger, metrics: metrics}
}

var _ Observer = (*LogObserver)(nil)

// SessionEnded logs the outcome at a level matching its kind.
func (o *LogObserver) SessionEnded(out Outcome) {
	o.metrics.RecordSessionOutcome(out.Kind.String(), out.Duration)

	var ev *zerolog.Event
	switch out.Kind {
	case OutcomeClosedByPeer:
		ev = o.logger.Warn()
	default:
		ev = o.logger.Error()
	}

	ev.Str("session", out.SessionID).
		Stringer("outcome", out.Kind).
		Err(out.Err).
		Dur("duration", out.Duration).
		Int("frames", out.Stats.Frames).
		Int("emitted", out.Stats.Emitted).
		Int("malformed", out.Stats.Malformed).
		Msg("Session ended")
}

// RetryScheduled logs the upcoming reconnect.
func (o *LogObserver) RetryScheduled(nextAttempt int, delay time.Duration) {
	o.metrics.RecordReconnect()
	o.logger.Info().Int("next_attempt", nextAttempt).Dur("delay", delay).
		Msgf("Reconnecting in %s", delay)
}

// Stopped logs a graceful stop.
func (o *LogObserver) Stopped(cause error) {
	o.logger.Warn().AnErr("cause", cause).Msg("Listener stopped")
}
