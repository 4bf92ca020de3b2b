// Package observability provides logging, Prometheus metrics and the HTTP
// surface used for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "pump_listener"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Session metrics
	SessionsStarted prometheus.Counter
	SessionOutcomes *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	Reconnects      prometheus.Counter

	// Feed metrics
	FramesReceived    prometheus.Counter
	EventsEmitted     prometheus.Counter
	MalformedFrames   prometheus.Counter
	DiscardedFrames   prometheus.Counter
	LastEventUnixTime prometheus.Gauge

	// Sink metrics
	SinkErrors  *prometheus.CounterVec
	SinkLatency *prometheus.HistogramVec

	registry prometheus.Gatherer
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total number of feed sessions started",
		}),
		SessionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "outcomes_total",
			Help:      "Total number of session terminations by outcome",
		}, []string{"outcome"}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Session lifetime in seconds",
			Buckets:   []float64{1, 10, 60, 300, 900, 3600, 14400, 86400},
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reconnects_scheduled_total",
			Help:      "Total number of reconnect delays scheduled",
		}),

		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_received_total",
			Help:      "Total number of frames received from the feed",
		}),
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_emitted_total",
			Help:      "Total number of token creation events emitted",
		}),
		MalformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "malformed_frames_total",
			Help:      "Total number of frames that could not be decoded",
		}),
		DiscardedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "discarded_frames_total",
			Help:      "Total number of frames ignored by the create filter",
		}),
		LastEventUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last emitted event",
		}),

		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Total number of sink emit failures by sink",
		}, []string{"sink"}),
		SinkLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "emit_latency_seconds",
			Help:      "Sink emit latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),

		registry: reg,
	}
}

// Handler returns an HTTP handler exposing these metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// All Record methods are safe on a nil *Metrics.

// RecordSessionStarted increments the sessions started counter.
func (m *Metrics) RecordSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// RecordSessionOutcome records a session termination.
func (m *Metrics) RecordSessionOutcome(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionOutcomes.WithLabelValues(outcome).Inc()
	m.SessionDuration.Observe(d.Seconds())
}

// RecordReconnect increments the reconnects counter.
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

// RecordFrame increments the frames received counter.
func (m *Metrics) RecordFrame() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

// RecordEmitted records an emitted event.
func (m *Metrics) RecordEmitted(at time.Time) {
	if m == nil {
		return
	}
	m.EventsEmitted.Inc()
	m.LastEventUnixTime.Set(float64(at.Unix()))
}

// RecordMalformed increments the malformed frames counter.
func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.MalformedFrames.Inc()
}

// RecordDiscarded increments the discarded frames counter.
func (m *Metrics) RecordDiscarded() {
	if m == nil {
		return
	}
	m.DiscardedFrames.Inc()
}

// RecordSinkEmit records sink latency and, if err is set, a sink error.
func (m *Metrics) RecordSinkEmit(sink string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SinkLatency.WithLabelValues(sink).Observe(d.Seconds())
	if err != nil {
		m.SinkErrors.WithLabelValues(sink).Inc()
	}
}
