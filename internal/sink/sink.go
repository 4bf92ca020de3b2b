// Package sink provides EventSink implementations for token creation events.
//
// Sinks print, log, persist or forward events. The listener core only calls
// Emit; everything a sink does with the event is outside the session loop.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pump-listener/internal/domain"
	"pump-listener/internal/observability"
)

// Sink receives token creation events.
type Sink interface {
	Emit(ctx context.Context, event domain.TokenCreationEvent) error
}

// Func adapts a plain function to Sink.
type Func func(ctx context.Context, event domain.TokenCreationEvent) error

// Emit calls f.
func (f Func) Emit(ctx context.Context, event domain.TokenCreationEvent) error {
	return f(ctx, event)
}

// Named pairs a sink with the label used in logs and metrics.
type Named struct {
	Name string
	Sink Sink
}

// Multi delivers each event to every sink in order.
// All sinks are attempted; their errors are joined.
type Multi []Named

// Emit delivers event to all sinks.
func (m Multi) Emit(ctx context.Context, event domain.TokenCreationEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Sink.Emit(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", n.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Instrumented records latency and errors of the wrapped sink.
type Instrumented struct {
	name    string
	next    Sink
	metrics *observability.Metrics
	now     func() time.Time
}

// Instrument wraps s so every Emit is recorded under name.
func Instrument(name string, s Sink, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{name: name, next: s, metrics: metrics, now: time.Now}
}

// Emit forwards to the wrapped sink.
func (s *Instrumented) Emit(ctx context.Context, event domain.TokenCreationEvent) error {
	start := s.now()
	err := s.next.Emit(ctx, event)
	s.metrics.RecordSinkEmit(s.name, s.now().Sub(start), err)
	return err
}
