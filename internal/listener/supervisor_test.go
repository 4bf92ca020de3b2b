package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-listener/internal/observability"
	"pump-listener/internal/pumpportal"
)

// sleepRecorder records requested delays and cancels after a number of calls.
type sleepRecorder struct {
	mu          sync.Mutex
	delays      []time.Duration
	cancelAfter int
	cancel      context.CancelFunc
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	n := len(r.delays)
	r.mu.Unlock()

	if n >= r.cancelAfter {
		r.cancel()
		return ctx.Err()
	}
	return nil
}

func TestSupervisor_RetriesAfterEveryOutcome(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readErr := errors.New("connection reset by peer")
	transport := &fakeTransport{dial: func(_ context.Context, n int) (pumpportal.Conn, error) {
		switch n {
		case 1:
			return nil, errors.New("dial tcp: i/o timeout")
		case 2:
			return newFakeConn(textStep(`{"txType":"create","mint":"M1"}`), step{err: closedByPeer()}), nil
		default:
			return newFakeConn(step{err: readErr}), nil
		}
	}}
	recorder := &sleepRecorder{cancelAfter: 3, cancel: cancel}
	observer := &recordingObserver{}
	sink := newRecordingSink()

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:  testEndpoint,
		Transport: transport,
		Sink:      sink,
		Observer:  observer,
		Logger:    zerolog.Nop(),
		Sleep:     recorder.sleep,
	})

	err := sup.Run(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 3, transport.dialCount())
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}, recorder.delays)

	require.Len(t, observer.outcomes, 3)
	assert.Equal(t, OutcomeConnectFailed, observer.outcomes[0].Kind)
	assert.Equal(t, OutcomeClosedByPeer, observer.outcomes[1].Kind)
	assert.Equal(t, OutcomeSessionError, observer.outcomes[2].Kind)
	assert.True(t, errors.Is(observer.outcomes[2].Err, readErr))
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay, DefaultRetryDelay}, observer.retries)
	require.Len(t, observer.stopped, 1)
	assert.True(t, errors.Is(observer.stopped[0], context.Canceled))

	assert.Len(t, sink.all(), 1)
}

func TestSupervisor_NoRetryCap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return nil, errors.New("dial tcp: no such host")
	}}
	recorder := &sleepRecorder{cancelAfter: 50, cancel: cancel}

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:   testEndpoint,
		Transport:  transport,
		Sink:       newRecordingSink(),
		RetryDelay: 3 * time.Second,
		Observer:   &recordingObserver{},
		Logger:     zerolog.Nop(),
		Sleep:      recorder.sleep,
	})

	require.Error(t, sup.Run(ctx))
	assert.Equal(t, 50, transport.dialCount())
	for _, d := range recorder.delays {
		assert.Equal(t, 3*time.Second, d)
	}
}

func TestSupervisor_CancelDuringSessionStopsWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return newFakeConn(textStep(`{"txType":"create","mint":"M1"}`)), nil
	}}
	sink := newRecordingSink()
	observer := &recordingObserver{}
	slept := false

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:  testEndpoint,
		Transport: transport,
		Sink:      sink,
		Observer:  observer,
		Logger:    zerolog.Nop(),
		Sleep: func(context.Context, time.Duration) error {
			slept = true
			return nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	select {
	case <-sink.emitted:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	assert.False(t, slept)
	assert.Equal(t, 1, transport.dialCount())
	assert.Empty(t, observer.outcomes)
	assert.Len(t, observer.stopped, 1)
}

func TestSupervisor_CancelDuringDelayStopsWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return nil, errors.New("refused")
	}}
	observer := &recordingObserver{}

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:   testEndpoint,
		Transport:  transport,
		Sink:       newRecordingSink(),
		RetryDelay: time.Hour,
		Observer:   observer,
		Logger:     zerolog.Nop(),
	})

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		observer.mu.Lock()
		defer observer.mu.Unlock()
		return len(observer.retries) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop during delay")
	}
	assert.Equal(t, 1, transport.dialCount())
}

func TestSupervisor_OneSessionAtATime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return newFakeConn(textStep(`{"txType":"sell"}`), step{err: closedByPeer()}), nil
	}}
	recorder := &sleepRecorder{cancelAfter: 10, cancel: cancel}

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:  testEndpoint,
		Transport: transport,
		Sink:      newRecordingSink(),
		Observer:  &recordingObserver{},
		Logger:    zerolog.Nop(),
		Sleep:     recorder.sleep,
	})

	require.Error(t, sup.Run(ctx))
	assert.Equal(t, 10, transport.dialCount())
	assert.Equal(t, 1, transport.maxActive)
	assert.Equal(t, 0, transport.active)
}

func TestSupervisor_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return newFakeConn(), nil
	}}

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:  testEndpoint,
		Transport: transport,
		Sink:      newRecordingSink(),
		Observer:  &recordingObserver{},
		Logger:    zerolog.Nop(),
	})

	assert.True(t, errors.Is(sup.Run(ctx), context.Canceled))
	assert.Equal(t, 0, transport.dialCount())
}

func TestSupervisor_DefaultObserverRecordsMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &fakeTransport{dial: func(context.Context, int) (pumpportal.Conn, error) {
		return nil, errors.New("refused")
	}}
	metrics := observability.NewMetrics("", prometheus.NewRegistry())
	recorder := &sleepRecorder{cancelAfter: 2, cancel: cancel}

	sup := NewSupervisor(SupervisorOptions{
		Endpoint:  testEndpoint,
		Transport: transport,
		Sink:      newRecordingSink(),
		Metrics:   metrics,
		Logger:    zerolog.Nop(),
		Sleep:     recorder.sleep,
	})

	require.Error(t, sup.Run(ctx))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionOutcomes.WithLabelValues("connect_failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Reconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsStarted))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewSupervisor_Defaults(t *testing.T) {
	sup := NewSupervisor(SupervisorOptions{Logger: zerolog.Nop()})

	assert.Equal(t, DefaultRetryDelay, sup.delay)
	assert.Equal(t, 10*time.Second, sup.delay)
	assert.NotNil(t, sup.sleep)
	assert.IsType(t, &LogObserver{}, sup.obs)
}
