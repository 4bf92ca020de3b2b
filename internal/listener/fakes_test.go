package listener

import (
	"context"
	"errors"
	"sync"
	"time"

	"pump-listener/internal/domain"
	"pump-listener/internal/pumpportal"
)

var errConnClosed = errors.New("use of closed network connection")

// step is one scripted Receive result.
type step struct {
	data []byte
	err  error
}

func textStep(s string) step { return step{data: []byte(s)} }

// fakeConn replays scripted frames, then blocks until closed.
type fakeConn struct {
	mu      sync.Mutex
	steps   chan step
	sent    [][]byte
	sendErr error
	closed  chan struct{}
	once    sync.Once
	onClose func()
}

func newFakeConn(steps ...step) *fakeConn {
	ch := make(chan step, len(steps))
	for _, s := range steps {
		ch <- s
	}
	return &fakeConn{steps: ch, closed: make(chan struct{})}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Receive() (pumpportal.Frame, error) {
	select {
	case <-c.closed:
		return pumpportal.Frame{}, errConnClosed
	default:
	}

	select {
	case s := <-c.steps:
		if s.err != nil {
			return pumpportal.Frame{}, s.err
		}
		return pumpportal.Frame{Text: true, Data: s.data}, nil
	case <-c.closed:
		return pumpportal.Frame{}, errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
		if c.onClose != nil {
			c.onClose()
		}
	})
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// fakeTransport hands out connections from dial in order.
type fakeTransport struct {
	mu        sync.Mutex
	dial      func(ctx context.Context, n int) (pumpportal.Conn, error)
	dials     int
	active    int
	maxActive int
	endpoints []string
}

func (t *fakeTransport) Dial(ctx context.Context, endpoint string) (pumpportal.Conn, error) {
	t.mu.Lock()
	t.dials++
	n := t.dials
	t.endpoints = append(t.endpoints, endpoint)
	t.mu.Unlock()

	conn, err := t.dial(ctx, n)
	if err != nil {
		return nil, err
	}

	if fc, ok := conn.(*fakeConn); ok {
		t.mu.Lock()
		t.active++
		t.maxActive = max(t.maxActive, t.active)
		t.mu.Unlock()
		fc.onClose = func() {
			t.mu.Lock()
			t.active--
			t.mu.Unlock()
		}
	}
	return conn, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

// recordingSink stores emitted events.
type recordingSink struct {
	mu      sync.Mutex
	events  []domain.TokenCreationEvent
	err     error
	emitted chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{emitted: make(chan struct{}, 100)}
}

func (s *recordingSink) Emit(_ context.Context, e domain.TokenCreationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	s.emitted <- struct{}{}
	return nil
}

func (s *recordingSink) all() []domain.TokenCreationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TokenCreationEvent(nil), s.events...)
}

// recordingObserver captures supervisor reports.
type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	retries  []time.Duration
	stopped  []error
}

func (o *recordingObserver) SessionEnded(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *recordingObserver) RetryScheduled(_ int, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, delay)
}

func (o *recordingObserver) Stopped(cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = append(o.stopped, cause)
}
