package orders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeConn struct {
	msgs      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan []byte, 64), done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m, ok := <-c.msgs:
		if !ok {
			return 0, nil, errors.New("upstream reset")
		}
		return 1, m, nil
	case <-c.done:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func newTestBus(t *testing.T, delayMs int) (*Bus, chan *fakeConn, *int64) {
	t.Helper()
	bus := NewBus(BusConfig{URL: "ws://test", ReconnectDelayMs: delayMs}, zap.NewNop())

	conns := make(chan *fakeConn, 4)
	var dials int64
	bus.dial = func(ctx context.Context) (streamConn, error) {
		atomic.AddInt64(&dials, 1)
		select {
		case c := <-conns:
			return c, nil
		default:
			return nil, errors.New("no conn scripted")
		}
	}
	return bus, conns, &dials
}

func recvNotification(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func TestBusStartIdempotent(t *testing.T) {
	bus, conns, dials := newTestBus(t, 60000)
	conns <- newFakeConn()

	ctx := context.Background()
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := bus.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer bus.Stop()

	if got := atomic.LoadInt64(dials); got != 1 {
		t.Errorf("dial count = %d, want 1 (start must be a no-op while live)", got)
	}
}

func TestBusFanOutOrdering(t *testing.T) {
	bus, conns, _ := newTestBus(t, 60000)
	conn := newFakeConn()
	conns <- conn

	sub1, cancel1 := bus.Subscribe()
	sub2, cancel2 := bus.Subscribe()
	defer cancel1()
	defer cancel2()

	if err := bus.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer bus.Stop()

	conn.msgs <- []byte(`{"type":"trade","payload":{"order_id":1,"status":"Submitted"}}`)
	conn.msgs <- []byte(`{"type":"account","payload":{"balance":1}}`)
	conn.msgs <- []byte(`{"type":"trade","payload":{"order_id":2,"status":"PreSubmitted"}}`)
	conn.msgs <- []byte(`{"type":"trade","payload":{"order_id":1,"status":"FILLED","filled":99}}`)

	for _, sub := range []<-chan Notification{sub1, sub2} {
		n1 := recvNotification(t, sub)
		n2 := recvNotification(t, sub)
		n3 := recvNotification(t, sub)

		if n1.Seq >= n2.Seq || n2.Seq >= n3.Seq {
			t.Errorf("sequence not increasing: %d %d %d", n1.Seq, n2.Seq, n3.Seq)
		}
		if n1.Update == nil || n1.Update.OrderID != 1 {
			t.Errorf("first notification = %+v, want order 1", n1.Update)
		}
		if n2.Update == nil || n2.Update.OrderID != 2 {
			t.Errorf("second notification = %+v, want order 2", n2.Update)
		}
		if n3.Update == nil || *n3.Update.Status != "FILLED" {
			t.Errorf("third notification = %+v, want FILLED update", n3.Update)
		}
	}

	// The account event must not have produced a notification.
	select {
	case n := <-sub1:
		t.Errorf("unexpected extra notification: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}

	// Central table reconciled the same stream.
	rec, ok := bus.Snapshot()[1]
	if !ok || rec.Status != "FILLED" || rec.Filled != 99 {
		t.Errorf("snapshot record = %+v, want FILLED/99", rec)
	}
}

func TestBusMalformedPayloadStillTicks(t *testing.T) {
	bus, conns, _ := newTestBus(t, 60000)
	conn := newFakeConn()
	conns <- conn

	sub, cancel := bus.Subscribe()
	defer cancel()

	if err := bus.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer bus.Stop()

	conn.msgs <- []byte(`{"type":"trade","payload":"not an object"}`)
	conn.msgs <- []byte(`%%% not json at all`)
	conn.msgs <- []byte(`{"type":"trade","payload":{"order_id":5,"status":"Submitted"}}`)

	n1 := recvNotification(t, sub)
	if n1.Update != nil {
		t.Errorf("malformed payload should tick with nil update, got %+v", n1.Update)
	}
	n2 := recvNotification(t, sub)
	if n2.Update != nil {
		t.Errorf("unparseable event should tick with nil update, got %+v", n2.Update)
	}
	n3 := recvNotification(t, sub)
	if n3.Update == nil || n3.Update.OrderID != 5 {
		t.Errorf("bus did not recover after malformed payloads: %+v", n3.Update)
	}
	if !(n1.Seq < n2.Seq && n2.Seq < n3.Seq) {
		t.Errorf("ticks not monotonic: %d %d %d", n1.Seq, n2.Seq, n3.Seq)
	}
}

func TestBusReconnectOnceAfterError(t *testing.T) {
	bus, conns, dials := newTestBus(t, 20)
	first := newFakeConn()
	second := newFakeConn()
	conns <- first
	conns <- second

	sub, cancel := bus.Subscribe()
	defer cancel()

	if err := bus.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer bus.Stop()

	// Kill the upstream; the bus should come back on its own once.
	close(first.msgs)

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(dials) < 2 {
		select {
		case <-deadline:
			t.Fatal("bus never attempted reconnect")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Give the new subscription a moment, then verify delivery resumes.
	time.Sleep(50 * time.Millisecond)
	second.msgs <- []byte(`{"type":"trade","payload":{"order_id":9,"status":"Submitted"}}`)

	n := recvNotification(t, sub)
	if n.Update == nil || n.Update.OrderID != 9 {
		t.Errorf("post-reconnect notification = %+v, want order 9", n.Update)
	}

	if got := atomic.LoadInt64(dials); got != 2 {
		t.Errorf("dial count = %d, want exactly 2 (one reconnect)", got)
	}
}

func TestBusStopCancelsReconnect(t *testing.T) {
	bus, conns, dials := newTestBus(t, 50)
	first := newFakeConn()
	conns <- first

	if err := bus.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(first.msgs) // provoke the error path, arming the reconnect timer
	time.Sleep(10 * time.Millisecond)
	bus.Stop()

	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt64(dials); got != 1 {
		t.Errorf("dial count = %d after Stop, want 1 (reconnect cancelled)", got)
	}
}

func TestBusStopIsUnconditional(t *testing.T) {
	bus, _, _ := newTestBus(t, 50)
	// Stop before any Start must not panic or block.
	bus.Stop()
	bus.Stop()
}

func TestBusSeed(t *testing.T) {
	bus := NewBus(BusConfig{URL: "ws://test"}, zap.NewNop())
	bus.Seed([]OrderRecord{
		{OrderID: 1, Symbol: "ACME", Status: "Submitted"},
		{OrderID: 2, Symbol: "NVDA", Status: "FILLED"},
	})

	snap := bus.Snapshot()
	if len(snap) != 2 || snap[1].Symbol != "ACME" {
		t.Errorf("seeded snapshot = %+v", snap)
	}
}
