package orders

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/catalystlab/autotrader/internal/observ"
)

// eventTypeTrade is the only upstream event type the bus acts on; the
// brokerage stream multiplexes account and system events on the same
// socket.
const eventTypeTrade = "trade"

// Notification is what the bus republishes per accepted event. Seq is a
// monotonically increasing tick; Update is the parsed order delta, or
// nil when the payload failed to parse; observers then decide between
// re-fetching authoritative state and ignoring the tick.
type Notification struct {
	Seq    uint64
	Update *OrderUpdate
}

// BusConfig holds settings for the order event bus.
type BusConfig struct {
	URL              string
	ReconnectDelayMs int
	SubscriberBuffer int
}

type streamConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type dialFunc func(ctx context.Context) (streamConn, error)

// Bus owns the process's only subscription to the brokerage order/trade
// event stream and fans each accepted event out to every subscriber in
// upstream order. Constructed once in the composition root and passed by
// handle; the single-upstream-subscription invariant holds by
// construction.
type Bus struct {
	cfg  BusConfig
	log  *zap.Logger
	dial dialFunc

	mu             sync.Mutex
	running        bool
	conn           streamConn
	cancel         context.CancelFunc
	baseCtx        context.Context
	reconnectTimer *time.Timer
	seq            uint64
	subs           map[int]chan Notification
	nextSub        int
	table          *Table
	wg             sync.WaitGroup
}

func NewBus(cfg BusConfig, log *zap.Logger) *Bus {
	if cfg.ReconnectDelayMs <= 0 {
		cfg.ReconnectDelayMs = 3000
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 256
	}
	b := &Bus{
		cfg:   cfg,
		log:   log,
		subs:  map[int]chan Notification{},
		table: NewTable(),
	}
	b.dial = func(ctx context.Context) (streamConn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
		return conn, err
	}
	return b
}

// Start opens the upstream subscription. Idempotent: a second call while
// a subscription is live is a no-op.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	if b.reconnectTimer != nil {
		b.reconnectTimer.Stop()
		b.reconnectTimer = nil
	}
	b.mu.Unlock()

	conn, err := b.dial(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.running {
		// Raced with a concurrent Start that won; keep its subscription.
		b.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.conn = conn
	b.cancel = cancel
	b.baseCtx = ctx
	b.running = true
	b.mu.Unlock()

	b.log.Info("order event bus connected", zap.String("url", b.cfg.URL))
	b.wg.Add(1)
	go b.readLoop(runCtx, conn)
	return nil
}

// Stop cancels the subscription unconditionally and clears connection
// state, ignoring close errors. Subscribers stay registered; a later
// Start resumes delivery on the same channels.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.reconnectTimer != nil {
		b.reconnectTimer.Stop()
		b.reconnectTimer = nil
	}
	conn := b.conn
	cancel := b.cancel
	b.conn = nil
	b.cancel = nil
	b.running = false
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	b.wg.Wait()
}

// Subscribe registers an observer. The returned cancel func removes it
// and closes the channel. Notifications arrive in upstream event order;
// a subscriber that falls behind loses oldest notifications first.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan Notification, b.cfg.SubscriberBuffer)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Snapshot returns the bus's centrally reconciled order table. Consumers
// that prefer their own copy run a Table off Subscribe instead; the
// merge rule is identical either way.
func (b *Bus) Snapshot() map[int64]OrderRecord {
	return b.table.Snapshot()
}

// Seed loads records from an authoritative open-orders fetch into the
// central table, typically once at startup.
func (b *Bus) Seed(records []OrderRecord) {
	b.table.Load(records)
}

func (b *Bus) readLoop(ctx context.Context, conn streamConn) {
	defer b.wg.Done()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return // stopped
			}
			b.mu.Lock()
			stillOurs := b.conn == conn && b.running
			if stillOurs {
				b.running = false
				b.conn = nil
				b.scheduleReconnectLocked()
			}
			b.mu.Unlock()
			if stillOurs {
				_ = conn.Close()
				b.log.Warn("order event stream dropped", zap.Error(err))
				observ.IncCounter("order_bus_disconnects_total", nil)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
		b.handleMessage(msg)
	}
}

// scheduleReconnectLocked arms exactly one reconnect attempt after a
// fixed delay. If a Start call re-established the subscription first,
// the attempt is a no-op.
func (b *Bus) scheduleReconnectLocked() {
	if b.reconnectTimer != nil {
		return
	}
	ctx := b.baseCtx
	delay := time.Duration(b.cfg.ReconnectDelayMs) * time.Millisecond
	b.reconnectTimer = time.AfterFunc(delay, func() {
		b.mu.Lock()
		b.reconnectTimer = nil
		b.mu.Unlock()
		if err := b.Start(ctx); err != nil {
			b.log.Warn("order event bus reconnect failed", zap.Error(err))
		}
	})
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (b *Bus) handleMessage(msg []byte) {
	var ev wireEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		// Can't even read the type tag. Tolerated: observers still get a
		// tick so they can choose to re-fetch authoritative state.
		b.log.Warn("unparseable bus event", zap.Error(err))
		observ.IncCounter("order_bus_malformed_total", nil)
		b.publish(nil)
		return
	}
	if ev.Type != eventTypeTrade {
		return
	}

	var update OrderUpdate
	if err := json.Unmarshal(ev.Payload, &update); err != nil || update.OrderID == 0 {
		b.log.Warn("unparseable trade payload", zap.Error(err))
		observ.IncCounter("order_bus_malformed_total", nil)
		b.publish(nil)
		return
	}
	b.publish(&update)
}

func (b *Bus) publish(update *OrderUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.table.Apply(update)
	n := Notification{Seq: b.seq, Update: update}

	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			// Slow subscriber: drop its oldest notification, keep the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- n:
			default:
			}
		}
	}
	observ.IncCounter("order_bus_notifications_total", nil)
}
