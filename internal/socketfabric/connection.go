package socketfabric

import (
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// connState mirrors the teacher's reconnect-manager state machine
// (internal/exchange/ws_reconnect.go), generalized to one instance per
// shared connection instead of one per exchange.
type connState int32

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateReconnecting
	stateClosed
)

const maxOutboundBuffer = 256

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// sharedConn owns one physical (or about-to-exist) WebSocket connection
// for a given url+Options, and fans decoded frames out to subscribers.
type sharedConn struct {
	url  string
	opts Options
	log  *zap.SugaredLogger

	refCount atomic.Int32
	state    atomic.Int32

	mu       sync.Mutex
	conn     *websocket.Conn
	outbound [][]byte // bounded, drop-oldest

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}

	missedHeartbeats atomic.Int32
	lastFrameAt      atomic.Int64 // unix nano

	closeCh chan struct{}
	doneCh  chan struct{}
}

func newSharedConn(url string, opts Options, log *zap.SugaredLogger) *sharedConn {
	sc := &sharedConn{
		url:     url,
		opts:    opts,
		log:     log,
		subs:    make(map[*Subscription]struct{}),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	sc.state.Store(int32(stateDisconnected))
	return sc
}

func (sc *sharedConn) start() {
	go sc.run()
}

func (sc *sharedConn) stop() {
	close(sc.closeCh)
	<-sc.doneCh
}

// send buffers payload for delivery; flushed as soon as the socket
// opens. Bounded with oldest-dropped on overflow, per §4.1.
func (sc *sharedConn) send(payload []byte) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.conn != nil && connState(sc.state.Load()) == stateConnected {
		_ = sc.conn.WriteMessage(websocket.TextMessage, payload)
		return
	}
	sc.outbound = append(sc.outbound, payload)
	if len(sc.outbound) > maxOutboundBuffer {
		sc.outbound = sc.outbound[len(sc.outbound)-maxOutboundBuffer:]
	}
}

func (sc *sharedConn) subscribe(bufSize int) *Subscription {
	if bufSize <= 0 {
		bufSize = 64
	}
	s := &Subscription{
		Deliveries: make(chan Delivery, bufSize),
		parent:     sc,
	}
	sc.subMu.Lock()
	sc.subs[s] = struct{}{}
	sc.subMu.Unlock()
	return s
}

func (sc *sharedConn) unsubscribe(s *Subscription) {
	sc.subMu.Lock()
	delete(sc.subs, s)
	sc.subMu.Unlock()
}

// fanOut delivers d to every subscriber's bounded queue, drop-oldest on
// overflow, never blocking on a slow subscriber (teacher's hub.go
// broadcast loop applies the same non-blocking-send-then-evict shape).
func (sc *sharedConn) fanOut(d Delivery) {
	sc.subMu.RLock()
	defer sc.subMu.RUnlock()
	for s := range sc.subs {
		select {
		case s.Deliveries <- d:
		default:
			select {
			case <-s.Deliveries:
				s.Dropped.Add(1)
			default:
			}
			select {
			case s.Deliveries <- d:
			default:
				s.Dropped.Add(1)
			}
		}
	}
}

// run is the single background task owning the socket for this URL's
// lifetime: dial, pump frames, reconnect with full-jitter backoff.
func (sc *sharedConn) run() {
	defer close(sc.doneCh)

	attempt := 0
	backoff := sc.opts.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBackoff := sc.opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	for {
		select {
		case <-sc.closeCh:
			sc.state.Store(int32(stateClosed))
			return
		default:
		}

		if sc.opts.MaxReconnectAttempts > 0 && attempt >= sc.opts.MaxReconnectAttempts {
			sc.log.Errorw("reconnect attempts exhausted, terminal", "attempts", attempt)
			sc.state.Store(int32(stateClosed))
			return
		}

		sc.state.Store(int32(stateConnecting))
		conn, _, err := websocket.DefaultDialer.Dial(sc.url, nil)
		if err != nil {
			attempt++
			sc.state.Store(int32(stateReconnecting))
			wait := fullJitterBackoff(backoff, maxBackoff, attempt)
			sc.log.Warnw("dial failed, backing off", "attempt", attempt, "wait", wait, "err", err)
			select {
			case <-time.After(wait):
				continue
			case <-sc.closeCh:
				sc.state.Store(int32(stateClosed))
				return
			}
		}

		sc.mu.Lock()
		sc.conn = conn
		sc.mu.Unlock()
		sc.state.Store(int32(stateConnected))
		sc.lastFrameAt.Store(time.Now().UnixNano())
		sc.missedHeartbeats.Store(0)
		connectedAt := time.Now()

		sc.flushOutbound()

		readErr := sc.pump(conn)

		sc.mu.Lock()
		sc.conn = nil
		sc.mu.Unlock()
		_ = conn.Close()

		if time.Since(connectedAt) >= 60*time.Second {
			attempt = 0
			backoff = sc.opts.InitialBackoff
		}

		select {
		case <-sc.closeCh:
			sc.state.Store(int32(stateClosed))
			return
		default:
		}

		sc.log.Infow("connection lost, reconnecting", "err", readErr)
		attempt++
		sc.state.Store(int32(stateReconnecting))
	}
}

func (sc *sharedConn) flushOutbound() {
	sc.mu.Lock()
	pending := sc.outbound
	sc.outbound = nil
	conn := sc.conn
	sc.mu.Unlock()
	for _, p := range pending {
		if conn == nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, p)
	}
}

// pump reads frames until error/close, forwarding each to subscribers
// and running the heartbeat watchdog concurrently.
func (sc *sharedConn) pump(conn *websocket.Conn) error {
	stopHeartbeat := make(chan struct{})
	var hbErr atomic.Value
	if sc.opts.HeartbeatInterval > 0 && len(sc.opts.PingPayload) > 0 {
		go sc.heartbeat(conn, stopHeartbeat, &hbErr)
	}
	defer close(stopHeartbeat)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if v := hbErr.Load(); v != nil {
			return v.(error)
		}
		sc.lastFrameAt.Store(time.Now().UnixNano())
		sc.missedHeartbeats.Store(0)

		d := Delivery{URL: sc.url, Raw: msg, Ts: time.Now()}
		if sc.opts.DecodeJSON {
			var v interface{}
			if err := jsonAPI.Unmarshal(msg, &v); err == nil {
				d.Decoded = v
				d.DecodedOK = true
			}
		}
		sc.fanOut(d)
	}
}

const maxMissedHeartbeats = 3

func (sc *sharedConn) heartbeat(conn *websocket.Conn, stop <-chan struct{}, hbErr *atomic.Value) {
	ticker := time.NewTicker(sc.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, sc.opts.PingPayload); err != nil {
				hbErr.Store(err)
				_ = conn.Close()
				return
			}
			if sc.missedHeartbeats.Add(1) > maxMissedHeartbeats {
				hbErr.Store(errHeartbeatTimeout)
				_ = conn.Close()
				return
			}
		}
	}
}

var errHeartbeatTimeout = &heartbeatTimeoutError{}

type heartbeatTimeoutError struct{}

func (*heartbeatTimeoutError) Error() string { return "heartbeat watchdog: too many missed pongs" }

// fullJitterBackoff implements AWS-style full jitter: a random delay in
// [0, min(maxBackoff, initial*2^attempt)), per §4.1's reconnect algorithm.
func fullJitterBackoff(initial, max time.Duration, attempt int) time.Duration {
	limit := initial
	for i := 0; i < attempt && limit < max; i++ {
		limit *= 2
		if limit > max {
			limit = max
			break
		}
	}
	if limit <= 0 {
		return 0
	}
	return randomJitter(int64(limit))
}
