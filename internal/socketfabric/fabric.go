// Package socketfabric implements the Shared Socket Fabric (§4.1): a
// single logical WebSocket connection per upstream URL, shared by many
// in-process subscribers, generalizing the teacher's WSReconnectManager
// (internal/exchange/ws_reconnect.go) for the connection-owner half and
// its Hub (internal/websocket/hub.go) for the fan-out half.
package socketfabric

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a shared connection. Two GetSharedConnection calls
// with the same url and an equal Options (per Options.key) return the
// same handle.
type Options struct {
	Share                bool
	DecodeJSON           bool
	HeartbeatInterval    time.Duration
	MaxReconnectAttempts int // 0 means unlimited
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	PingPayload          []byte
}

// DefaultOptions mirrors the defaults named in §4.1.
func DefaultOptions() Options {
	return Options{
		Share:             true,
		DecodeJSON:        true,
		HeartbeatInterval: 15 * time.Second,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
	}
}

func (o Options) key() string {
	return fmt.Sprintf("%v|%v|%s|%d|%s|%s|%x", o.Share, o.DecodeJSON, o.HeartbeatInterval,
		o.MaxReconnectAttempts, o.InitialBackoff, o.MaxBackoff, o.PingPayload)
}

// Delivery is what a subscriber receives for each inbound frame.
type Delivery struct {
	URL       string
	Raw       []byte
	Decoded   interface{}
	DecodedOK bool
	Ts        time.Time
}

// Fabric is the process-wide registry of shared connections, keyed by
// url+options so identical requests converge on one socket.
type Fabric struct {
	log *zap.SugaredLogger

	mu    sync.Mutex
	conns map[string]*sharedConn
}

// New returns an empty Fabric.
func New(log *zap.SugaredLogger) *Fabric {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fabric{log: log, conns: make(map[string]*sharedConn)}
}

// Handle is a reference to a shared connection, held by one caller of
// GetSharedConnection. Subscribe/Send/Close all operate through it.
type Handle struct {
	fabric *Fabric
	conn   *sharedConn
	key    string
}

// GetSharedConnection returns the handle for url+options, dialing a new
// shared connection on first use and incrementing a refcount otherwise.
func (f *Fabric) GetSharedConnection(url string, opts Options) *Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := url + "#" + opts.key()
	sc, ok := f.conns[key]
	if !ok {
		sc = newSharedConn(url, opts, f.log.With("url", url))
		f.conns[key] = sc
		sc.start()
	}
	sc.refCount.Add(1)
	return &Handle{fabric: f, conn: sc, key: key}
}

// Send enqueues payload for the underlying socket; buffered with
// drop-oldest overflow when the socket is not currently open.
func (h *Handle) Send(payload []byte) {
	h.conn.send(payload)
}

// Subscribe registers a consumer and returns a Subscription whose
// Deliveries channel receives every decoded/raw frame in arrival order.
// bufSize bounds the subscriber's private queue; overflow drops the
// oldest undelivered message and increments Subscription.Dropped.
func (h *Handle) Subscribe(bufSize int) *Subscription {
	return h.conn.subscribe(bufSize)
}

// Close releases this handle's reference; the real socket is closed
// once the last handle referencing it is closed.
func (h *Handle) Close() {
	if h.conn.refCount.Add(-1) == 0 {
		h.fabric.mu.Lock()
		delete(h.fabric.conns, h.key)
		h.fabric.mu.Unlock()
		h.conn.stop()
	}
}

func randomJitter(n int64) time.Duration {
	if n <= 0 {
		return 0
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	v := binary.BigEndian.Uint64(b[:]) % uint64(n)
	return time.Duration(v)
}
