// Package marketdata implements the Market Data Router (§4.7): it
// subscribes to "b-<address>" rooms of the Shared Socket Fabric only
// for addresses with an open position, demultiplexes inbound frames by
// room, and fans MarketTicks out to the Paper-Trading Engine and the
// Momentum provider's price history — generalizing the teacher's
// per-symbol SubscribeTicker calls (internal/exchange/*.go) to a single
// shared connection with room-based demultiplexing instead of one
// socket per symbol.
package marketdata

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"solmeme-pipeline/internal/adapters"
	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/socketfabric"
)

const roomPrefix = "b-"

// envelope mirrors the upstream's { room, content } frame shape.
type envelope struct {
	Room    string          `json:"room"`
	Content json.RawMessage `json:"content"`
}

type history struct {
	prices []float64
	lastTs time.Time
}

// Router owns the set of addresses currently worth streaming prices
// for, and the bounded price history used by the Momentum provider.
type Router struct {
	handle     *socketfabric.Handle
	sub        *socketfabric.Subscription
	onTick     func(domain.MarketTick)
	historyMax int
	log        *zap.SugaredLogger

	mu     sync.RWMutex
	active map[string]*history

	stop chan struct{}
	done chan struct{}
}

// New builds a Router bound to a Shared Socket Fabric handle already
// open on the upstream feed URL. onTick is called for every at-most-
// once-delivered tick for an active address; it must not block.
func New(handle *socketfabric.Handle, onTick func(domain.MarketTick), historyMax int, log *zap.SugaredLogger) *Router {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if historyMax <= 0 {
		historyMax = 64
	}
	return &Router{
		handle:     handle,
		onTick:     onTick,
		historyMax: historyMax,
		log:        log,
		active:     make(map[string]*history),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start subscribes to the fabric's delivery stream and begins
// demultiplexing frames by room. Call once.
func (r *Router) Start(bufSize int) {
	r.sub = r.handle.Subscribe(bufSize)
	go r.run()
}

// Stop releases the fabric subscription and waits for the demux loop
// to exit.
func (r *Router) Stop() {
	close(r.stop)
	<-r.done
	if r.sub != nil {
		r.sub.Close()
	}
}

func (r *Router) run() {
	defer close(r.done)
	for {
		select {
		case d, ok := <-r.sub.Deliveries:
			if !ok {
				return
			}
			r.handleDelivery(d)
		case <-r.stop:
			return
		}
	}
}

func (r *Router) handleDelivery(d socketfabric.Delivery) {
	var env envelope
	if err := json.Unmarshal(d.Raw, &env); err != nil {
		return
	}
	if !strings.HasPrefix(env.Room, roomPrefix) {
		return
	}
	address := strings.TrimPrefix(env.Room, roomPrefix)

	r.mu.RLock()
	h, ok := r.active[address]
	r.mu.RUnlock()
	if !ok {
		return
	}

	tick, err := adapters.ParseMarketTick(address, env.Content)
	if err != nil {
		r.log.Debugw("market tick decode failed", "address", address, "err", err)
		return
	}
	if len(env.Content) > 0 && env.Content[0] != '{' && !d.Ts.IsZero() {
		// A bare price carries no timestamp of its own: stamp it with
		// the frame's receive time.
		tick.Ts = d.Ts
	}

	r.mu.Lock()
	if !tick.Ts.After(h.lastTs) {
		r.mu.Unlock()
		return // at-most-once delivery per (address, ts): drop stale/duplicate frames.
	}
	h.lastTs = tick.Ts
	h.prices = append(h.prices, tick.PriceUsd.InexactFloat64())
	if len(h.prices) > r.historyMax {
		h.prices = h.prices[len(h.prices)-r.historyMax:]
	}
	r.mu.Unlock()

	r.onTick(tick)
}

// Activate starts streaming prices for address, subscribing the
// upstream room if this is the first interest in it. Called when the
// Paper-Trading Engine opens a position.
func (r *Router) Activate(address string) {
	r.mu.Lock()
	_, already := r.active[address]
	if !already {
		r.active[address] = &history{}
	}
	r.mu.Unlock()
	if !already {
		r.sendSubscribe("subscribe", address)
	}
}

// Deactivate stops streaming prices for address once no open position
// needs it. Called when the Paper-Trading Engine closes a position.
func (r *Router) Deactivate(address string) {
	r.mu.Lock()
	_, existed := r.active[address]
	delete(r.active, address)
	r.mu.Unlock()
	if existed {
		r.sendSubscribe("unsubscribe", address)
	}
}

func (r *Router) sendSubscribe(op, address string) {
	if r.handle == nil {
		return
	}
	msg, err := json.Marshal(map[string]string{"room": op, "content": roomPrefix + address})
	if err != nil {
		return
	}
	r.handle.Send(msg)
}

// Series implements enrichment.PriceSeriesSource, returning the
// bounded recent price history for address (empty if not active).
func (r *Router) Series(address string) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.active[address]
	if !ok {
		return nil
	}
	out := make([]float64, len(h.prices))
	copy(out, h.prices)
	return out
}

// IsActive reports whether address currently has a subscription.
func (r *Router) IsActive(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[address]
	return ok
}
