// Package telemetry implements the Telemetry & Dashboard Bus (§4.8):
// non-blocking fan-out of PipelineEvent to an arbitrary number of
// subscribers (dashboard transport, snapshot writer, counters),
// generalizing the teacher's internal/websocket Hub (register/
// unregister channels, broadcast-without-holding-the-lock) from four
// fixed message types to the domain.PipelineEvent tagged union, and
// replacing the teacher's slow-client-eviction policy with
// drop-oldest-per-subscriber so a slow dashboard never loses its
// connection, only its backlog.
package telemetry

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"solmeme-pipeline/internal/domain"
)

// Subscriber is one consumer's bounded view of the event stream.
type Subscriber struct {
	id       int64
	Events   chan domain.PipelineEvent
	Overflow atomic.Int64

	bus *Bus
}

// Unsubscribe removes this subscriber from the bus and closes its
// channel. Safe to call more than once.
func (s *Subscriber) Unsubscribe() {
	s.bus.unsubscribe(s.id)
}

// Bus is the process-wide distribution point for PipelineEvents.
// Publish never blocks: a full subscriber queue is drained of its
// oldest entry before the new event is pushed, and the eviction is
// counted both on the Subscriber and on the Bus as a whole.
type Bus struct {
	log     *zap.SugaredLogger
	bufSize int

	mu     sync.RWMutex
	subs   map[int64]*Subscriber
	nextID atomic.Int64

	overflowTotal atomic.Int64
}

// New returns a Bus whose subscriber queues are bounded to bufSize.
func New(bufSize int, log *zap.SugaredLogger) *Bus {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if bufSize <= 0 {
		bufSize = 128
	}
	return &Bus{
		log:     log,
		bufSize: bufSize,
		subs:    make(map[int64]*Subscriber),
	}
}

// Subscribe registers a new consumer and returns its handle.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{
		id:     b.nextID.Add(1),
		Events: make(chan domain.PipelineEvent, b.bufSize),
		bus:    b,
	}
	b.mu.Lock()
	b.subs[s.id] = s
	b.mu.Unlock()
	return s
}

func (b *Bus) unsubscribe(id int64) {
	b.mu.Lock()
	s, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if ok {
		close(s.Events)
	}
}

// Publish fans ev out to every current subscriber. Never blocks: a
// full queue has its oldest entry evicted to make room, mirroring the
// fabric's and intake's drop-oldest overflow policy.
func (b *Bus) Publish(ev domain.PipelineEvent) {
	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.Events <- ev:
		default:
			select {
			case <-s.Events:
			default:
			}
			select {
			case s.Events <- ev:
			default:
				// subscriber is draining concurrently and refilled the
				// slot we just freed; count the drop and move on rather
				// than block the hot path.
			}
			s.Overflow.Add(1)
			b.overflowTotal.Add(1)
		}
	}
}

// OverflowCount reports the cumulative number of events dropped across
// all subscribers.
func (b *Bus) OverflowCount() int64 { return b.overflowTotal.Load() }

// SubscriberCount reports the number of currently registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unsubscribes and closes every subscriber's channel, for use
// during graceful shutdown (§5).
func (b *Bus) Close() {
	b.mu.Lock()
	ids := make([]int64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		b.unsubscribe(id)
	}
}
