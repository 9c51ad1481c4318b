// Package intake implements the Token Intake & Deduper (§4.3): each
// address is considered at most once per window, and global enrichment
// concurrency is bounded, generalizing the teacher's in-memory
// blacklist/cooldown bookkeeping (internal/repository/blacklist_repository.go)
// from a persisted ban list to a time-windowed in-memory dedup set.
package intake

import (
	"sync"
	"time"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/pipeline"
	"solmeme-pipeline/pkg/crypto"
)

// DropReason names why submit rejected a candidate.
type DropReason string

const (
	DropNone     DropReason = ""
	DropDedup    DropReason = "dedup"
	DropOverload DropReason = "overload"
)

// Options configures the Deduper; zero values are replaced by defaults
// in New.
type Options struct {
	Window                time.Duration
	MaxConcurrentAnalyses int
	QueueCapacity         int
}

// DefaultOptions matches the defaults enumerated in §4.3.
func DefaultOptions() Options {
	return Options{
		Window:                10 * time.Minute,
		MaxConcurrentAnalyses: 8,
		QueueCapacity:         64,
	}
}

// EnrichmentTask is the unit handed to the Enrichment Orchestrator.
type EnrichmentTask struct {
	Address     string
	Symbol      string
	Source      domain.SourceTag
	SubmittedAt time.Time
}

// Deduper owns the seen-address window and the bounded task queue feeding
// the Enrichment Orchestrator.
type Deduper struct {
	opts  Options
	clock pipeline.Clock

	mu       sync.Mutex
	seenAt   map[string]time.Time
	inFlight int

	qmu   sync.Mutex
	queue []EnrichmentTask
	dataC chan struct{} // signaled on enqueue, buffered size 1
}

// New returns a Deduper; clock is injectable so replay mode can drive
// the window deterministically.
func New(opts Options, clock pipeline.Clock) *Deduper {
	if opts.Window <= 0 {
		opts.Window = DefaultOptions().Window
	}
	if opts.MaxConcurrentAnalyses <= 0 {
		opts.MaxConcurrentAnalyses = DefaultOptions().MaxConcurrentAnalyses
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultOptions().QueueCapacity
	}
	if clock == nil {
		clock = pipeline.SystemClock{}
	}
	return &Deduper{
		opts:   opts,
		clock:  clock,
		seenAt: make(map[string]time.Time),
		dataC:  make(chan struct{}, 1),
	}
}

// Submit registers address for analysis, per §4.3's decision order:
// dedup check first, then concurrency budget, then enqueue. The dedup
// window is keyed by the SHA-256 digest of the canonicalized address
// (pkg/crypto.DedupKey), not the raw string, per §11.2.
func (d *Deduper) Submit(address, symbol string, source domain.SourceTag) DropReason {
	now := d.clock.Now()

	key, err := crypto.DedupKey(address)
	if err != nil {
		return DropDedup
	}

	d.mu.Lock()
	if last, ok := d.seenAt[key]; ok && now.Sub(last) < d.opts.Window {
		d.mu.Unlock()
		return DropDedup
	}
	if d.inFlight >= d.opts.MaxConcurrentAnalyses {
		d.mu.Unlock()
		return DropOverload
	}
	d.seenAt[key] = now
	d.inFlight++
	d.mu.Unlock()

	d.enqueue(EnrichmentTask{Address: address, Symbol: symbol, Source: source, SubmittedAt: now})
	return DropNone
}

// OnAnalysisDone releases one slot from the concurrency budget. It
// intentionally does not clear the dedup entry — removal from the
// window is purely time-based (§4.3).
func (d *Deduper) OnAnalysisDone(address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight > 0 {
		d.inFlight--
	}
}

// InFlight reports the current concurrency in use, for metrics/tests.
func (d *Deduper) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func (d *Deduper) enqueue(t EnrichmentTask) {
	d.qmu.Lock()
	d.queue = append(d.queue, t)
	if len(d.queue) > d.opts.QueueCapacity {
		d.queue = d.queue[len(d.queue)-d.opts.QueueCapacity:]
	}
	d.qmu.Unlock()

	select {
	case d.dataC <- struct{}{}:
	default:
	}
}

// Next pops the oldest queued task, blocking until one is available or
// stop is closed. Returns ok=false if stop was closed first.
func (d *Deduper) Next(stop <-chan struct{}) (EnrichmentTask, bool) {
	for {
		d.qmu.Lock()
		if len(d.queue) > 0 {
			t := d.queue[0]
			d.queue = d.queue[1:]
			d.qmu.Unlock()
			return t, true
		}
		d.qmu.Unlock()

		select {
		case <-d.dataC:
		case <-stop:
			return EnrichmentTask{}, false
		}
	}
}

// QueueLen reports the current queue depth, for metrics/tests.
func (d *Deduper) QueueLen() int {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return len(d.queue)
}
