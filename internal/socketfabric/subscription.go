package socketfabric

import "sync/atomic"

// Subscription is one consumer's bounded view of a shared connection's
// frame stream. Deliveries is drained by the caller; Dropped counts
// frames evicted because the caller fell behind.
type Subscription struct {
	Deliveries chan Delivery
	Dropped    atomic.Int64

	parent *sharedConn
}

// Close unregisters the subscription from its connection's fan-out. It
// does not close the underlying shared connection (see Handle.Close).
func (s *Subscription) Close() {
	s.parent.unsubscribe(s)
}
