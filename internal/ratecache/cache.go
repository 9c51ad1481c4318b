// Package ratecache implements the Rate-Limit/Cache Layer (§4.9): the
// teacher's pkg/ratelimit.MultiLimiter keyed by provider name, plus a
// new stale-while-cooling cache keyed by (provider, address) backed by
// sync.Map for lock-free reads, mirroring engine.go's positionIndex
// sync.Map pattern.
package ratecache

import (
	"sync"
	"time"
)

// Entry is one cached provider result.
type Entry struct {
	Value     interface{}
	FetchedAt time.Time
	TTL       time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) > e.TTL
}

type cacheKey struct {
	provider string
	address  string
}

// Cache is a concurrent-readable (provider, address) → Entry table. No
// global lock is held across reads; sync.Map serializes only per-key
// writes internally.
type Cache struct {
	m sync.Map // cacheKey -> Entry

	// cooldown tracks provider-level cooldown expiry for
	// stale-while-cooling reads.
	cooldown sync.Map // string(provider) -> time.Time
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{}
}

// Put stores value under (provider, address) with the given TTL.
func (c *Cache) Put(provider, address string, value interface{}, ttl time.Duration, now time.Time) {
	c.m.Store(cacheKey{provider, address}, Entry{Value: value, FetchedAt: now, TTL: ttl})
}

// Get returns the cached entry and whether it is still fresh (not
// expired). An expired entry is still returned, with fresh=false,
// whether or not the provider is in cooldown and however old it is, so
// callers can choose to serve it (stale-while-cooling) rather than
// treat it as absent.
func (c *Cache) Get(provider, address string, now time.Time) (Entry, bool, bool) {
	v, ok := c.m.Load(cacheKey{provider, address})
	if !ok {
		return Entry{}, false, false
	}
	e := v.(Entry)
	fresh := !e.expired(now)
	return e, true, fresh
}

// SetCooldown marks provider as cooling down until until.
func (c *Cache) SetCooldown(provider string, until time.Time) {
	c.cooldown.Store(provider, until)
}

// InCooldown reports whether provider is currently cooling down.
func (c *Cache) InCooldown(provider string, now time.Time) bool {
	v, ok := c.cooldown.Load(provider)
	if !ok {
		return false
	}
	until := v.(time.Time)
	return now.Before(until)
}
