package ratecache

import (
	"time"

	"solmeme-pipeline/pkg/ratelimit"
)

// ProviderLimiter wraps the teacher's MultiLimiter (pkg/ratelimit),
// keyed by provider name, and layers exponential-backoff-with-cap
// cooldown on top for the 429-equivalent case named in §4.4.
type ProviderLimiter struct {
	multi *ratelimit.MultiLimiter
	cache *Cache

	maxCooldown time.Duration
	// cooldownStep tracks consecutive-429 streak per provider, read
	// only under the caller's own synchronization (one goroutine per
	// provider task owns its streak).
	streaks map[string]int
}

// NewProviderLimiter builds a ProviderLimiter sharing cache for
// cooldown bookkeeping.
func NewProviderLimiter(cache *Cache, maxCooldown time.Duration) *ProviderLimiter {
	if maxCooldown <= 0 {
		maxCooldown = 60 * time.Second
	}
	return &ProviderLimiter{
		multi:       ratelimit.NewMultiLimiter(),
		cache:       cache,
		maxCooldown: maxCooldown,
		streaks:     make(map[string]int),
	}
}

// Configure registers rate/burst for provider, matching MultiLimiter.Add.
func (pl *ProviderLimiter) Configure(provider string, rate, burst float64) {
	pl.multi.Add(provider, rate, burst)
}

// Allow reports whether provider may be called right now: it must both
// have a free token and not be in cooldown.
func (pl *ProviderLimiter) Allow(provider string, now time.Time) bool {
	if pl.cache.InCooldown(provider, now) {
		return false
	}
	return pl.multi.Allow(provider)
}

// RecordRateLimited enters provider into exponential cooldown, doubling
// the cooldown window on each consecutive call up to maxCooldown.
func (pl *ProviderLimiter) RecordRateLimited(provider string, now time.Time) {
	pl.streaks[provider]++
	wait := time.Duration(1<<uint(pl.streaks[provider]-1)) * time.Second
	if wait > pl.maxCooldown {
		wait = pl.maxCooldown
	}
	pl.cache.SetCooldown(provider, now.Add(wait))
}

// RecordSuccess clears provider's cooldown streak.
func (pl *ProviderLimiter) RecordSuccess(provider string) {
	pl.streaks[provider] = 0
}
