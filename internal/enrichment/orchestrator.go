package enrichment

import (
	"context"
	"sync"
	"time"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/ratecache"
)

// Config bounds the orchestrator's fan-out.
type Config struct {
	Deadline      time.Duration // D in §4.4, default 2s
	ProviderTTL   map[string]time.Duration
	DefaultTTL    time.Duration
}

// DefaultConfig matches §4.4's stated defaults.
func DefaultConfig() Config {
	return Config{Deadline: 2 * time.Second, DefaultTTL: 30 * time.Second}
}

// Orchestrator fans a candidate address out to every registered
// Provider within Config.Deadline, tolerating partial results.
type Orchestrator struct {
	providers []Provider
	cfg       Config
	cache     *ratecache.Cache
	limiter   *ratecache.ProviderLimiter
}

// New builds an Orchestrator. limiter must already have each provider's
// rate configured via Configure.
func New(providers []Provider, cfg Config, cache *ratecache.Cache, limiter *ratecache.ProviderLimiter) *Orchestrator {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultConfig().Deadline
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}
	return &Orchestrator{providers: providers, cfg: cfg, cache: cache, limiter: limiter}
}

func (o *Orchestrator) ttl(provider string) time.Duration {
	if d, ok := o.cfg.ProviderTTL[provider]; ok {
		return d
	}
	return o.cfg.DefaultTTL
}

// Enrich performs the bounded parallel fan-out for address and returns
// the assembled bundle; it never blocks beyond Config.Deadline (plus
// goroutine-scheduling slack).
func (o *Orchestrator) Enrich(ctx context.Context, address string) domain.EnrichmentBundle {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadline)
	defer cancel()

	results := make(chan Classified, len(o.providers))
	var wg sync.WaitGroup
	for _, p := range o.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- o.runOne(ctx, p, address)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	bundle := domain.EnrichmentBundle{
		Address:          address,
		FetchLatenciesMs: make(map[domain.Provider]int64),
		FailureReasons:   make(map[domain.Provider]domain.FailureReason),
	}

collect:
	for {
		select {
		case c, ok := <-results:
			if !ok {
				break collect
			}
			applyResult(&bundle, c)
		case <-ctx.Done():
			break collect
		}
	}
	return bundle
}

func (o *Orchestrator) runOne(ctx context.Context, p Provider, address string) Classified {
	name := p.Name()
	now := time.Now()

	if entry, ok, fresh := o.cache.Get(name, address, now); ok && fresh {
		return Classified{Provider: name, Fragment: entry.Value}
	}

	if !o.limiter.Allow(name, now) {
		if entry, ok, _ := o.cache.Get(name, address, now); ok {
			// stale-while-cooling: serve the last known value.
			return Classified{Provider: name, Fragment: entry.Value}
		}
		return Classified{Provider: name, Err: errRateLimited{name}, Reason: string(domain.ReasonProviderRateLimited)}
	}

	start := time.Now()
	frag, err := p.Fetch(ctx, address)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		reason := classify(err)
		if reason == domain.ReasonProviderRateLimited {
			o.limiter.RecordRateLimited(name, now)
		}
		if entry, ok, _ := o.cache.Get(name, address, now); ok {
			return Classified{Provider: name, Fragment: entry.Value, LatencyMs: latency}
		}
		return Classified{Provider: name, Err: err, LatencyMs: latency, Reason: string(reason)}
	}
	o.limiter.RecordSuccess(name)
	o.cache.Put(name, address, frag, o.ttl(name), now)
	return Classified{Provider: name, Fragment: frag, LatencyMs: latency}
}

type errRateLimited struct{ provider string }

func (e errRateLimited) Error() string { return e.provider + ": local rate limit" }

func classify(err error) domain.FailureReason {
	switch err.(type) {
	case *RateLimitedError:
		return domain.ReasonProviderRateLimited
	case *AuthError:
		return domain.ReasonProviderAuthError
	case *DecodeError:
		return domain.ReasonProviderDecodeError
	case errRateLimited:
		return domain.ReasonProviderRateLimited
	}
	if err == context.DeadlineExceeded {
		return domain.ReasonProviderTimeout
	}
	return domain.ReasonProviderUnavailable
}

func applyResult(bundle *domain.EnrichmentBundle, c Classified) {
	provider := domain.Provider(c.Provider)
	bundle.FetchLatenciesMs[provider] = c.LatencyMs
	if c.Err != nil {
		bundle.FailureReasons[provider] = domain.FailureReason(c.Reason)
		return
	}
	switch frag := c.Fragment.(type) {
	case domain.SecurityFragment:
		bundle.Security = frag
		bundle.Completeness |= domain.CompleteSecurity
	case domain.MarketFragment:
		bundle.Market = frag
		bundle.Completeness |= domain.CompleteMarket
	case domain.TradersFragment:
		bundle.Traders = frag
		bundle.Completeness |= domain.CompleteHolders
	case domain.FlowFragment:
		bundle.Flow = frag
		bundle.Completeness |= domain.CompleteFlow
	case domain.MomentumFragment:
		bundle.Momentum = frag
		bundle.Completeness |= domain.CompleteMomentum
	case *int: // creator-history fragment: rug count folded into Security
		bundle.Security.CreatorRugCount = frag
		bundle.Completeness |= domain.CompleteCreatorHistory
	}
}
