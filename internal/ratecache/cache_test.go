package ratecache

import (
	"testing"
	"time"
)

func TestCache_PutGetFresh(t *testing.T) {
	c := New()
	now := time.Unix(0, 0)
	c.Put("market", "addr1", 42, 30*time.Second, now)

	e, ok, fresh := c.Get("market", "addr1", now.Add(10*time.Second))
	if !ok || !fresh {
		t.Fatalf("expected a fresh hit, got ok=%v fresh=%v", ok, fresh)
	}
	if e.Value.(int) != 42 {
		t.Errorf("expected value 42, got %v", e.Value)
	}
}

func TestCache_ExpiredButStillReturnedForStaleWhileCooling(t *testing.T) {
	c := New()
	now := time.Unix(0, 0)
	c.Put("market", "addr1", 42, 5*time.Second, now)

	e, ok, fresh := c.Get("market", "addr1", now.Add(time.Minute))
	if !ok {
		t.Fatal("expected entry to still be returned when stale")
	}
	if fresh {
		t.Error("expected fresh=false for an expired entry")
	}
	if e.Value.(int) != 42 {
		t.Errorf("expected stale value preserved, got %v", e.Value)
	}
}

func TestCache_MissReturnsNotOK(t *testing.T) {
	c := New()
	_, ok, _ := c.Get("market", "unknown", time.Now())
	if ok {
		t.Error("expected miss for unknown key")
	}
}

func TestProviderLimiter_CooldownAfterRateLimited(t *testing.T) {
	cache := New()
	pl := NewProviderLimiter(cache, 10*time.Second)
	pl.Configure("market", 5, 5)

	now := time.Unix(0, 0)
	if !pl.Allow("market", now) {
		t.Fatal("expected allow before any rate-limit event")
	}
	pl.RecordRateLimited("market", now)
	if pl.Allow("market", now) {
		t.Error("expected cooldown to block immediately after a rate-limit event")
	}
}

func TestProviderLimiter_CooldownCapsAtMax(t *testing.T) {
	cache := New()
	pl := NewProviderLimiter(cache, 4*time.Second)
	pl.Configure("market", 5, 5)

	now := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		pl.RecordRateLimited("market", now)
	}
	if cache.InCooldown("market", now.Add(5*time.Second)) {
		t.Error("expected cooldown to be capped below 5s even after many consecutive rate-limit events")
	}
}

func TestProviderLimiter_SuccessResetsStreak(t *testing.T) {
	cache := New()
	pl := NewProviderLimiter(cache, 10*time.Second)
	pl.Configure("market", 5, 5)
	now := time.Unix(0, 0)

	pl.RecordRateLimited("market", now)
	pl.RecordSuccess("market")
	if pl.streaks["market"] != 0 {
		t.Errorf("expected streak reset to 0, got %d", pl.streaks["market"])
	}
}
