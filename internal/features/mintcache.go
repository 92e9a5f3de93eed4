package features

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"solana-brain/internal/ids"
	"solana-brain/internal/scoremath"
)

// MintCache is the keyed store of per-token features, exclusively written by
// one refresher and read by many (pipeline, exit monitor).
type MintCache struct {
	mu              sync.RWMutex
	entries         map[ids.Mint]*MintFeatures
	refreshInterval time.Duration
	stalenessGrace  time.Duration
}

// NewMintCache creates an empty cache with the given freshness window.
func NewMintCache(refreshInterval, stalenessGrace time.Duration) *MintCache {
	return &MintCache{
		entries:         make(map[ids.Mint]*MintFeatures),
		refreshInterval: refreshInterval,
		stalenessGrace:  stalenessGrace,
	}
}

// GetIfFresh returns the cached record for mint if present and not stale
// (spec.md §4.4, testable property 6).
func (c *MintCache) GetIfFresh(mint ids.Mint, now time.Time) (MintFeatures, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.entries[mint]
	if !ok {
		return MintFeatures{}, false
	}
	if now.Sub(f.LastRefreshedAt) > c.refreshInterval+c.stalenessGrace {
		return MintFeatures{}, false
	}
	return *f, true
}

// Seed inserts a record directly into the cache. Production code always
// writes through a MintRefresher pass; this exists so callers in other
// packages can set up deterministic cache state in tests without reaching
// into unexported fields.
func (c *MintCache) Seed(f MintFeatures) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := f
	c.entries[f.Mint] = &cp
}

// Len returns the number of cached entries (diagnostics/tests).
func (c *MintCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// upsertPass replaces the cached record for every row, stamping each with
// now; entries not refreshed here are aged out later by evictStale.
func (c *MintCache) upsertPass(rows []MintRow, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rows {
		c.entries[r.Mint] = &MintFeatures{
			Mint:                    r.Mint,
			AgeSeconds:              ageSeconds(r.LaunchTime, now),
			CurrentPriceInBaseAsset: r.ClosePrice,
			Volume60s:               r.Volume60s,
			UniqueBuyers60s:         r.Buyers60s,
			UniqueBuyers2s:          r.Buyers2s,
			Buys60s:                 r.Buys60s,
			Sells60s:                r.Sells60s,
			Volume5s:                r.Volume5s,
			FollowThroughCached:     cachedFollowThrough(r),
			LastRefreshedAt:         now,
			WindowSubstituted:       r.WindowSubstituted,
			CreatorTrades:           r.CreatorTrades,
			InitialLiquidity:        r.InitialLiquidity,
			Known:                   r.CreatorTradesKnown && r.InitialLiquidityKnown,
			Creator:                 r.Creator,
		}
	}
}

// evictStale removes entries whose last refresh is older than the
// staleness cutoff (spec.md §4.4's per-mint invariant).
func (c *MintCache) evictStale(now time.Time) int {
	cutoff := c.refreshInterval + c.stalenessGrace
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for k, f := range c.entries {
		if now.Sub(f.LastRefreshedAt) > cutoff {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

func ageSeconds(launch, now time.Time) uint64 {
	if launch.IsZero() || now.Before(launch) {
		return 0
	}
	return uint64(now.Sub(launch).Seconds())
}

// MintRefresher periodically pulls a bounded snapshot from store A and
// upserts it into the cache (spec.md §4.4's refresh protocol).
type MintRefresher struct {
	cache  *MintCache
	store  StoreA
	topN   int
	period time.Duration
	cb     *gobreaker.CircuitBreaker
}

// NewMintRefresher wires a refresher. topN bounds the per-cycle pull
// (default 500 per spec.md). period is the fixed refresh cadence (default
// 30s).
func NewMintRefresher(cache *MintCache, store StoreA, topN int, period time.Duration) *MintRefresher {
	return &MintRefresher{
		cache:  cache,
		store:  store,
		topN:   topN,
		period: period,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "store-a",
			Timeout: period, // how long the breaker stays open before a trial request
		}),
	}
}

// Run blocks, refreshing on a fixed ticker until ctx is cancelled. A cycle
// that overruns the period is not queued; the next tick simply fires when
// it's due (spec.md §5's "ticks are not queued" backpressure policy).
func (r *MintRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *MintRefresher) tick(ctx context.Context) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		return r.store.TopMints(ctx, r.topN)
	})
	if err != nil {
		log.Warn().Err(err).Msg("mint feature store query failed, skipping refresh cycle")
		return
	}
	rows := result.([]MintRow)
	now := time.Now()
	r.cache.upsertPass(rows, now)
	if evicted := r.cache.evictStale(now); evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("evicted stale mint cache entries")
	}
	log.Debug().Int("rows", len(rows)).Int("cached", r.cache.Len()).Msg("mint cache refreshed")
}

// cachedFollowThrough computes the pre-computed follow-through score stored
// on each mint record during refresh (spec.md §4.4). It reuses the scorer's
// buyer/volume formulas through the shared internal/scoremath package rather
// than importing internal/scorer, since the cached value is advisory only (the
// pipeline always recomputes a fresh score from looked-up features at
// decision time, per spec.md §4.5 step 3) and features must not depend on
// scorer's pathway-specific (wallet-aware) inputs.
func cachedFollowThrough(r MintRow) uint8 {
	buyerScore := scoremath.BuyerMomentum(r.Buyers2s)
	vol5, _ := r.Volume5s.Float64()
	volScore := scoremath.VolumeMomentum(vol5)
	qualityScore := 0.0
	if r.Buyers60s > 0 {
		qualityScore = 100 * minF(float64(r.Buyers60s)/100, 1)
	}
	total := 0.4*buyerScore + 0.4*volScore + 0.2*qualityScore
	return scoremath.ClampToUint8(total)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
