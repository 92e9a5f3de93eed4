package features

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"solana-brain/internal/ids"
)

// WalletCache is the keyed store of per-wallet features (spec.md §4.4/§2.5).
type WalletCache struct {
	mu              sync.RWMutex
	entries         map[ids.Wallet]*WalletFeatures
	refreshInterval time.Duration
	stalenessGrace  time.Duration
}

// NewWalletCache creates an empty cache with the given freshness window.
func NewWalletCache(refreshInterval, stalenessGrace time.Duration) *WalletCache {
	return &WalletCache{
		entries:         make(map[ids.Wallet]*WalletFeatures),
		refreshInterval: refreshInterval,
		stalenessGrace:  stalenessGrace,
	}
}

// GetIfFresh returns the cached record for wallet if present and not stale.
func (c *WalletCache) GetIfFresh(wallet ids.Wallet, now time.Time) (WalletFeatures, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.entries[wallet]
	if !ok {
		return WalletFeatures{}, false
	}
	if now.Sub(f.LastRefreshedAt) > c.refreshInterval+c.stalenessGrace {
		return WalletFeatures{}, false
	}
	return *f, true
}

// Seed inserts a record directly into the cache. Production code always
// writes through a WalletRefresher pass; this exists so callers in other
// packages can set up deterministic cache state in tests without reaching
// into unexported fields.
func (c *WalletCache) Seed(f WalletFeatures) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := f
	c.entries[f.Wallet] = &cp
}

// Len returns the number of cached entries (diagnostics/tests).
func (c *WalletCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *WalletCache) upsertPass(rows []WalletRow, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rows {
		tier := ComputeTier(r.WinRate7d, r.RealizedPnL7d, r.TradesCount)
		c.entries[r.Wallet] = &WalletFeatures{
			Wallet:          r.Wallet,
			WinRate7d:       r.WinRate7d,
			RealizedPnL7d:   r.RealizedPnL7d,
			TradesCount:     r.TradesCount,
			AvgSize:         r.AvgSize,
			Tier:            tier,
			ConfidenceScore: tierConfidence(tier, r.WinRate7d),
			LastRefreshedAt: now,
		}
	}
}

func (c *WalletCache) evictStale(now time.Time) int {
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

// tierConfidence derives a 0-100 confidence score from tier and win rate,
// consistent with spec.md §4.6's "Discovery: bootstrap from own confidence"
// language for the scorer's quality sub-score.
func tierConfidence(t Tier, winRate7d float64) uint8 {
	base := map[Tier]float64{
		TierS: 95, TierA: 95, TierB: 85, TierC: 75, TierDiscovery: 50,
	}[t]
	adj := base + (winRate7d-0.5)*20
	if adj < 0 {
		adj = 0
	}
	if adj > 100 {
		adj = 100
	}
	return uint8(adj)
}

// WalletRefresher periodically pulls a bounded snapshot from store B and
// upserts it into the cache. If store is nil, Run returns immediately
// without starting a loop and the wallet cache stays permanently empty, so
// copy-trade lookups against it miss (CacheMiss{wallet}). When store B is
// unavailable at startup (spec.md §4.4 degradation), cmd/brain hands the
// pipeline no wallet cache at all, and copy-trade paths reject with
// wallet_features_unavailable.
type WalletRefresher struct {
	cache  *WalletCache
	store  StoreB
	topN   int
	period time.Duration
	cb     *gobreaker.CircuitBreaker
}

// NewWalletRefresher wires a refresher. store may be nil.
func NewWalletRefresher(cache *WalletCache, store StoreB, topN int, period time.Duration) *WalletRefresher {
	return &WalletRefresher{
		cache:  cache,
		store:  store,
		topN:   topN,
		period: period,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "store-b",
			Timeout: period,
		}),
	}
}

// Run blocks, refreshing on a fixed ticker until ctx is cancelled.
func (r *WalletRefresher) Run(ctx context.Context) {
	if r.store == nil {
		log.Warn().Msg("wallet feature store unavailable at startup; wallet cache disabled")
		return
	}
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

func (r *WalletRefresher) tick(ctx context.Context) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		return r.store.TopWallets(ctx, r.topN)
	})
	if err != nil {
		log.Warn().Err(err).Msg("wallet feature store query failed, skipping refresh cycle")
		return
	}
	rows := result.([]WalletRow)
	now := time.Now()
	r.cache.upsertPass(rows, now)
	if evicted := r.cache.evictStale(now); evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("evicted stale wallet cache entries")
	}
	log.Debug().Int("rows", len(rows)).Int("cached", r.cache.Len()).Msg("wallet cache refreshed")
}
