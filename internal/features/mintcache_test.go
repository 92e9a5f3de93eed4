package features

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/ids"
)

func mint(b byte) ids.Mint {
	var m ids.Mint
	m[0] = b
	return m
}

func TestMintCacheGetIfFreshRespectsStaleness(t *testing.T) {
	c := NewMintCache(30*time.Second, 10*time.Second)
	now := time.Now()
	row := MintRow{Mint: mint(1), Volume60s: decimal.NewFromInt(10), Volume5s: decimal.NewFromInt(1)}
	c.upsertPass([]MintRow{row}, now)

	if _, ok := c.GetIfFresh(mint(1), now.Add(39*time.Second)); !ok {
		t.Fatal("expected fresh within refresh_interval+staleness_grace")
	}
	if _, ok := c.GetIfFresh(mint(1), now.Add(41*time.Second)); ok {
		t.Fatal("expected stale beyond refresh_interval+staleness_grace")
	}
}

func TestMintCacheMissingKeyIsAbsent(t *testing.T) {
	c := NewMintCache(30*time.Second, 10*time.Second)
	if _, ok := c.GetIfFresh(mint(9), time.Now()); ok {
		t.Fatal("expected absent for unknown key")
	}
}

func TestMintCacheEvictStaleRemovesOldEntries(t *testing.T) {
	c := NewMintCache(30*time.Second, 10*time.Second)
	now := time.Now()
	c.upsertPass([]MintRow{{Mint: mint(1)}}, now)
	if c.evictStale(now.Add(41 * time.Second)) != 1 {
		t.Fatal("expected one eviction")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after eviction", c.Len())
	}
}

func TestMintCacheRefreshIsAtomicPerKey(t *testing.T) {
	// spec.md §5: "a reader sees either the old record or the new one,
	// never a partial record." GetIfFresh always returns a value copy, so a
	// concurrent upsert cannot hand back a half-written struct.
	c := NewMintCache(30*time.Second, 10*time.Second)
	now := time.Now()
	c.upsertPass([]MintRow{{Mint: mint(1), Buyers60s: 10}}, now)
	f, ok := c.GetIfFresh(mint(1), now)
	if !ok || f.UniqueBuyers60s != 10 {
		t.Fatalf("got %+v", f)
	}
	c.upsertPass([]MintRow{{Mint: mint(1), Buyers60s: 20}}, now.Add(time.Second))
	f, ok = c.GetIfFresh(mint(1), now.Add(time.Second))
	if !ok || f.UniqueBuyers60s != 20 {
		t.Fatalf("got %+v, want refreshed value", f)
	}
}

func TestComputeTier(t *testing.T) {
	cases := []struct {
		name    string
		winRate float64
		pnl     decimal.Decimal
		trades  uint64
		want    Tier
	}{
		{"fresh wallet", 0.0, decimal.Zero, 0, TierDiscovery},
		{"steady performer", 0.5, decimal.NewFromInt(10), 12, TierC},
		{"elite", 0.8, decimal.NewFromInt(1000), 80, TierS},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ComputeTier(c.winRate, c.pnl, c.trades)
			if got != c.want {
				t.Fatalf("ComputeTier() = %v, want %v", got, c.want)
			}
		})
	}
}
