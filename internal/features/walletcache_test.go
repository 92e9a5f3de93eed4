package features

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/ids"
)

func wallet(b byte) ids.Wallet {
	var w ids.Wallet
	w[0] = b
	return w
}

func TestWalletCacheGetIfFreshRespectsStaleness(t *testing.T) {
	c := NewWalletCache(30*time.Second, 10*time.Second)
	now := time.Now()
	row := WalletRow{Wallet: wallet(1), WinRate7d: 0.6, TradesCount: 15}
	c.upsertPass([]WalletRow{row}, now)

	if _, ok := c.GetIfFresh(wallet(1), now.Add(39*time.Second)); !ok {
		t.Fatal("expected fresh within refresh_interval+staleness_grace")
	}
	if _, ok := c.GetIfFresh(wallet(1), now.Add(41*time.Second)); ok {
		t.Fatal("expected stale beyond refresh_interval+staleness_grace")
	}
}

func TestWalletCacheMissingKeyIsAbsent(t *testing.T) {
	c := NewWalletCache(30*time.Second, 10*time.Second)
	if _, ok := c.GetIfFresh(wallet(9), time.Now()); ok {
		t.Fatal("expected absent for unknown key")
	}
}

func TestWalletCacheEvictStaleRemovesOldEntries(t *testing.T) {
	c := NewWalletCache(30*time.Second, 10*time.Second)
	now := time.Now()
	c.upsertPass([]WalletRow{{Wallet: wallet(1)}}, now)
	if c.evictStale(now.Add(41 * time.Second)) != 1 {
		t.Fatal("expected one eviction")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after eviction", c.Len())
	}
}

func TestWalletCacheUpsertDerivesTierAndConfidence(t *testing.T) {
	c := NewWalletCache(30*time.Second, 10*time.Second)
	now := time.Now()
	c.upsertPass([]WalletRow{{
		Wallet:        wallet(2),
		WinRate7d:     0.8,
		RealizedPnL7d: decimal.NewFromInt(500),
		TradesCount:   80,
	}}, now)

	f, ok := c.GetIfFresh(wallet(2), now)
	if !ok {
		t.Fatal("expected entry present")
	}
	if f.Tier != TierS {
		t.Fatalf("expected TierS for an elite wallet, got %v", f.Tier)
	}
	if f.ConfidenceScore == 0 {
		t.Fatal("expected a non-zero derived confidence score")
	}
}

func TestWalletCacheSeedOverwritesDirectly(t *testing.T) {
	c := NewWalletCache(30*time.Second, 10*time.Second)
	now := time.Now()
	c.Seed(WalletFeatures{Wallet: wallet(3), Tier: TierA, ConfidenceScore: 80, LastRefreshedAt: now})

	f, ok := c.GetIfFresh(wallet(3), now)
	if !ok || f.Tier != TierA || f.ConfidenceScore != 80 {
		t.Fatalf("got %+v", f)
	}
}
