package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/audit"
	"solana-brain/internal/clock"
	"solana-brain/internal/features"
	"solana-brain/internal/guardrails"
	"solana-brain/internal/ids"
	"solana-brain/internal/metrics"
	"solana-brain/internal/position"
	"solana-brain/internal/priceoracle"
	"solana-brain/internal/sizer"
	"solana-brain/internal/validator"
	"solana-brain/internal/wire"
)

type fakeEmitter struct {
	sent []wire.TradeDecision
	err  error
}

func (f *fakeEmitter) Send(ctx context.Context, d wire.TradeDecision) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, d)
	return nil
}

type fakeAudit struct {
	records []audit.Record
}

func (f *fakeAudit) Append(ctx context.Context, r audit.Record) error {
	f.records = append(f.records, r)
	return nil
}

func mintN(b byte) ids.Mint {
	var m ids.Mint
	m[0] = b
	return m
}

func walletN(b byte) ids.Wallet {
	var w ids.Wallet
	w[0] = b
	return w
}

func looseValidatorThresholds() validator.Thresholds {
	return validator.Thresholds{
		MinProfitTargetUSD:     decimal.NewFromInt(1000),
		FixedTipUSD:            decimal.NewFromFloat(0.01),
		FixedGasUSD:            decimal.NewFromFloat(0.01),
		SlippageBpsOfSize:      10,
		ImpactBpsOfSize:        10,
		MinFollowThroughScore:  60,
		CreatorBlacklist:       map[string]struct{}{},
		MaxHotLaunchAgeSeconds: 999999,
	}
}

func testPipeline(t *testing.T, now time.Time) (*Pipeline, *fakeEmitter, *fakeAudit, *features.MintCache, *position.Tracker, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(now)
	mintCache := features.NewMintCache(30*time.Second, 10*time.Second)
	walletCache := features.NewWalletCache(30*time.Second, 10*time.Second)
	tracker := position.NewTracker(10)
	gauge := priceoracle.NewGauge(decimal.NewFromFloat(150), clk)
	emitter := &fakeEmitter{}
	aud := &fakeAudit{}
	m := metrics.NewPipeline()
	guard := guardrails.New(guardrails.Config{
		MaxConcurrentPositions: 10,
		MaxAdvisorPositions:    10,
		WalletCoolingSecs:      45 * time.Second,
		PathwayMinInterval: map[guardrails.Pathway]time.Duration{
			guardrails.PathwayLateOpportunity: 0,
			guardrails.PathwayCopyTrade:       0,
		},
	}, clk)

	p := New(Params{
		Clock:               clk,
		MintCache:           mintCache,
		WalletCache:         walletCache,
		ValidatorThresholds: looseValidatorThresholds(),
		Guard:               guard,
		SizerStrategy:       sizer.ConfidenceScaled{Min: decimal.NewFromFloat(0.05), Max: decimal.NewFromFloat(0.2)},
		SizerLimits: sizer.Limits{
			AbsoluteMin:             decimal.NewFromFloat(0.01),
			AbsoluteMax:             decimal.NewFromFloat(5),
			PortfolioTotal:          decimal.NewFromInt(10),
			MaxPerPositionPct:       decimal.NewFromFloat(0.5),
			MaxPortfolioExposurePct: decimal.NewFromFloat(0.9),
		},
		Tracker:                      tracker,
		Gauge:                        gauge,
		Emitter:                      emitter,
		Audit:                        aud,
		Metrics:                      m,
		MinConfidenceLateOpportunity: 60,
		MinConfidenceCopyTrade:       50,
		PositionDefaults: PositionDefaults{
			ProfitTargets:   [3]float64{30, 60, 100},
			StopLossPercent: 15,
			MaxHoldSeconds:  900,
		},
	})
	return p, emitter, aud, mintCache, tracker, clk
}

// TestHandleLateOpportunityColdCacheRejects implements spec.md §8 S1.
func TestHandleLateOpportunityColdCacheRejects(t *testing.T) {
	now := time.Unix(1000, 0)
	p, emitter, aud, _, tracker, _ := testPipeline(t, now)

	p.HandleLateOpportunity(context.Background(), wire.LateOpportunity{
		Mint: mintN(1), AgeSeconds: 1200, Volume60s: 35.5, Buyers60s: 42, PreScore: 85,
	})

	if len(emitter.sent) != 0 {
		t.Fatal("expected no emission on cold cache")
	}
	if tracker.Count() != 0 {
		t.Fatal("expected no position registered")
	}
	if len(aud.records) != 1 || aud.records[0].Detail != RejectCacheMissMint.String() {
		t.Fatalf("expected one CacheMiss{mint} rejection, got %+v", aud.records)
	}
}

// TestHandleLateOpportunityHappyPath implements spec.md §8 S2.
func TestHandleLateOpportunityHappyPath(t *testing.T) {
	now := time.Unix(1000, 0)
	p, emitter, aud, mintCache, tracker, _ := testPipeline(t, now)

	mint := mintN(2)
	mintCache.Seed(features.MintFeatures{
		Mint:                    mint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00001),
		UniqueBuyers2s:          15,
		Volume5s:                decimal.NewFromFloat(25.0),
		UniqueBuyers60s:         65,
		LastRefreshedAt:         now,
	})

	p.HandleLateOpportunity(context.Background(), wire.LateOpportunity{Mint: mint})

	if len(emitter.sent) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(emitter.sent))
	}
	d := emitter.sent[0]
	if d.Side != wire.SideBuy {
		t.Fatal("expected a buy decision")
	}
	if d.Confidence < 60 {
		t.Fatalf("expected confidence >= 60, got %d", d.Confidence)
	}
	minUnits := uint64(0.05 * 1e9)
	maxUnits := uint64(0.2 * 1e9)
	if d.SizeInBaseUnits < minUnits || d.SizeInBaseUnits > maxUnits {
		t.Fatalf("expected size in [%d,%d], got %d", minUnits, maxUnits, d.SizeInBaseUnits)
	}
	if tracker.Count() != 1 {
		t.Fatalf("expected tracker length 1, got %d", tracker.Count())
	}
	if len(aud.records) != 1 || aud.records[0].Kind != "decision_accept" {
		t.Fatalf("expected one decision_accept audit record, got %+v", aud.records)
	}
}

// TestHandleCopyTradeTierBoost implements spec.md §8 S3.
func TestHandleCopyTradeTierBoost(t *testing.T) {
	now := time.Unix(1000, 0)
	p, emitter, _, mintCache, _, _ := testPipeline(t, now)

	mint := mintN(3)
	wallet := walletN(7)

	mintCache.Seed(features.MintFeatures{
		Mint:                    mint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00002),
		UniqueBuyers2s:          12,
		Volume5s:                decimal.NewFromFloat(18),
		LastRefreshedAt:         now,
	})

	p.walletCache.Seed(features.WalletFeatures{
		Wallet:          wallet,
		Tier:            features.TierA,
		ConfidenceScore: 80,
		LastRefreshedAt: now,
	})

	p.HandleCopyTrade(context.Background(), wire.CopyTrade{
		Wallet: wallet, Mint: mint, Side: wire.SideBuy, SizeInBase: 0.5, WalletTier: 3, WalletConfidence: 80,
	})

	if len(emitter.sent) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(emitter.sent))
	}
	if emitter.sent[0].Confidence < 60 {
		t.Fatalf("expected tier-boosted confidence, got %d", emitter.sent[0].Confidence)
	}
}

// TestHandleCopyTradeWalletCoolingBlocks implements spec.md §8 S4.
func TestHandleCopyTradeWalletCoolingBlocks(t *testing.T) {
	now := time.Unix(1000, 0)
	p, emitter, aud, mintCache, _, clk := testPipeline(t, now)

	mint := mintN(4)
	wallet := walletN(8)
	mintCache.Seed(features.MintFeatures{
		Mint:                    mint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00002),
		UniqueBuyers2s:          12,
		Volume5s:                decimal.NewFromFloat(18),
		LastRefreshedAt:         now,
	})
	p.walletCache.Seed(features.WalletFeatures{
		Wallet: wallet, Tier: features.TierB, ConfidenceScore: 70, LastRefreshedAt: now,
	})

	cp := wire.CopyTrade{Wallet: wallet, Mint: mint, Side: wire.SideBuy, SizeInBase: 0.5, WalletTier: 2, WalletConfidence: 70}
	p.HandleCopyTrade(context.Background(), cp)
	if len(emitter.sent) != 1 {
		t.Fatalf("expected first copy-trade to emit, got %d", len(emitter.sent))
	}

	// Second identical copy-trade 10s later, well inside the configured
	// 45s wallet-cooling window: must be blocked.
	now2 := now.Add(10 * time.Second)
	clk.Set(now2)
	mintCache.Seed(features.MintFeatures{
		Mint:                    mint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00002),
		UniqueBuyers2s:          12,
		Volume5s:                decimal.NewFromFloat(18),
		LastRefreshedAt:         now2,
	})
	p.HandleCopyTrade(context.Background(), cp)

	if len(emitter.sent) != 1 {
		t.Fatalf("expected wallet cooling to block the second emission, got %d sent", len(emitter.sent))
	}
	found := false
	for _, r := range aud.records {
		if r.Detail == "WalletCooling" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a WalletCooling rejection audit record, got %+v", aud.records)
	}
}

// TestRejectedOpportunityNeverTracksOrEmits implements spec.md §8 property 3.
func TestRejectedOpportunityNeverTracksOrEmits(t *testing.T) {
	now := time.Unix(1000, 0)
	p, emitter, _, mintCache, tracker, _ := testPipeline(t, now)

	mint := mintN(9)
	mintCache.Seed(features.MintFeatures{
		Mint:                    mint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00001),
		UniqueBuyers2s:          0,
		Volume5s:                decimal.NewFromFloat(0),
		UniqueBuyers60s:         0,
		LastRefreshedAt:         now,
	})

	p.HandleLateOpportunity(context.Background(), wire.LateOpportunity{Mint: mint})

	if len(emitter.sent) != 0 {
		t.Fatal("expected no emission for a low-confidence candidate")
	}
	if tracker.Count() != 0 {
		t.Fatal("expected no position registered for a rejected candidate")
	}
}
