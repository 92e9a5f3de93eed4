package position

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/ids"
)

func mintP(b byte) ids.Mint {
	var m ids.Mint
	m[0] = b
	return m
}

func basePosition(entry float64) Position {
	return Position{
		Mint:            mintP(1),
		EntryPrice:      decimal.NewFromFloat(entry),
		Size:            decimal.NewFromFloat(0.2),
		TokensHeld:      20000,
		EntryTime:       time.Unix(1000, 0),
		ProfitTargets:   [3]float64{30, 60, 100},
		StopLossPercent: 15,
		MaxHoldSeconds:  300,
	}
}

// TestShouldExitProfitTargetTier3 implements spec.md §8 S6: current price
// doubles (+100%), tier-3 target (100%) fires, exit_percent is 100%.
func TestShouldExitProfitTargetTier3(t *testing.T) {
	p := basePosition(1.0)
	now := p.EntryTime.Add(10 * time.Second)
	reason := ShouldExit(p, decimal.NewFromFloat(2.0), decimal.NewFromFloat(10), now)
	if reason == nil || reason.Kind != ExitProfitTarget || reason.Tier != 3 || reason.ExitPercent != 100 {
		t.Fatalf("got %+v", reason)
	}
}

func TestShouldExitStopLoss(t *testing.T) {
	p := basePosition(1.0)
	now := p.EntryTime.Add(10 * time.Second)
	reason := ShouldExit(p, decimal.NewFromFloat(0.8), decimal.NewFromFloat(10), now)
	if reason == nil || reason.Kind != ExitStopLoss {
		t.Fatalf("got %+v", reason)
	}
}

func TestShouldExitTimeDecay(t *testing.T) {
	p := basePosition(1.0)
	now := p.EntryTime.Add(301 * time.Second)
	reason := ShouldExit(p, decimal.NewFromFloat(1.05), decimal.NewFromFloat(10), now)
	if reason == nil || reason.Kind != ExitTimeDecay {
		t.Fatalf("got %+v", reason)
	}
}

func TestShouldExitVolumeDrop(t *testing.T) {
	p := basePosition(1.0)
	now := p.EntryTime.Add(35 * time.Second)
	reason := ShouldExit(p, decimal.NewFromFloat(1.05), decimal.NewFromFloat(0.1), now)
	if reason == nil || reason.Kind != ExitVolumeDrop {
		t.Fatalf("got %+v", reason)
	}
}

func TestShouldExitNoneWhenHealthy(t *testing.T) {
	p := basePosition(1.0)
	now := p.EntryTime.Add(10 * time.Second)
	reason := ShouldExit(p, decimal.NewFromFloat(1.1), decimal.NewFromFloat(10), now)
	if reason != nil {
		t.Fatalf("expected nil, got %+v", reason)
	}
}

func TestAdvisoryTierReachedDoesNotFireTwice(t *testing.T) {
	p := basePosition(1.0)
	_, _, ok := AdvisoryTierReached(p, decimal.NewFromFloat(1.35)) // +35% crosses tier 1 (30%)
	if !ok {
		t.Fatal("expected tier-1 crossing")
	}
	p.Tier1Fired = true
	_, _, ok = AdvisoryTierReached(p, decimal.NewFromFloat(1.35))
	if ok {
		t.Fatal("expected no re-fire once Tier1Fired is set")
	}
}

func TestAdvisoryTierReachedPrefersHigherTier(t *testing.T) {
	p := basePosition(1.0)
	tier, _, ok := AdvisoryTierReached(p, decimal.NewFromFloat(1.65)) // +65% crosses both tier 1 and 2
	if !ok || tier != 2 {
		t.Fatalf("expected tier 2 (higher tier wins ties), got tier=%d ok=%v", tier, ok)
	}
}
