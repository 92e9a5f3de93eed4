package sizer

import (
	"testing"

	"github.com/shopspring/decimal"
)

func baseLimits() Limits {
	return Limits{
		AbsoluteMin:             decimal.NewFromFloat(0.05),
		AbsoluteMax:             decimal.NewFromFloat(5),
		PortfolioTotal:          decimal.NewFromFloat(10),
		MaxPerPositionPct:       decimal.NewFromFloat(0.25),
		MaxPortfolioExposurePct: decimal.NewFromFloat(0.8),
		ScaleDownNearLimit:      true,
	}
}

func TestFixedStrategy(t *testing.T) {
	in := Input{
		Strategy:    Fixed{Size: decimal.NewFromFloat(0.2)},
		Limits:      baseLimits(),
		PositionCap: 10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.2)) {
		t.Fatalf("got %v, ok=%v", got, ok)
	}
}

func TestConfidenceScaledInterpolation(t *testing.T) {
	in := Input{
		Strategy:    ConfidenceScaled{Min: decimal.NewFromFloat(0.1), Max: decimal.NewFromFloat(0.5)},
		Confidence:  75, // midpoint of [50,100]
		Limits:      baseLimits(),
		PositionCap: 10,
	}
	got, ok := Size(in)
	if !ok {
		t.Fatal("expected ok")
	}
	want := decimal.NewFromFloat(0.3)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestConfidenceScaledClampsBelowFifty(t *testing.T) {
	in := Input{
		Strategy:    ConfidenceScaled{Min: decimal.NewFromFloat(0.1), Max: decimal.NewFromFloat(0.5)},
		Confidence:  10,
		Limits:      baseLimits(),
		PositionCap: 10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.1)) {
		t.Fatalf("got %v, ok=%v, want 0.1", got, ok)
	}
}

func TestPortfolioHeatCapsSize(t *testing.T) {
	limits := baseLimits()
	in := Input{
		Strategy:             Fixed{Size: decimal.NewFromFloat(3)},
		Limits:               limits,
		TotalCurrentExposure: decimal.NewFromFloat(9), // remaining = 1, cap = 0.8
		PositionCap:          10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.8)) {
		t.Fatalf("got %v, ok=%v, want 0.8", got, ok)
	}
}

func TestUtilizationScalingAt80Percent(t *testing.T) {
	in := Input{
		Strategy:        Fixed{Size: decimal.NewFromFloat(1)},
		Limits:          baseLimits(),
		ActivePositions: 8,
		PositionCap:     10, // utilization 0.8 -> 50% reduction
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("got %v, ok=%v, want 0.5", got, ok)
	}
}

func TestUtilizationScalingAt60Percent(t *testing.T) {
	in := Input{
		Strategy:        Fixed{Size: decimal.NewFromFloat(1)},
		Limits:          baseLimits(),
		ActivePositions: 6,
		PositionCap:     10, // utilization 0.6 -> 25% reduction
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.75)) {
		t.Fatalf("got %v, ok=%v, want 0.75", got, ok)
	}
}

func TestAbsoluteMaxClamp(t *testing.T) {
	in := Input{
		Strategy:    Fixed{Size: decimal.NewFromFloat(100)},
		Limits:      baseLimits(),
		PositionCap: 10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(2.5)) { // 10 * 0.25 per-position cap binds before absolute max
		t.Fatalf("got %v, ok=%v, want 2.5", got, ok)
	}
}

func TestBelowAbsoluteMinReturnsNotOK(t *testing.T) {
	in := Input{
		Strategy:    Fixed{Size: decimal.NewFromFloat(0.2)},
		Limits:      baseLimits(),
		PositionCap: 10,
		TotalCurrentExposure: decimal.NewFromFloat(10), // remaining=0, cap=0 -> forced below min
	}
	_, ok := Size(in)
	if ok {
		t.Fatal("expected not-ok when result clamps below absolute min")
	}
}

func TestTieredStrategyUnknownTierDefaultsToOne(t *testing.T) {
	in := Input{
		Strategy: Tiered{
			Base:              decimal.NewFromFloat(0.1),
			MultipliersByTier: map[string]decimal.Decimal{"A": decimal.NewFromFloat(2)},
		},
		Tier:        "Unknown",
		Limits:      baseLimits(),
		PositionCap: 10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.1)) {
		t.Fatalf("got %v, ok=%v, want 0.1", got, ok)
	}
}

func TestKellyLikeCapsAtMaxRisk(t *testing.T) {
	in := Input{
		Strategy: KellyLike{
			Base:       decimal.NewFromFloat(1),
			MaxRiskPct: decimal.NewFromFloat(0.2),
		},
		SuccessProbability: 0.9,
		Limits:             baseLimits(),
		PositionCap:        10,
	}
	got, ok := Size(in)
	if !ok || !got.Equal(decimal.NewFromFloat(0.2)) {
		t.Fatalf("got %v, ok=%v, want 0.2", got, ok)
	}
}
