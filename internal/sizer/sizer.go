// Package sizer picks an order size for an approved candidate (spec.md
// §4.9). Strategy is a tagged union (spec.md's own Design Notes guidance:
// interface + type-switch, no base-class idiom). The scaling/clamping
// pipeline generalizes the teacher's allocation math in
// internal/trading/executor.go (`allocLamports := balance * MaxAllocPercent
// / 100`) into a strategy-parameterized, decimal-precise sizer.
package sizer

import "github.com/shopspring/decimal"

// Strategy is the tagged union of sizing strategies (spec.md §4.9).
type Strategy interface {
	isStrategy()
}

// Fixed always proposes the same size.
type Fixed struct {
	Size decimal.Decimal
}

func (Fixed) isStrategy() {}

// ConfidenceScaled linearly interpolates size from Min to Max over
// confidence in [50, 100], clamped at the ends.
type ConfidenceScaled struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (ConfidenceScaled) isStrategy() {}

// Tiered scales a base size by a per-tier multiplier.
type Tiered struct {
	Base              decimal.Decimal
	MultipliersByTier map[string]decimal.Decimal
}

func (Tiered) isStrategy() {}

// KellyLike scales a base size by a fraction of the scorer's reported
// success probability, capped at MaxRiskPct of the base.
type KellyLike struct {
	Base       decimal.Decimal
	MaxRiskPct decimal.Decimal
}

func (KellyLike) isStrategy() {}

// Limits are the absolute clamps applied after strategy + scaling.
type Limits struct {
	AbsoluteMin             decimal.Decimal
	AbsoluteMax             decimal.Decimal
	PortfolioTotal          decimal.Decimal
	MaxPerPositionPct       decimal.Decimal
	MaxPortfolioExposurePct decimal.Decimal
	ScaleDownNearLimit      bool
}

// Input bundles the per-call context the sizing algorithm needs.
type Input struct {
	Strategy           Strategy
	Limits             Limits
	Confidence         uint8
	Tier               string // wallet tier name; consulted only by Tiered
	SuccessProbability  float64
	TotalCurrentExposure decimal.Decimal
	ActivePositions     int
	PositionCap         int
}

// Size runs the spec.md §4.9 algorithm. A zero size with ok=false means the
// result fell below AbsoluteMin and the candidate should be dropped
// (`SizeBelowMinimum`).
func Size(in Input) (decimal.Decimal, bool) {
	result := baseSize(in)

	// Step 2: portfolio heat, 20% buffer.
	remaining := in.Limits.PortfolioTotal.Sub(in.TotalCurrentExposure)
	cap := remaining.Mul(decimal.NewFromFloat(0.8))
	if cap.IsNegative() {
		cap = decimal.Zero
	}
	if result.GreaterThan(cap) {
		result = cap
	}

	// Step 3: position-count utilization scaling, gated by the
	// scale_down_near_limit config toggle (spec.md §4.9).
	if in.Limits.ScaleDownNearLimit && in.PositionCap > 0 {
		utilization := decimal.NewFromInt(int64(in.ActivePositions)).Div(decimal.NewFromInt(int64(in.PositionCap)))
		switch {
		case utilization.GreaterThanOrEqual(decimal.NewFromFloat(0.8)):
			result = result.Mul(decimal.NewFromFloat(0.5))
		case utilization.GreaterThanOrEqual(decimal.NewFromFloat(0.6)):
			result = result.Mul(decimal.NewFromFloat(0.75))
		}
	}

	// Step 4: apply the ceiling limits only. The floor (absolute_min) is not
	// clamped up to here — a result below it is dropped entirely in step 5
	// rather than artificially inflated, per the "ties broken in favor of
	// smaller size (risk-first)" rule.
	if result.GreaterThan(in.Limits.AbsoluteMax) {
		result = in.Limits.AbsoluteMax
	}
	perPositionCap := in.Limits.PortfolioTotal.Mul(in.Limits.MaxPerPositionPct)
	if result.GreaterThan(perPositionCap) {
		result = perPositionCap
	}

	// Step 5.
	if result.LessThan(in.Limits.AbsoluteMin) {
		return decimal.Zero, false
	}
	return result, true
}

func baseSize(in Input) decimal.Decimal {
	switch s := in.Strategy.(type) {
	case Fixed:
		return s.Size
	case ConfidenceScaled:
		c := float64(in.Confidence)
		if c < 50 {
			c = 50
		}
		if c > 100 {
			c = 100
		}
		frac := decimal.NewFromFloat((c - 50) / 50)
		return s.Min.Add(s.Max.Sub(s.Min).Mul(frac))
	case Tiered:
		mult, ok := s.MultipliersByTier[in.Tier]
		if !ok {
			mult = decimal.NewFromInt(1)
		}
		return s.Base.Mul(mult)
	case KellyLike:
		frac := decimal.NewFromFloat(in.SuccessProbability)
		maxFrac := s.MaxRiskPct
		if frac.GreaterThan(maxFrac) {
			frac = maxFrac
		}
		return s.Base.Mul(frac)
	default:
		return decimal.Zero
	}
}
