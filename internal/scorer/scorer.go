// Package scorer computes the 0-100 follow-through confidence score
// (spec.md §4.6), a pure function of looked-up mint features and an
// optional wallet context. Grounded on the teacher's internal/trading/
// metrics.go numeric-helper style: plain functions over plain floats, no
// side effects, no external state.
package scorer

import (
	"math"

	"solana-brain/internal/features"
	"solana-brain/internal/scoremath"
)

// WalletContext carries the copy-trade wallet's tier/confidence into the
// quality sub-score (spec.md §4.6's "If wallet context present" branch).
// Present is false on the mint-only (late-opportunity) pathway.
type WalletContext struct {
	Present         bool
	Tier            features.Tier
	ConfidenceScore uint8
}

// Score computes the weighted-sum follow-through score from mint features
// and an optional wallet context, rounded and clamped to [0,100].
func Score(f features.MintFeatures, wallet WalletContext) uint8 {
	buyer := scoremath.BuyerMomentum(f.UniqueBuyers2s)
	vol5, _ := f.Volume5s.Float64()
	volume := scoremath.VolumeMomentum(vol5)
	quality := qualityScore(f, wallet)

	total := 0.4*buyer + 0.4*volume + 0.2*quality
	return scoremath.ClampToUint8(total)
}

func qualityScore(f features.MintFeatures, wallet WalletContext) float64 {
	if wallet.Present {
		switch wallet.Tier {
		case features.TierS, features.TierA:
			return 95
		case features.TierB:
			return 85
		case features.TierC:
			return 75
		case features.TierDiscovery:
			if wallet.ConfidenceScore > 0 {
				return float64(wallet.ConfidenceScore)
			}
			return 50
		default:
			return 50
		}
	}
	if f.UniqueBuyers60s == 0 {
		return 0
	}
	return 100 * math.Min(float64(f.UniqueBuyers60s)/100, 1)
}

// TierConfidenceBoost is the copy-trade tier boost applied after scoring
// (spec.md §4.5 step 3): Tier A +10, Tier B +5, else 0, clamped to 100.
func TierConfidenceBoost(score uint8, tier features.Tier) uint8 {
	boost := 0
	switch tier {
	case features.TierA, features.TierS:
		boost = 10
	case features.TierB:
		boost = 5
	}
	total := int(score) + boost
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return uint8(total)
}

// PositionSizeMultiplier returns the piecewise multiplier reserved for a
// future Kelly-style sizing path (spec.md §4.6); not used by the current
// sizer strategies, kept for that future path and for reporting.
func PositionSizeMultiplier(score uint8) float64 {
	switch {
	case score <= 39:
		return 0.5
	case score <= 59:
		return 0.75
	case score <= 79:
		return 1.0
	case score <= 89:
		return 1.25
	default:
		return 1.5
	}
}

// SuccessProbability maps a score through a sigmoid centered at 50 with
// steepness 10, for reporting only (spec.md §4.6).
func SuccessProbability(score uint8) float64 {
	x := float64(score)
	return 1 / (1 + math.Exp(-(x-50)/10))
}
