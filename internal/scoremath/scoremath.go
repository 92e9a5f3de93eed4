// Package scoremath holds the pure, dependency-free sub-score formulas
// shared by internal/scorer (fresh scoring at decision time) and
// internal/features (the cached advisory score computed on each cache
// refresh, spec.md §4.4). Keeping the formulas here means both call sites
// stay in lockstep without either package importing the other.
package scoremath

import "math"

const (
	// MaxBuyers is the buyer count above which momentum saturates.
	MaxBuyers = 20.0
	// VolumeCap is the volume (base units) above which momentum saturates.
	VolumeCap = 25.0
)

// BuyerMomentum maps a 2-second unique-buyer count to a 0-100 sub-score
// (spec.md §4.6).
func BuyerMomentum(buyers2s uint32) float64 {
	b := float64(buyers2s)
	switch {
	case b <= 0:
		return 0
	case b <= 5:
		return (b / 5) * 50
	default:
		v := 50 + 50*math.Max(0, math.Log(b/MaxBuyers)+1)
		return Clamp01To100(v)
	}
}

// VolumeMomentum maps a 5-second volume to a 0-100 sub-score (spec.md §4.6).
func VolumeMomentum(volume5s float64) float64 {
	if volume5s <= 0 {
		return 0
	}
	ratio := math.Min(volume5s/VolumeCap, 1)
	return 100 * math.Sqrt(ratio)
}

// Clamp01To100 clamps a float sub-score into [0, 100].
func Clamp01To100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampToUint8 rounds and clamps a composite score into a [0,100] uint8.
func ClampToUint8(v float64) uint8 {
	v = Clamp01To100(v)
	return uint8(math.Round(v))
}
