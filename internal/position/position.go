// Package position owns the active-position registry and the exit
// decision logic (spec.md §4.10). Tracker is grounded directly on the
// teacher's internal/trading/position.go PositionTracker: the same
// sync.RWMutex-guarded map keyed by mint, with Has/Get/Add/CanOpen plus
// MarkExited/All in place of Remove/GetAll, generalized from SOL-amount/entry-value fields to
// this system's richer Position record (profit-target tuple, stop-loss,
// max-hold, trigger source).
package position

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/ids"
)

// Position is an open trade this system is tracking (spec.md §3).
type Position struct {
	Mint            ids.Mint
	EntryPrice      decimal.Decimal
	Size            decimal.Decimal // base-asset units (SOL) committed
	TokensHeld      uint64
	EntryTime       time.Time
	ProfitTargets   [3]float64 // percent gains for tier 1/2/3, e.g. 30, 60, 100
	StopLossPercent float64
	MaxHoldSeconds  uint64
	TriggerSource   string // pathway the entry originated from

	// Tier1Fired/Tier2Fired record that an advisory-only tier crossing has
	// already been logged, so the monitor logs each tier crossing once
	// (SPEC_FULL.md Open Question 1).
	Tier1Fired bool
	Tier2Fired bool
}

// PnLPercent computes (current-entry)/max(entry,eps) * 100.
func (p Position) PnLPercent(currentPrice decimal.Decimal) float64 {
	entry := p.EntryPrice
	eps := decimal.New(1, -12)
	if entry.LessThan(eps) {
		entry = eps
	}
	pct, _ := currentPrice.Sub(p.EntryPrice).Div(entry).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// ElapsedSeconds returns how long the position has been open as of now.
func (p Position) ElapsedSeconds(now time.Time) uint64 {
	d := now.Sub(p.EntryTime)
	if d < 0 {
		return 0
	}
	return uint64(d.Seconds())
}

// ExitKind identifies why should_exit fired.
type ExitKind int

const (
	ExitProfitTarget ExitKind = iota
	ExitStopLoss
	ExitTimeDecay
	ExitVolumeDrop
	ExitEmergency
)

func (k ExitKind) String() string {
	switch k {
	case ExitProfitTarget:
		return "ProfitTarget"
	case ExitStopLoss:
		return "StopLoss"
	case ExitTimeDecay:
		return "TimeDecay"
	case ExitVolumeDrop:
		return "VolumeDrop"
	case ExitEmergency:
		return "Emergency"
	default:
		return "Unknown"
	}
}

// ExitReason is the tagged-union result of ShouldExit.
type ExitReason struct {
	Kind        ExitKind
	Tier        int // 1-3, valid only when Kind == ExitProfitTarget
	PnLPercent  float64
	ExitPercent float64 // fraction of the position (0-100) to sell
}

// ShouldExit is the pure exit decision function (spec.md §4.10). Only the
// tier-3 (100%) profit target produces an exit here; tier-1/tier-2
// crossings are surfaced separately via AdvisoryTierReached so the monitor
// can log them without selling; the monitor only records the Tier1Fired/
// Tier2Fired flags on the tracked position (SPEC_FULL.md Open Question 1).
func ShouldExit(p Position, currentPrice decimal.Decimal, volume5s decimal.Decimal, now time.Time) *ExitReason {
	pnlPct := p.PnLPercent(currentPrice)

	if pnlPct >= p.ProfitTargets[2] {
		return &ExitReason{Kind: ExitProfitTarget, Tier: 3, PnLPercent: pnlPct, ExitPercent: 100}
	}

	if pnlPct <= -p.StopLossPercent {
		return &ExitReason{Kind: ExitStopLoss, PnLPercent: pnlPct, ExitPercent: 100}
	}

	elapsed := p.ElapsedSeconds(now)
	if elapsed >= p.MaxHoldSeconds {
		return &ExitReason{Kind: ExitTimeDecay, PnLPercent: pnlPct, ExitPercent: 100}
	}

	if elapsed >= 30 {
		vol5, _ := volume5s.Float64()
		if vol5 < 0.5 {
			return &ExitReason{Kind: ExitVolumeDrop, PnLPercent: pnlPct, ExitPercent: 100}
		}
	}

	return nil
}

// AdvisoryTierReached reports the highest tier-1/tier-2 profit target
// crossed that has not yet been logged, for the monitor's advisory-only
// logging path. It never mutates p; the caller is responsible for
// recording Tier1Fired/Tier2Fired once logged.
func AdvisoryTierReached(p Position, currentPrice decimal.Decimal) (tier int, pnlPercent float64, ok bool) {
	pnlPct := p.PnLPercent(currentPrice)
	if pnlPct >= p.ProfitTargets[1] && !p.Tier2Fired {
		return 2, pnlPct, true
	}
	if pnlPct >= p.ProfitTargets[0] && !p.Tier1Fired {
		return 1, pnlPct, true
	}
	return 0, pnlPct, false
}
