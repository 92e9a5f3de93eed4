// Package features owns the two read-heavy caches the decision pipeline
// consults on every tick: mint features (refreshed from store A) and wallet
// features (refreshed from store B). Both caches are single-writer
// (the refresher) / multi-reader (pipeline, exit monitor), matching
// spec.md's "lock-free concurrent reads" contract — implemented here with a
// sync.RWMutex-guarded map, which gives the same read-many/write-one
// behavior the teacher's PositionTracker relies on without requiring a
// lock-free data structure that nothing else in the pack uses.
package features

import (
	"time"

	"github.com/shopspring/decimal"

	"solana-brain/internal/ids"
)

// Tier classifies a wallet by recent performance.
type Tier int

const (
	TierDiscovery Tier = iota
	TierC
	TierB
	TierA
	TierS
)

func (t Tier) String() string {
	switch t {
	case TierDiscovery:
		return "Discovery"
	case TierC:
		return "C"
	case TierB:
		return "B"
	case TierA:
		return "A"
	case TierS:
		return "S"
	default:
		return "Unknown"
	}
}

// ComputeTier is the pure function mapping a wallet's 7-day stats to a tier.
// Thresholds are an implementer choice (spec.md leaves the formula
// unspecified beyond "pure function of win_rate_7d, realized_pnl_7d,
// trades_count"); they bias toward requiring both a strong win rate and a
// meaningful sample size before granting a high tier.
func ComputeTier(winRate7d float64, realizedPnL7d decimal.Decimal, tradesCount uint64) Tier {
	switch {
	case winRate7d >= 0.75 && tradesCount >= 50 && realizedPnL7d.IsPositive():
		return TierS
	case winRate7d >= 0.65 && tradesCount >= 20:
		return TierA
	case winRate7d >= 0.55 && tradesCount >= 10:
		return TierB
	case winRate7d >= 0.45 && tradesCount >= 3:
		return TierC
	default:
		return TierDiscovery
	}
}

// MintFeatures is the cached per-token record (spec.md §3).
type MintFeatures struct {
	Mint                    ids.Mint
	AgeSeconds              uint64
	CurrentPriceInBaseAsset decimal.Decimal
	Volume60s               decimal.Decimal
	UniqueBuyers60s         uint32
	UniqueBuyers2s          uint32
	Buys60s                 uint32
	Sells60s                uint32
	Volume5s                decimal.Decimal
	FollowThroughCached     uint8
	LastRefreshedAt         time.Time

	// WindowSubstituted records whether the 2s/5s windows above were
	// populated from a coarser (10s) window because the finer one was
	// absent from store A — see SPEC_FULL.md Open Question 4. Surfaced
	// only for audit transparency; never consulted by the scorer.
	WindowSubstituted bool

	// CreatorTrades/InitialLiquidity are optional upstream fields (spec.md
	// Open Question 5). Known is false when store A does not yet populate
	// them, in which case validator checks that depend on them are
	// vacuously satisfied.
	CreatorTrades    uint64
	InitialLiquidity decimal.Decimal
	Known            bool
	Creator          string
}

// WalletFeatures is the cached per-wallet record (spec.md §3).
type WalletFeatures struct {
	Wallet          ids.Wallet
	WinRate7d       float64
	RealizedPnL7d   decimal.Decimal
	TradesCount     uint64
	AvgSize         decimal.Decimal
	Tier            Tier
	ConfidenceScore uint8
	LastRefreshedAt time.Time
}

// MintRow is one row pulled from store A (spec.md §6.3).
type MintRow struct {
	Mint              ids.Mint
	LaunchTime        time.Time
	ClosePrice        decimal.Decimal
	Volume60s         decimal.Decimal
	Buyers60s         uint32
	Buys60s           uint32
	Sells60s          uint32
	Buyers2s          uint32
	Volume5s          decimal.Decimal
	WindowEndTime     time.Time
	WindowSubstituted bool
	CreatorTradesKnown bool
	CreatorTrades      uint64
	InitialLiquidityKnown bool
	InitialLiquidity      decimal.Decimal
	Creator               string
}

// WalletRow is one row pulled from store B (spec.md §6.4).
type WalletRow struct {
	Wallet        ids.Wallet
	WinRate7d     float64
	RealizedPnL7d decimal.Decimal
	TradesCount   uint64
	AvgSize       decimal.Decimal
}
