// Package guardrails is the process-wide anti-churn and risk gate
// (spec.md §4.8): loss backoff, position/rate limits, wallet cooling.
// Grounded on the web3guy0-polybot risk gate's shape (TradeRequest -> gate
// -> Approval, mutex-guarded state, consecutive-loss tracking, per-asset
// cooldown map), adapted from per-asset options-trading risk to
// per-mint/per-wallet memecoin guardrails, and from wall-clock time.Now()
// calls to the injected clock.Clock this spec requires for testability.
package guardrails

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"solana-brain/internal/clock"
	"solana-brain/internal/features"
	"solana-brain/internal/ids"
)

// Pathway classifies a trade's origin (spec.md glossary).
type Pathway int

const (
	PathwayLateOpportunity Pathway = iota
	PathwayCopyTrade
	PathwayRank
	PathwayMomentum
)

func (p Pathway) String() string {
	switch p {
	case PathwayLateOpportunity:
		return "LateOpportunity"
	case PathwayCopyTrade:
		return "CopyTrade"
	case PathwayRank:
		return "Rank"
	case PathwayMomentum:
		return "Momentum"
	default:
		return "Unknown"
	}
}

// BlockKind identifies which guardrail tripped.
type BlockKind int

const (
	BlockLossBackoff BlockKind = iota
	BlockPositionLimit
	BlockRateLimit
	BlockWalletCooling
)

func (k BlockKind) String() string {
	switch k {
	case BlockLossBackoff:
		return "LossBackoff"
	case BlockPositionLimit:
		return "PortfolioFull"
	case BlockRateLimit:
		return "RateLimited"
	case BlockWalletCooling:
		return "WalletCooling"
	default:
		return "Unknown"
	}
}

// Blocked is returned by CheckAllowed when a guardrail rejects the candidate.
type Blocked struct {
	Kind BlockKind
}

func (b *Blocked) Error() string { return b.Kind.String() }

// Config is the configuration surface for every guardrail rule.
type Config struct {
	LossBackoffWindow    time.Duration
	LossBackoffThreshold int
	LossBackoffPause     time.Duration
	TierABypass          bool

	MaxConcurrentPositions int
	MaxAdvisorPositions    int

	WalletCoolingSecs time.Duration

	// PathwayMinInterval is the minimum interval between approvals for a
	// given pathway (e.g. 100ms general, 30s advisor).
	PathwayMinInterval map[Pathway]time.Duration
}

// Guardrails is the process-wide singleton; all mutation is serialized by mu.
type Guardrails struct {
	mu    sync.Mutex
	clock clock.Clock
	cfg   Config

	lossTimestamps []time.Time
	lastLossAt     time.Time

	activePositions  map[ids.Mint]Pathway
	advisorPositions int

	lastCopyOfWallet map[ids.Wallet]time.Time
	limiters         map[Pathway]*rate.Limiter
}

// New constructs a Guardrails singleton bound to clk.
func New(cfg Config, clk clock.Clock) *Guardrails {
	limiters := make(map[Pathway]*rate.Limiter, len(cfg.PathwayMinInterval))
	for pathway, interval := range cfg.PathwayMinInterval {
		limiters[pathway] = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Guardrails{
		clock:            clk,
		cfg:              cfg,
		activePositions:  make(map[ids.Mint]Pathway),
		lastCopyOfWallet: make(map[ids.Wallet]time.Time),
		limiters:         limiters,
	}
}

// CheckAllowed runs the guardrail rule chain and returns on first block. It
// is read-only: no state is mutated, so a rejected candidate leaves no
// trace. wallet is nil when the pathway has no associated wallet.
func (g *Guardrails) CheckAllowed(pathway Pathway, mint ids.Mint, wallet *ids.Wallet, walletTier features.Tier) *Blocked {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	tierABypass := g.cfg.TierABypass && walletTier == features.TierA

	if !tierABypass && g.lossBackoffActive(now) {
		return &Blocked{Kind: BlockLossBackoff}
	}

	if len(g.activePositions) >= g.cfg.MaxConcurrentPositions {
		return &Blocked{Kind: BlockPositionLimit}
	}
	if pathway == PathwayLateOpportunity && g.cfg.MaxAdvisorPositions > 0 && g.advisorPositions >= g.cfg.MaxAdvisorPositions {
		return &Blocked{Kind: BlockPositionLimit}
	}

	if limiter, ok := g.limiters[pathway]; ok {
		reservation := limiter.ReserveN(now, 1)
		if !reservation.OK() {
			return &Blocked{Kind: BlockRateLimit}
		}
		delay := reservation.DelayFrom(now)
		reservation.CancelAt(now) // peek only; RecordDecision commits the real reservation
		if delay > 0 {
			return &Blocked{Kind: BlockRateLimit}
		}
	}

	if pathway == PathwayCopyTrade && wallet != nil && !tierABypass {
		if last, ok := g.lastCopyOfWallet[*wallet]; ok && now.Sub(last) < g.cfg.WalletCoolingSecs {
			return &Blocked{Kind: BlockWalletCooling}
		}
	}

	return nil
}

// RecordDecision commits an approved candidate: advances the pathway rate
// limiter, registers the position, and stamps wallet-cooling state.
func (g *Guardrails) RecordDecision(pathway Pathway, mint ids.Mint, wallet *ids.Wallet) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if limiter, ok := g.limiters[pathway]; ok {
		limiter.AllowN(now, 1)
	}

	g.activePositions[mint] = pathway
	if pathway == PathwayLateOpportunity {
		g.advisorPositions++
	}
	if wallet != nil {
		g.lastCopyOfWallet[*wallet] = now
	}
}

// RecordExit removes mint from the registry and, if realizedResult is a
// loss, appends to the loss-backoff window.
func (g *Guardrails) RecordExit(mint ids.Mint, isLoss bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if pathway, ok := g.activePositions[mint]; ok {
		delete(g.activePositions, mint)
		if pathway == PathwayLateOpportunity && g.advisorPositions > 0 {
			g.advisorPositions--
		}
	}

	if isLoss {
		g.lossTimestamps = append(g.lossTimestamps, now)
		g.lastLossAt = now
	}
}

// ActivePositionCount reports the number of currently tracked positions.
func (g *Guardrails) ActivePositionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.activePositions)
}

func (g *Guardrails) lossBackoffActive(now time.Time) bool {
	cutoff := now.Add(-g.cfg.LossBackoffWindow)
	count := 0
	kept := g.lossTimestamps[:0]
	for _, ts := range g.lossTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
			count++
		}
	}
	g.lossTimestamps = kept

	// spec.md §8 scenario S7 exercises threshold=3 and expects a block after
	// exactly 3 qualifying losses, so the boundary is inclusive (count >=
	// threshold), not a strict ">" reading of "exceeds".
	if count < g.cfg.LossBackoffThreshold {
		return false
	}
	return now.Sub(g.lastLossAt) < g.cfg.LossBackoffPause
}
