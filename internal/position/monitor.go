package position

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-brain/internal/audit"
	"solana-brain/internal/clock"
	"solana-brain/internal/features"
	"solana-brain/internal/ids"
	"solana-brain/internal/wire"
)

const lamportsPerSOL = 1_000_000_000

// Emitter sends an encoded sell decision out over the egress bus.
type Emitter interface {
	Send(ctx context.Context, decision wire.TradeDecision) error
}

// GuardrailRecorder is the slice of internal/guardrails.Guardrails this
// monitor needs, kept as a small interface so position stays independent of
// the guardrails package.
type GuardrailRecorder interface {
	RecordExit(mint ids.Mint, isLoss bool)
}

// Monitor runs the independent exit-evaluation loop (spec.md §4.10): on a
// fixed cadence, every open position is checked against the freshest mint
// features and, on a non-nil ShouldExit result, a sell decision is emitted.
// Grounded on the teacher's internal/health/checker.go ticker + select
// loop shape.
type Monitor struct {
	clock      clock.Clock
	tracker    *Tracker
	cache      *features.MintCache
	emitter    Emitter
	guardrails GuardrailRecorder
	audit      audit.Sink
	cadence    time.Duration
}

// NewMonitor constructs a Monitor. cadence defaults to 2s when zero.
func NewMonitor(clk clock.Clock, tracker *Tracker, cache *features.MintCache, emitter Emitter, guardrails GuardrailRecorder, sink audit.Sink, cadence time.Duration) *Monitor {
	if cadence <= 0 {
		cadence = 2 * time.Second
	}
	return &Monitor{
		clock:      clk,
		tracker:    tracker,
		cache:      cache,
		emitter:    emitter,
		guardrails: guardrails,
		audit:      sink,
		cadence:    cadence,
	}
}

// Run drives the tick loop until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	now := m.clock.Now()
	for _, p := range m.tracker.All() {
		f, fresh := m.cache.GetIfFresh(p.Mint, now)
		if !fresh {
			// Missing or stale mint feature: no decision this tick, the
			// position remains open (spec.md §4.10 failure semantics).
			continue
		}

		if tier, pnlPct, ok := AdvisoryTierReached(p, f.CurrentPriceInBaseAsset); ok {
			log.Info().
				Str("mint", p.Mint.String()).
				Int("tier", tier).
				Float64("pnl_pct", pnlPct).
				Bool("advisory_only", true).
				Msg("profit target tier crossed")
			if tier == 1 {
				p.Tier1Fired = true
			} else {
				p.Tier2Fired = true
			}
			m.tracker.Update(p)
		}

		reason := ShouldExit(p, f.CurrentPriceInBaseAsset, f.Volume5s, now)
		if reason == nil {
			continue
		}
		m.emit(ctx, p, reason)
	}
}

func (m *Monitor) emit(ctx context.Context, p Position, reason *ExitReason) {
	sellSize := p.Size.Mul(decimal.NewFromFloat(reason.ExitPercent / 100))
	sizeInBaseUnits := sellSize.Mul(decimal.NewFromInt(lamportsPerSOL)).BigInt().Uint64()

	decision := wire.TradeDecision{
		Mint:            p.Mint,
		Side:            wire.SideSell,
		SizeInBaseUnits: sizeInBaseUnits,
		SlippageBps:     0,
		Confidence:      100,
	}

	if err := m.emitter.Send(ctx, decision); err != nil {
		log.Error().Err(err).Str("mint", p.Mint.String()).Msg("exit emission failed, retrying next tick")
		return
	}

	isLoss := reason.PnLPercent < 0
	m.guardrails.RecordExit(p.Mint, isLoss)
	m.tracker.MarkExited(p.Mint)

	if err := m.audit.Append(ctx, audit.Record{
		Kind:       "exit_" + reason.Kind.String(),
		Mint:       p.Mint,
		PnLPercent: reason.PnLPercent,
		Detail:     reason.Kind.String(),
		Timestamp:  m.clock.Now(),
	}); err != nil {
		log.Error().Err(err).Str("mint", p.Mint.String()).Msg("audit append failed for exit record")
	}

	log.Info().
		Str("mint", p.Mint.String()).
		Str("reason", reason.Kind.String()).
		Float64("pnl_pct", reason.PnLPercent).
		Float64("exit_percent", reason.ExitPercent).
		Msg("exit decision emitted")
}
