// Package pipeline is the decision orchestrator (spec.md §4.5): for every
// inbound message that admits a trade, it runs trigger detection, feature
// lookup, scoring, a confidence gate, validation, guardrails, sizing,
// emission, and recording, aborting on the first failure at each step.
// Grounded on the teacher's internal/trading/executor.go ProcessSignal: the
// same "one long sequential method with early returns per failure kind"
// shape, generalized from a two-branch buy/sell dispatch to the full
// multi-step sequence, and the same onTradeExecuted-style post-emission
// bookkeeping (record guardrails state, track the position, log).
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-brain/internal/audit"
	"solana-brain/internal/clock"
	"solana-brain/internal/features"
	"solana-brain/internal/guardrails"
	"solana-brain/internal/ids"
	"solana-brain/internal/metrics"
	"solana-brain/internal/position"
	"solana-brain/internal/priceoracle"
	"solana-brain/internal/scorer"
	"solana-brain/internal/sizer"
	"solana-brain/internal/validator"
	"solana-brain/internal/wire"
)

const lamportsPerSOL = 1_000_000_000

// RejectKind covers the shared rejection taxonomy entries that originate in
// the pipeline itself rather than the validator or guardrails suites
// (spec.md §4's "Shared rejection taxonomy").
type RejectKind int

const (
	RejectNone RejectKind = iota
	RejectCacheMissMint
	RejectCacheMissWallet
	RejectLowConfidence
	RejectWalletFeaturesUnavailable
	RejectSizeBelowMinimum
	RejectEncodeError
	RejectSendError
)

func (k RejectKind) String() string {
	switch k {
	case RejectCacheMissMint:
		return "CacheMiss{mint}"
	case RejectCacheMissWallet:
		return "CacheMiss{wallet}"
	case RejectLowConfidence:
		return "LowConfidence"
	case RejectWalletFeaturesUnavailable:
		return "WalletFeaturesUnavailable"
	case RejectSizeBelowMinimum:
		return "SizeBelowMinimum"
	case RejectEncodeError:
		return "EncodeError"
	case RejectSendError:
		return "SendError"
	default:
		return "None"
	}
}

// Emitter sends an encoded TradeDecision out over the egress bus. This is
// the same small interface internal/position defines (position.Emitter);
// aliased here so the pipeline and the exit monitor share one contract
// without either depending on internal/egress's concrete type.
type Emitter = position.Emitter

// PositionDefaults seeds the exit parameters of a newly opened position.
// Kept as a pipeline-local value type (not internal/config) so the pipeline
// doesn't depend on the config package's shape.
type PositionDefaults struct {
	ProfitTargets   [3]float64
	StopLossPercent float64
	MaxHoldSeconds  uint64
}

// Pipeline is the single-task orchestrator. It drains one candidate at a
// time; bounded input channels (internal/ingress) protect it from bursts
// (spec.md §4.5: "single-task and drains one message at a time").
type Pipeline struct {
	clock clock.Clock

	mintCache   *features.MintCache
	walletCache *features.WalletCache

	validatorThresholds validator.Thresholds
	guard               *guardrails.Guardrails
	sizerStrategy       sizer.Strategy
	sizerLimits         sizer.Limits

	tracker *position.Tracker
	gauge   *priceoracle.Gauge
	emitter Emitter
	audit   audit.Sink
	metrics *metrics.Pipeline

	minConfidenceLateOpportunity uint8
	minConfidenceCopyTrade       uint8

	positionDefaults PositionDefaults
}

// Params bundles a Pipeline's dependencies and tunables.
type Params struct {
	Clock clock.Clock

	MintCache   *features.MintCache
	WalletCache *features.WalletCache

	ValidatorThresholds validator.Thresholds
	Guard               *guardrails.Guardrails
	SizerStrategy       sizer.Strategy
	SizerLimits         sizer.Limits

	Tracker *position.Tracker
	Gauge   *priceoracle.Gauge
	Emitter Emitter
	Audit   audit.Sink
	Metrics *metrics.Pipeline

	MinConfidenceLateOpportunity uint8
	MinConfidenceCopyTrade       uint8

	PositionDefaults PositionDefaults
}

// New constructs a Pipeline from fully-wired dependencies.
func New(p Params) *Pipeline {
	return &Pipeline{
		clock:                        p.Clock,
		mintCache:                    p.MintCache,
		walletCache:                  p.WalletCache,
		validatorThresholds:          p.ValidatorThresholds,
		guard:                        p.Guard,
		sizerStrategy:                p.SizerStrategy,
		sizerLimits:                  p.SizerLimits,
		tracker:                      p.Tracker,
		gauge:                        p.Gauge,
		emitter:                      p.Emitter,
		audit:                        p.Audit,
		metrics:                      p.Metrics,
		minConfidenceLateOpportunity: p.MinConfidenceLateOpportunity,
		minConfidenceCopyTrade:       p.MinConfidenceCopyTrade,
		positionDefaults:             p.PositionDefaults,
	}
}

// Run drains both candidate channels until ctx is canceled, processing one
// candidate at a time (spec.md §4.5's single-task drain guarantee; both
// channels share this one goroutine so arrival order across the two
// channels isn't interleaved concurrently, only multiplexed).
func (p *Pipeline) Run(ctx context.Context, lateOpportunities <-chan wire.LateOpportunity, copyTrades <-chan wire.CopyTrade) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-lateOpportunities:
			if !ok {
				lateOpportunities = nil
				continue
			}
			p.HandleLateOpportunity(ctx, m)
		case m, ok := <-copyTrades:
			if !ok {
				copyTrades = nil
				continue
			}
			p.HandleCopyTrade(ctx, m)
		}
	}
}

// HandleLateOpportunity runs the full pipeline for a LateOpportunity
// candidate (mint-only pathway, no wallet context).
func (p *Pipeline) HandleLateOpportunity(ctx context.Context, m wire.LateOpportunity) {
	now := p.clock.Now()

	f, fresh := p.mintCache.GetIfFresh(m.Mint, now)
	if !fresh {
		p.reject(ctx, guardrails.PathwayLateOpportunity, m.Mint, nil, RejectCacheMissMint, 0, now)
		return
	}

	score := scorer.Score(f, scorer.WalletContext{Present: false})
	if score < p.minConfidenceLateOpportunity {
		p.reject(ctx, guardrails.PathwayLateOpportunity, m.Mint, nil, RejectLowConfidence, score, now)
		return
	}

	p.process(ctx, guardrails.PathwayLateOpportunity, m.Mint, nil, features.TierDiscovery, f, score, now)
}

// HandleCopyTrade runs the full pipeline for a CopyTrade candidate, which
// additionally needs a wallet-cache lookup and a tier confidence boost.
func (p *Pipeline) HandleCopyTrade(ctx context.Context, m wire.CopyTrade) {
	now := p.clock.Now()

	if m.Side != wire.SideBuy {
		// The core only emits buy decisions from a trigger; a copy-trade
		// sell advisory has no buy-side action to take here (exits are
		// owned entirely by the position monitor, spec.md §4.10).
		return
	}

	f, fresh := p.mintCache.GetIfFresh(m.Mint, now)
	if !fresh {
		p.reject(ctx, guardrails.PathwayCopyTrade, m.Mint, &m.Wallet, RejectCacheMissMint, 0, now)
		return
	}

	if p.walletCache == nil {
		// Store B is absent (spec.md §4.4 degradation): the copy-trade
		// pathway fails gracefully rather than looking up a cache that was
		// never constructed.
		p.reject(ctx, guardrails.PathwayCopyTrade, m.Mint, &m.Wallet, RejectWalletFeaturesUnavailable, 0, now)
		return
	}

	wf, walletFresh := p.walletCache.GetIfFresh(m.Wallet, now)
	if !walletFresh {
		p.reject(ctx, guardrails.PathwayCopyTrade, m.Mint, &m.Wallet, RejectCacheMissWallet, 0, now)
		return
	}

	rawScore := scorer.Score(f, scorer.WalletContext{
		Present:         true,
		Tier:            wf.Tier,
		ConfidenceScore: wf.ConfidenceScore,
	})
	score := scorer.TierConfidenceBoost(rawScore, wf.Tier)

	if score < p.minConfidenceCopyTrade {
		p.reject(ctx, guardrails.PathwayCopyTrade, m.Mint, &m.Wallet, RejectLowConfidence, score, now)
		return
	}

	p.process(ctx, guardrails.PathwayCopyTrade, m.Mint, &m.Wallet, wf.Tier, f, score, now)
}

// process runs validate -> guardrails -> size -> emit -> record, shared by
// both trigger pathways once a fresh score has cleared the confidence gate.
//
// The size needed to feed the validator's fee/impact checks (step 5) is, in
// spec.md's listed step order, not computed until step 7. Since the
// sizer's own inputs (confidence, active count, cap, exposure) never depend
// on the validator's or guardrails' outcome, this resolves the apparent
// ordering conflict by computing size once, immediately before validation,
// and reusing that same value for the final emission — while still
// evaluating (and rejecting on) SizeBelowMinimum only at its step-7
// position in the priority chain, after guardrails, matching the literal
// rejection-priority order the spec lists.
func (p *Pipeline) process(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, walletTier features.Tier, f features.MintFeatures, score uint8, now time.Time) {
	sizeInput := sizer.Input{
		Strategy:             p.sizerStrategy,
		Limits:               p.sizerLimits,
		Confidence:           score,
		Tier:                 walletTier.String(),
		SuccessProbability:   scorer.SuccessProbability(score),
		TotalCurrentExposure: p.currentExposure(),
		ActivePositions:      p.tracker.Count(),
		PositionCap:          p.tracker.Cap(),
	}

	sizeSOL, sizeOK := sizer.Size(sizeInput)
	var sizeInBaseUnits uint64
	if sizeOK {
		sizeInBaseUnits = sizeSOL.Mul(decimal.NewFromInt(lamportsPerSOL)).BigInt().Uint64()
	}

	solUSD := p.gauge.Get().Price
	result := validator.Check(f, sizeInBaseUnits, solUSD, score, p.validatorThresholds)
	if result.Rejection != nil {
		p.rejectValidator(ctx, pathway, mint, wallet, result.Rejection, score, now)
		return
	}
	if result.AgeWarning {
		log.Warn().Str("mint", mint.String()).Msg("hot-launch age warning (non-blocking)")
	}

	if blocked := p.guard.CheckAllowed(pathway, mint, wallet, walletTier); blocked != nil {
		p.rejectGuardrail(ctx, pathway, mint, wallet, blocked, score, now)
		return
	}

	if !sizeOK {
		p.reject(ctx, pathway, mint, wallet, RejectSizeBelowMinimum, score, now)
		return
	}

	decision := wire.TradeDecision{
		Mint:            mint,
		Side:            wire.SideBuy,
		SizeInBaseUnits: sizeInBaseUnits,
		SlippageBps:     uint16(p.validatorThresholds.SlippageBpsOfSize),
		Confidence:      score,
	}

	if err := p.emitter.Send(ctx, decision); err != nil {
		log.Error().Err(err).Str("mint", mint.String()).Msg("trade decision emission failed")
		p.reject(ctx, pathway, mint, wallet, RejectSendError, score, now)
		return
	}

	p.guard.RecordDecision(pathway, mint, wallet)

	pos := position.Position{
		Mint:            mint,
		EntryPrice:      f.CurrentPriceInBaseAsset,
		Size:            sizeSOL,
		EntryTime:       now,
		ProfitTargets:   p.positionDefaults.ProfitTargets,
		StopLossPercent: p.positionDefaults.StopLossPercent,
		MaxHoldSeconds:  p.positionDefaults.MaxHoldSeconds,
		TriggerSource:   pathway.String(),
	}
	if err := p.tracker.Add(pos); err != nil {
		log.Error().Err(err).Str("mint", mint.String()).Msg("failed to register new position after emission")
	}

	p.recordDecisionAudit(ctx, pathway, mint, wallet, score, sizeSOL, now)
	if p.metrics != nil {
		p.metrics.RecordCandidate(true, 0, 0, 0, 0, 0, 0)
	}

	log.Info().
		Str("mint", mint.String()).
		Str("pathway", pathway.String()).
		Uint8("score", score).
		Str("size_sol", sizeSOL.String()).
		Msg("buy decision emitted")
}

func (p *Pipeline) currentExposure() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.tracker.All() {
		total = total.Add(pos.Size)
	}
	return total
}

func (p *Pipeline) reject(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, kind RejectKind, score uint8, now time.Time) {
	if p.metrics != nil {
		p.metrics.RecordRejection(kind.String())
		p.metrics.RecordCandidate(false, 0, 0, 0, 0, 0, 0)
	}
	p.appendRejectionAudit(ctx, pathway, mint, wallet, kind.String(), score, now)
}

func (p *Pipeline) rejectValidator(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, rej *validator.Rejection, score uint8, now time.Time) {
	if p.metrics != nil {
		p.metrics.RecordRejection(rej.Kind.String())
		p.metrics.RecordCandidate(false, 0, 0, 0, 0, 0, 0)
	}
	p.appendRejectionAudit(ctx, pathway, mint, wallet, rej.Error(), score, now)
}

func (p *Pipeline) rejectGuardrail(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, blocked *guardrails.Blocked, score uint8, now time.Time) {
	if p.metrics != nil {
		p.metrics.RecordRejection(blocked.Kind.String())
		p.metrics.RecordCandidate(false, 0, 0, 0, 0, 0, 0)
	}
	p.appendRejectionAudit(ctx, pathway, mint, wallet, blocked.Error(), score, now)
}

func (p *Pipeline) appendRejectionAudit(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, detail string, score uint8, now time.Time) {
	if p.audit == nil {
		return
	}
	rec := audit.Record{
		Kind:      "decision_reject",
		Mint:      mint,
		Pathway:   pathway.String(),
		Score:     score,
		Detail:    detail,
		Timestamp: now,
	}
	if wallet != nil {
		rec.Wallet = *wallet
		rec.HasWallet = true
	}
	if err := p.audit.Append(ctx, rec); err != nil {
		log.Error().Err(err).Msg("audit append failed for rejection record")
	}
}

func (p *Pipeline) recordDecisionAudit(ctx context.Context, pathway guardrails.Pathway, mint ids.Mint, wallet *ids.Wallet, score uint8, sizeSOL decimal.Decimal, now time.Time) {
	if p.audit == nil {
		return
	}
	sizeF, _ := sizeSOL.Float64()
	rec := audit.Record{
		Kind:      "decision_accept",
		Mint:      mint,
		Pathway:   pathway.String(),
		Score:     score,
		SizeSOL:   sizeF,
		Detail:    "buy",
		Timestamp: now,
	}
	if wallet != nil {
		rec.Wallet = *wallet
		rec.HasWallet = true
	}
	if err := p.audit.Append(ctx, rec); err != nil {
		log.Error().Err(err).Msg("audit append failed for decision record")
	}
}
