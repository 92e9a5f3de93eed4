// Command simulate replays the scenarios documented for the decision
// pipeline entirely in-process, without binding any sockets or touching a
// real feature store: it seeds the mint/wallet caches directly and logs
// each step's outcome. Grounded on the teacher's cmd/simulation/main.go
// STEP-by-STEP narration style (fixed signal -> wait -> assert loop), with
// the Jupiter/RPC/wallet stand-ins replaced by a logging-only Emitter.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-brain/internal/audit"
	"solana-brain/internal/clock"
	"solana-brain/internal/features"
	"solana-brain/internal/guardrails"
	"solana-brain/internal/ids"
	"solana-brain/internal/metrics"
	"solana-brain/internal/pipeline"
	"solana-brain/internal/position"
	"solana-brain/internal/priceoracle"
	"solana-brain/internal/sizer"
	"solana-brain/internal/validator"
	"solana-brain/internal/wire"
)

// loggingEmitter and loggingAudit stand in for the real UDP egress sender
// and SQLite audit sink so this command never touches the network or disk.
type loggingEmitter struct{}

func (loggingEmitter) Send(_ context.Context, d wire.TradeDecision) error {
	log.Info().
		Str("mint", d.Mint.String()).
		Str("side", sideName(d.Side)).
		Uint64("size_base_units", d.SizeInBaseUnits).
		Uint8("confidence", d.Confidence).
		Msg(">>> TradeDecision emitted")
	return nil
}

func sideName(s wire.Side) string {
	if s == wire.SideSell {
		return "sell"
	}
	return "buy"
}

type loggingAudit struct{}

func (loggingAudit) Append(_ context.Context, r audit.Record) error {
	log.Debug().Str("kind", r.Kind).Str("mint", r.Mint.String()).Str("detail", r.Detail).Msg("audit record")
	return nil
}

func mintWithByte(b byte) ids.Mint {
	var m ids.Mint
	m[0] = b
	return m
}

func walletWithByte(b byte) ids.Wallet {
	var w ids.Wallet
	w[0] = b
	return w
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Info().Msg("decision pipeline scenario replay starting")

	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	mintCache := features.NewMintCache(30*time.Second, 10*time.Second)
	walletCache := features.NewWalletCache(30*time.Second, 10*time.Second)
	tracker := position.NewTracker(10)
	gauge := priceoracle.NewGauge(decimal.NewFromFloat(150), clk)
	emitter := loggingEmitter{}
	sink := loggingAudit{}
	m := metrics.NewPipeline()

	guard := guardrails.New(guardrails.Config{
		LossBackoffWindow:      180 * time.Second,
		LossBackoffThreshold:   3,
		LossBackoffPause:       120 * time.Second,
		MaxConcurrentPositions: 10,
		MaxAdvisorPositions:    10,
		WalletCoolingSecs:      90 * time.Second,
		PathwayMinInterval: map[guardrails.Pathway]time.Duration{
			guardrails.PathwayLateOpportunity: 0,
			guardrails.PathwayCopyTrade:       0,
		},
	}, clk)

	thresholds := validator.Thresholds{
		MinProfitTargetUSD:     decimal.NewFromInt(1000),
		FixedTipUSD:            decimal.NewFromFloat(0.01),
		FixedGasUSD:            decimal.NewFromFloat(0.01),
		SlippageBpsOfSize:      10,
		ImpactBpsOfSize:        10,
		MinFollowThroughScore:  60,
		CreatorBlacklist:       map[string]struct{}{},
		MaxHotLaunchAgeSeconds: 999999,
	}

	p := pipeline.New(pipeline.Params{
		Clock:               clk,
		MintCache:           mintCache,
		WalletCache:         walletCache,
		ValidatorThresholds: thresholds,
		Guard:               guard,
		SizerStrategy:       sizer.ConfidenceScaled{Min: decimal.NewFromFloat(0.05), Max: decimal.NewFromFloat(0.2)},
		SizerLimits: sizer.Limits{
			AbsoluteMin:             decimal.NewFromFloat(0.01),
			AbsoluteMax:             decimal.NewFromFloat(5),
			PortfolioTotal:          decimal.NewFromInt(10),
			MaxPerPositionPct:       decimal.NewFromFloat(0.5),
			MaxPortfolioExposurePct: decimal.NewFromFloat(0.9),
		},
		Tracker:                      tracker,
		Gauge:                        gauge,
		Emitter:                      emitter,
		Audit:                        sink,
		Metrics:                      m,
		MinConfidenceLateOpportunity: 60,
		MinConfidenceCopyTrade:       50,
		PositionDefaults: pipeline.PositionDefaults{
			ProfitTargets:   [3]float64{30, 60, 100},
			StopLossPercent: 15,
			MaxHoldSeconds:  300,
		},
	})

	ctx := context.Background()

	log.Info().Msg("--- S1: cold cache rejection ---")
	coldMint := mintWithByte(1)
	p.HandleLateOpportunity(ctx, wire.LateOpportunity{Mint: coldMint, AgeSeconds: 1200, Volume60s: 35.5, Buyers60s: 42, PreScore: 85})
	log.Info().Int("tracker_len", tracker.Count()).Msg("expected tracker_len=0, no decision emitted above")

	log.Info().Msg("--- S2: happy-path buy on fresh cache ---")
	hotMint := mintWithByte(2)
	mintCache.Seed(features.MintFeatures{
		Mint:                    hotMint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00001),
		UniqueBuyers2s:          15,
		Volume5s:                decimal.NewFromFloat(25.0),
		UniqueBuyers60s:         65,
		LastRefreshedAt:         clk.Now(),
	})
	p.HandleLateOpportunity(ctx, wire.LateOpportunity{Mint: hotMint})
	log.Info().Int("tracker_len", tracker.Count()).Msg("expected tracker_len=1, one buy decision emitted above")

	log.Info().Msg("--- S3: copy-trade tier boost ---")
	copyMint := mintWithByte(3)
	wallet := walletWithByte(7)
	mintCache.Seed(features.MintFeatures{
		Mint:                    copyMint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00002),
		UniqueBuyers2s:          12,
		Volume5s:                decimal.NewFromFloat(18),
		LastRefreshedAt:         clk.Now(),
	})
	walletCache.Seed(features.WalletFeatures{Wallet: wallet, Tier: features.TierA, ConfidenceScore: 80, LastRefreshedAt: clk.Now()})
	copyTrade := wire.CopyTrade{Wallet: wallet, Mint: copyMint, Side: wire.SideBuy, SizeInBase: 0.5, WalletTier: 3, WalletConfidence: 80}
	p.HandleCopyTrade(ctx, copyTrade)
	log.Info().Msg("expected confidence >= 82 in the decision emitted above")

	log.Info().Msg("--- S4: wallet cooling block (45s after S3, 90s cooling window) ---")
	clk.Advance(45 * time.Second)
	mintCache.Seed(features.MintFeatures{
		Mint:                    copyMint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00002),
		UniqueBuyers2s:          12,
		Volume5s:                decimal.NewFromFloat(18),
		LastRefreshedAt:         clk.Now(),
	})
	p.HandleCopyTrade(ctx, copyTrade)
	log.Info().Msg("expected a WalletCooling rejection, no second decision emitted above")

	log.Info().Msg("--- S5: fee-floor / impact-cap rejection ---")
	tightThresholds := thresholds
	tightThresholds.MinProfitTargetUSD = decimal.NewFromFloat(0.001)
	pTight := pipeline.New(pipeline.Params{
		Clock:               clk,
		MintCache:           mintCache,
		WalletCache:         walletCache,
		ValidatorThresholds: tightThresholds,
		Guard:               guard,
		SizerStrategy:       sizer.ConfidenceScaled{Min: decimal.NewFromFloat(0.05), Max: decimal.NewFromFloat(0.2)},
		SizerLimits: sizer.Limits{
			AbsoluteMin:             decimal.NewFromFloat(0.01),
			AbsoluteMax:             decimal.NewFromFloat(5),
			PortfolioTotal:          decimal.NewFromInt(10),
			MaxPerPositionPct:       decimal.NewFromFloat(0.5),
			MaxPortfolioExposurePct: decimal.NewFromFloat(0.9),
		},
		Tracker:                      position.NewTracker(10),
		Gauge:                        gauge,
		Emitter:                      emitter,
		Audit:                        sink,
		Metrics:                      m,
		MinConfidenceLateOpportunity: 60,
		MinConfidenceCopyTrade:       50,
		PositionDefaults:             pipeline.PositionDefaults{ProfitTargets: [3]float64{30, 60, 100}, StopLossPercent: 15, MaxHoldSeconds: 300},
	})
	feeMint := mintWithByte(5)
	mintCache.Seed(features.MintFeatures{
		Mint:                    feeMint,
		CurrentPriceInBaseAsset: decimal.NewFromFloat(0.00001),
		UniqueBuyers2s:          15,
		Volume5s:                decimal.NewFromFloat(25.0),
		UniqueBuyers60s:         65,
		LastRefreshedAt:         clk.Now(),
	})
	pTight.HandleLateOpportunity(ctx, wire.LateOpportunity{Mint: feeMint})
	log.Info().Msg("expected an ImpactTooHigh or FeesTooHigh rejection above (min_profit_target_usd set unrealistically low)")

	log.Info().Msg("--- S6: exit on profit target 3 ---")
	entryPrice := decimal.NewFromFloat(0.00001)
	exitMint := mintWithByte(6)
	tracker.Add(position.Position{
		Mint:            exitMint,
		EntryPrice:      entryPrice,
		Size:            decimal.NewFromFloat(0.2),
		TokensHeld:      20000,
		EntryTime:       clk.Now(),
		ProfitTargets:   [3]float64{30, 60, 100},
		StopLossPercent: 15,
		MaxHoldSeconds:  300,
		TriggerSource:   "LateOpportunity",
	})
	mintCache.Seed(features.MintFeatures{
		Mint:                    exitMint,
		CurrentPriceInBaseAsset: entryPrice.Mul(decimal.NewFromInt(2)),
		LastRefreshedAt:         clk.Now(),
	})
	monitor := position.NewMonitor(clk, tracker, mintCache, emitter, guard, sink, 50*time.Millisecond)
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	go monitor.Run(monitorCtx)
	time.Sleep(150 * time.Millisecond)
	cancelMonitor()
	log.Info().Bool("position_closed", !tracker.Has(exitMint)).Msg("expected a sell decision at 100% with reason ProfitTarget{tier=3} above")

	log.Info().Msg("--- S7: stop-loss and loss-backoff onset ---")
	for i := 0; i < 3; i++ {
		guard.RecordExit(mintWithByte(byte(10+i)), true)
	}
	blocked := guard.CheckAllowed(guardrails.PathwayCopyTrade, mintWithByte(20), nil, features.TierC)
	if blocked != nil {
		log.Info().Str("block_kind", blocked.Kind.String()).Msg("expected block_kind=LossBackoff above")
	} else {
		log.Error().Msg("expected a LossBackoff block after 3 qualifying losses, got none")
	}

	log.Info().Msg("scenario replay complete")
}
