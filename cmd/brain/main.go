// Command brain is the decision engine process: it loads configuration,
// wires every collaborator (ingress, caches, scorer, validator, guardrails,
// sizer, position tracker/monitor, audit sink, egress) and runs them until
// a shutdown signal arrives. Grounded on the teacher's cmd/bot/main.go
// initComponents/runHeadless split, generalized from wallet/RPC/Jupiter
// wiring to this engine's ingress/cache/pipeline/monitor wiring.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-brain/internal/audit"
	"solana-brain/internal/audit/sqlite"
	"solana-brain/internal/clock"
	"solana-brain/internal/config"
	"solana-brain/internal/egress"
	"solana-brain/internal/features"
	"solana-brain/internal/features/storepg"
	"solana-brain/internal/guardrails"
	"solana-brain/internal/ingress"
	"solana-brain/internal/metrics"
	"solana-brain/internal/pipeline"
	"solana-brain/internal/position"
	"solana-brain/internal/priceoracle"
	"solana-brain/internal/sizer"
	"solana-brain/internal/validator"
)

func main() {
	setupLogger()

	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.Real{}

	mintCache := features.NewMintCache(cfg.StoreA.RefreshInterval, cfg.StoreA.StalenessGrace)
	mintStore, err := storepg.NewMintStore(cfg.StoreA.DSN, cfg.StoreA.QueryTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mint feature store")
	}
	defer mintStore.Close()
	mintRefresher := features.NewMintRefresher(mintCache, mintStore, cfg.StoreA.TopN, cfg.StoreA.RefreshInterval)

	var walletCache *features.WalletCache
	var walletRefresher *features.WalletRefresher
	if cfg.StoreB.DSN != "" {
		walletCache = features.NewWalletCache(cfg.StoreB.RefreshInterval, cfg.StoreB.StalenessGrace)
		walletStore, err := storepg.NewWalletStore(cfg.StoreB.DSN, cfg.StoreB.QueryTimeout)
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to wallet feature store, copy-trade pathway will reject with WalletFeaturesUnavailable")
			walletCache = nil
		} else {
			defer walletStore.Close()
			walletRefresher = features.NewWalletRefresher(walletCache, walletStore, cfg.StoreB.TopN, cfg.StoreB.RefreshInterval)
		}
	} else {
		log.Warn().Msg("store B not configured, copy-trade pathway will reject with WalletFeaturesUnavailable")
	}

	gauge := priceoracle.NewGauge(cfg.PriceGauge.BootstrapPriceUSD, clk)

	guard := guardrails.New(guardrails.Config{
		LossBackoffWindow:    time.Duration(cfg.Guardrails.LossBackoffWindowSeconds) * time.Second,
		LossBackoffThreshold: cfg.Guardrails.LossBackoffThreshold,
		LossBackoffPause:     time.Duration(cfg.Guardrails.LossBackoffPauseSeconds) * time.Second,
		TierABypass:          cfg.Guardrails.TierABypass,
		MaxConcurrentPositions: cfg.Guardrails.MaxConcurrentPositions,
		MaxAdvisorPositions:    cfg.Guardrails.MaxAdvisorPositions,
		WalletCoolingSecs:      time.Duration(cfg.Guardrails.WalletCoolingSeconds) * time.Second,
		PathwayMinInterval: map[guardrails.Pathway]time.Duration{
			guardrails.PathwayLateOpportunity: cfg.Guardrails.AdvisorMinInterval,
			guardrails.PathwayCopyTrade:       cfg.Guardrails.GeneralMinInterval,
		},
	}, clk)

	tracker := position.NewTracker(cfg.Position.MaxPositions)

	auditSink, err := sqlite.Open(cfg.Audit.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open audit sink")
	}
	defer auditSink.Close()
	var sink audit.Sink = auditSink

	sender, err := egress.New(cfg.Egress.DestAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct egress sender")
	}
	defer sender.Close()

	receiver, err := ingress.New(cfg.Ingress.ListenAddr, cfg.Ingress.ReadBufferSize, cfg.Ingress.QueueDepth, gauge)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind ingress listener")
	}
	defer receiver.Close()

	m := metrics.NewPipeline()

	strategy, limits := buildSizer(cfg.Sizer)
	validatorThresholds := buildValidatorThresholds(cfg.Validator)

	p := pipeline.New(pipeline.Params{
		Clock:                        clk,
		MintCache:                    mintCache,
		WalletCache:                  walletCache,
		ValidatorThresholds:          validatorThresholds,
		Guard:                        guard,
		SizerStrategy:                strategy,
		SizerLimits:                  limits,
		Tracker:                      tracker,
		Gauge:                        gauge,
		Emitter:                      sender,
		Audit:                        sink,
		Metrics:                      m,
		MinConfidenceLateOpportunity: cfg.Scoring.MinDecisionConfidenceLateOpportunity,
		MinConfidenceCopyTrade:       cfg.Scoring.MinDecisionConfidenceCopyTrade,
		PositionDefaults: pipeline.PositionDefaults{
			ProfitTargets:   cfg.Position.ProfitTargets,
			StopLossPercent: cfg.Position.StopLossPercent,
			MaxHoldSeconds:  cfg.Position.MaxHoldSeconds,
		},
	})

	monitor := position.NewMonitor(clk, tracker, mintCache, sender, guard, sink, cfg.Position.MonitorCadence)

	go func() {
		if err := receiver.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("ingress receiver stopped unexpectedly")
		}
	}()
	go mintRefresher.Run(ctx)
	if walletRefresher != nil {
		go walletRefresher.Run(ctx)
	}
	go p.Run(ctx, receiver.LateOpportunities(), receiver.CopyTrades())
	go monitor.Run(ctx)

	log.Info().
		Str("ingress", cfg.Ingress.ListenAddr).
		Str("egress", cfg.Egress.DestAddr).
		Msg("brain decision engine started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
}

func buildSizer(c config.SizerConfig) (sizer.Strategy, sizer.Limits) {
	limits := sizer.Limits{
		AbsoluteMin:             c.AbsoluteMin,
		AbsoluteMax:             c.AbsoluteMax,
		PortfolioTotal:          c.PortfolioTotal,
		MaxPerPositionPct:       c.MaxPerPositionPct,
		MaxPortfolioExposurePct: c.MaxPortfolioExposurePct,
		ScaleDownNearLimit:      c.ScaleDownNearLimit,
	}

	var strategy sizer.Strategy
	switch c.StrategyKind {
	case "fixed":
		strategy = sizer.Fixed{Size: c.FixedSize}
	case "tiered":
		strategy = sizer.Tiered{Base: c.TieredBase, MultipliersByTier: c.TieredMultipliersByTier}
	case "kelly_like":
		strategy = sizer.KellyLike{Base: c.KellyBase, MaxRiskPct: c.KellyMaxRiskPct}
	default:
		strategy = sizer.ConfidenceScaled{Min: c.ConfidenceScaledMin, Max: c.ConfidenceScaledMax}
	}
	return strategy, limits
}

func buildValidatorThresholds(c config.ValidatorConfig) validator.Thresholds {
	blacklist := make(map[string]struct{}, len(c.CreatorBlacklist))
	for _, creator := range c.CreatorBlacklist {
		blacklist[creator] = struct{}{}
	}
	return validator.Thresholds{
		MinProfitTargetUSD:     c.MinProfitTargetUSD,
		FixedTipUSD:            c.FixedTipUSD,
		FixedGasUSD:            c.FixedGasUSD,
		SlippageBpsOfSize:      c.SlippageBpsOfSize,
		ImpactBpsOfSize:        c.ImpactBpsOfSize,
		MinFollowThroughScore:  c.MinFollowThroughScore,
		CreatorBlacklist:       blacklist,
		MaxHotLaunchAgeSeconds: c.MaxHotLaunchAgeSeconds,
		MinCreatorTrades:       c.MinCreatorTrades,
		MinInitialLiquidity:    c.MinInitialLiquidity,
	}
}

func setupLogger() {
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"},
	).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
