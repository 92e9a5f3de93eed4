// Package config is a plain value struct the core consumes at startup
// (spec.md §6.5: "the core consumes configuration as a plain value struct
// passed in at startup ... it does not parse flags, files, or environment
// itself"). Grounded on the teacher's internal/config/config.go field
// groupings and mapstructure tags, stripped of Manager, fsnotify hot-reload,
// and the env-var API-key helpers — this core has no internal reload path.
package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config is the complete set of tunables the decision pipeline needs.
type Config struct {
	Ingress    IngressConfig    `mapstructure:"ingress"`
	Egress     EgressConfig     `mapstructure:"egress"`
	StoreA     StoreAConfig     `mapstructure:"store_a"`
	StoreB     StoreBConfig     `mapstructure:"store_b"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Validator  ValidatorConfig  `mapstructure:"validator"`
	Guardrails GuardrailsConfig `mapstructure:"guardrails"`
	Sizer      SizerConfig      `mapstructure:"sizer"`
	Position   PositionConfig   `mapstructure:"position"`
	PriceGauge PriceGaugeConfig `mapstructure:"price_gauge"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

// IngressConfig configures the bound datagram endpoint the receiver reads
// advisories from (spec.md §6.1).
type IngressConfig struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	QueueDepth     int    `mapstructure:"queue_depth"`
	ReadBufferSize int    `mapstructure:"read_buffer_size"`
}

// EgressConfig configures the destination the sender emits TradeDecision
// datagrams to (spec.md §6.2).
type EgressConfig struct {
	DestAddr string `mapstructure:"dest_addr"`
}

// StoreAConfig points at the mint feature store (spec.md §6.3).
type StoreAConfig struct {
	DSN             string        `mapstructure:"dsn"`
	TopN            int           `mapstructure:"top_n"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StalenessGrace  time.Duration `mapstructure:"staleness_grace"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// StoreBConfig points at the optional wallet feature store (spec.md §6.4).
// An empty DSN means store B is absent; the wallet cache then stays empty
// and copy-trade pathway lookups degrade to WalletFeaturesUnavailable.
type StoreBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	TopN            int           `mapstructure:"top_n"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StalenessGrace  time.Duration `mapstructure:"staleness_grace"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// ScoringConfig gates on confidence before validation (spec.md §4.5 step 4).
type ScoringConfig struct {
	MinDecisionConfidenceLateOpportunity uint8 `mapstructure:"min_decision_confidence_late_opportunity"`
	MinDecisionConfidenceCopyTrade       uint8 `mapstructure:"min_decision_confidence_copy_trade"`
}

// ValidatorConfig carries the validator.Thresholds fields in config form.
type ValidatorConfig struct {
	MinProfitTargetUSD     decimal.Decimal `mapstructure:"min_profit_target_usd"`
	FixedTipUSD            decimal.Decimal `mapstructure:"fixed_tip_usd"`
	FixedGasUSD            decimal.Decimal `mapstructure:"fixed_gas_usd"`
	SlippageBpsOfSize      uint32          `mapstructure:"slippage_bps_of_size"`
	ImpactBpsOfSize        uint32          `mapstructure:"impact_bps_of_size"`
	MinFollowThroughScore  uint8           `mapstructure:"min_follow_through_score"`
	CreatorBlacklist       []string        `mapstructure:"creator_blacklist"`
	MaxHotLaunchAgeSeconds uint64          `mapstructure:"max_hot_launch_age_seconds"`
	MinCreatorTrades       uint64          `mapstructure:"min_creator_trades"`
	MinInitialLiquidity    decimal.Decimal `mapstructure:"min_initial_liquidity"`
}

// GuardrailsConfig carries the guardrails.Config fields in config form.
type GuardrailsConfig struct {
	LossBackoffWindowSeconds int           `mapstructure:"loss_backoff_window_seconds"`
	LossBackoffPauseSeconds  int           `mapstructure:"loss_backoff_pause_seconds"`
	LossBackoffThreshold     int           `mapstructure:"loss_backoff_threshold"`
	TierABypass              bool          `mapstructure:"tier_a_bypass"`
	MaxConcurrentPositions   int           `mapstructure:"max_concurrent_positions"`
	MaxAdvisorPositions      int           `mapstructure:"max_advisor_positions"`
	WalletCoolingSeconds     int           `mapstructure:"wallet_cooling_seconds"`
	GeneralMinInterval       time.Duration `mapstructure:"general_min_interval"`
	AdvisorMinInterval       time.Duration `mapstructure:"advisor_min_interval"`
}

// SizerConfig carries the sizer.Input strategy/limits fields in config form.
type SizerConfig struct {
	StrategyKind            string          `mapstructure:"strategy_kind"` // fixed|confidence_scaled|tiered|kelly_like
	FixedSize               decimal.Decimal `mapstructure:"fixed_size"`
	ConfidenceScaledMin     decimal.Decimal `mapstructure:"confidence_scaled_min"`
	ConfidenceScaledMax     decimal.Decimal `mapstructure:"confidence_scaled_max"`
	TieredBase              decimal.Decimal `mapstructure:"tiered_base"`
	TieredMultipliersByTier map[string]decimal.Decimal `mapstructure:"tiered_multipliers_by_tier"`
	KellyBase               decimal.Decimal `mapstructure:"kelly_base"`
	KellyMaxRiskPct         decimal.Decimal `mapstructure:"kelly_max_risk_pct"`

	AbsoluteMin             decimal.Decimal `mapstructure:"absolute_min"`
	AbsoluteMax             decimal.Decimal `mapstructure:"absolute_max"`
	PortfolioTotal          decimal.Decimal `mapstructure:"portfolio_total"`
	MaxPerPositionPct       decimal.Decimal `mapstructure:"max_per_position_pct"`
	MaxPortfolioExposurePct decimal.Decimal `mapstructure:"max_portfolio_exposure_pct"`
	ScaleDownNearLimit      bool            `mapstructure:"scale_down_near_limit"`
}

// PositionConfig seeds default exit parameters for newly opened positions.
type PositionConfig struct {
	ProfitTargets       [3]float64    `mapstructure:"profit_targets"`
	StopLossPercent     float64       `mapstructure:"stop_loss_percent"`
	MaxHoldSeconds      uint64        `mapstructure:"max_hold_seconds"`
	MaxPositions        int           `mapstructure:"max_positions"`
	MonitorCadence      time.Duration `mapstructure:"monitor_cadence"`
}

// PriceGaugeConfig seeds the SOL/USD gauge (spec.md §4.11).
type PriceGaugeConfig struct {
	BootstrapPriceUSD decimal.Decimal `mapstructure:"bootstrap_price_usd"`
}

// AuditConfig configures the shipped SQLite audit sink.
type AuditConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}
