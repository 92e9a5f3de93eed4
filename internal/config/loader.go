package config

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Load does a one-shot viper read of the YAML config at path and unmarshals
// it into a Config. Unlike the teacher's Manager, there is no WatchConfig/
// OnConfigChange wiring — spec.md §6.5 keeps the core a consumer of a plain
// value struct with no internal reload path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		decimalDecodeHook,
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ingress.listen_addr", "127.0.0.1:9100")
	v.SetDefault("ingress.queue_depth", 1024)
	v.SetDefault("ingress.read_buffer_size", 4096)

	v.SetDefault("egress.dest_addr", "127.0.0.1:9200")

	v.SetDefault("store_a.top_n", 500)
	v.SetDefault("store_a.refresh_interval", 30*time.Second)
	v.SetDefault("store_a.staleness_grace", 15*time.Second)
	v.SetDefault("store_a.query_timeout", 2*time.Second)

	v.SetDefault("store_b.top_n", 500)
	v.SetDefault("store_b.refresh_interval", 30*time.Second)
	v.SetDefault("store_b.staleness_grace", 15*time.Second)
	v.SetDefault("store_b.query_timeout", 2*time.Second)

	v.SetDefault("scoring.min_decision_confidence_late_opportunity", 60)
	v.SetDefault("scoring.min_decision_confidence_copy_trade", 50)

	v.SetDefault("validator.min_follow_through_score", 60)
	v.SetDefault("validator.slippage_bps_of_size", 50)
	v.SetDefault("validator.impact_bps_of_size", 80)
	v.SetDefault("validator.max_hot_launch_age_seconds", 300)

	v.SetDefault("guardrails.loss_backoff_window_seconds", 600)
	v.SetDefault("guardrails.loss_backoff_pause_seconds", 120)
	v.SetDefault("guardrails.loss_backoff_threshold", 3)
	v.SetDefault("guardrails.max_concurrent_positions", 10)
	v.SetDefault("guardrails.max_advisor_positions", 3)
	v.SetDefault("guardrails.wallet_cooling_seconds", 90)
	v.SetDefault("guardrails.general_min_interval", 100*time.Millisecond)
	v.SetDefault("guardrails.advisor_min_interval", 30*time.Second)

	v.SetDefault("sizer.strategy_kind", "confidence_scaled")
	v.SetDefault("sizer.scale_down_near_limit", true)

	v.SetDefault("position.profit_targets", []float64{30, 60, 100})
	v.SetDefault("position.stop_loss_percent", 15.0)
	v.SetDefault("position.max_hold_seconds", 900)
	v.SetDefault("position.max_positions", 10)
	v.SetDefault("position.monitor_cadence", 2*time.Second)

	v.SetDefault("audit.sqlite_path", "./data/audit.db")
}

// decimalDecodeHook lets viper populate shopspring/decimal.Decimal fields
// from the plain numeric/string values a YAML config naturally carries.
func decimalDecodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return data, nil
	}
}
