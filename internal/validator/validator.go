// Package validator gates a candidate trade against economic, structural,
// and integrity rules (spec.md §4.7). Check runs its rules in order and
// returns on first failure, mirroring the teacher's internal/blockchain/
// errors.go ParseTxError: an ordered switch over conditions producing one
// typed result, rather than accumulating every violation.
package validator

import (
	"github.com/shopspring/decimal"

	"solana-brain/internal/features"
)

// RejectKind identifies which validator rule failed.
type RejectKind int

const (
	RejectNone RejectKind = iota
	RejectFeesTooHigh
	RejectImpactTooHigh
	RejectFollowThroughTooLow
	RejectCreatorBlacklisted
	RejectSuspiciousPattern
)

func (k RejectKind) String() string {
	switch k {
	case RejectFeesTooHigh:
		return "FeesTooHigh"
	case RejectImpactTooHigh:
		return "ImpactTooHigh"
	case RejectFollowThroughTooLow:
		return "FollowThroughTooLow"
	case RejectCreatorBlacklisted:
		return "CreatorBlacklisted"
	case RejectSuspiciousPattern:
		return "SuspiciousPattern"
	default:
		return "None"
	}
}

// PatternKind identifies which pattern heuristic tripped a SuspiciousPattern
// rejection.
type PatternKind int

const (
	PatternWashTrading PatternKind = iota
	PatternBotCluster
	PatternScamPrice
	PatternThinCreatorHistory
	PatternThinInitialLiquidity
)

func (p PatternKind) String() string {
	switch p {
	case PatternWashTrading:
		return "WashTrading"
	case PatternBotCluster:
		return "BotCluster"
	case PatternScamPrice:
		return "ScamPrice"
	case PatternThinCreatorHistory:
		return "ThinCreatorHistory"
	case PatternThinInitialLiquidity:
		return "ThinInitialLiquidity"
	default:
		return "Unknown"
	}
}

// Rejection is the typed result of a failed validator rule.
type Rejection struct {
	Kind    RejectKind
	Pattern PatternKind // valid only when Kind == RejectSuspiciousPattern
	Creator string      // valid only when Kind == RejectCreatorBlacklisted
}

func (r *Rejection) Error() string {
	if r == nil {
		return "none"
	}
	if r.Kind == RejectSuspiciousPattern {
		return "SuspiciousPattern{" + r.Pattern.String() + "}"
	}
	if r.Kind == RejectCreatorBlacklisted {
		return "CreatorBlacklisted{" + r.Creator + "}"
	}
	return r.Kind.String()
}

// Thresholds is the configuration surface for every validator rule; all
// values are configuration inputs per spec.md §4.7 ("the validator contract
// is pure over (features, thresholds)").
type Thresholds struct {
	MinProfitTargetUSD decimal.Decimal
	FixedTipUSD        decimal.Decimal
	FixedGasUSD        decimal.Decimal
	// SlippageBpsOfSize estimates slippage cost as a proportion of trade
	// size in basis points (the fee floor's "slippage proportional to size").
	SlippageBpsOfSize uint32
	// ImpactBpsOfSize estimates price impact as a proportion of trade size
	// in basis points, feeding the impact-cap check.
	ImpactBpsOfSize uint32

	MinFollowThroughScore uint8
	CreatorBlacklist      map[string]struct{}
	MaxHotLaunchAgeSeconds uint64

	// MinCreatorTrades/MinInitialLiquidity back the thin-history pattern
	// heuristics (SPEC_FULL.md Open Question 5). Vacuously satisfied when
	// the corresponding MintFeatures.Known flag is false.
	MinCreatorTrades     uint64
	MinInitialLiquidity  decimal.Decimal
}

// Result is the outcome of a Check call.
type Result struct {
	Rejection  *Rejection // nil means the candidate passed all rules
	AgeWarning bool       // age_seconds > MaxHotLaunchAgeSeconds; never blocks
}

const bpsDenominator = 10000

// Check runs the ordered rule chain of spec.md §4.7 and returns on first
// failure. sizeInBaseUnits is the candidate trade's size in base-asset
// minor units (lamports); solUsdPrice converts it to USD for the fee/impact
// checks (SPEC_FULL.md Open Question 3).
func Check(f features.MintFeatures, sizeInBaseUnits uint64, solUsdPrice decimal.Decimal, score uint8, th Thresholds) Result {
	sizeUSD := sizeInSOL(sizeInBaseUnits).Mul(solUsdPrice)

	feesTotal := th.FixedTipUSD.Add(th.FixedGasUSD).Add(
		sizeUSD.Mul(decimal.NewFromInt(int64(th.SlippageBpsOfSize))).Div(decimal.NewFromInt(bpsDenominator)),
	)
	if th.MinProfitTargetUSD.LessThan(feesTotal.Mul(decimal.NewFromFloat(2.2))) {
		return Result{Rejection: &Rejection{Kind: RejectFeesTooHigh}, AgeWarning: ageWarning(f, th)}
	}

	impactEstimate := sizeUSD.Mul(decimal.NewFromInt(int64(th.ImpactBpsOfSize))).Div(decimal.NewFromInt(bpsDenominator))
	if impactEstimate.GreaterThan(th.MinProfitTargetUSD.Mul(decimal.NewFromFloat(0.45))) {
		return Result{Rejection: &Rejection{Kind: RejectImpactTooHigh}, AgeWarning: ageWarning(f, th)}
	}

	if score < th.MinFollowThroughScore {
		return Result{Rejection: &Rejection{Kind: RejectFollowThroughTooLow}, AgeWarning: ageWarning(f, th)}
	}

	if f.Creator != "" {
		if _, blocked := th.CreatorBlacklist[f.Creator]; blocked {
			return Result{Rejection: &Rejection{Kind: RejectCreatorBlacklisted, Creator: f.Creator}, AgeWarning: ageWarning(f, th)}
		}
	}

	if pattern, hit := matchPattern(f, th); hit {
		return Result{Rejection: &Rejection{Kind: RejectSuspiciousPattern, Pattern: pattern}, AgeWarning: ageWarning(f, th)}
	}

	return Result{Rejection: nil, AgeWarning: ageWarning(f, th)}
}

func matchPattern(f features.MintFeatures, th Thresholds) (PatternKind, bool) {
	vol60, _ := f.Volume60s.Float64()
	if vol60 > 20 && f.UniqueBuyers60s < 5 {
		return PatternWashTrading, true
	}

	sells := f.Sells60s
	if sells == 0 {
		sells = 1
	}
	if float64(f.Buys60s)/float64(sells) > 10 {
		return PatternBotCluster, true
	}

	price, _ := f.CurrentPriceInBaseAsset.Float64()
	if price < 1e-6 {
		return PatternScamPrice, true
	}

	if f.Known {
		if f.CreatorTrades < th.MinCreatorTrades {
			return PatternThinCreatorHistory, true
		}
		if f.InitialLiquidity.LessThan(th.MinInitialLiquidity) {
			return PatternThinInitialLiquidity, true
		}
	}

	return PatternKind(0), false
}

func ageWarning(f features.MintFeatures, th Thresholds) bool {
	return th.MaxHotLaunchAgeSeconds > 0 && f.AgeSeconds > th.MaxHotLaunchAgeSeconds
}

func sizeInSOL(sizeInBaseUnits uint64) decimal.Decimal {
	const lamportsPerSOL = 1_000_000_000
	return decimal.NewFromInt(int64(sizeInBaseUnits)).Div(decimal.NewFromInt(lamportsPerSOL))
}
