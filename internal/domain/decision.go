package domain

// decision.go - Decision, produced by Scoring, consumed by the
// Paper-Trading Engine.

import "github.com/shopspring/decimal"

// Recommendation is the Scoring & Decision Engine's output band.
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "STRONG_BUY"
	RecommendBuy       Recommendation = "BUY"
	RecommendWatch     Recommendation = "WATCH"
	RecommendSkip      Recommendation = "SKIP"
	RecommendSell      Recommendation = "SELL"
)

// ReasonTag is a small enumerated set of scoring reasons; no free-form
// text is part of the Decision contract.
type ReasonTag string

const (
	ReasonLowLiquidity           ReasonTag = "LowLiquidity"
	ReasonHolderGrowth           ReasonTag = "HolderGrowth"
	ReasonProfitableTradersHigh  ReasonTag = "ProfitableTradersHigh"
	ReasonHoneypot               ReasonTag = "Honeypot"
	ReasonOverboughtRsi          ReasonTag = "OverboughtRsi"
	ReasonCreatorRugHistory      ReasonTag = "CreatorRugHistory"
	ReasonTopHolderConcentration ReasonTag = "TopHolderConcentration"
	ReasonAbsentSocials          ReasonTag = "AbsentSocials"
	ReasonExtremeVolatility      ReasonTag = "ExtremeVolatility"
	ReasonLpBurned               ReasonTag = "LpBurned"
	ReasonModifiableSlippage     ReasonTag = "ModifiableSlippage"
	ReasonDenylisted             ReasonTag = "Denylisted"
)

// Subscores carries the per-component [0,100] scores behind a Decision,
// useful for dashboards and for reweighting under missing components.
type Subscores struct {
	Liquidity         float64
	VolumeActivity    float64
	Momentum          float64
	Safety            float64
	HolderDistribution float64
	Social            float64
}

// Decision is Scoring's immutable output.
type Decision struct {
	Address               string
	Recommendation        Recommendation
	Score                 float64 // 0-100
	Confidence            float64 // 0-1
	Reasons               []ReasonTag
	Subscores             Subscores
	SuggestedPositionUsd  decimal.Decimal
	SuggestedStopLossPct  float64
	SuggestedTakeProfitPct float64
	TimeframeHint         string
	ReferencePriceUsd     decimal.Decimal
}

// HasReason reports whether r appears among d.Reasons.
func (d Decision) HasReason(r ReasonTag) bool {
	for _, x := range d.Reasons {
		if x == r {
			return true
		}
	}
	return false
}

// Tradeable reports whether the Paper-Trading Engine should consider
// opening a position for this decision.
func (d Decision) Tradeable() bool {
	return d.Recommendation == RecommendBuy || d.Recommendation == RecommendStrongBuy
}
