package scoring

import "github.com/shopspring/decimal"

// Thresholds holds every tunable named in §4.5, with the spec's stated
// defaults.
type Thresholds struct {
	WeightLiquidity         float64
	WeightVolumeActivity    float64
	WeightMomentum          float64
	WeightSafety            float64
	WeightHolderDistribution float64
	WeightSocial            float64

	AbsoluteMinLiquidityUsd   decimal.Decimal
	CreatorRugCountMax        int
	TopHolderConcentrationMaxPct float64
	HolderGrowthBoostThreshold   float64
	ProfitableRatioBoostThreshold float64

	BasePositionPct     float64
	MinTradeUsd         decimal.Decimal
	MaxTradeUsd         decimal.Decimal
	StrongBuyMultiplier float64

	StrongBuyFloor float64
	BuyFloor       float64
	WatchFloor     float64
}

// DefaultThresholds matches the numeric defaults in §4.5/§8 Scenario B.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WeightLiquidity:          0.25,
		WeightVolumeActivity:     0.20,
		WeightMomentum:           0.15,
		WeightSafety:             0.20,
		WeightHolderDistribution: 0.10,
		WeightSocial:             0.10,

		AbsoluteMinLiquidityUsd:       decimal.NewFromInt(2000),
		CreatorRugCountMax:            2,
		TopHolderConcentrationMaxPct:  70,
		HolderGrowthBoostThreshold:    2,
		ProfitableRatioBoostThreshold: 0.3,

		BasePositionPct:     0.02,
		MinTradeUsd:         decimal.NewFromInt(10),
		MaxTradeUsd:         decimal.NewFromInt(500),
		StrongBuyMultiplier: 1.5,

		StrongBuyFloor: 80,
		BuyFloor:       60,
		WatchFloor:     40,
	}
}

func (t Thresholds) weights() []float64 {
	return []float64{t.WeightLiquidity, t.WeightVolumeActivity, t.WeightMomentum,
		t.WeightSafety, t.WeightHolderDistribution, t.WeightSocial}
}
