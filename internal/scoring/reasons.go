package scoring

import (
	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

// softReasonsAndBoosts tags the non-veto reasons named in §4.5: soft
// penalties (low liquidity, extreme volatility, concentration, absent
// socials) and boosts (holder growth, profitable-trader ratio), plus the
// momentum-specific OverboughtRsi tag. No LP-burn boost is tagged: no
// enrichment fragment carries LP-burn data, so ReasonLpBurned is never
// emitted.
func (e *Engine) softReasonsAndBoosts(b domain.EnrichmentBundle) []domain.ReasonTag {
	var reasons []domain.ReasonTag

	if b.Completeness.Has(domain.CompleteMarket) {
		if b.Market.LiquidityUsd.GreaterThan(e.t.AbsoluteMinLiquidityUsd) &&
			b.Market.LiquidityUsd.LessThan(e.t.AbsoluteMinLiquidityUsd.Mul(decimal.NewFromInt(5))) {
			reasons = append(reasons, domain.ReasonLowLiquidity)
		}
		if isExtremeVolatility(b.Market) {
			reasons = append(reasons, domain.ReasonExtremeVolatility)
		}
		if b.Market.HolderGrowthPerMin >= e.t.HolderGrowthBoostThreshold {
			reasons = append(reasons, domain.ReasonHolderGrowth)
		}
	}

	if b.Completeness.Has(domain.CompleteFlow) && b.Flow.TopHolderConcentrationPct > e.t.TopHolderConcentrationMaxPct {
		reasons = append(reasons, domain.ReasonTopHolderConcentration)
	}

	if b.Completeness.Has(domain.CompleteHolders) && b.Traders.ProfitableRatio >= e.t.ProfitableRatioBoostThreshold {
		reasons = append(reasons, domain.ReasonProfitableTradersHigh)
	}

	if b.Completeness.Has(domain.CompleteMarket) && !b.Social.HasTwitter && !b.Social.HasTelegram && !b.Social.HasWebsite {
		reasons = append(reasons, domain.ReasonAbsentSocials)
	}

	if b.Completeness.Has(domain.CompleteMomentum) && b.Momentum.Rsi != nil && *b.Momentum.Rsi >= 70 {
		reasons = append(reasons, domain.ReasonOverboughtRsi)
	}

	return reasons
}

func isExtremeVolatility(m domain.MarketFragment) bool {
	abs := func(f float64) float64 {
		if f < 0 {
			return -f
		}
		return f
	}
	return abs(m.PriceChange1hPct) > 50
}
