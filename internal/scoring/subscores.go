package scoring

import "solmeme-pipeline/internal/domain"

// subscores computes the six [0,100] component subscores from whatever
// fragments are present, and which components were actually present
// (for pro-rata reweighting), in weight order:
// [Liquidity, VolumeActivity, Momentum, Safety, HolderDistribution, Social].
func (e *Engine) subscores(b domain.EnrichmentBundle) (domain.Subscores, []bool) {
	var s domain.Subscores
	present := make([]bool, 6)

	if b.Completeness.Has(domain.CompleteMarket) {
		s.Liquidity = liquidityScore(b.Market.LiquidityUsd.InexactFloat64())
		s.VolumeActivity = volumeScore(b.Market.Volume1h.InexactFloat64())
		s.Social = socialScore(b.Social)
		present[0] = true
		present[1] = true
		present[5] = true
	}
	if b.Completeness.Has(domain.CompleteMomentum) {
		s.Momentum = momentumScore(b.Momentum)
		present[2] = true
	}
	if b.Completeness.Has(domain.CompleteSecurity) {
		s.Safety = safetyScore(b.Security)
		present[3] = true
	}
	if b.Completeness.Has(domain.CompleteFlow) || b.Completeness.Has(domain.CompleteHolders) {
		s.HolderDistribution = holderDistributionScore(b)
		present[4] = true
	}

	return s, present
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func liquidityScore(liquidityUsd float64) float64 {
	// Linear ramp: 0 at $0, 100 at $100k+.
	return clamp100(liquidityUsd / 1000)
}

func volumeScore(volume1h float64) float64 {
	// Linear ramp: 0 at $0, 100 at $20k/h+.
	return clamp100(volume1h / 200)
}

func socialScore(s domain.SocialFragment) float64 {
	n := 0
	if s.HasTwitter {
		n++
	}
	if s.HasTelegram {
		n++
	}
	if s.HasWebsite {
		n++
	}
	return float64(n) / 3 * 100
}

func momentumScore(m domain.MomentumFragment) float64 {
	score := 50.0
	if m.Rsi != nil {
		switch {
		case *m.Rsi >= 70:
			score -= (*m.Rsi - 70) * 1.5 // overbought penalty
		case *m.Rsi <= 30:
			score -= (30 - *m.Rsi) * 1.5 // oversold penalty
		default:
			score += 20
		}
	}
	if m.BollingerPosition != nil {
		score += (*m.BollingerPosition - 0.5) * 20
	}
	return clamp100(score)
}

func safetyScore(s domain.SecurityFragment) float64 {
	score := 100.0
	if s.TransferPausable != nil && *s.TransferPausable {
		score -= 20
	}
	if s.IsMintable != nil && *s.IsMintable {
		score -= 15
	}
	if s.SlippageModifiable != nil && *s.SlippageModifiable {
		score -= 15
	}
	if s.Cooldown != nil && *s.Cooldown {
		score -= 10
	}
	return clamp100(score)
}

func holderDistributionScore(b domain.EnrichmentBundle) float64 {
	score := 100.0
	if b.Flow.TopHolderConcentrationPct > 0 {
		score -= b.Flow.TopHolderConcentrationPct
	}
	if b.Traders.ProfitableRatio > 0 {
		score += b.Traders.ProfitableRatio * 30
	}
	return clamp100(score)
}
