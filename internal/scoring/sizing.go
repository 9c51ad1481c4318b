package scoring

import (
	"github.com/shopspring/decimal"

	"solmeme-pipeline/internal/domain"
)

// sizePosition implements §4.5's suggestedPositionUsd: base fraction of
// cash × score/100, STRONG_BUY multiplies up to the per-trade cap,
// clamped to [MinTradeUsd, MaxTradeUsd]. Clamp order matters: the spec's
// boundary rule is "if suggestedPositionUsd > cash, size = cash (if
// above minTradeUsd) else rejected" — enforced by the caller against
// live cash, this function only applies the static thresholds.
func (e *Engine) sizePosition(cashAvailableUsd, score float64, rec domain.Recommendation) decimal.Decimal {
	raw := cashAvailableUsd * e.t.BasePositionPct * (score / 100)

	if rec == domain.RecommendStrongBuy {
		raw *= e.t.StrongBuyMultiplier
	}

	d := decimal.NewFromFloat(raw)
	if d.LessThan(e.t.MinTradeUsd) {
		return e.t.MinTradeUsd
	}
	if d.GreaterThan(e.t.MaxTradeUsd) {
		return e.t.MaxTradeUsd
	}
	return d
}
