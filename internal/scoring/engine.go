// Package scoring implements the Scoring & Decision Engine (§4.5):
// reduces an EnrichmentBundle to a Decision via weighted subscores,
// hard vetoes, and position sizing. The tagged-reason shape here
// follows solana-token-lab's decision.StrategyKey/domain.StrategyConfig
// naming family, carried through into the Paper-Trading Engine's close
// reasons (§4.6).
package scoring

import (
	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/pkg/utils"
)

// Denylist reports whether an address has been manually excluded by
// an operator, ahead of the usual subscore and veto path.
type Denylist interface {
	IsDenylisted(address string) (bool, error)
}

// Engine reduces bundles to decisions under a fixed set of Thresholds.
type Engine struct {
	t        Thresholds
	denylist Denylist
}

// New builds an Engine.
func New(t Thresholds) *Engine {
	return &Engine{t: t}
}

// WithDenylist attaches a Denylist checker; addresses it reports as
// denylisted force SKIP ahead of the usual veto and subscore path.
func (e *Engine) WithDenylist(d Denylist) *Engine {
	e.denylist = d
	return e
}

// Score produces a Decision for bundle given the cash currently
// available for sizing.
func (e *Engine) Score(bundle domain.EnrichmentBundle, cashAvailableUsd float64) domain.Decision {
	if e.denylist != nil {
		if denied, err := e.denylist.IsDenylisted(bundle.Address); err == nil && denied {
			return domain.Decision{
				Address:        bundle.Address,
				Recommendation: domain.RecommendSkip,
				Score:          0,
				Confidence:     1.0,
				Reasons:        []domain.ReasonTag{domain.ReasonDenylisted},
			}
		}
	}

	if veto, reasons := e.checkVetoes(bundle); veto {
		return domain.Decision{
			Address:        bundle.Address,
			Recommendation: domain.RecommendSkip,
			Score:          0,
			Confidence:     1.0,
			Reasons:        reasons,
		}
	}

	sub, present := e.subscores(bundle)
	weights := utils.ReweightProRata(e.t.weights(), present)
	score := sub.Liquidity*weights[0] + sub.VolumeActivity*weights[1] + sub.Momentum*weights[2] +
		sub.Safety*weights[3] + sub.HolderDistribution*weights[4] + sub.Social*weights[5]

	reasons := e.softReasonsAndBoosts(bundle)
	rec := e.band(score)

	d := domain.Decision{
		Address:        bundle.Address,
		Recommendation: rec,
		Score:          score,
		Confidence:     presentFraction(present),
		Reasons:        reasons,
		Subscores:      sub,
	}

	if d.Tradeable() {
		d.SuggestedPositionUsd = e.sizePosition(cashAvailableUsd, score, rec)
	}
	return d
}

func (e *Engine) band(score float64) domain.Recommendation {
	switch {
	case score >= e.t.StrongBuyFloor:
		return domain.RecommendStrongBuy
	case score >= e.t.BuyFloor:
		return domain.RecommendBuy
	case score >= e.t.WatchFloor:
		return domain.RecommendWatch
	default:
		return domain.RecommendSkip
	}
}

func presentFraction(present []bool) float64 {
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	if len(present) == 0 {
		return 0
	}
	return float64(n) / float64(len(present))
}
