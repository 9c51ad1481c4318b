package scoring

import "solmeme-pipeline/internal/domain"

// checkVetoes applies §4.5's hard vetoes; a veto forces SKIP, score=0,
// confidence=1 regardless of any subscore.
func (e *Engine) checkVetoes(b domain.EnrichmentBundle) (bool, []domain.ReasonTag) {
	var reasons []domain.ReasonTag

	if b.Security.IsHoneypot != nil && *b.Security.IsHoneypot {
		reasons = append(reasons, domain.ReasonHoneypot)
	}
	if b.Security.CreatorRugCount != nil && *b.Security.CreatorRugCount > e.t.CreatorRugCountMax {
		reasons = append(reasons, domain.ReasonCreatorRugHistory)
	}
	if b.Completeness.Has(domain.CompleteMarket) && b.Market.LiquidityUsd.LessThan(e.t.AbsoluteMinLiquidityUsd) {
		reasons = append(reasons, domain.ReasonLowLiquidity)
	}
	if pausableMintableModifiable(b.Security) {
		reasons = append(reasons, domain.ReasonModifiableSlippage)
	}

	return len(reasons) > 0, reasons
}

func pausableMintableModifiable(s domain.SecurityFragment) bool {
	return boolVal(s.TransferPausable) && boolVal(s.IsMintable) && boolVal(s.SlippageModifiable)
}

func boolVal(p *bool) bool { return p != nil && *p }
