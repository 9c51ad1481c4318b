package handlers

import (
	"net/http"

	"solmeme-pipeline/internal/domain"
)

// SnapshotSource is satisfied by the Paper-Trading Engine; kept as an
// interface so handler tests can stub it without spinning up the
// engine's writer goroutine.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// PortfolioHandler exposes the Paper-Trading Engine's current state for
// the dashboard, following the teacher's BlacklistHandler shape
// (internal/api/handlers/blacklist_handler.go): thin handler, all
// domain logic lives behind the injected dependency.
//
// Endpoints:
// - GET /api/v1/portfolio - current cash/equity/positions snapshot
type PortfolioHandler struct {
	engine SnapshotSource
}

// NewPortfolioHandler wires a PortfolioHandler to engine.
func NewPortfolioHandler(engine SnapshotSource) *PortfolioHandler {
	return &PortfolioHandler{engine: engine}
}

type portfolioResponse struct {
	CashUsd         string                  `json:"cash_usd"`
	EquityUsd       string                  `json:"equity_usd"`
	PeakEquityUsd   string                  `json:"peak_equity_usd"`
	OpenPositions   []positionResponse      `json:"open_positions"`
	ClosedPositions []positionResponse      `json:"closed_positions"`
	Metrics         domain.PortfolioMetrics `json:"metrics"`
}

type positionResponse struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	Symbol         string `json:"symbol"`
	Status         string `json:"status"`
	CloseReason    string `json:"close_reason,omitempty"`
	EntryPriceUsd  string `json:"entry_price_usd"`
	SizeUsd        string `json:"size_usd"`
	LastPriceUsd   string `json:"last_price_usd"`
	RealizedPnlUsd string `json:"realized_pnl_usd"`
}

// GetPortfolio returns the current portfolio snapshot.
//
// GET /api/v1/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	resp := portfolioResponse{
		CashUsd:         snap.CashUsd.String(),
		EquityUsd:       snap.EquityUsd.String(),
		PeakEquityUsd:   snap.PeakEquityUsd.String(),
		OpenPositions:   toPositionResponses(snap.OpenPositions),
		ClosedPositions: toPositionResponses(snap.ClosedPositions),
		Metrics:         snap.Metrics,
	}

	respondJSON(w, http.StatusOK, resp)
}

func toPositionResponses(positions []domain.Position) []positionResponse {
	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionResponse{
			ID:             p.ID,
			Address:        p.Address,
			Symbol:         p.Symbol,
			Status:         string(p.Status),
			CloseReason:    string(p.CloseReason),
			EntryPriceUsd:  p.EntryPriceUsd.String(),
			SizeUsd:        p.SizeUsd.String(),
			LastPriceUsd:   p.LastPriceUsd.String(),
			RealizedPnlUsd: p.RealizedPnlUsd.String(),
		})
	}
	return out
}
