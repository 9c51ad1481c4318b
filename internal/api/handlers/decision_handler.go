package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/repository"
)

// DecisionStore is satisfied by *repository.DecisionRepository.
type DecisionStore interface {
	GetLatestByAddress(address string) (*domain.Decision, error)
	GetRecent(limit int) ([]*domain.Decision, error)
}

// DecisionHandler exposes Scoring & Decision Engine output history.
//
// Endpoints:
// - GET /api/v1/decisions?limit=50 - most recent decisions
// - GET /api/v1/decisions/{address} - latest decision for one address
type DecisionHandler struct {
	store DecisionStore
}

// NewDecisionHandler wires a DecisionHandler to store.
func NewDecisionHandler(store DecisionStore) *DecisionHandler {
	return &DecisionHandler{store: store}
}

type decisionResponse struct {
	Address                string              `json:"address"`
	Recommendation         string              `json:"recommendation"`
	Score                  float64             `json:"score"`
	Confidence             float64             `json:"confidence"`
	Reasons                []domain.ReasonTag  `json:"reasons"`
	Subscores              domain.Subscores    `json:"subscores"`
	SuggestedPositionUsd   string              `json:"suggested_position_usd"`
	SuggestedStopLossPct   float64             `json:"suggested_stop_loss_pct"`
	SuggestedTakeProfitPct float64             `json:"suggested_take_profit_pct"`
	TimeframeHint          string              `json:"timeframe_hint"`
	ReferencePriceUsd      string              `json:"reference_price_usd"`
}

func toDecisionResponse(d *domain.Decision) decisionResponse {
	return decisionResponse{
		Address:                d.Address,
		Recommendation:         string(d.Recommendation),
		Score:                  d.Score,
		Confidence:             d.Confidence,
		Reasons:                d.Reasons,
		Subscores:              d.Subscores,
		SuggestedPositionUsd:   d.SuggestedPositionUsd.String(),
		SuggestedStopLossPct:   d.SuggestedStopLossPct,
		SuggestedTakeProfitPct: d.SuggestedTakeProfitPct,
		TimeframeHint:          d.TimeframeHint,
		ReferencePriceUsd:      d.ReferencePriceUsd.String(),
	}
}

// GetRecentDecisions returns the most recent decisions across all addresses.
//
// GET /api/v1/decisions?limit=50
func (h *DecisionHandler) GetRecentDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	decisions, err := h.store.GetRecent(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list decisions")
		return
	}

	resp := make([]decisionResponse, 0, len(decisions))
	for _, d := range decisions {
		resp = append(resp, toDecisionResponse(d))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"decisions": resp, "total": len(resp)})
}

// GetDecisionByAddress returns the most recent decision recorded for one address.
//
// GET /api/v1/decisions/{address}
func (h *DecisionHandler) GetDecisionByAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	d, err := h.store.GetLatestByAddress(address)
	if err != nil {
		if errors.Is(err, repository.ErrDecisionNotFound) {
			respondError(w, http.StatusNotFound, "no decision recorded for address")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get decision")
		return
	}

	respondJSON(w, http.StatusOK, toDecisionResponse(d))
}
