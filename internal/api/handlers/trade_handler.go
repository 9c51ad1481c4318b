package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/repository"
)

// TradeStore is satisfied by *repository.TradeRepository.
type TradeStore interface {
	GetByAddress(address string) ([]*domain.Position, error)
	GetRecent(limit int) ([]*domain.Position, error)
}

// TradeHandler exposes closed-trade history for the dashboard.
//
// Endpoints:
// - GET /api/v1/trades?limit=50 - most recently closed trades
// - GET /api/v1/trades/{address} - trade history for one address
type TradeHandler struct {
	store TradeStore
}

// NewTradeHandler wires a TradeHandler to store.
func NewTradeHandler(store TradeStore) *TradeHandler {
	return &TradeHandler{store: store}
}

// GetRecentTrades returns the most recently closed trades.
//
// GET /api/v1/trades?limit=50
func (h *TradeHandler) GetRecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	trades, err := h.store.GetRecent(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list trades")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": toPositionResponses(derefAll(trades)),
		"total":  len(trades),
	})
}

// GetTradesByAddress returns the trade history for one address.
//
// GET /api/v1/trades/{address}
func (h *TradeHandler) GetTradesByAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	trades, err := h.store.GetByAddress(address)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			respondError(w, http.StatusNotFound, "no trades recorded for address")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get trades")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trades": toPositionResponses(derefAll(trades)),
		"total":  len(trades),
	})
}

func derefAll(positions []*domain.Position) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, *p)
	}
	return out
}
