package handlers

import (
	"net/http"
	"strconv"
	"time"

	"solmeme-pipeline/internal/domain"
)

// CandidateStore is satisfied by *repository.CandidateRepository.
type CandidateStore interface {
	ListSince(since time.Time) ([]*domain.TokenCandidate, error)
	Count() (int, error)
}

// CandidateHandler exposes Token Intake history for the dashboard.
//
// Endpoints:
// - GET /api/v1/candidates?since_minutes=60 - recently admitted candidates
type CandidateHandler struct {
	store CandidateStore
}

// NewCandidateHandler wires a CandidateHandler to store.
func NewCandidateHandler(store CandidateStore) *CandidateHandler {
	return &CandidateHandler{store: store}
}

type candidateResponse struct {
	Address             string  `json:"address"`
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name"`
	FirstSeenAt         string  `json:"first_seen_at"`
	InitialLiquidityUsd float64 `json:"initial_liquidity_usd"`
	Source              string  `json:"source"`
}

type candidatesResponse struct {
	Candidates []candidateResponse `json:"candidates"`
	Total      int                 `json:"total"`
}

// GetCandidates returns candidates first seen within the last
// since_minutes minutes (default 60).
//
// GET /api/v1/candidates?since_minutes=60
func (h *CandidateHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	sinceMinutes := 60
	if raw := r.URL.Query().Get("since_minutes"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			sinceMinutes = parsed
		}
	}

	since := time.Now().Add(-time.Duration(sinceMinutes) * time.Minute)
	candidates, err := h.store.ListSince(since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list candidates")
		return
	}

	resp := candidatesResponse{
		Candidates: make([]candidateResponse, 0, len(candidates)),
		Total:      len(candidates),
	}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			Address:             c.Address,
			Symbol:              c.Symbol,
			Name:                c.Name,
			FirstSeenAt:         c.FirstSeenAt.Format(time.RFC3339),
			InitialLiquidityUsd: c.InitialLiquidityUsd,
			Source:              string(c.Source),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}
