package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"solmeme-pipeline/internal/domain"
	"solmeme-pipeline/internal/repository"
)

type fakeTradeStore struct {
	byAddress map[string][]*domain.Position
	recent    []*domain.Position
}

func (f *fakeTradeStore) GetByAddress(address string) ([]*domain.Position, error) {
	trades, ok := f.byAddress[address]
	if !ok {
		return nil, repository.ErrTradeNotFound
	}
	return trades, nil
}

func (f *fakeTradeStore) GetRecent(limit int) ([]*domain.Position, error) {
	return f.recent, nil
}

func TestTradeHandler_GetTradesByAddress(t *testing.T) {
	store := &fakeTradeStore{byAddress: map[string][]*domain.Position{
		"So111": {{ID: "pos-1", Address: "So111", Status: domain.PositionClosed}},
	}}
	h := NewTradeHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/So111", nil)
	req = mux.SetURLVars(req, map[string]string{"address": "So111"})
	rec := httptest.NewRecorder()
	h.GetTradesByAddress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["total"].(float64) != 1 {
		t.Errorf("expected total 1, got %v", body["total"])
	}
}

func TestTradeHandler_GetTradesByAddress_NotFound(t *testing.T) {
	store := &fakeTradeStore{byAddress: map[string][]*domain.Position{}}
	h := NewTradeHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"address": "missing"})
	rec := httptest.NewRecorder()
	h.GetTradesByAddress(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
