package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"solmeme-pipeline/internal/service"

	"github.com/gorilla/mux"
)

// DenylistHandler отвечает за управление постоянным deny-листом адресов
//
// Endpoints:
// - GET /api/v1/denylist - получение deny-листа
// - POST /api/v1/denylist - добавление адреса в deny-лист
// - DELETE /api/v1/denylist/{address} - удаление из deny-листа
//
// Назначение:
// deny-лист - это операторский override поверх Scoring: адрес в нем
// форсирует SKIP независимо от вычисленного score (известный rug/scam
// минт, вручную помеченный оператором).
type DenylistHandler struct {
	denylistService *service.DenylistService
}

// NewDenylistHandler создает новый DenylistHandler с внедрением зависимостей.
func NewDenylistHandler(denylistService *service.DenylistService) *DenylistHandler {
	return &DenylistHandler{
		denylistService: denylistService,
	}
}

// addToDenylistRequest - структура запроса для добавления в deny-лист
type addToDenylistRequest struct {
	Address string `json:"address"` // Token mint address
	Reason  string `json:"reason"`  // Причина добавления (опционально)
}

// denylistResponse - структура ответа со списком записей
type denylistResponse struct {
	Entries []denylistEntryResponse `json:"entries"`
	Total   int                     `json:"total"`
}

// denylistEntryResponse - структура одной записи deny-листа
type denylistEntryResponse struct {
	ID        int    `json:"id"`
	Address   string `json:"address"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

// GetDenylist возвращает весь черный список пар
//
// GET /api/v1/denylist
//
// Response 200:
//
//	{
//	  "entries": [
//	    {"id": 1, "address": "BTCUSDT", "reason": "Высокая волатильность", "created_at": "2025-01-15T10:30:00Z"},
//	    {"id": 2, "address": "ETHUSDT", "reason": "Низкая ликвидность", "created_at": "2025-01-14T09:00:00Z"}
//	  ],
//	  "total": 2
//	}
//
// Response 500:
//
//	{"error": "Failed to get denylist"}
func (h *DenylistHandler) GetDenylist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.denylistService.GetDenylist()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get denylist")
		return
	}

	// Формируем ответ
	response := denylistResponse{
		Entries: make([]denylistEntryResponse, 0, len(entries)),
		Total:   len(entries),
	}

	for _, entry := range entries {
		response.Entries = append(response.Entries, denylistEntryResponse{
			ID:        entry.ID,
			Address:    entry.Address,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	respondJSON(w, http.StatusOK, response)
}

// AddToDenylist добавляет пару в черный список
//
// POST /api/v1/denylist
//
// Request:
//
//	{
//	  "address": "BTCUSDT",
//	  "reason": "Высокая волатильность"
//	}
//
// Response 201:
//
//	{
//	  "id": 1,
//	  "address": "BTCUSDT",
//	  "reason": "Высокая волатильность",
//	  "created_at": "2025-01-15T10:30:00Z"
//	}
//
// Response 400:
//
//	{"error": "address is required"}
//
// Response 409:
//
//	{"error": "address already in denylist"}
//
// Response 500:
//
//	{"error": "Failed to add to denylist"}
func (h *DenylistHandler) AddToDenylist(w http.ResponseWriter, r *http.Request) {
	var req addToDenylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидация
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	// Добавляем в черный список
	entry, err := h.denylistService.AddToDenylist(req.Address, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrDenylistAddressEmpty) {
			respondError(w, http.StatusBadRequest, "address is required")
			return
		}
		if errors.Is(err, service.ErrDenylistAddressExists) {
			respondError(w, http.StatusConflict, "address already in denylist")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to add to denylist")
		return
	}

	// Формируем ответ
	response := denylistEntryResponse{
		ID:        entry.ID,
		Address:    entry.Address,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}

	respondJSON(w, http.StatusCreated, response)
}

// RemoveFromDenylist удаляет пару из черного списка
//
// DELETE /api/v1/denylist/{address}
//
// Response 204: No Content (успешное удаление)
//
// Response 400:
//
//	{"error": "address is required"}
//
// Response 404:
//
//	{"error": "address not found in denylist"}
//
// Response 500:
//
//	{"error": "Failed to remove from denylist"}
func (h *DenylistHandler) RemoveFromDenylist(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	if address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	err := h.denylistService.RemoveFromDenylist(address)
	if err != nil {
		if errors.Is(err, service.ErrDenylistAddressEmpty) {
			respondError(w, http.StatusBadRequest, "address is required")
			return
		}
		if errors.Is(err, service.ErrDenylistEntryNotFound) {
			respondError(w, http.StatusNotFound, "address not found in denylist")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to remove from denylist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
