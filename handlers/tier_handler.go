package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vipGateAPI/internal/types/tier"
	"vipGateAPI/services"
)

type TierHandler struct {
	tierService *services.TierService
}

func NewTierHandler(tierService *services.TierService) *TierHandler {
	return &TierHandler{
		tierService: tierService,
	}
}

// GetTiers serves the public catalog: active tiers only, in display order.
func (h *TierHandler) GetTiers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tiers, err := h.tierService.ListTiers(ctx, false)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tiers)
}

// GetAllTiers is the admin view including deactivated tiers.
func (h *TierHandler) GetAllTiers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tiers, err := h.tierService.ListTiers(ctx, true)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tiers)
}

func (h *TierHandler) CreateTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req tier.UpsertTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.tierService.CreateTier(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, t)
}

func (h *TierHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req tier.UpsertTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.tierService.UpdateTier(ctx, id, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, t)
}

// QuotePrice answers "what would N months of this tier cost" for the
// checkout UI.
func (h *TierHandler) QuotePrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	months := intQuery(r, "months", 12)

	price, err := h.tierService.QuotePrice(ctx, id, months)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tierId":     id,
		"months":     months,
		"priceCents": price,
	})
}
