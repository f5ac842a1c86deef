package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vipGateAPI/internal/types/fulfillment"
	"vipGateAPI/services"
)

type FulfillmentHandler struct {
	fulfillmentService *services.FulfillmentService
}

func NewFulfillmentHandler(fulfillmentService *services.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentService: fulfillmentService,
	}
}

// RequestCard opens a physical-card request for a membership. 409 when one is
// already open.
func (h *FulfillmentHandler) RequestCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	membershipID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req fulfillment.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cardRequest, err := h.fulfillmentService.RequestCard(ctx, membershipID, req.RequestedBy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, cardRequest)
}

func (h *FulfillmentHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	requestID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cardRequest, err := h.fulfillmentService.MarkReady(ctx, requestID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cardRequest)
}

func (h *FulfillmentHandler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	requestID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cardRequest, err := h.fulfillmentService.MarkPickedUp(ctx, requestID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cardRequest)
}

func (h *FulfillmentHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	requests, err := h.fulfillmentService.ListRequests(ctx, r.URL.Query().Get("state"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}
