package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vipGateAPI/internal/types/scan"
	"vipGateAPI/middleware"
	"vipGateAPI/services"
	"vipGateAPI/utils"
)

type ScanHandler struct {
	scanService *services.ScanService
}

func NewScanHandler(scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
	}
}

// ValidateScan is the unauthenticated door endpoint. A person is standing at
// the door, so the whole call is bounded by a short timeout; anything that
// can't complete in time comes back as "try again", never as a grant or a
// denial.
func (h *ScanHandler) ValidateScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Token) != utils.AccessTokenLength {
		// Wrong shape can't be a real token; skip the database round trip.
		middleware.RecordScanResult(string(scan.StatusInvalid))
		respondWithJSON(w, http.StatusOK, &scan.Result{Status: scan.StatusInvalid})
		return
	}

	result, err := h.scanService.ValidateAt(ctx, req.Token, req.Context, req.Timestamp)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	middleware.RecordScanResult(string(result.Status))
	respondWithJSON(w, http.StatusOK, result)
}

// GetScanHistory lists the append-only scan log, newest first.
func (h *ScanHandler) GetScanHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	membershipID, ok := optionalUUIDQuery(w, r, "membershipId")
	if !ok {
		return
	}
	limit := intQuery(r, "limit", 50)
	offset := intQuery(r, "offset", 0)

	attempts, err := h.scanService.History(ctx, membershipID, limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, attempts)
}
