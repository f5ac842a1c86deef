package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vipGateAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto HTTP codes. Anything that
// smells like infrastructure (timeouts, pool trouble) becomes a 503 "try
// again" so callers never treat an ambiguous failure as a business outcome.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, services.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondWithError(w, http.StatusServiceUnavailable, "Temporarily unavailable, try again")
	default:
		log.Printf("Unhandled service error: %v", err)
		respondWithError(w, http.StatusServiceUnavailable, "Temporarily unavailable, try again")
	}
}
