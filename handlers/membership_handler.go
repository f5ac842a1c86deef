package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vipGateAPI/internal/types/membership"
	"vipGateAPI/services"

	"github.com/google/uuid"
)

type MembershipHandler struct {
	membershipService   *services.MembershipService
	notificationService *services.NotificationService
}

func NewMembershipHandler(membershipService *services.MembershipService, notificationService *services.NotificationService) *MembershipHandler {
	return &MembershipHandler{
		membershipService:   membershipService,
		notificationService: notificationService,
	}
}

// Purchase starts a membership purchase: a pending record with an issued
// token. The caller takes the quoted price to the payment processor; the
// webhook completes (or purges) the record later.
func (h *MembershipHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req membership.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, price, err := h.membershipService.CreatePurchase(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, &membership.PurchaseResponse{
		Membership: m,
		PriceCents: price,
	})
}

func (h *MembershipHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.membershipService.GetMembership(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

func (h *MembershipHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tierID, ok := optionalUUIDQuery(w, r, "tierId")
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")

	memberships, err := h.membershipService.ListMemberships(ctx, tierID, status)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, memberships)
}

func (h *MembershipHandler) Extend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Months int `json:"months"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.membershipService.Extend(ctx, id, req.Months)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

func (h *MembershipHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.membershipService.SetActive(ctx, id, req.Active)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}

// ResetQuota handles the bulk admin override: one membership, or every
// membership when target is "ALL".
func (h *MembershipHandler) ResetQuota(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var target *uuid.UUID
	if req.Target != "ALL" {
		id, err := uuid.Parse(req.Target)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Target must be a membership id or ALL")
			return
		}
		target = &id
	}

	affected, err := h.membershipService.ResetQuota(ctx, target)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int64{"reset": affected})
}

func (h *MembershipHandler) DeleteMembership(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.membershipService.DeleteMembership(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GetQRCode serves the digital membership card image.
func (h *MembershipHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	pngBytes, err := h.membershipService.QRCodePNG(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(pngBytes)
}

func (h *MembershipHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListForMembership(ctx, id, intQuery(r, "limit", 20))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}
