package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"vipGateAPI/services"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

type WebhookHandler struct {
	membershipService *services.MembershipService
}

func NewWebhookHandler(membershipService *services.MembershipService) *WebhookHandler {
	return &WebhookHandler{
		membershipService: membershipService,
	}
}

// HandlePaymentWebhook receives the payment processor's signals. Completed
// checkouts activate the membership; expired ones purge the abandoned pending
// record. Both paths are idempotent, so duplicate deliveries and processor
// retries are safe.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 65536))
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), webhookSecret)
	if err != nil {
		log.Printf("Invalid webhook signature: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.handleCheckoutOutcome(ctx, event.Data.Raw, h.membershipService.OnPaymentCompleted)
	case "checkout.session.expired":
		err = h.handleCheckoutOutcome(ctx, event.Data.Raw, h.membershipService.OnPaymentCancelled)
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("Error handling %s: %v", event.Type, err)
		// Non-2xx makes the processor retry later; our handlers are
		// idempotent so that is safe.
		http.Error(w, "Error processing event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received": true}`))
}

func (h *WebhookHandler) handleCheckoutOutcome(ctx context.Context, data json.RawMessage, apply func(context.Context, uuid.UUID) error) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}

	membershipID, ok := membershipIDFromSession(&session)
	if !ok {
		// A session with no usable membership reference belongs to some
		// other product on this account. Ack it; a retry can never succeed.
		log.Printf("Ignoring checkout session %s without a membership reference", session.ID)
		return nil
	}
	return apply(ctx, membershipID)
}

// The checkout UI stamps the membership id on the session, either as the
// client reference or in metadata.
func membershipIDFromSession(session *stripe.CheckoutSession) (uuid.UUID, bool) {
	raw := session.ClientReferenceID
	if raw == "" {
		raw = session.Metadata["membership_id"]
	}
	id, err := uuid.Parse(raw)
	return id, err == nil
}
