package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
)

func TestMembershipIDFromSession(t *testing.T) {
	id := uuid.New()

	t.Run("client reference", func(t *testing.T) {
		session := &stripe.CheckoutSession{ClientReferenceID: id.String()}
		got, ok := membershipIDFromSession(session)
		if !ok || got != id {
			t.Errorf("membershipIDFromSession = %v, %v; want %v, true", got, ok, id)
		}
	})

	t.Run("metadata fallback", func(t *testing.T) {
		session := &stripe.CheckoutSession{Metadata: map[string]string{"membership_id": id.String()}}
		got, ok := membershipIDFromSession(session)
		if !ok || got != id {
			t.Errorf("membershipIDFromSession = %v, %v; want %v, true", got, ok, id)
		}
	})

	// Sessions from other products on the same account carry no reference at
	// all; they must be recognized as such, not treated as an error.
	t.Run("no reference", func(t *testing.T) {
		if _, ok := membershipIDFromSession(&stripe.CheckoutSession{}); ok {
			t.Error("membershipIDFromSession accepted a session without a reference")
		}
	})

	t.Run("malformed reference", func(t *testing.T) {
		session := &stripe.CheckoutSession{ClientReferenceID: "order-1234"}
		if _, ok := membershipIDFromSession(session); ok {
			t.Error("membershipIDFromSession accepted a malformed reference")
		}
	})
}
