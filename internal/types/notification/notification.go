package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindMembershipConfirmed = "membership_confirmed"
	KindCardReady           = "card_ready"
)

type Notification struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MembershipID uuid.UUID `json:"membershipId" db:"membership_id"`
	Kind         string    `json:"kind" db:"kind"`
	Title        string    `json:"title" db:"title"`
	Body         string    `json:"body" db:"body"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
