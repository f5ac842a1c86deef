package fulfillment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StateRequested = "requested"
	StateReady     = "ready"
	StatePickedUp  = "picked_up"
)

// Request tracks a physical card through requested -> ready -> picked_up.
// At most one request per membership may be open (not yet picked up).
type Request struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	MembershipID uuid.UUID  `json:"membershipId" db:"membership_id"`
	RequestedBy  string     `json:"requestedBy" db:"requested_by"`
	State        string     `json:"state" db:"state"`
	RequestedAt  time.Time  `json:"requestedAt" db:"requested_at"`
	ReadyAt      *time.Time `json:"readyAt,omitempty" db:"ready_at"`
	PickedUpAt   *time.Time `json:"pickedUpAt,omitempty" db:"picked_up_at"`
}

type CreateRequest struct {
	RequestedBy string `json:"requestedBy"`
}
