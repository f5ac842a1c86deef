package scan

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusValid        Status = "valid"
	StatusInvalid      Status = "invalid"
	StatusUnpaid       Status = "unpaid"
	StatusInactive     Status = "inactive"
	StatusExpired      Status = "expired"
	StatusLimitReached Status = "limit_reached"
)

// Request is the door scanner's payload. Timestamp is optional; when the
// scanner omits it the server clock is used.
type Request struct {
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
}

// Result is what the door scanner displays. RemainingQuota is only set on a
// valid scan; holder and tier are set whenever the token resolved to a
// membership.
type Result struct {
	Status         Status `json:"status"`
	HolderName     string `json:"holderName,omitempty"`
	TierName       string `json:"tierName,omitempty"`
	RemainingQuota *int   `json:"remainingQuota,omitempty"`
}

// Attempt is one append-only scan log row. Never mutated after insert.
type Attempt struct {
	ID           uuid.UUID `json:"id" db:"id"`
	MembershipID uuid.UUID `json:"membershipId" db:"membership_id"`
	ScannedAt    time.Time `json:"scannedAt" db:"scanned_at"`
	Status       Status    `json:"status" db:"status"`
	Context      string    `json:"context,omitempty" db:"context_label"`
}
