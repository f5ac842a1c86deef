package membership

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Derived lifecycle statuses. The stored `active` flag only tracks explicit
// admin deactivation; expired/active is computed against the clock.
const (
	StatusPending     = "pending"
	StatusDeactivated = "deactivated"
	StatusExpired     = "expired"
	StatusActive      = "active"
)

type Membership struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TierID         uuid.UUID `json:"tierId" db:"tier_id"`
	TierName       string    `json:"tierName,omitempty"`
	HolderName     string    `json:"holderName" db:"holder_name"`
	HolderEmail    string    `json:"holderEmail" db:"holder_email"`
	HolderPhone    string    `json:"holderPhone" db:"holder_phone"`
	AccessToken    string    `json:"accessToken" db:"access_token"`
	DurationMonths int       `json:"durationMonths" db:"duration_months"`
	PurchasedAt    time.Time `json:"purchasedAt" db:"purchased_at"`
	Expiration     time.Time `json:"expiration" db:"expiration"`
	RemainingQuota int       `json:"remainingQuota" db:"remaining_quota"`
	LastResetDate  time.Time `json:"lastResetDate" db:"last_reset_date"`
	Active         bool      `json:"active" db:"active"`
	PaymentStatus  string    `json:"paymentStatus" db:"payment_status"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// DeriveStatus classifies a membership at the given instant. Every consumer
// (JSON responses, list filters) goes through this one function so badges and
// filters never disagree.
func (m *Membership) DeriveStatus(now time.Time) string {
	switch {
	case m.PaymentStatus != PaymentCompleted:
		return StatusPending
	case !m.Active:
		return StatusDeactivated
	case m.Expiration.Before(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

type PurchaseRequest struct {
	TierID         string `json:"tierId"`
	HolderName     string `json:"holderName"`
	HolderEmail    string `json:"holderEmail"`
	HolderPhone    string `json:"holderPhone"`
	DurationMonths int    `json:"durationMonths"`
}

type PurchaseResponse struct {
	Membership *Membership `json:"membership"`
	PriceCents int64       `json:"priceCents"`
}
