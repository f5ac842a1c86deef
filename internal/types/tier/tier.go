package tier

import (
	"time"

	"github.com/google/uuid"
)

// Tier is one versioned row of the membership catalog. Prices are stored in
// minor currency units.
type Tier struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	AnnualPriceCents   int64     `json:"annualPriceCents" db:"annual_price_cents"`
	LifetimePriceCents int64     `json:"lifetimePriceCents" db:"lifetime_price_cents"`
	DurationMonths     int       `json:"durationMonths" db:"duration_months"`
	DailyQuota         int       `json:"dailyQuota" db:"daily_quota"`
	MultiUser          bool      `json:"multiUser" db:"multi_user"`
	PremiumOneMonth    int       `json:"premiumOneMonth" db:"premium_1_month"`
	PremiumTwoMonth    int       `json:"premiumTwoMonth" db:"premium_2_month"`
	PremiumThreeMonth  int       `json:"premiumThreeMonth" db:"premium_3_month"`
	DisplayOrder       int       `json:"displayOrder" db:"display_order"`
	IsActive           bool      `json:"isActive" db:"is_active"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

type UpsertTierRequest struct {
	Name               string `json:"name"`
	AnnualPriceCents   int64  `json:"annualPriceCents"`
	LifetimePriceCents int64  `json:"lifetimePriceCents"`
	DurationMonths     int    `json:"durationMonths"`
	DailyQuota         int    `json:"dailyQuota"`
	MultiUser          bool   `json:"multiUser"`
	PremiumOneMonth    int    `json:"premiumOneMonth"`
	PremiumTwoMonth    int    `json:"premiumTwoMonth"`
	PremiumThreeMonth  int    `json:"premiumThreeMonth"`
	DisplayOrder       int    `json:"displayOrder"`
	IsActive           bool   `json:"isActive"`
}
