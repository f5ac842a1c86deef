package pricing

import (
	"errors"

	"vipGateAPI/internal/types/tier"
)

var ErrInvalidDuration = errors.New("unsupported membership duration")

// ComputePrice returns the price in minor currency units for a membership of
// the given duration against a tier. 12 months is the unmodified annual
// price, 0 months is the fixed lifetime price, and 1-3 months derive from the
// annual price plus the tier's short-duration premium, rounded half-up to the
// minor unit. Any other duration is rejected.
func ComputePrice(t *tier.Tier, months int) (int64, error) {
	switch months {
	case 12:
		return t.AnnualPriceCents, nil
	case 0:
		return t.LifetimePriceCents, nil
	case 1, 2, 3:
		premium := premiumFor(t, months)
		// annual/12 * months * (1 + premium/100), kept in integer math:
		// numerator and denominator scaled by 100 so rounding happens once.
		num := t.AnnualPriceCents * int64(months) * (100 + premium)
		const den = 12 * 100
		return (num + den/2) / den, nil
	default:
		return 0, ErrInvalidDuration
	}
}

func premiumFor(t *tier.Tier, months int) int64 {
	switch months {
	case 1:
		return int64(t.PremiumOneMonth)
	case 2:
		return int64(t.PremiumTwoMonth)
	default:
		return int64(t.PremiumThreeMonth)
	}
}

// ValidDuration reports whether a purchase or quote may use this duration.
func ValidDuration(months int) bool {
	switch months {
	case 0, 1, 2, 3, 12:
		return true
	default:
		return false
	}
}
