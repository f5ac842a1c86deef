package membership

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		m    Membership
		want string
	}{
		{
			"payment pending wins over everything",
			Membership{PaymentStatus: PaymentPending, Active: true, Expiration: future},
			StatusPending,
		},
		{
			"admin deactivation wins over expiry",
			Membership{PaymentStatus: PaymentCompleted, Active: false, Expiration: past},
			StatusDeactivated,
		},
		{
			"expired when paid and active but past expiration",
			Membership{PaymentStatus: PaymentCompleted, Active: true, Expiration: past},
			StatusExpired,
		},
		{
			"active otherwise",
			Membership{PaymentStatus: PaymentCompleted, Active: true, Expiration: future},
			StatusActive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.DeriveStatus(now); got != tc.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}
