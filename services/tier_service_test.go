package services

import (
	"context"
	"errors"
	"testing"

	"vipGateAPI/internal/types/tier"
)

func TestValidateTier(t *testing.T) {
	valid := tier.UpsertTierRequest{Name: "Gold", AnnualPriceCents: 12000, DailyQuota: 2}
	if err := validateTier(&valid); err != nil {
		t.Fatalf("validateTier(valid) = %v", err)
	}

	cases := []struct {
		name string
		req  tier.UpsertTierRequest
	}{
		{"missing name", tier.UpsertTierRequest{DailyQuota: 1}},
		{"negative price", tier.UpsertTierRequest{Name: "x", AnnualPriceCents: -1, DailyQuota: 1}},
		{"zero quota", tier.UpsertTierRequest{Name: "x", DailyQuota: 0}},
		{"premium over 100", tier.UpsertTierRequest{Name: "x", DailyQuota: 1, PremiumOneMonth: 101}},
		{"negative premium", tier.UpsertTierRequest{Name: "x", DailyQuota: 1, PremiumThreeMonth: -5}},
		{"negative duration", tier.UpsertTierRequest{Name: "x", DailyQuota: 1, DurationMonths: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateTier(&tc.req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("validateTier() = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestQuotePrice(t *testing.T) {
	pool := setupTestDB(t)
	testTier := createTestTier(t, pool, 3)
	svc := NewTierService(pool)

	ctx := context.Background()

	price, err := svc.QuotePrice(ctx, testTier.ID, 12)
	if err != nil {
		t.Fatalf("QuotePrice returned error: %v", err)
	}
	if price != testTier.AnnualPriceCents {
		t.Errorf("annual quote = %d, want %d", price, testTier.AnnualPriceCents)
	}

	price, err = svc.QuotePrice(ctx, testTier.ID, 1)
	if err != nil {
		t.Fatalf("QuotePrice returned error: %v", err)
	}
	if price != 1200 {
		t.Errorf("one-month quote = %d, want 1200", price)
	}

	if _, err := svc.QuotePrice(ctx, testTier.ID, 9); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("QuotePrice(9) error = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateTierConfig(t *testing.T) {
	pool := setupTestDB(t)
	testTier := createTestTier(t, pool, 3)
	svc := NewTierService(pool)

	ctx := context.Background()

	updated, err := svc.UpdateTier(ctx, testTier.ID, &tier.UpsertTierRequest{
		Name:               testTier.Name,
		AnnualPriceCents:   24000,
		LifetimePriceCents: testTier.LifetimePriceCents,
		DurationMonths:     testTier.DurationMonths,
		DailyQuota:         5,
		PremiumOneMonth:    15,
		IsActive:           true,
	})
	if err != nil {
		t.Fatalf("UpdateTier returned error: %v", err)
	}
	if updated.AnnualPriceCents != 24000 || updated.DailyQuota != 5 {
		t.Errorf("update not applied: price=%d quota=%d", updated.AnnualPriceCents, updated.DailyQuota)
	}
}
