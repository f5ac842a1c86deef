package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"vipGateAPI/internal/types/membership"
	"vipGateAPI/internal/types/tier"
	"vipGateAPI/internal/venueclock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

var migrateOnce sync.Once

// setupTestDB connects to the test database and makes sure the schema is
// current. Tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	migrateOnce.Do(func() {
		db := stdlib.OpenDB(*pool.Config().ConnConfig)
		defer db.Close()
		if err := goose.SetDialect("postgres"); err != nil {
			t.Fatalf("Failed to set goose dialect: %v", err)
		}
		if err := goose.UpContext(ctx, db, "../migrations"); err != nil {
			t.Fatalf("Failed to run migrations: %v", err)
		}
	})

	t.Cleanup(pool.Close)
	return pool
}

func testClock(t *testing.T) *venueclock.Clock {
	t.Helper()
	clock, err := venueclock.New("UTC")
	if err != nil {
		t.Fatalf("Failed to create venue clock: %v", err)
	}
	return clock
}

// createTestTier inserts a tier and registers cleanup of the tier and every
// membership created under it.
func createTestTier(t *testing.T, pool *pgxpool.Pool, dailyQuota int) *tier.Tier {
	t.Helper()

	svc := NewTierService(pool)
	created, err := svc.CreateTier(context.Background(), &tier.UpsertTierRequest{
		Name:               fmt.Sprintf("test-tier-%s", uuid.New().String()[:8]),
		AnnualPriceCents:   12000,
		LifetimePriceCents: 99000,
		DurationMonths:     12,
		DailyQuota:         dailyQuota,
		PremiumOneMonth:    20,
		PremiumTwoMonth:    10,
		PremiumThreeMonth:  5,
		IsActive:           true,
	})
	if err != nil {
		t.Fatalf("Failed to create test tier: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		pool.Exec(ctx, `DELETE FROM memberships WHERE tier_id = $1`, created.ID)
		pool.Exec(ctx, `DELETE FROM tiers WHERE id = $1`, created.ID)
	})
	return created
}

func newTestServices(t *testing.T, pool *pgxpool.Pool) (*MembershipService, *ScanService, *FulfillmentService) {
	t.Helper()
	clock := testClock(t)
	notifications := NewNotificationService(pool)
	memberships := NewMembershipService(pool, clock, NewTierService(pool), notifications)
	scans := NewScanService(pool, clock)
	cards := NewFulfillmentService(pool, notifications)
	return memberships, scans, cards
}

// createPendingMembership starts a purchase and leaves it awaiting payment.
func createPendingMembership(t *testing.T, svc *MembershipService, tierID uuid.UUID) *membership.Membership {
	t.Helper()

	m, _, err := svc.CreatePurchase(context.Background(), &membership.PurchaseRequest{
		TierID:         tierID.String(),
		HolderName:     "Test Holder",
		HolderEmail:    fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8]),
		DurationMonths: 12,
	})
	if err != nil {
		t.Fatalf("Failed to create test membership: %v", err)
	}
	return m
}

// createActiveMembership is a pending purchase pushed through payment
// completion.
func createActiveMembership(t *testing.T, svc *MembershipService, tierID uuid.UUID) *membership.Membership {
	t.Helper()

	m := createPendingMembership(t, svc, tierID)
	if err := svc.OnPaymentCompleted(context.Background(), m.ID); err != nil {
		t.Fatalf("Failed to complete test payment: %v", err)
	}
	activated, err := svc.GetMembership(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("Failed to reload test membership: %v", err)
	}
	return activated
}

// setExpiration pins a membership's expiration for deterministic date math.
func setExpiration(t *testing.T, pool *pgxpool.Pool, id uuid.UUID, expiration time.Time) {
	t.Helper()
	if _, err := pool.Exec(context.Background(),
		`UPDATE memberships SET expiration = $2 WHERE id = $1`, id, expiration); err != nil {
		t.Fatalf("Failed to set expiration: %v", err)
	}
}
