package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vipGateAPI/internal/types/membership"
	"vipGateAPI/utils"
)

func TestPurchaseStartsPending(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)

	ctx := context.Background()

	m, price, err := memberships.CreatePurchase(ctx, &membership.PurchaseRequest{
		TierID:         testTier.ID.String(),
		HolderName:     "Ana Petrova",
		HolderEmail:    "ana@example.com",
		DurationMonths: 1,
	})
	if err != nil {
		t.Fatalf("CreatePurchase returned error: %v", err)
	}
	t.Cleanup(func() { pool.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, m.ID) })

	// 12000/12 * 1 * 1.20
	if price != 1200 {
		t.Errorf("price = %d, want 1200", price)
	}
	if m.PaymentStatus != membership.PaymentPending {
		t.Errorf("payment status = %s, want pending", m.PaymentStatus)
	}
	if m.Status != membership.StatusPending {
		t.Errorf("derived status = %s, want pending", m.Status)
	}
	if m.RemainingQuota != 0 {
		t.Errorf("remaining quota = %d, want uninitialized 0", m.RemainingQuota)
	}
	if len(m.AccessToken) != utils.AccessTokenLength {
		t.Errorf("token length = %d, want %d", len(m.AccessToken), utils.AccessTokenLength)
	}
}

func TestPurchaseRejectsBadInput(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)

	ctx := context.Background()

	cases := []membership.PurchaseRequest{
		{TierID: testTier.ID.String(), HolderEmail: "a@b.c", DurationMonths: 12},
		{TierID: testTier.ID.String(), HolderName: "A", DurationMonths: 12},
		{TierID: testTier.ID.String(), HolderName: "A", HolderEmail: "a@b.c", DurationMonths: 7},
		{TierID: "not-a-uuid", HolderName: "A", HolderEmail: "a@b.c", DurationMonths: 12},
	}
	for i, req := range cases {
		if _, _, err := memberships.CreatePurchase(ctx, &req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: error = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestPaymentCompletionActivatesOnce(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)
	m := createPendingMembership(t, memberships, testTier.ID)

	ctx := context.Background()

	if err := memberships.OnPaymentCompleted(ctx, m.ID); err != nil {
		t.Fatalf("OnPaymentCompleted returned error: %v", err)
	}

	activated, err := memberships.GetMembership(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMembership returned error: %v", err)
	}
	if activated.PaymentStatus != membership.PaymentCompleted {
		t.Errorf("payment status = %s, want completed", activated.PaymentStatus)
	}
	if !activated.Active {
		t.Error("membership not active after payment")
	}
	if activated.RemainingQuota != testTier.DailyQuota {
		t.Errorf("remaining quota = %d, want %d", activated.RemainingQuota, testTier.DailyQuota)
	}
	if !activated.Expiration.After(time.Now().AddDate(0, 11, 0)) {
		t.Errorf("expiration = %v, want roughly a year out", activated.Expiration)
	}

	// Duplicate processor delivery must not touch anything.
	if err := memberships.OnPaymentCompleted(ctx, m.ID); err != nil {
		t.Fatalf("duplicate OnPaymentCompleted returned error: %v", err)
	}
	reloaded, err := memberships.GetMembership(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMembership returned error: %v", err)
	}
	if !reloaded.Expiration.Equal(activated.Expiration) {
		t.Errorf("duplicate completion moved expiration from %v to %v", activated.Expiration, reloaded.Expiration)
	}
}

func TestPaymentCancellationDeletesPendingOnly(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)

	ctx := context.Background()

	pending := createPendingMembership(t, memberships, testTier.ID)
	if err := memberships.OnPaymentCancelled(ctx, pending.ID); err != nil {
		t.Fatalf("OnPaymentCancelled returned error: %v", err)
	}
	if _, err := memberships.GetMembership(ctx, pending.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("pending record still present after cancellation, err = %v", err)
	}

	// Duplicate cancellation of an already-deleted record is a no-op.
	if err := memberships.OnPaymentCancelled(ctx, pending.ID); err != nil {
		t.Errorf("duplicate OnPaymentCancelled returned error: %v", err)
	}

	// A completed membership is never purged by a stray cancellation.
	active := createActiveMembership(t, memberships, testTier.ID)
	if err := memberships.OnPaymentCancelled(ctx, active.ID); err != nil {
		t.Fatalf("OnPaymentCancelled returned error: %v", err)
	}
	if _, err := memberships.GetMembership(ctx, active.ID); err != nil {
		t.Errorf("completed membership disappeared after cancellation signal: %v", err)
	}
}

func TestExtendActiveMembershipAddsToExpiration(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)
	m := createActiveMembership(t, memberships, testTier.ID)

	ctx := context.Background()

	pinned := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	setExpiration(t, pool, m.ID, pinned)

	// Burn a bit of quota so we can see it is left alone mid-cycle.
	_, err := pool.Exec(ctx, `UPDATE memberships SET remaining_quota = 1 WHERE id = $1`, m.ID)
	if err != nil {
		t.Fatalf("Failed to adjust quota: %v", err)
	}

	extended, err := memberships.Extend(ctx, m.ID, 2)
	if err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}

	want := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	if !extended.Expiration.Equal(want) {
		t.Errorf("expiration = %v, want %v", extended.Expiration, want)
	}
	if extended.RemainingQuota != 1 {
		t.Errorf("mid-cycle renewal reset quota to %d, want untouched 1", extended.RemainingQuota)
	}
}

func TestExtendExpiredMembershipRebasesFromNow(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)
	m := createActiveMembership(t, memberships, testTier.ID)

	ctx := context.Background()

	setExpiration(t, pool, m.ID, time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC))
	if _, err := pool.Exec(ctx, `UPDATE memberships SET remaining_quota = 0 WHERE id = $1`, m.ID); err != nil {
		t.Fatalf("Failed to drain quota: %v", err)
	}

	extended, err := memberships.Extend(ctx, m.ID, 2)
	if err != nil {
		t.Fatalf("Extend returned error: %v", err)
	}

	// Rebased from now, not from the long-gone expiration. Calendar-month
	// arithmetic can clamp at month ends, so allow a loose window.
	lo := time.Now().AddDate(0, 0, 55)
	hi := time.Now().AddDate(0, 0, 63)
	if extended.Expiration.Before(lo) || extended.Expiration.After(hi) {
		t.Errorf("expiration = %v, want about two months from now", extended.Expiration)
	}
	if !extended.Active {
		t.Error("renewal did not reactivate membership")
	}
	if extended.RemainingQuota != testTier.DailyQuota {
		t.Errorf("remaining quota = %d, want refilled %d", extended.RemainingQuota, testTier.DailyQuota)
	}
}

func TestResetQuota(t *testing.T) {
	pool := setupTestDB(t)
	memberships, scans, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)
	m := createActiveMembership(t, memberships, testTier.ID)

	ctx := context.Background()

	if _, err := scans.Validate(ctx, m.AccessToken, ""); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	affected, err := memberships.ResetQuota(ctx, &m.ID)
	if err != nil {
		t.Fatalf("ResetQuota returned error: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}

	reloaded, err := memberships.GetMembership(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMembership returned error: %v", err)
	}
	if reloaded.RemainingQuota != testTier.DailyQuota {
		t.Errorf("remaining quota = %d, want %d", reloaded.RemainingQuota, testTier.DailyQuota)
	}

	// Mass reset covers at least this record and is idempotent.
	affected, err = memberships.ResetQuota(ctx, nil)
	if err != nil {
		t.Fatalf("ResetQuota(ALL) returned error: %v", err)
	}
	if affected < 1 {
		t.Errorf("mass reset affected = %d, want >= 1", affected)
	}
}

func TestListMembershipsFilters(t *testing.T) {
	pool := setupTestDB(t)
	memberships, _, _ := newTestServices(t, pool)
	testTier := createTestTier(t, pool, 3)

	ctx := context.Background()

	pending := createPendingMembership(t, memberships, testTier.ID)
	active := createActiveMembership(t, memberships, testTier.ID)

	all, err := memberships.ListMemberships(ctx, &testTier.ID, "")
	if err != nil {
		t.Fatalf("ListMemberships returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list length = %d, want 2", len(all))
	}

	pendingOnly, err := memberships.ListMemberships(ctx, &testTier.ID, membership.StatusPending)
	if err != nil {
		t.Fatalf("ListMemberships returned error: %v", err)
	}
	if len(pendingOnly) != 1 || pendingOnly[0].ID != pending.ID {
		t.Errorf("pending filter returned %d rows, want just the pending record", len(pendingOnly))
	}

	activeOnly, err := memberships.ListMemberships(ctx, &testTier.ID, membership.StatusActive)
	if err != nil {
		t.Fatalf("ListMemberships returned error: %v", err)
	}
	if len(activeOnly) != 1 || activeOnly[0].ID != active.ID {
		t.Errorf("active filter returned %d rows, want just the active record", len(activeOnly))
	}
}
