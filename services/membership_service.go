package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"vipGateAPI/internal/pricing"
	"vipGateAPI/internal/types/membership"
	"vipGateAPI/internal/types/notification"
	"vipGateAPI/internal/venueclock"
	"vipGateAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"
)

type MembershipService struct {
	db            *pgxpool.Pool
	clock         *venueclock.Clock
	tiers         *TierService
	notifications *NotificationService
}

func NewMembershipService(db *pgxpool.Pool, clock *venueclock.Clock, tiers *TierService, notifications *NotificationService) *MembershipService {
	return &MembershipService{
		db:            db,
		clock:         clock,
		tiers:         tiers,
		notifications: notifications,
	}
}

const membershipColumns = `m.id, m.tier_id, t.name, m.holder_name, m.holder_email, m.holder_phone,
	m.access_token, m.duration_months, m.purchased_at, m.expiration, m.remaining_quota,
	m.last_reset_date, m.active, m.payment_status, m.created_at, m.updated_at`

func scanMembership(row pgx.Row) (*membership.Membership, error) {
	m := &membership.Membership{}
	err := row.Scan(
		&m.ID,
		&m.TierID,
		&m.TierName,
		&m.HolderName,
		&m.HolderEmail,
		&m.HolderPhone,
		&m.AccessToken,
		&m.DurationMonths,
		&m.PurchasedAt,
		&m.Expiration,
		&m.RemainingQuota,
		&m.LastResetDate,
		&m.Active,
		&m.PaymentStatus,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = m.DeriveStatus(time.Now())
	return m, nil
}

// CreatePurchase inserts a pending membership at checkout initiation. The
// quota stays uninitialized until the payment processor confirms; the quoted
// price is returned so the checkout UI can hand it to the processor.
func (s *MembershipService) CreatePurchase(ctx context.Context, req *membership.PurchaseRequest) (*membership.Membership, int64, error) {
	if strings.TrimSpace(req.HolderName) == "" {
		return nil, 0, fmt.Errorf("%w: holder name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.HolderEmail) == "" {
		return nil, 0, fmt.Errorf("%w: holder email is required", ErrInvalidInput)
	}
	if !pricing.ValidDuration(req.DurationMonths) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidInput, pricing.ErrInvalidDuration)
	}

	tierID, err := uuid.Parse(req.TierID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid tier id", ErrInvalidInput)
	}

	t, err := s.tiers.GetTier(ctx, tierID)
	if err != nil {
		return nil, 0, err
	}
	if !t.IsActive {
		return nil, 0, fmt.Errorf("%w: tier is not open for purchase", ErrInvalidInput)
	}

	price, err := pricing.ComputePrice(t, req.DurationMonths)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	query := `
	INSERT INTO memberships (id, tier_id, holder_name, holder_email, holder_phone,
		access_token, duration_months, purchased_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), NOW())
	`

	// Token collisions are astronomically unlikely, but the unique index is
	// authoritative; regenerate once if it ever fires.
	var m *membership.Membership
	for attempt := 0; attempt < 2; attempt++ {
		token, err := utils.NewAccessToken()
		if err != nil {
			return nil, 0, err
		}
		id := uuid.New()
		_, err = s.db.Exec(ctx, query, id, t.ID, strings.TrimSpace(req.HolderName),
			strings.TrimSpace(req.HolderEmail), strings.TrimSpace(req.HolderPhone),
			token, req.DurationMonths)
		if err != nil {
			if isUniqueViolation(err) && attempt == 0 {
				continue
			}
			return nil, 0, fmt.Errorf("failed to create membership: %w", err)
		}
		m, err = s.GetMembership(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		break
	}
	return m, price, nil
}

func (s *MembershipService) GetMembership(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships m JOIN tiers t ON t.id = m.tier_id WHERE m.id = $1`
	m, err := scanMembership(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// ListMemberships filters by tier and by derived status. The status filter is
// applied in Go through DeriveStatus so listings always agree with the single
// classification rule.
func (s *MembershipService) ListMemberships(ctx context.Context, tierID *uuid.UUID, status string) ([]*membership.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships m JOIN tiers t ON t.id = m.tier_id
	WHERE ($1::uuid IS NULL OR m.tier_id = $1)
	ORDER BY m.created_at DESC`

	rows, err := s.db.Query(ctx, query, tierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*membership.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if status != "" && m.Status != status {
			continue
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

// OnPaymentCompleted activates a pending membership: payment completed,
// active, expiration clock started, quota filled for today. Guarded by the
// pending check so duplicate processor signals are no-ops.
func (s *MembershipService) OnPaymentCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
	UPDATE memberships m
	SET payment_status = 'completed',
		active = TRUE,
		expiration = CASE WHEN m.duration_months = 0
			THEN NOW() + make_interval(years => 100)
			ELSE NOW() + make_interval(months => m.duration_months) END,
		remaining_quota = t.daily_quota,
		last_reset_date = $2,
		updated_at = NOW()
	FROM tiers t
	WHERE m.id = $1 AND t.id = m.tier_id AND m.payment_status = 'pending'
	RETURNING m.holder_name
	`

	var holderName string
	err := s.db.QueryRow(ctx, query, id, s.clock.Today()).Scan(&holderName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already completed (duplicate signal) or unknown.
			var status string
			err := s.db.QueryRow(ctx, `SELECT payment_status FROM memberships WHERE id = $1`, id).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to check membership: %w", err)
			}
			log.Printf("Payment completion for membership %s ignored, status already %s", id, status)
			return nil
		}
		return fmt.Errorf("failed to activate membership: %w", err)
	}

	s.notifications.Record(ctx, id, notification.KindMembershipConfirmed,
		"Membership confirmed",
		fmt.Sprintf("Welcome %s, your VIP membership is now active.", holderName))
	return nil
}

// OnPaymentCancelled purges an abandoned pending purchase. Completed records
// and already-deleted records are left alone, so duplicate or late
// cancellation deliveries are harmless.
func (s *MembershipService) OnPaymentCancelled(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM memberships WHERE id = $1 AND payment_status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Printf("Payment cancellation for membership %s ignored, no pending record", id)
	}
	return nil
}

// Extend pushes the expiration out by whole calendar months from the later of
// the current expiration and now, reactivating the record. The whole
// computation runs inside one UPDATE so two concurrent renewals compose
// additively instead of one clobbering the other. Quota is reinitialized only
// when the membership was expired or deactivated at that moment; a mid-cycle
// renewal leaves today's quota alone.
func (s *MembershipService) Extend(ctx context.Context, id uuid.UUID, months int) (*membership.Membership, error) {
	if months < 1 {
		return nil, fmt.Errorf("%w: extension must be at least one month", ErrInvalidInput)
	}

	query := `
	UPDATE memberships m
	SET expiration = GREATEST(m.expiration, NOW()) + make_interval(months => $2),
		remaining_quota = CASE WHEN m.expiration < NOW() OR NOT m.active
			THEN t.daily_quota ELSE m.remaining_quota END,
		last_reset_date = CASE WHEN m.expiration < NOW() OR NOT m.active
			THEN $3::date ELSE m.last_reset_date END,
		active = TRUE,
		updated_at = NOW()
	FROM tiers t
	WHERE m.id = $1 AND t.id = m.tier_id AND m.payment_status = 'completed'
	RETURNING ` + membershipColumns

	m, err := scanMembership(s.db.QueryRow(ctx, query, id, months, s.clock.Today()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to extend membership: %w", err)
	}
	return m, nil
}

// SetActive is the reversible admin deactivation toggle.
func (s *MembershipService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*membership.Membership, error) {
	query := `
	UPDATE memberships m
	SET active = $2, updated_at = NOW()
	FROM tiers t
	WHERE m.id = $1 AND t.id = m.tier_id
	RETURNING ` + membershipColumns

	m, err := scanMembership(s.db.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	return m, nil
}

// ResetQuota tops the daily quota back up for one membership, or for all of
// them when target is nil. Idempotent; re-running mid-day is an intentional
// administrative override on top of the automatic midnight reset.
func (s *MembershipService) ResetQuota(ctx context.Context, target *uuid.UUID) (int64, error) {
	query := `
	UPDATE memberships m
	SET remaining_quota = t.daily_quota, last_reset_date = $1, updated_at = NOW()
	FROM tiers t
	WHERE t.id = m.tier_id AND ($2::uuid IS NULL OR m.id = $2)
	`

	tag, err := s.db.Exec(ctx, query, s.clock.Today(), target)
	if err != nil {
		return 0, fmt.Errorf("failed to reset quota: %w", err)
	}
	if target != nil && tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// DeleteMembership removes a record entirely, along with its scan history and
// card requests (cascade).
func (s *MembershipService) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// QRCodePNG renders the membership's access token as the QR image printed on
// the digital card.
func (s *MembershipService) QRCodePNG(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var token string
	err := s.db.QueryRow(ctx, `SELECT access_token FROM memberships WHERE id = $1`, id).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get membership token: %w", err)
	}

	pngBytes, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}
	return pngBytes, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
