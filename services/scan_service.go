package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vipGateAPI/internal/types/scan"
	"vipGateAPI/internal/venueclock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScanService struct {
	db    *pgxpool.Pool
	clock *venueclock.Clock
}

func NewScanService(db *pgxpool.Pool, clock *venueclock.Clock) *ScanService {
	return &ScanService{db: db, clock: clock}
}

// consumeQuotaQuery is the heart of the scan validator. The day-rollover
// reset and the decrement are folded into one conditional UPDATE: the CASE
// re-fills the quota from the tier when last_reset_date is stale, and the
// WHERE clause only lets the row through while that (possibly refilled) quota
// is positive. Postgres row locking serializes concurrent scans of the same
// membership, and the loser re-evaluates the WHERE against the committed row,
// so quota 1 under two simultaneous scans yields exactly one valid result.
// The WHERE also re-checks payment, active and expiration: a record that
// flips between the initial read and this statement never gets a decrement.
const consumeQuotaQuery = `
UPDATE memberships m
SET remaining_quota = (CASE WHEN m.last_reset_date IS DISTINCT FROM $2::date
		THEN t.daily_quota ELSE m.remaining_quota END) - 1,
	last_reset_date = $2::date,
	updated_at = NOW()
FROM tiers t
WHERE m.id = $1 AND t.id = m.tier_id
	AND m.payment_status = 'completed' AND m.active AND m.expiration >= $3
	AND (CASE WHEN m.last_reset_date IS DISTINCT FROM $2::date
		THEN t.daily_quota ELSE m.remaining_quota END) > 0
RETURNING m.remaining_quota
`

// Validate checks an unauthenticated door scan and, when everything passes,
// atomically consumes one unit of today's quota. Business denials come back
// as classified results; an error return means infrastructure trouble and the
// scanner should just retry.
func (s *ScanService) Validate(ctx context.Context, token, contextLabel string) (*scan.Result, error) {
	return s.ValidateAt(ctx, token, contextLabel, time.Now())
}

// ValidateAt evaluates the scan against an explicit instant, supplied by
// scanners that stamp their own clock.
func (s *ScanService) ValidateAt(ctx context.Context, token, contextLabel string, at time.Time) (*scan.Result, error) {
	if at.IsZero() {
		at = time.Now()
	}
	result, err := s.validateOnce(ctx, token, contextLabel, at)
	if err != nil && isSerializationFailure(err) {
		// Transient lock-order race; one internal retry re-evaluates from
		// current state rather than replaying anything.
		result, err = s.validateOnce(ctx, token, contextLabel, at)
	}
	return result, err
}

func (s *ScanService) validateOnce(ctx context.Context, token, contextLabel string, at time.Time) (*scan.Result, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin scan transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		membershipID  uuid.UUID
		holderName    string
		tierName      string
		paymentStatus string
		active        bool
		expiration    time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT m.id, m.holder_name, t.name, m.payment_status, m.active, m.expiration
		FROM memberships m
		JOIN tiers t ON t.id = m.tier_id
		WHERE m.access_token = $1`, token).
		Scan(&membershipID, &holderName, &tierName, &paymentStatus, &active, &expiration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &scan.Result{Status: scan.StatusInvalid}, nil
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	result := &scan.Result{
		HolderName: holderName,
		TierName:   tierName,
	}

	// Checks short-circuit in a fixed order; only a fully clean record
	// reaches the quota consumption.
	if status, denied := deniedStatus(paymentStatus, active, expiration, at); denied {
		result.Status = status
	} else {
		var remaining int
		err = tx.QueryRow(ctx, consumeQuotaQuery, membershipID, s.clock.DayOf(at), at).Scan(&remaining)
		switch {
		case err == nil:
			result.Status = scan.StatusValid
			result.RemainingQuota = &remaining
		case errors.Is(err, pgx.ErrNoRows):
			// The guarded row didn't match. Usually the quota is exhausted,
			// but the record may also have changed under us since the read;
			// re-classify from current state.
			err = tx.QueryRow(ctx, `
				SELECT payment_status, active, expiration FROM memberships WHERE id = $1`, membershipID).
				Scan(&paymentStatus, &active, &expiration)
			if err != nil {
				return nil, fmt.Errorf("failed to re-read membership: %w", err)
			}
			if status, denied := deniedStatus(paymentStatus, active, expiration, at); denied {
				result.Status = status
			} else {
				result.Status = scan.StatusLimitReached
			}
		default:
			return nil, fmt.Errorf("failed to consume quota: %w", err)
		}
	}

	// The attempt log commits together with the decrement; a scan either
	// fully applies or leaves nothing behind.
	_, err = tx.Exec(ctx, `
		INSERT INTO scan_attempts (id, membership_id, scanned_at, status, context_label)
		VALUES ($1, $2, NOW(), $3, $4)`,
		uuid.New(), membershipID, string(result.Status), contextLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to log scan attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit scan: %w", err)
	}
	return result, nil
}

// History returns the scan log, most recent first, optionally scoped to one
// membership.
func (s *ScanService) History(ctx context.Context, membershipID *uuid.UUID, limit, offset int) ([]*scan.Attempt, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, membership_id, scanned_at, status, context_label
		FROM scan_attempts
		WHERE ($1::uuid IS NULL OR membership_id = $1)
		ORDER BY scanned_at DESC
		LIMIT $2 OFFSET $3`, membershipID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan attempts: %w", err)
	}
	defer rows.Close()

	attempts := []*scan.Attempt{}
	for rows.Next() {
		a := &scan.Attempt{}
		if err := rows.Scan(&a.ID, &a.MembershipID, &a.ScannedAt, &a.Status, &a.Context); err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// deniedStatus classifies an unusable record, in the fixed unpaid, inactive,
// expired order.
func deniedStatus(paymentStatus string, active bool, expiration, at time.Time) (scan.Status, bool) {
	switch {
	case paymentStatus != "completed":
		return scan.StatusUnpaid, true
	case !active:
		return scan.StatusInactive, true
	case expiration.Before(at):
		return scan.StatusExpired, true
	}
	return "", false
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
