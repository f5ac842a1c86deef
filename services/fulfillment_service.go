package services

import (
	"context"
	"errors"
	"fmt"

	"vipGateAPI/internal/types/fulfillment"
	"vipGateAPI/internal/types/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FulfillmentService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewFulfillmentService(db *pgxpool.Pool, notifications *NotificationService) *FulfillmentService {
	return &FulfillmentService{db: db, notifications: notifications}
}

const cardRequestColumns = `id, membership_id, requested_by, state, requested_at, ready_at, picked_up_at`

func scanCardRequest(row pgx.Row) (*fulfillment.Request, error) {
	r := &fulfillment.Request{}
	err := row.Scan(&r.ID, &r.MembershipID, &r.RequestedBy, &r.State, &r.RequestedAt, &r.ReadyAt, &r.PickedUpAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RequestCard opens a fulfillment request. The partial unique index on open
// requests is the authority: a second request before pickup comes back as a
// conflict.
func (s *FulfillmentService) RequestCard(ctx context.Context, membershipID uuid.UUID, requestedBy string) (*fulfillment.Request, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM memberships WHERE id = $1)`, membershipID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := `
	INSERT INTO card_requests (id, membership_id, requested_by, state, requested_at)
	VALUES ($1, $2, $3, 'requested', NOW())
	RETURNING ` + cardRequestColumns

	r, err := scanCardRequest(s.db.QueryRow(ctx, query, uuid.New(), membershipID, requestedBy))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: an open card request already exists for this membership", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create card request: %w", err)
	}
	return r, nil
}

// MarkReady moves requested -> ready. A duplicate staff tap on an already
// ready request is a no-op; a picked-up request cannot go back.
func (s *FulfillmentService) MarkReady(ctx context.Context, requestID uuid.UUID) (*fulfillment.Request, error) {
	query := `
	UPDATE card_requests
	SET state = 'ready', ready_at = NOW()
	WHERE id = $1 AND state = 'requested'
	RETURNING ` + cardRequestColumns

	r, err := scanCardRequest(s.db.QueryRow(ctx, query, requestID))
	if err == nil {
		s.notifications.Record(ctx, r.MembershipID, notification.KindCardReady,
			"Your card is ready", "Your physical VIP card is ready for pickup at the venue.")
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark card ready: %w", err)
	}
	return s.resolveNoTransition(ctx, requestID, fulfillment.StateReady)
}

// MarkPickedUp moves ready -> picked_up, closing the request. Duplicate taps
// are no-ops; skipping straight from requested is a conflict.
func (s *FulfillmentService) MarkPickedUp(ctx context.Context, requestID uuid.UUID) (*fulfillment.Request, error) {
	query := `
	UPDATE card_requests
	SET state = 'picked_up', picked_up_at = NOW()
	WHERE id = $1 AND state = 'ready'
	RETURNING ` + cardRequestColumns

	r, err := scanCardRequest(s.db.QueryRow(ctx, query, requestID))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark card picked up: %w", err)
	}
	return s.resolveNoTransition(ctx, requestID, fulfillment.StatePickedUp)
}

// resolveNoTransition decides why a guarded transition matched nothing:
// missing row, duplicate tap (already in the target state), or an attempt to
// skip or rewind the linear state machine.
func (s *FulfillmentService) resolveNoTransition(ctx context.Context, requestID uuid.UUID, target string) (*fulfillment.Request, error) {
	r, err := scanCardRequest(s.db.QueryRow(ctx,
		`SELECT `+cardRequestColumns+` FROM card_requests WHERE id = $1`, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load card request: %w", err)
	}
	if r.State == target {
		return r, nil
	}
	return nil, fmt.Errorf("%w: card request is %s, cannot move to %s", ErrConflict, r.State, target)
}

func (s *FulfillmentService) ListRequests(ctx context.Context, state string) ([]*fulfillment.Request, error) {
	query := `SELECT ` + cardRequestColumns + ` FROM card_requests
	WHERE ($1 = '' OR state = $1)
	ORDER BY requested_at DESC`

	rows, err := s.db.Query(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list card requests: %w", err)
	}
	defer rows.Close()

	requests := []*fulfillment.Request{}
	for rows.Next() {
		r, err := scanCardRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
