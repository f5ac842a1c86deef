package services

import (
	"context"
	"log"

	"vipGateAPI/internal/types/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PushProvider is the outbound delivery hook (email, push). Delivery is owned
// by the external dispatcher; the core only records and hands off.
type PushProvider interface {
	Push(ctx context.Context, n *notification.Notification) error
}

type NotificationService struct {
	db       *pgxpool.Pool
	provider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.provider = p
}

// Record stores a state-change notice and forwards it to the provider when
// one is configured. Delivery failures are logged, never surfaced: the state
// change that triggered the notice has already committed.
func (s *NotificationService) Record(ctx context.Context, membershipID uuid.UUID, kind, title, body string) {
	n := &notification.Notification{
		ID:           uuid.New(),
		MembershipID: membershipID,
		Kind:         kind,
		Title:        title,
		Body:         body,
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, membership_id, kind, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		n.ID, n.MembershipID, n.Kind, n.Title, n.Body).Scan(&n.CreatedAt)
	if err != nil {
		log.Printf("Failed to record %s notification for membership %s: %v", kind, membershipID, err)
		return
	}

	if s.provider != nil {
		if err := s.provider.Push(ctx, n); err != nil {
			log.Printf("Push provider failed for notification %s: %v", n.ID, err)
		}
	}
}

// ListForMembership returns recorded notices, newest first.
func (s *NotificationService) ListForMembership(ctx context.Context, membershipID uuid.UUID, limit int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, membership_id, kind, title, body, created_at
		FROM notifications
		WHERE membership_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, membershipID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.MembershipID, &n.Kind, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
