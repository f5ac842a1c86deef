package services

import (
	"context"
	"errors"
	"fmt"

	"vipGateAPI/internal/pricing"
	"vipGateAPI/internal/types/tier"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TierService struct {
	db *pgxpool.Pool
}

func NewTierService(db *pgxpool.Pool) *TierService {
	return &TierService{db: db}
}

const tierColumns = `id, name, annual_price_cents, lifetime_price_cents, duration_months,
	daily_quota, multi_user, premium_1_month, premium_2_month, premium_3_month,
	display_order, is_active, created_at, updated_at`

func scanTier(row pgx.Row) (*tier.Tier, error) {
	t := &tier.Tier{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.AnnualPriceCents,
		&t.LifetimePriceCents,
		&t.DurationMonths,
		&t.DailyQuota,
		&t.MultiUser,
		&t.PremiumOneMonth,
		&t.PremiumTwoMonth,
		&t.PremiumThreeMonth,
		&t.DisplayOrder,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TierService) ListTiers(ctx context.Context, includeInactive bool) ([]*tier.Tier, error) {
	query := `SELECT ` + tierColumns + ` FROM tiers`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY display_order, name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	tiers := []*tier.Tier{}
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (s *TierService) GetTier(ctx context.Context, id uuid.UUID) (*tier.Tier, error) {
	t, err := scanTier(s.db.QueryRow(ctx, `SELECT `+tierColumns+` FROM tiers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return t, nil
}

func (s *TierService) CreateTier(ctx context.Context, req *tier.UpsertTierRequest) (*tier.Tier, error) {
	if err := validateTier(req); err != nil {
		return nil, err
	}

	query := `
	INSERT INTO tiers (id, name, annual_price_cents, lifetime_price_cents, duration_months,
		daily_quota, multi_user, premium_1_month, premium_2_month, premium_3_month,
		display_order, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	RETURNING ` + tierColumns

	t, err := scanTier(s.db.QueryRow(ctx, query,
		uuid.New(),
		req.Name,
		req.AnnualPriceCents,
		req.LifetimePriceCents,
		req.DurationMonths,
		req.DailyQuota,
		req.MultiUser,
		req.PremiumOneMonth,
		req.PremiumTwoMonth,
		req.PremiumThreeMonth,
		req.DisplayOrder,
		req.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create tier: %w", err)
	}
	return t, nil
}

func (s *TierService) UpdateTier(ctx context.Context, id uuid.UUID, req *tier.UpsertTierRequest) (*tier.Tier, error) {
	if err := validateTier(req); err != nil {
		return nil, err
	}

	query := `
	UPDATE tiers
	SET name = $2, annual_price_cents = $3, lifetime_price_cents = $4, duration_months = $5,
		daily_quota = $6, multi_user = $7, premium_1_month = $8, premium_2_month = $9,
		premium_3_month = $10, display_order = $11, is_active = $12, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + tierColumns

	t, err := scanTier(s.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.AnnualPriceCents,
		req.LifetimePriceCents,
		req.DurationMonths,
		req.DailyQuota,
		req.MultiUser,
		req.PremiumOneMonth,
		req.PremiumTwoMonth,
		req.PremiumThreeMonth,
		req.DisplayOrder,
		req.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}
	return t, nil
}

// QuotePrice computes the price of a membership of the given duration.
func (s *TierService) QuotePrice(ctx context.Context, tierID uuid.UUID, months int) (int64, error) {
	t, err := s.GetTier(ctx, tierID)
	if err != nil {
		return 0, err
	}
	price, err := pricing.ComputePrice(t, months)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return price, nil
}

func validateTier(req *tier.UpsertTierRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: tier name is required", ErrInvalidInput)
	}
	if req.AnnualPriceCents < 0 || req.LifetimePriceCents < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidInput)
	}
	if req.DailyQuota < 1 {
		return fmt.Errorf("%w: daily quota must be at least 1", ErrInvalidInput)
	}
	if req.DurationMonths < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	for _, p := range []int{req.PremiumOneMonth, req.PremiumTwoMonth, req.PremiumThreeMonth} {
		if p < 0 || p > 100 {
			return fmt.Errorf("%w: premiums must be between 0 and 100", ErrInvalidInput)
		}
	}
	return nil
}
