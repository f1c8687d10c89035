package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Slydexx/esthetica-app/internal/models"
)

var (
	ErrEntitlementNotFound = errors.New("entitlement not found")

	// ErrNoCredits means the slot's balance is zero; nothing was mutated.
	ErrNoCredits = errors.New("no regeneration credits left")
)

type EntitlementRepository struct {
	pool *pgxpool.Pool
}

func NewEntitlementRepository(pool *pgxpool.Pool) *EntitlementRepository {
	return &EntitlementRepository{pool: pool}
}

func (r *EntitlementRepository) Create(ctx context.Context, userID string) error {
	const query = `
		INSERT INTO entitlements (user_id, premium, plan_type, regen_credits, updated_at)
		VALUES ($1, FALSE, NULL, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	credits := models.DefaultCredits()
	_, err := r.pool.Exec(ctx, query, userID, credits[:])
	return err
}

func (r *EntitlementRepository) Get(ctx context.Context, userID string) (models.Entitlement, error) {
	const query = `
		SELECT user_id, premium, plan_type, regen_credits, updated_at
		FROM entitlements WHERE user_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

// ConsumeCredit performs the check-and-decrement as one conditional UPDATE,
// so two near-simultaneous regeneration requests cannot both spend the same
// credit: the row lock serializes them and the predicate stops the loser.
func (r *EntitlementRepository) ConsumeCredit(ctx context.Context, userID string, slotIndex int) ([models.EnhancementSlots]int, error) {
	var credits [models.EnhancementSlots]int
	if slotIndex < 0 || slotIndex >= models.EnhancementSlots {
		return credits, fmt.Errorf("slot index %d out of range", slotIndex)
	}

	// Postgres arrays are 1-based.
	const query = `
		UPDATE entitlements
		SET regen_credits[$2] = regen_credits[$2] - 1, updated_at = NOW()
		WHERE user_id = $1 AND regen_credits[$2] > 0
		RETURNING regen_credits
	`

	var updated []int
	err := r.pool.QueryRow(ctx, query, userID, slotIndex+1).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, userID); getErr != nil {
				return credits, getErr
			}
			return credits, ErrNoCredits
		}
		return credits, err
	}

	copy(credits[:], updated)
	return credits, nil
}

// Upgrade marks the user premium and resets the credit array to the fixed
// promotional refill. Idempotent: a repeated payment-success event simply
// tops the balance up again.
func (r *EntitlementRepository) Upgrade(ctx context.Context, userID string, plan models.PlanType) (models.Entitlement, error) {
	const query = `
		INSERT INTO entitlements (user_id, premium, plan_type, regen_credits, updated_at)
		VALUES ($1, TRUE, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			premium = TRUE,
			plan_type = EXCLUDED.plan_type,
			regen_credits = EXCLUDED.regen_credits,
			updated_at = NOW()
		RETURNING user_id, premium, plan_type, regen_credits, updated_at
	`
	credits := models.PremiumCredits()
	return r.scanOne(r.pool.QueryRow(ctx, query, userID, plan, credits[:]))
}

func (r *EntitlementRepository) scanOne(row pgx.Row) (models.Entitlement, error) {
	var (
		ent  models.Entitlement
		plan *string
		arr  []int
	)
	if err := row.Scan(&ent.UserID, &ent.Premium, &plan, &arr, &ent.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Entitlement{}, ErrEntitlementNotFound
		}
		return models.Entitlement{}, err
	}
	if plan != nil {
		p := models.PlanType(*plan)
		ent.Plan = &p
	}
	copy(ent.Credits[:], arr)
	return ent, nil
}
