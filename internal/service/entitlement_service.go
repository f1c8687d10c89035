package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
)

// EntitlementStore is the ledger surface the service needs. Satisfied by
// *repository.EntitlementRepository.
type EntitlementStore interface {
	Get(ctx context.Context, userID string) (models.Entitlement, error)
	Create(ctx context.Context, userID string) error
	ConsumeCredit(ctx context.Context, userID string, slotIndex int) ([models.EnhancementSlots]int, error)
	Upgrade(ctx context.Context, userID string, plan models.PlanType) (models.Entitlement, error)
}

type EntitlementService struct {
	entitlements EntitlementStore
	cfg          *config.AppConfig
	log          zerolog.Logger
}

func NewEntitlementService(entitlements EntitlementStore, cfg *config.AppConfig, log zerolog.Logger) *EntitlementService {
	return &EntitlementService{
		entitlements: entitlements,
		cfg:          cfg,
		log:          log,
	}
}

// isDemo reports whether the user is the env-gated demo fixture. The demo
// account's entitlement is computed, never read from or written to the
// store, and the gate refuses to load in production.
func (s *EntitlementService) isDemo(email string) bool {
	return s.cfg.Demo.Enabled &&
		s.cfg.Demo.Email != "" &&
		strings.EqualFold(email, s.cfg.Demo.Email)
}

func demoEntitlement(userID string) models.Entitlement {
	plan := models.PlanPro
	return models.Entitlement{
		UserID:  userID,
		Premium: true,
		Plan:    &plan,
		Credits: [models.EnhancementSlots]int{999, 999, 999, 999},
	}
}

// CurrentState returns the entitlement for an authenticated user, or nil for
// an anonymous visitor. A missing row is backfilled with the default balance
// so accounts predating the ledger keep working.
func (s *EntitlementService) CurrentState(ctx context.Context, user *models.User) (*models.Entitlement, error) {
	if user == nil {
		return nil, nil
	}
	if s.isDemo(user.Email) {
		ent := demoEntitlement(user.ID)
		return &ent, nil
	}

	ent, err := s.entitlements.Get(ctx, user.ID)
	if errors.Is(err, repository.ErrEntitlementNotFound) {
		if err := s.entitlements.Create(ctx, user.ID); err != nil {
			return nil, err
		}
		ent, err = s.entitlements.Get(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &ent, nil
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// ConsumeCredit atomically spends one regeneration credit for the slot and
// returns the updated array. The credit is consumed on attempt; a failed
// regeneration afterwards does not refund it.
func (s *EntitlementService) ConsumeCredit(ctx context.Context, user models.User, slotIndex int) ([models.EnhancementSlots]int, error) {
	if s.isDemo(user.Email) {
		return demoEntitlement(user.ID).Credits, nil
	}
	return s.entitlements.ConsumeCredit(ctx, user.ID, slotIndex)
}

func (s *EntitlementService) Upgrade(ctx context.Context, user models.User, plan models.PlanType) (models.Entitlement, error) {
	if s.isDemo(user.Email) {
		return demoEntitlement(user.ID), nil
	}
	ent, err := s.entitlements.Upgrade(ctx, user.ID, plan)
	if err != nil {
		return models.Entitlement{}, err
	}
	s.log.Info().Str("user_id", user.ID).Str("plan", string(plan)).Msg("entitlement upgraded")
	return ent, nil
}
