package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/media"
)

// IntakeService normalizes uploaded photos and keeps each session's slot set
// in redis so the intake survives page reloads and the payment redirect.
type IntakeService struct {
	normalizer *media.Normalizer
	cache      *redis.Client
	cfg        *config.AppConfig
	log        zerolog.Logger
}

func NewIntakeService(cache *redis.Client, cfg *config.AppConfig, log zerolog.Logger) *IntakeService {
	return &IntakeService{
		normalizer: media.NewNormalizer(cfg.Intake.MaxDimension, cfg.Intake.JPEGQuality),
		cache:      cache,
		cfg:        cfg,
		log:        log,
	}
}

func intakeKey(sessionKey string) string {
	return fmt.Sprintf("intake:slots:%s", sessionKey)
}

func (s *IntakeService) Slots(ctx context.Context, sessionKey string) (media.SlotSet, error) {
	var slots media.SlotSet
	raw, err := s.cache.Get(ctx, intakeKey(sessionKey)).Bytes()
	if err == redis.Nil {
		return slots, nil
	}
	if err != nil {
		return slots, fmt.Errorf("load slots: %w", err)
	}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return media.SlotSet{}, fmt.Errorf("decode slots: %w", err)
	}
	return slots, nil
}

// Upload normalizes the given files and assigns them to the session's slot
// set. All files are normalized before any slot is touched, so a decode
// failure rejects the upload and leaves the stored set exactly as it was.
func (s *IntakeService) Upload(ctx context.Context, sessionKey string, files [][]byte, target *int) (media.SlotSet, error) {
	if target != nil && (*target < 0 || *target >= media.SlotCount) {
		return media.SlotSet{}, fmt.Errorf("slot index %d out of range", *target)
	}

	normalized := make([]media.NormalizedImage, 0, len(files))
	for _, data := range files {
		img, err := s.normalizer.Normalize(data)
		if err != nil {
			return media.SlotSet{}, err
		}
		normalized = append(normalized, img)
	}

	slots, err := s.Slots(ctx, sessionKey)
	if err != nil {
		return media.SlotSet{}, err
	}

	slots = media.AssignToSlots(slots, normalized, target)
	if err := s.save(ctx, sessionKey, slots); err != nil {
		return media.SlotSet{}, err
	}
	return slots, nil
}

func (s *IntakeService) Remove(ctx context.Context, sessionKey string, index int) (media.SlotSet, error) {
	if index < 0 || index >= media.SlotCount {
		return media.SlotSet{}, fmt.Errorf("slot index %d out of range", index)
	}

	slots, err := s.Slots(ctx, sessionKey)
	if err != nil {
		return media.SlotSet{}, err
	}

	slots = media.RemoveSlot(slots, index)
	if err := s.save(ctx, sessionKey, slots); err != nil {
		return media.SlotSet{}, err
	}
	return slots, nil
}

// Adopt carries an anonymous visitor's slot set over to their account key
// after sign-in, so photos uploaded before registering stay analyzable.
// Slots already stored under the account win; the anonymous set only fills
// the gaps, then its key is dropped.
func (s *IntakeService) Adopt(ctx context.Context, clientSession, userID string) error {
	if clientSession == "" || clientSession == userID {
		return nil
	}

	anon, err := s.Slots(ctx, clientSession)
	if err != nil {
		return err
	}
	if anon.Filled() == 0 {
		return nil
	}

	owned, err := s.Slots(ctx, userID)
	if err != nil {
		return err
	}

	merged := media.MergeSlots(owned, anon)
	if merged != owned {
		if err := s.save(ctx, userID, merged); err != nil {
			return err
		}
	}
	return s.Clear(ctx, clientSession)
}

func (s *IntakeService) Clear(ctx context.Context, sessionKey string) error {
	return s.cache.Del(ctx, intakeKey(sessionKey)).Err()
}

func (s *IntakeService) save(ctx context.Context, sessionKey string, slots media.SlotSet) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}
	if err := s.cache.Set(ctx, intakeKey(sessionKey), raw, s.cfg.Intake.SlotTTL).Err(); err != nil {
		return fmt.Errorf("store slots: %w", err)
	}
	return nil
}
