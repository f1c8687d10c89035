package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/gemini"
	"github.com/Slydexx/esthetica-app/internal/ids"
	"github.com/Slydexx/esthetica-app/internal/media"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/visagism"
)

var (
	// ErrIncompleteInput means fewer than three photo slots were filled at
	// submit time. Callers check this before invoking the orchestrator.
	ErrIncompleteInput = errors.New("all three photo slots must be filled")

	ErrNoArtifact = errors.New("no analysis artifact available")
)

// lastAnalysisKeyPrefix is the continuity cache: the artifact stored here
// survives the redirect to the external payment page. Best effort only; the
// entitlement store stays authoritative.
const lastAnalysisKeyPrefix = "esthetica_last_analysis"

// ProgressFunc receives a user-visible message before each remote step.
type ProgressFunc func(message string)

type AnalysisService struct {
	gemini   *gemini.Client
	analyses *repository.AnalysisRepository
	cache    *redis.Client
	cfg      *config.AppConfig
	log      zerolog.Logger
	retry    retryPolicy
}

func NewAnalysisService(
	geminiClient *gemini.Client,
	analyses *repository.AnalysisRepository,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		gemini:   geminiClient,
		analyses: analyses,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		retry: retryPolicy{
			Attempts: cfg.Analysis.RetryAttempts,
			Backoff:  cfg.Analysis.RetryBackoff,
		},
	}
}

// Run drives the three-step analysis workflow: structured textual analysis,
// diagnostic overlay, then the four enhancement renders in order. Steps are
// strictly sequential; progress messages are positionally meaningful and a
// later step's cost is never incurred after an earlier failure.
func (s *AnalysisService) Run(
	ctx context.Context,
	slots media.SlotSet,
	attrs models.UserAttributes,
	locale models.Locale,
	onProgress ProgressFunc,
) (models.AnalysisArtifact, error) {
	if !slots.Complete() {
		return models.AnalysisArtifact{}, ErrIncompleteInput
	}
	if err := attrs.Validate(); err != nil {
		return models.AnalysisArtifact{}, err
	}
	if onProgress == nil {
		onProgress = func(string) {}
	}

	onProgress("analyzing facial features")

	var analysis gemini.VisagismAnalysis
	instructions := visagism.AnalysisInstructions(attrs, locale)
	err := s.retry.run(ctx, func() error {
		var opErr error
		analysis, opErr = s.gemini.AnalyzeFaces(ctx, slots[:], instructions)
		return opErr
	})
	if err != nil {
		return models.AnalysisArtifact{}, fmt.Errorf("analysis step: %w", err)
	}

	prompts := padEditInstructions(analysis.ImageEditingPrompts)

	onProgress("rendering diagnostic blueprint")

	front := slots[media.SlotFront]
	diagnostic := front
	err = s.retry.run(ctx, func() error {
		generated, opErr := s.gemini.EditImage(ctx, front, visagism.DiagnosticPrompt)
		if opErr != nil {
			return opErr
		}
		// No payload is not a failure here: the run degrades to showing
		// the unmarked source photo.
		if !generated.Empty() {
			diagnostic = generated
		}
		return nil
	})
	if err != nil {
		return models.AnalysisArtifact{}, fmt.Errorf("diagnostic step: %w", err)
	}

	enhanced := make([]models.EnhancedImage, 0, len(prompts))
	for i, instruction := range prompts {
		onProgress(fmt.Sprintf("rendering image %d of %d", i+1, len(prompts)))

		original := slots[visagism.EnhancementSources[i]]
		prompt := visagism.EnhancementPrompt(instruction.Prompt, i)

		result := original
		err = s.retry.run(ctx, func() error {
			generated, opErr := s.gemini.EditImage(ctx, original, prompt)
			if opErr != nil {
				return opErr
			}
			if !generated.Empty() {
				result = generated
			}
			return nil
		})
		if err != nil {
			return models.AnalysisArtifact{}, fmt.Errorf("enhancement %d: %w", i+1, err)
		}

		enhanced = append(enhanced, models.EnhancedImage{
			Original:  string(original),
			Generated: string(result),
			Prompt:    instruction.Prompt,
			Changes:   instruction.Changes,
		})
	}

	onProgress("finalizing your results")

	return models.AnalysisArtifact{
		ID:              ids.New(),
		Summary:         analysis.Summary,
		DiagnosticImage: string(diagnostic),
		Recommendations: analysis.Recommendations,
		EnhancedImages:  enhanced,
		Locale:          locale,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// padEditInstructions enforces the exactly-four contract. Fewer than four
// entries are padded by duplicating the last one; extras are dropped.
func padEditInstructions(prompts []gemini.EditInstruction) []gemini.EditInstruction {
	out := make([]gemini.EditInstruction, 0, models.EnhancementSlots)
	out = append(out, prompts...)
	for len(out) > 0 && len(out) < models.EnhancementSlots {
		out = append(out, out[len(out)-1])
	}
	if len(out) > models.EnhancementSlots {
		out = out[:models.EnhancementSlots]
	}
	return out
}

// Store persists a completed run: the artifact goes to the continuity cache,
// a metadata row to postgres, and an archive task onto the worker stream.
func (s *AnalysisService) Store(ctx context.Context, userID string, artifact models.AnalysisArtifact) error {
	artifact.UserID = userID

	if err := s.saveArtifact(ctx, userID, artifact); err != nil {
		return err
	}

	record := models.AnalysisRecord{
		ID:      artifact.ID,
		UserID:  userID,
		Summary: artifact.Summary,
		Locale:  artifact.Locale,
		Status:  models.AnalysisStatusCompleted,
	}
	if err := s.analyses.Create(ctx, record); err != nil {
		return fmt.Errorf("save analysis record: %w", err)
	}

	if err := s.enqueueArchive(ctx, artifact.ID, userID); err != nil {
		s.log.Warn().Err(err).Str("analysis_id", artifact.ID).Msg("enqueue archive failed")
	}
	return nil
}

// Regenerate produces a replacement for one enhancement slot of the cached
// artifact. The caller must have consumed a credit first; this never issues
// a billing-relevant call on its own.
func (s *AnalysisService) Regenerate(ctx context.Context, userID string, slotIndex int) (models.AnalysisArtifact, error) {
	artifact, err := s.LoadLast(ctx, userID)
	if err != nil {
		return models.AnalysisArtifact{}, err
	}
	if slotIndex < 0 || slotIndex >= len(artifact.EnhancedImages) {
		return models.AnalysisArtifact{}, fmt.Errorf("enhancement slot %d out of range", slotIndex)
	}

	item := artifact.EnhancedImages[slotIndex]
	variation := visagism.VariationPrompt(item.Prompt)
	prompt := visagism.EnhancementPrompt(variation, slotIndex)

	var generated media.NormalizedImage
	err = s.retry.run(ctx, func() error {
		result, opErr := s.gemini.EditImage(ctx, media.NormalizedImage(item.Original), prompt)
		if opErr != nil {
			return opErr
		}
		if result.Empty() {
			return errors.New("no image payload in response")
		}
		generated = result
		return nil
	})
	if err != nil {
		return models.AnalysisArtifact{}, fmt.Errorf("regenerate slot %d: %w", slotIndex, err)
	}

	artifact.EnhancedImages[slotIndex].Generated = string(generated)
	if err := s.saveArtifact(ctx, userID, artifact); err != nil {
		return models.AnalysisArtifact{}, err
	}
	return artifact, nil
}

func (s *AnalysisService) LoadLast(ctx context.Context, userID string) (models.AnalysisArtifact, error) {
	raw, err := s.cache.Get(ctx, LastAnalysisKey(userID)).Bytes()
	if err == redis.Nil {
		return models.AnalysisArtifact{}, ErrNoArtifact
	}
	if err != nil {
		return models.AnalysisArtifact{}, fmt.Errorf("load artifact: %w", err)
	}

	var artifact models.AnalysisArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return models.AnalysisArtifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	return artifact, nil
}

// ClearLast drops the cached artifact on an explicit "start new analysis".
func (s *AnalysisService) ClearLast(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, LastAnalysisKey(userID)).Err()
}

func (s *AnalysisService) saveArtifact(ctx context.Context, userID string, artifact models.AnalysisArtifact) error {
	raw, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := s.cache.Set(ctx, LastAnalysisKey(userID), raw, s.cfg.Analysis.CacheTTL).Err(); err != nil {
		return fmt.Errorf("cache artifact: %w", err)
	}
	return nil
}

func (s *AnalysisService) enqueueArchive(ctx context.Context, analysisID, userID string) error {
	_, err := s.cache.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Redis.Stream,
		Values: map[string]any{
			"type":       "archive",
			"analysisId": analysisID,
			"userId":     userID,
		},
	}).Result()
	return err
}

// LastAnalysisKey is the continuity cache key for one user's artifact. The
// worker resolves the same key when archiving.
func LastAnalysisKey(userID string) string {
	return fmt.Sprintf("%s:%s", lastAnalysisKeyPrefix, userID)
}
