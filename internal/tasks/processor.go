package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/media"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/service"
	"github.com/Slydexx/esthetica-app/internal/storage"
)

// Processor executes queued tasks: archiving completed analysis artifacts
// into the object store and the nightly cleanup sweep.
type Processor struct {
	cache    *redis.Client
	stream   string
	sessions *repository.SessionRepository
	analyses *repository.AnalysisRepository
	store    *storage.ObjectStore
	logger   zerolog.Logger
}

type TaskPayload struct {
	Type       string `json:"type"`
	AnalysisID string `json:"analysisId"`
	UserID     string `json:"userId"`
}

func NewProcessor(
	cache *redis.Client,
	stream string,
	sessions *repository.SessionRepository,
	analyses *repository.AnalysisRepository,
	store *storage.ObjectStore,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		cache:    cache,
		stream:   stream,
		sessions: sessions,
		analyses: analyses,
		store:    store,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "archive":
		return p.handleArchive(ctx, payload)
	case "cleanup":
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

// handleArchive copies the artifact's images out of the continuity cache
// into durable object storage and flips the metadata row to archived. The
// cached artifact stays in place until its TTL runs out.
func (p *Processor) handleArchive(ctx context.Context, payload TaskPayload) error {
	raw, err := p.cache.Get(ctx, service.LastAnalysisKey(payload.UserID)).Bytes()
	if err == redis.Nil {
		p.logger.Info().
			Str("analysis_id", payload.AnalysisID).
			Msg("artifact expired before archive, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}

	var artifact models.AnalysisArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	if artifact.ID != payload.AnalysisID {
		// A newer run replaced the cached artifact; the stale task is moot.
		p.logger.Info().
			Str("analysis_id", payload.AnalysisID).
			Str("cached_id", artifact.ID).
			Msg("cached artifact superseded, skipping")
		return nil
	}

	prefix := fmt.Sprintf("%s/%s", payload.UserID, artifact.ID)

	if err := p.putGenerated(ctx, prefix+"/diagnostic", artifact.DiagnosticImage); err != nil {
		return err
	}
	for i, item := range artifact.EnhancedImages {
		if err := p.putPortrait(ctx, fmt.Sprintf("%s/source-%d", prefix, i), item.Original); err != nil {
			return err
		}
		if err := p.putGenerated(ctx, fmt.Sprintf("%s/enhanced-%d", prefix, i), item.Generated); err != nil {
			return err
		}
	}

	if err := p.analyses.UpdateStatus(ctx, artifact.ID, models.AnalysisStatusArchived); err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}

	p.logger.Info().
		Str("analysis_id", artifact.ID).
		Int("images", 1+2*len(artifact.EnhancedImages)).
		Msg("artifact archived")
	return nil
}

func (p *Processor) putPortrait(ctx context.Context, key, dataURI string) error {
	objectKey, data, contentType, err := decodeForUpload(key, dataURI)
	if err != nil || data == nil {
		return err
	}
	return p.store.PutPortrait(ctx, objectKey, data, contentType)
}

func (p *Processor) putGenerated(ctx context.Context, key, dataURI string) error {
	objectKey, data, contentType, err := decodeForUpload(key, dataURI)
	if err != nil || data == nil {
		return err
	}
	return p.store.PutGenerated(ctx, objectKey, data, contentType)
}

func decodeForUpload(key, dataURI string) (string, []byte, string, error) {
	if dataURI == "" {
		return "", nil, "", nil
	}
	mime, data, err := media.ParseDataURI(dataURI)
	if err != nil {
		return "", nil, "", fmt.Errorf("parse %s: %w", key, err)
	}
	return key + extensionFor(mime), data, mime, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// handleCleanup drops expired sessions and bounds the task stream. Intake
// slots and cached artifacts expire on their own through redis TTLs.
func (p *Processor) handleCleanup(ctx context.Context) error {
	deleted, err := p.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}

	trimmed, err := p.cache.XTrimMaxLen(ctx, p.stream, 10000).Result()
	if err != nil && !strings.Contains(err.Error(), "no such key") {
		p.logger.Warn().Err(err).Msg("stream trim failed")
	}

	p.logger.Info().
		Int64("sessions_deleted", deleted).
		Int64("stream_trimmed", trimmed).
		Msg("cleanup complete")
	return nil
}
