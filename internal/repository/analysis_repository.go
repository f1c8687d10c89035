package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Slydexx/esthetica-app/internal/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

func (r *AnalysisRepository) Create(ctx context.Context, rec models.AnalysisRecord) error {
	const query = `
		INSERT INTO analyses (id, user_id, summary, locale, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Summary,
		rec.Locale,
		rec.Status,
	)
	return err
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (models.AnalysisRecord, error) {
	const query = `
		SELECT id, user_id, summary, locale, status, created_at, updated_at
		FROM analyses WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AnalysisRepository) UpdateStatus(ctx context.Context, id string, status models.AnalysisStatus) error {
	const query = `UPDATE analyses SET status = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

func (r *AnalysisRepository) scanOne(row pgx.Row) (models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Summary,
		&rec.Locale,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AnalysisRecord{}, ErrAnalysisNotFound
		}
		return models.AnalysisRecord{}, err
	}
	return rec, nil
}
