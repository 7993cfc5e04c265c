package repository

import (
	"context"
	"errors"
	"fmt"

	"lentera/internal/models"

	"gorm.io/gorm"
)

// ArtifactRepositoryImpl persists generated artifacts. Each artifact table
// is keyed by the content row the artifact was derived from, so a second
// generation for the same content replaces the first.
type ArtifactRepositoryImpl struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) *ArtifactRepositoryImpl {
	return &ArtifactRepositoryImpl{db: db}
}

func (r *ArtifactRepositoryImpl) GetMindmap(ctx context.Context, id string) (*models.Mindmap, error) {
	var mindmap models.Mindmap
	if err := r.getByID(ctx, id, &mindmap); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get mindmap: %w", err)
	}
	return &mindmap, nil
}

func (r *ArtifactRepositoryImpl) UpsertMindmap(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return r.upsert(ctx, "mindmap", "mindmap", id, payload)
}

func (r *ArtifactRepositoryImpl) GetFlashquiz(ctx context.Context, id string) (*models.Flashquiz, error) {
	var quiz models.Flashquiz
	if err := r.getByID(ctx, id, &quiz); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get flashquiz: %w", err)
	}
	return &quiz, nil
}

func (r *ArtifactRepositoryImpl) UpsertFlashquiz(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return r.upsert(ctx, "flashquiz", "flashquiz", id, payload)
}

func (r *ArtifactRepositoryImpl) GetSummary(ctx context.Context, id string) (*models.SearchSummary, error) {
	var summary models.SearchSummary
	if err := r.getByID(ctx, id, &summary); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

func (r *ArtifactRepositoryImpl) UpsertSummary(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return r.upsert(ctx, "search_summary", "summary", id, payload)
}

func (r *ArtifactRepositoryImpl) getByID(ctx context.Context, id string, dest any) error {
	return r.db.WithContext(ctx).Where("id = ?", id).First(dest).Error
}

// upsert shares the RETURNING pattern used by the content cache: one
// round trip that reports whether the row was fresh or replaced. Table
// and column names come from a fixed set, never from input.
func (r *ArtifactRepositoryImpl) upsert(ctx context.Context, table, column, id string, payload []byte) models.UpsertResult {
	var row struct {
		ID        string `gorm:"column:id"`
		Operation string `gorm:"column:operation"`
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, created_at, updated_at)
		VALUES (?, ?, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			%s = excluded.%s,
			updated_at = now()
		RETURNING id,
			CASE WHEN created_at = updated_at THEN 'inserted' ELSE 'updated' END AS operation
	`, table, column, column, column)

	err := r.db.WithContext(ctx).Raw(query, id, string(payload)).Scan(&row).Error
	if err != nil {
		return models.UpsertResult{Success: false, Error: err.Error()}
	}

	return models.UpsertResult{
		Success:   true,
		Operation: models.UpsertOperation(row.Operation),
		ID:        row.ID,
	}
}
