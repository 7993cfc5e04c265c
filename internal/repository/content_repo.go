package repository

import (
	"context"
	"errors"
	"fmt"

	"lentera/internal/models"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// ContentRepositoryImpl is the pgvector-backed query-result cache.
type ContentRepositoryImpl struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepositoryImpl {
	return &ContentRepositoryImpl{db: db}
}

// FindByEmbedding returns cached rows whose stored embedding is within the
// similarity threshold of the probe, nearest first. The <=> operator is
// pgvector cosine distance, so similarity is (1 - distance) * 100.
func (r *ContentRepositoryImpl) FindByEmbedding(ctx context.Context, embedding []float32, minSimilarityPct float64, limit int) ([]models.CachedContentMatch, error) {
	vec := pgvector.NewVector(embedding)

	var matches []models.CachedContentMatch

	// Raw SQL since GORM has no native vector support.
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			query,
			search_result,
			created_at,
			updated_at,
			(query_embedding <=> ?) AS distance,
			(1 - (query_embedding <=> ?)) * 100 AS similarity_percentage
		FROM content
		WHERE (1 - (query_embedding <=> ?)) * 100 >= ?
		ORDER BY distance ASC
		LIMIT ?
	`, vec, vec, vec, minSimilarityPct, limit).Scan(&matches).Error

	if err != nil {
		return nil, fmt.Errorf("failed to search content cache: %w", err)
	}

	return matches, nil
}

// Upsert writes a resolved query into the cache. The unique index on
// query_embedding makes an identical embedding update its existing row;
// the CASE expression reports which branch the write took.
func (r *ContentRepositoryImpl) Upsert(ctx context.Context, query string, embedding []float32, searchResult []byte) models.UpsertResult {
	vec := pgvector.NewVector(embedding)

	var row struct {
		ID        string `gorm:"column:id"`
		Operation string `gorm:"column:operation"`
	}

	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO content (id, query, query_embedding, search_result, created_at, updated_at)
		VALUES (?, ?, ?, ?, now(), now())
		ON CONFLICT (query_embedding) DO UPDATE SET
			search_result = excluded.search_result,
			updated_at = now()
		RETURNING id,
			CASE WHEN created_at = updated_at THEN 'inserted' ELSE 'updated' END AS operation
	`, ksuid.New().String(), query, vec, string(searchResult)).Scan(&row).Error

	if err != nil {
		return models.UpsertResult{Success: false, Error: err.Error()}
	}

	return models.UpsertResult{
		Success:   true,
		Operation: models.UpsertOperation(row.Operation),
		ID:        row.ID,
	}
}

// GetByID loads one cached content row. A missing id returns (nil, nil).
func (r *ContentRepositoryImpl) GetByID(ctx context.Context, id string) (*models.CachedContent, error) {
	var content models.CachedContent

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &content, nil
}
