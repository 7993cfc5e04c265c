package services

import (
	"context"
	"fmt"
	"sort"

	"lentera/internal/middleware"
	"lentera/internal/models"
	"lentera/internal/vector"

	"go.opentelemetry.io/otel/attribute"
)

// Reranker reorders a hit list by embedding similarity to the query. Pure
// relevance, no diversity term; it operates on teaser text, not fetched
// documents.
type Reranker struct {
	embedder       Embedder
	embeddingModel string
}

func NewReranker(embedder Embedder, embeddingModel string) *Reranker {
	return &Reranker{embedder: embedder, embeddingModel: embeddingModel}
}

// Rerank scores every hit against the query in one batch embedding call
// and returns the hits sorted by descending score, ties keeping their
// incoming order.
func (r *Reranker) Rerank(ctx context.Context, query string, hits []models.SearchHit) ([]models.ScoredHit, error) {
	ctx, span := middleware.StartSpan(ctx, "Reranker.Rerank",
		attribute.Int("hits", len(hits)),
	)
	defer span.End()

	if len(hits) == 0 {
		return []models.ScoredHit{}, nil
	}

	inputs := make([]string, 0, len(hits)+1)
	inputs = append(inputs, QueryPrefix+query)
	for _, hit := range hits {
		inputs = append(inputs, PassagePrefix+hit.Title+" - "+hit.Description.Text)
	}

	embeddings, err := r.embedder.Embed(ctx, r.embeddingModel, inputs)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to embed query and documents: %w", err)
	}
	queryEmbedding := embeddings[0]

	scored := make([]models.ScoredHit, len(hits))
	for i, hit := range hits {
		score, err := vector.Cosine(queryEmbedding, embeddings[i+1])
		if err != nil {
			middleware.AddSpanError(ctx, err)
			return nil, err
		}
		scored[i] = models.ScoredHit{SearchHit: hit, Score: score}
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	return scored, nil
}
