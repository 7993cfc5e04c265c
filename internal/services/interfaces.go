package services

import (
	"context"

	"lentera/internal/models"
)

// Interfaces are declared here, in the consuming package, so each service
// names exactly what it needs and tests can swap in fakes.

// Embedder is the batch embedding surface of the model server. The
// returned slice is positionally parallel to the inputs.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// Completer is the text-completion surface of the model server.
type Completer interface {
	Complete(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error)
}

// CorpusSearcher runs one full-text search against the offline corpus.
type CorpusSearcher interface {
	Search(ctx context.Context, keyword string) ([]models.SearchHit, error)
}

// DocumentFetcher retrieves a raw document body by corpus-relative link.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, link string) (string, error)
}

// ContentStore is the query-result cache keyed by query embedding.
type ContentStore interface {
	FindByEmbedding(ctx context.Context, embedding []float32, minSimilarityPct float64, limit int) ([]models.CachedContentMatch, error)
	Upsert(ctx context.Context, query string, embedding []float32, searchResult []byte) models.UpsertResult
	GetByID(ctx context.Context, id string) (*models.CachedContent, error)
}

// ArtifactStore persists generated artifacts keyed by content id.
type ArtifactStore interface {
	GetMindmap(ctx context.Context, id string) (*models.Mindmap, error)
	UpsertMindmap(ctx context.Context, id string, payload []byte) models.UpsertResult
	GetFlashquiz(ctx context.Context, id string) (*models.Flashquiz, error)
	UpsertFlashquiz(ctx context.Context, id string, payload []byte) models.UpsertResult
	GetSummary(ctx context.Context, id string) (*models.SearchSummary, error)
	UpsertSummary(ctx context.Context, id string, payload []byte) models.UpsertResult
}

// ProgressPublisher pushes pipeline stage events to whoever is watching a
// request. Implementations must never block the pipeline.
type ProgressPublisher interface {
	Publish(requestID, stage, message string)
}

// NopProgress discards all events.
type NopProgress struct{}

func (NopProgress) Publish(requestID, stage, message string) {}
