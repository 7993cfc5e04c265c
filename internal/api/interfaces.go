package api

import (
	"context"

	"lentera/internal/models"
	"lentera/internal/services"
)

// Interfaces the HTTP layer consumes, declared here so handlers can be
// tested against fakes.

// SearchService resolves a query to a ranked, cached result list.
type SearchService interface {
	Search(ctx context.Context, requestID, query, language string) (*models.SearchOutcome, error)
}

// ArtifactGenerator derives study artifacts from a cached content row.
type ArtifactGenerator interface {
	Mindmap(ctx context.Context, id, language string) (*services.MindMap, error)
	Flashquiz(ctx context.Context, id, language string) ([]services.QuizEntry, error)
	Summary(ctx context.Context, id, language string) (*services.GroundedResponse, error)
}
