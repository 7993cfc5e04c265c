package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"lentera/internal/middleware"
	"lentera/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// SemanticSearchService runs the full search flow: translate the query,
// embed it, try the cache, and on a miss extract keywords, search the
// corpus, clean, rerank and store the ranking for next time.
type SemanticSearchService struct {
	embedder       Embedder
	embeddingModel string
	translator     *Translator
	keywords       *KeywordExtractor
	federated      *FederatedSearchClient
	reranker       *Reranker
	content        ContentStore
	progress       ProgressPublisher

	similarityThreshold float64
	cacheLimit          int
}

func NewSemanticSearchService(
	embedder Embedder,
	embeddingModel string,
	translator *Translator,
	keywords *KeywordExtractor,
	federated *FederatedSearchClient,
	reranker *Reranker,
	content ContentStore,
	progress ProgressPublisher,
	similarityThreshold float64,
) *SemanticSearchService {
	if progress == nil {
		progress = NopProgress{}
	}
	return &SemanticSearchService{
		embedder:            embedder,
		embeddingModel:      embeddingModel,
		translator:          translator,
		keywords:            keywords,
		federated:           federated,
		reranker:            reranker,
		content:             content,
		progress:            progress,
		similarityThreshold: similarityThreshold,
		cacheLimit:          5,
	}
}

// Search resolves a query to a ranked result list, serving from the cache
// when a previous query embedded close enough. The requestID keys progress
// events; it is not persisted.
func (s *SemanticSearchService) Search(ctx context.Context, requestID, query, language string) (*models.SearchOutcome, error) {
	ctx, span := middleware.StartSpan(ctx, "SemanticSearch.Search",
		attribute.String("query", query),
		attribute.String("language", language),
	)
	defer span.End()

	log.Printf("starting semantic search for %q", query)

	englishQuery := query
	if s.translator != nil {
		s.progress.Publish(requestID, "translate", "translating query")
		translated, err := s.translator.Translate(ctx, query, language)
		if err != nil {
			middleware.AddSpanError(ctx, err)
			return nil, fmt.Errorf("failed to translate query: %w", err)
		}
		englishQuery = translated
	}

	s.progress.Publish(requestID, "embed", "embedding query")
	embeddings, err := s.embedder.Embed(ctx, s.embeddingModel, []string{QueryPrefix + englishQuery})
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryEmbedding := embeddings[0]

	s.progress.Publish(requestID, "cache_lookup", "checking stored results")
	matches, err := s.content.FindByEmbedding(ctx, queryEmbedding, s.similarityThreshold, s.cacheLimit)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if len(matches) > 0 {
		match := matches[0]
		log.Printf("cache hit for %q (similarity %.2f%%)", englishQuery, match.SimilarityPercentage)

		var ranked []models.ScoredHit
		if err := json.Unmarshal([]byte(match.SearchResult), &ranked); err != nil {
			middleware.AddSpanError(ctx, err)
			return nil, fmt.Errorf("failed to decode cached search result: %w", err)
		}

		s.progress.Publish(requestID, "done", "served from cache")
		return &models.SearchOutcome{
			ContentID:     match.ID,
			Query:         englishQuery,
			Cached:        true,
			RankedResults: ranked,
		}, nil
	}

	log.Printf("no cached results for %q, performing full search", englishQuery)

	s.progress.Publish(requestID, "keywords", "extracting keywords")
	keywords, err := s.keywords.Extract(ctx, englishQuery)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to extract keywords: %w", err)
	}

	s.progress.Publish(requestID, "search", "searching corpus")
	results := s.federated.SearchAll(ctx, keywords)
	if len(results.Hits) == 0 {
		log.Printf("no corpus results for %q (suppressed failures: %d)", englishQuery, len(results.Suppressed))
		s.progress.Publish(requestID, "done", "no results")
		return &models.SearchOutcome{
			Query:         englishQuery,
			RankedResults: []models.ScoredHit{},
		}, nil
	}

	s.progress.Publish(requestID, "clean", "cleaning results")
	cleaned := CleanSearchResults(results.Hits)

	s.progress.Publish(requestID, "rerank", "reranking results")
	ranked, err := s.reranker.Rerank(ctx, englishQuery, cleaned)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to rerank results: %w", err)
	}

	s.progress.Publish(requestID, "store", "storing results")
	payload, err := json.Marshal(ranked)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to encode ranked results: %w", err)
	}

	stored := s.content.Upsert(ctx, englishQuery, queryEmbedding, payload)
	if !stored.Success {
		// The ranking is still good; caching is best-effort.
		log.Printf("failed to store search results for %q: %s", englishQuery, stored.Error)
	}

	s.progress.Publish(requestID, "done", "search complete")
	return &models.SearchOutcome{
		ContentID:     stored.ID,
		Query:         englishQuery,
		RankedResults: ranked,
		Stored:        stored,
	}, nil
}
