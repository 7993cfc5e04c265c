package services

import (
	"context"
	"log"
	"sync"

	"lentera/internal/middleware"
	"lentera/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultSearchConcurrency caps simultaneous corpus searches; the corpus
// server is typically a single local process.
const DefaultSearchConcurrency = 4

// KeywordError is a per-keyword search failure that was suppressed rather
// than surfaced.
type KeywordError struct {
	Keyword string
	Err     error
}

func (e KeywordError) Error() string {
	return "search for \"" + e.Keyword + "\" failed: " + e.Err.Error()
}

// SearchResults is a partial result: the flattened hits from the keywords
// that succeeded plus diagnostics for the ones that did not.
type SearchResults struct {
	Hits       []models.SearchHit
	Suppressed []KeywordError
}

// FederatedSearchClient fans one corpus search out per keyword with a
// bounded number in flight. One keyword failing never fails the whole
// call; it just contributes zero hits.
type FederatedSearchClient struct {
	searcher    CorpusSearcher
	concurrency int
}

func NewFederatedSearchClient(searcher CorpusSearcher, concurrency int) *FederatedSearchClient {
	if concurrency <= 0 {
		concurrency = DefaultSearchConcurrency
	}
	return &FederatedSearchClient{searcher: searcher, concurrency: concurrency}
}

// SearchAll searches the corpus for every keyword and flattens the hits.
// Per-keyword ordering is preserved; hits are concatenated in keyword
// order.
func (c *FederatedSearchClient) SearchAll(ctx context.Context, keywords []string) SearchResults {
	ctx, span := middleware.StartSpan(ctx, "FederatedSearch.SearchAll",
		attribute.Int("keywords", len(keywords)),
		attribute.Int("concurrency", c.concurrency),
	)
	defer span.End()

	perKeyword := make([][]models.SearchHit, len(keywords))
	failures := make([]error, len(keywords))

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, keyword := range keywords {
		wg.Add(1)
		go func(i int, keyword string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			hits, err := c.searcher.Search(ctx, keyword)
			if err != nil {
				failures[i] = err
				return
			}
			perKeyword[i] = hits
		}(i, keyword)
	}
	wg.Wait()

	var results SearchResults
	for i, hits := range perKeyword {
		if failures[i] != nil {
			suppressed := KeywordError{Keyword: keywords[i], Err: failures[i]}
			log.Printf("corpus search degraded: %v", suppressed)
			results.Suppressed = append(results.Suppressed, suppressed)
			continue
		}
		results.Hits = append(results.Hits, hits...)
	}

	middleware.AddSpanEvent(ctx, "federated_search_done",
		attribute.Int("hits", len(results.Hits)),
		attribute.Int("suppressed", len(results.Suppressed)),
	)
	return results
}
