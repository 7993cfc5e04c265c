package services

import (
	"context"
	"sync"

	"lentera/internal/models"
)

// Fakes for the interfaces in this package. Each records its calls so
// tests can assert on what a service actually asked for.

type fakeEmbedder struct {
	fn    func(inputs []string) ([][]float32, error)
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inputs)
	f.mu.Unlock()
	return f.fn(inputs)
}

// vectorsByInput builds an embedder that looks each input up in a map,
// falling back to fallback for inputs the test does not care about.
func vectorsByInput(vectors map[string][]float32, fallback []float32) *fakeEmbedder {
	return &fakeEmbedder{fn: func(inputs []string) ([][]float32, error) {
		out := make([][]float32, len(inputs))
		for i, input := range inputs {
			if v, ok := vectors[input]; ok {
				out[i] = v
				continue
			}
			out[i] = fallback
		}
		return out, nil
	}}
}

type fakeCompleter struct {
	response string
	err      error

	mu          sync.Mutex
	prompts     []string
	lastModel   string
	lastTemp    float64
	lastMaxToks int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.lastModel = model
	f.lastTemp = temperature
	f.lastMaxToks = maxTokens
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSearcher struct {
	fn func(keyword string) ([]models.SearchHit, error)
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string) ([]models.SearchHit, error) {
	return f.fn(keyword)
}

type fakeFetcher struct {
	fn    func(link string) (string, error)
	mu    sync.Mutex
	links []string
}

func (f *fakeFetcher) FetchDocument(ctx context.Context, link string) (string, error) {
	f.mu.Lock()
	f.links = append(f.links, link)
	f.mu.Unlock()
	return f.fn(link)
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.links...)
}

type fakeContentStore struct {
	matches      []models.CachedContentMatch
	findErr      error
	upsertResult models.UpsertResult
	record       *models.CachedContent

	upsertCalls []upsertCall
}

type upsertCall struct {
	Query        string
	Embedding    []float32
	SearchResult []byte
}

func (f *fakeContentStore) FindByEmbedding(ctx context.Context, embedding []float32, minSimilarityPct float64, limit int) ([]models.CachedContentMatch, error) {
	return f.matches, f.findErr
}

func (f *fakeContentStore) Upsert(ctx context.Context, query string, embedding []float32, searchResult []byte) models.UpsertResult {
	f.upsertCalls = append(f.upsertCalls, upsertCall{Query: query, Embedding: embedding, SearchResult: searchResult})
	return f.upsertResult
}

func (f *fakeContentStore) GetByID(ctx context.Context, id string) (*models.CachedContent, error) {
	return f.record, nil
}

type fakeArtifactStore struct {
	mindmap   *models.Mindmap
	flashquiz *models.Flashquiz
	summary   *models.SearchSummary

	upserts map[string][]byte
}

func (f *fakeArtifactStore) GetMindmap(ctx context.Context, id string) (*models.Mindmap, error) {
	return f.mindmap, nil
}

func (f *fakeArtifactStore) GetFlashquiz(ctx context.Context, id string) (*models.Flashquiz, error) {
	return f.flashquiz, nil
}

func (f *fakeArtifactStore) GetSummary(ctx context.Context, id string) (*models.SearchSummary, error) {
	return f.summary, nil
}

func (f *fakeArtifactStore) upsert(kind string, payload []byte) models.UpsertResult {
	if f.upserts == nil {
		f.upserts = make(map[string][]byte)
	}
	f.upserts[kind] = payload
	return models.UpsertResult{Success: true, Operation: models.OperationInserted}
}

func (f *fakeArtifactStore) UpsertMindmap(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return f.upsert("mindmap", payload)
}

func (f *fakeArtifactStore) UpsertFlashquiz(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return f.upsert("flashquiz", payload)
}

func (f *fakeArtifactStore) UpsertSummary(ctx context.Context, id string, payload []byte) models.UpsertResult {
	return f.upsert("summary", payload)
}

type recordingProgress struct {
	mu     sync.Mutex
	stages []string
}

func (r *recordingProgress) Publish(requestID, stage, message string) {
	r.mu.Lock()
	r.stages = append(r.stages, stage)
	r.mu.Unlock()
}

func hit(title, book, teaser string) models.SearchHit {
	return models.SearchHit{
		Title:       title,
		Link:        "/viewer#" + title,
		BookTitle:   book,
		Description: models.Description{Text: teaser},
	}
}
