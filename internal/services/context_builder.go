package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"lentera/internal/middleware"
	"lentera/internal/models"
	"lentera/internal/textproc"
	"lentera/internal/vector"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Prefixes applied before embedding, matching the asymmetric convention
// the embedding model was trained with.
const (
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

// Documents served as a redirect stub rather than content.
var metaRefreshRe = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']?refresh["']?[^>]*>`)

// Chunks kept as context must clear these floors; anything shorter or more
// repetitive is noise.
const (
	minChunkWords       = 20
	minChunkUniqueWords = 10
)

type ContextBuilderConfig struct {
	ChunkSize        int // words per chunk window
	ChunkOverlap     int // words shared between adjacent windows
	MaxFallbackWords int // cap on teaser fallback text
	TopHits          int // hits considered for fetching
	TopChunks        int // passages kept as context
}

func (c ContextBuilderConfig) withDefaults() ContextBuilderConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 300
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = 30
	}
	if c.MaxFallbackWords <= 0 {
		c.MaxFallbackWords = 1000
	}
	if c.TopHits <= 0 {
		c.TopHits = 25
	}
	if c.TopChunks <= 0 {
		c.TopChunks = 7
	}
	return c
}

// ContextBuilder assembles grounding passages for a query: fetch the top
// hits' documents, chunk, embed everything in one batch, score against the
// query and keep the best few with document attribution.
type ContextBuilder struct {
	embedder       Embedder
	fetcher        DocumentFetcher
	embeddingModel string
	cfg            ContextBuilderConfig
}

func NewContextBuilder(embedder Embedder, fetcher DocumentFetcher, embeddingModel string, cfg ContextBuilderConfig) *ContextBuilder {
	return &ContextBuilder{
		embedder:       embedder,
		fetcher:        fetcher,
		embeddingModel: embeddingModel,
		cfg:            cfg.withDefaults(),
	}
}

// BuildContext prepares the retrieval context for a query from ranked
// search hits. A failed document fetch degrades to the hit's teaser text;
// a failed embedding call fails the whole build, because scoring without
// vectors has no meaningful fallback. Zero surviving chunks yield an empty
// context that callers must handle as "no grounding available".
func (b *ContextBuilder) BuildContext(ctx context.Context, query string, hits []models.SearchHit) (*models.ContextResult, error) {
	ctx, span := middleware.StartSpan(ctx, "ContextBuilder.BuildContext",
		attribute.String("query", query),
		attribute.Int("hits", len(hits)),
	)
	defer span.End()

	top := hits
	if len(top) > b.cfg.TopHits {
		top = top[:b.cfg.TopHits]
	}

	// Bounded by construction: at most TopHits fetches in flight.
	contents := make([]string, len(top))
	g, fetchCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.TopHits)
	for i := range top {
		i := i
		g.Go(func() error {
			contents[i] = b.fetchContent(fetchCtx, top[i])
			return nil
		})
	}
	_ = g.Wait()

	var chunks []models.Chunk
	for i, content := range contents {
		if content == "" {
			continue
		}
		for _, text := range textproc.ChunkWords(content, b.cfg.ChunkSize, b.cfg.ChunkOverlap) {
			chunks = append(chunks, models.Chunk{Text: text, HitIndex: i})
		}
	}

	if len(chunks) == 0 {
		return &models.ContextResult{Context: []string{}}, nil
	}

	// One batch: the prefixed query at index 0, then every chunk.
	inputs := make([]string, 0, len(chunks)+1)
	inputs = append(inputs, QueryPrefix+query)
	for _, chunk := range chunks {
		inputs = append(inputs, PassagePrefix+chunk.Text)
	}

	embeddings, err := b.embedder.Embed(ctx, b.embeddingModel, inputs)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to embed query and chunks: %w", err)
	}
	queryEmbedding := embeddings[0]

	scored := make([]models.ScoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if !isUsableChunk(chunk.Text) {
			continue
		}
		score, err := vector.Cosine(queryEmbedding, embeddings[i+1])
		if err != nil {
			middleware.AddSpanError(ctx, err)
			return nil, err
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if len(scored) > b.cfg.TopChunks {
		scored = scored[:b.cfg.TopChunks]
	}

	result := &models.ContextResult{Context: make([]string, 0, len(scored))}
	seen := make(map[int]struct{}, len(scored))
	for _, sc := range scored {
		result.Context = append(result.Context, PassagePrefix+sc.Text)
		if _, ok := seen[sc.HitIndex]; !ok {
			seen[sc.HitIndex] = struct{}{}
			result.TopResults = append(result.TopResults, top[sc.HitIndex])
		}
	}

	middleware.AddSpanEvent(ctx, "context_built",
		attribute.Int("chunks", len(chunks)),
		attribute.Int("selected", len(result.Context)),
		attribute.Int("top_results", len(result.TopResults)),
	)
	return result, nil
}

// fetchContent retrieves and cleans one document, degrading to the hit's
// teaser text on failure. Redirect stubs are skipped outright; their body
// is not the document.
func (b *ContextBuilder) fetchContent(ctx context.Context, hit models.SearchHit) string {
	raw, err := b.fetcher.FetchDocument(ctx, hit.Link)
	if err != nil {
		log.Printf("fetch of %s failed, using teaser fallback: %v", hit.Link, err)
		return textproc.Truncate(textproc.CleanHTML(hit.Description.Text), b.cfg.MaxFallbackWords)
	}

	if metaRefreshRe.MatchString(raw) {
		log.Printf("skipping meta redirect: %s", hit.Link)
		return ""
	}

	return textproc.Truncate(textproc.CleanHTML(raw), b.cfg.MaxFallbackWords)
}

func isUsableChunk(text string) bool {
	words := strings.Fields(text)
	if len(words) <= minChunkWords {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	return len(unique) > minChunkUniqueWords
}
