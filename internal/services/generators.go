package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"lentera/internal/middleware"
	"lentera/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// MindMap is the structure the mind-map prompt demands from the model.
type MindMap struct {
	CentralTopic string `json:"centralTopic"`
	Nodes        []struct {
		Facet        string   `json:"facet"`
		Explanation  string   `json:"explanation"`
		Subquestions []string `json:"subquestions"`
	} `json:"nodes"`
	Sources []SourceRef `json:"sources"`
}

// QuizEntry is one multiple-choice question in a flash quiz.
type QuizEntry struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// GroundedResponse is a summary answer with its sources.
type GroundedResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

type SourceRef struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// ErrContentNotFound reports that no cached content row exists for the
// requested id.
var ErrContentNotFound = errors.New("content not found")

type GeneratorConfig struct {
	MindmapModel   string
	FlashquizModel string
	SummaryModel   string

	MindmapTemperature   float64
	FlashquizTemperature float64
	SummaryTemperature   float64

	MindmapMaxTokens   int
	FlashquizMaxTokens int
	SummaryMaxTokens   int

	QuestionCount int
}

// GeneratorService derives mind-maps, flash quizzes and summaries from a
// cached search result, rebuilding the retrieval context once per artifact
// and caching each artifact under the content id it came from.
type GeneratorService struct {
	completer    Completer
	builder      *ContextBuilder
	preprocessor *Preprocessor
	content      ContentStore
	artifacts    ArtifactStore
	cfg          GeneratorConfig
}

func NewGeneratorService(
	completer Completer,
	builder *ContextBuilder,
	preprocessor *Preprocessor,
	content ContentStore,
	artifacts ArtifactStore,
	cfg GeneratorConfig,
) *GeneratorService {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 5
	}
	return &GeneratorService{
		completer:    completer,
		builder:      builder,
		preprocessor: preprocessor,
		content:      content,
		artifacts:    artifacts,
		cfg:          cfg,
	}
}

// preparedContext is the grounding shared by every generator: the
// condensed context digest plus source attribution.
type preparedContext struct {
	Query      string
	Digest     string
	TopResults []models.SearchHit
}

// prepare loads the cached search result behind id and rebuilds its
// retrieval context.
func (g *GeneratorService) prepare(ctx context.Context, id string) (*preparedContext, error) {
	record, err := g.content.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load content %s: %w", id, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, id)
	}

	var ranked []models.ScoredHit
	if err := json.Unmarshal(record.SearchResult, &ranked); err != nil {
		return nil, fmt.Errorf("failed to decode stored search result for %s: %w", id, err)
	}

	hits := make([]models.SearchHit, len(ranked))
	for i, r := range ranked {
		hits[i] = r.SearchHit
	}

	result, err := g.builder.BuildContext(ctx, record.Query, hits)
	if err != nil {
		return nil, err
	}

	digest, err := g.preprocessor.Preprocess(ctx, result.Context)
	if err != nil {
		return nil, err
	}

	return &preparedContext{
		Query:      record.Query,
		Digest:     digest,
		TopResults: result.TopResults,
	}, nil
}

func sourceRefs(hits []models.SearchHit) []SourceRef {
	refs := make([]SourceRef, len(hits))
	for i, hit := range hits {
		refs[i] = SourceRef{Title: hit.Title, Link: hit.Link}
	}
	return refs
}

// Mindmap returns the mind-map for a content id, generating and caching
// it on first request.
func (g *GeneratorService) Mindmap(ctx context.Context, id, language string) (*MindMap, error) {
	ctx, span := middleware.StartSpan(ctx, "Generator.Mindmap",
		attribute.String("content_id", id),
	)
	defer span.End()

	if existing, err := g.artifacts.GetMindmap(ctx, id); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to query mindmap %s: %w", id, err)
	} else if existing != nil {
		var mm MindMap
		if err := json.Unmarshal(existing.Mindmap, &mm); err != nil {
			return nil, fmt.Errorf("failed to decode stored mindmap %s: %w", id, err)
		}
		return &mm, nil
	}

	prep, err := g.prepare(ctx, id)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a helpful assistant who explain with ELI5 method + Feynman Technique and creates conceptual mind maps using the Six Facets of Understanding model.

Context:
%s

Topic:
%q

Your task:
- Create a structured mind map based on the topic above.
- Use the Six Facets of Understanding: Explanation, Interpretation, Application, Perspective, Empathy, and Self-Knowledge.
- For each facet give a brief, clear explanation grounded in the context and list 3 simple questions about it.
- Use clear, natural %s language.
- Be accurate and specific. Do NOT include anything not grounded in the context.

Return ONLY a valid JSON object (no markdown, no comments), format:
{ "centralTopic": "string", "nodes": [ { "facet": "string", "explanation": "string", "subquestions": ["string"] } ] }`,
		prep.Digest, prep.Query, language)

	content, err := g.completer.Complete(ctx, prompt, g.cfg.MindmapModel, g.cfg.MindmapTemperature, g.cfg.MindmapMaxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("mindmap completion failed: %w", err)
	}

	var mm MindMap
	if err := decodeModelJSON("mindmap", content, &mm); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}
	mm.Sources = sourceRefs(prep.TopResults)

	g.storeArtifact(ctx, "mindmap", id, &mm, g.artifacts.UpsertMindmap)
	return &mm, nil
}

// Flashquiz returns the quiz for a content id, generating and caching it
// on first request.
func (g *GeneratorService) Flashquiz(ctx context.Context, id, language string) ([]QuizEntry, error) {
	ctx, span := middleware.StartSpan(ctx, "Generator.Flashquiz",
		attribute.String("content_id", id),
	)
	defer span.End()

	if existing, err := g.artifacts.GetFlashquiz(ctx, id); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to query flashquiz %s: %w", id, err)
	} else if existing != nil {
		var quiz []QuizEntry
		if err := json.Unmarshal(existing.Flashquiz, &quiz); err != nil {
			return nil, fmt.Errorf("failed to decode stored flashquiz %s: %w", id, err)
		}
		return quiz, nil
	}

	prep, err := g.prepare(ctx, id)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a helpful assistant who creates multiple-choice quizzes using the Feynman technique, with clear and accurate details.

Context:
%s

Topic:
%q

Your task:
- Write %d multiple-choice questions grounded in the context, each with 4 options and exactly one correct answer.
- Use clear, natural %s language.

Return ONLY a valid JSON array (no markdown, no comments), format:
[ { "question": "string", "options": ["string", "string", "string", "string"], "answer": "string" } ]`,
		prep.Digest, prep.Query, g.cfg.QuestionCount, language)

	content, err := g.completer.Complete(ctx, prompt, g.cfg.FlashquizModel, g.cfg.FlashquizTemperature, g.cfg.FlashquizMaxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("flashquiz completion failed: %w", err)
	}

	var quiz []QuizEntry
	if err := decodeModelJSON("flashquiz", content, &quiz); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	g.storeArtifact(ctx, "flashquiz", id, quiz, g.artifacts.UpsertFlashquiz)
	return quiz, nil
}

// Summary returns the grounded summary for a content id, generating and
// caching it on first request.
func (g *GeneratorService) Summary(ctx context.Context, id, language string) (*GroundedResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "Generator.Summary",
		attribute.String("content_id", id),
	)
	defer span.End()

	if existing, err := g.artifacts.GetSummary(ctx, id); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("failed to query summary %s: %w", id, err)
	} else if existing != nil {
		var resp GroundedResponse
		if err := json.Unmarshal(existing.Summary, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode stored summary %s: %w", id, err)
		}
		return &resp, nil
	}

	prep, err := g.prepare(ctx, id)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	prompt := fmt.Sprintf(`You are a helpful assistant and using ELI5 & feynman technique without losing details to answer query from various sources.

Context:
%s

Query:
%q

Your task:
- Answer the query using only the context above, in clear, natural %s language.

Return ONLY a valid JSON object (no markdown, no comments), format:
{ "answer": "string" }`,
		prep.Digest, prep.Query, language)

	content, err := g.completer.Complete(ctx, prompt, g.cfg.SummaryModel, g.cfg.SummaryTemperature, g.cfg.SummaryMaxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("summary completion failed: %w", err)
	}

	var resp GroundedResponse
	if err := decodeModelJSON("summary", content, &resp); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}
	resp.Sources = sourceRefs(prep.TopResults)

	g.storeArtifact(ctx, "summary", id, &resp, g.artifacts.UpsertSummary)
	return &resp, nil
}

// storeArtifact persists a generated artifact. Failure is logged, not
// returned: the caller holds a freshly generated artifact that must still
// reach the client.
func (g *GeneratorService) storeArtifact(
	ctx context.Context,
	kind, id string,
	payload any,
	upsert func(ctx context.Context, id string, payload []byte) models.UpsertResult,
) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to encode %s %s for storage: %v", kind, id, err)
		return
	}
	if result := upsert(ctx, id, encoded); !result.Success {
		log.Printf("failed to store %s %s: %s", kind, id, result.Error)
	}
}
