package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"lentera/internal/models"

	"gorm.io/datatypes"
)

const generatorDoc = "The Sun is the star at the center of the solar system and it dominates local space. " +
	"Nuclear fusion in the core converts hydrogen into helium releasing enormous energy over billions of years."

func newGeneratorFixture(t *testing.T, completer Completer, content ContentStore, artifacts ArtifactStore) *GeneratorService {
	t.Helper()

	embedder := vectorsByInput(nil, []float32{1, 0})
	fetcher := &fakeFetcher{fn: func(link string) (string, error) {
		return generatorDoc, nil
	}}

	builder := NewContextBuilder(embedder, fetcher, "embed-model", ContextBuilderConfig{})
	preprocessor := NewPreprocessor(embedder, "embed-model", DefaultMaxSentences)

	return NewGeneratorService(completer, builder, preprocessor, content, artifacts, GeneratorConfig{
		MindmapModel:       "llm-model",
		FlashquizModel:     "llm-model",
		SummaryModel:       "llm-model",
		MindmapMaxTokens:   1024,
		FlashquizMaxTokens: 1024,
		SummaryMaxTokens:   512,
		QuestionCount:      2,
	})
}

func contentRecord(t *testing.T, query string, hits ...models.SearchHit) *models.CachedContent {
	t.Helper()
	ranked := make([]models.ScoredHit, len(hits))
	for i, h := range hits {
		ranked[i] = models.ScoredHit{SearchHit: h, Score: 0.9}
	}
	payload, err := json.Marshal(ranked)
	if err != nil {
		t.Fatal(err)
	}
	return &models.CachedContent{
		ID:           "content-1",
		Query:        query,
		SearchResult: datatypes.JSON(payload),
	}
}

func TestMindmapGeneratesAndStores(t *testing.T) {
	completer := &fakeCompleter{response: `{
		"centralTopic": "The Sun",
		"nodes": [{"facet": "Explanation", "explanation": "A star at the center.", "subquestions": ["Why does it shine?"]}]
	}`}
	sunHit := hit("Sun", "Astronomy", "The Sun is a star.")
	store := &fakeContentStore{record: contentRecord(t, "what is the sun", sunHit)}
	artifacts := &fakeArtifactStore{}

	svc := newGeneratorFixture(t, completer, store, artifacts)
	mm, err := svc.Mindmap(context.Background(), "content-1", "english")
	if err != nil {
		t.Fatal(err)
	}

	if mm.CentralTopic != "The Sun" {
		t.Errorf("central topic = %q", mm.CentralTopic)
	}
	if len(mm.Nodes) != 1 || mm.Nodes[0].Facet != "Explanation" {
		t.Errorf("unexpected nodes: %+v", mm.Nodes)
	}
	if len(mm.Sources) != 1 || mm.Sources[0].Title != "Sun" || mm.Sources[0].Link != sunHit.Link {
		t.Errorf("unexpected sources: %+v", mm.Sources)
	}

	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "what is the sun") {
		t.Errorf("prompt missing topic: %q", prompt)
	}
	if !strings.Contains(prompt, "Nuclear fusion") {
		t.Errorf("prompt missing context digest: %q", prompt)
	}

	if _, ok := artifacts.upserts["mindmap"]; !ok {
		t.Error("generated mindmap not stored")
	}
}

func TestMindmapServedFromArtifactCache(t *testing.T) {
	cached := MindMap{CentralTopic: "Cached topic"}
	payload, err := json.Marshal(cached)
	if err != nil {
		t.Fatal(err)
	}

	completer := &fakeCompleter{response: "should not run"}
	// No content record: reaching the generation path would fail loudly.
	store := &fakeContentStore{}
	artifacts := &fakeArtifactStore{
		mindmap: &models.Mindmap{ID: "content-1", Mindmap: datatypes.JSON(payload)},
	}

	svc := newGeneratorFixture(t, completer, store, artifacts)
	mm, err := svc.Mindmap(context.Background(), "content-1", "english")
	if err != nil {
		t.Fatal(err)
	}

	if mm.CentralTopic != "Cached topic" {
		t.Errorf("central topic = %q", mm.CentralTopic)
	}
	if completer.callCount() != 0 {
		t.Errorf("completer called %d times on artifact cache hit", completer.callCount())
	}
}

func TestFlashquizGenerates(t *testing.T) {
	completer := &fakeCompleter{response: `[
		{"question": "What powers the Sun?", "options": ["Fusion", "Fission", "Combustion", "Friction"], "answer": "Fusion"},
		{"question": "What is the Sun?", "options": ["A star", "A planet", "A moon", "A comet"], "answer": "A star"}
	]`}
	store := &fakeContentStore{record: contentRecord(t, "what is the sun", hit("Sun", "Astronomy", "The Sun is a star."))}
	artifacts := &fakeArtifactStore{}

	svc := newGeneratorFixture(t, completer, store, artifacts)
	quiz, err := svc.Flashquiz(context.Background(), "content-1", "english")
	if err != nil {
		t.Fatal(err)
	}

	if len(quiz) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz))
	}
	if quiz[0].Answer != "Fusion" || len(quiz[0].Options) != 4 {
		t.Errorf("unexpected entry: %+v", quiz[0])
	}
	if !strings.Contains(completer.prompts[0], "Write 2 multiple-choice questions") {
		t.Errorf("prompt missing question count: %q", completer.prompts[0])
	}
	if _, ok := artifacts.upserts["flashquiz"]; !ok {
		t.Error("generated quiz not stored")
	}
}

func TestSummaryGenerates(t *testing.T) {
	completer := &fakeCompleter{response: `{"answer": "The Sun is a star powered by nuclear fusion."}`}
	sunHit := hit("Sun", "Astronomy", "The Sun is a star.")
	store := &fakeContentStore{record: contentRecord(t, "what is the sun", sunHit)}
	artifacts := &fakeArtifactStore{}

	svc := newGeneratorFixture(t, completer, store, artifacts)
	summary, err := svc.Summary(context.Background(), "content-1", "english")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(summary.Answer, "nuclear fusion") {
		t.Errorf("answer = %q", summary.Answer)
	}
	if len(summary.Sources) != 1 || summary.Sources[0].Link != sunHit.Link {
		t.Errorf("unexpected sources: %+v", summary.Sources)
	}
	if _, ok := artifacts.upserts["summary"]; !ok {
		t.Error("generated summary not stored")
	}
}

func TestGeneratorUnknownContentID(t *testing.T) {
	svc := newGeneratorFixture(t, &fakeCompleter{}, &fakeContentStore{}, &fakeArtifactStore{})

	_, err := svc.Mindmap(context.Background(), "missing", "english")
	if !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}
