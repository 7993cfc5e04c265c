package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lentera/internal/models"
	"lentera/internal/ollama"
	"lentera/internal/progress"
	"lentera/internal/services"
)

type fakeSearchService struct {
	outcome *models.SearchOutcome
	err     error

	lastQuery    string
	lastLanguage string
}

func (f *fakeSearchService) Search(ctx context.Context, requestID, query, language string) (*models.SearchOutcome, error) {
	f.lastQuery = query
	f.lastLanguage = language
	return f.outcome, f.err
}

type fakeGenerator struct {
	mindmap *services.MindMap
	quiz    []services.QuizEntry
	summary *services.GroundedResponse
	err     error

	lastID       string
	lastLanguage string
}

func (f *fakeGenerator) Mindmap(ctx context.Context, id, language string) (*services.MindMap, error) {
	f.lastID, f.lastLanguage = id, language
	return f.mindmap, f.err
}

func (f *fakeGenerator) Flashquiz(ctx context.Context, id, language string) ([]services.QuizEntry, error) {
	f.lastID, f.lastLanguage = id, language
	return f.quiz, f.err
}

func (f *fakeGenerator) Summary(ctx context.Context, id, language string) (*services.GroundedResponse, error) {
	f.lastID, f.lastLanguage = id, language
	return f.summary, f.err
}

func newTestRouter(search SearchService, generator ArtifactGenerator) http.Handler {
	hub := progress.NewHub()
	hub.Start()
	return SetupRoutes(NewHandler(search, generator, hub))
}

func TestSearchEndpoint(t *testing.T) {
	search := &fakeSearchService{outcome: &models.SearchOutcome{
		ContentID:     "content-1",
		Query:         "what is the sun",
		RankedResults: []models.ScoredHit{},
	}}
	router := newTestRouter(search, &fakeGenerator{})

	req := httptest.NewRequest("POST", "/api/search", strings.NewReader(`{"query": "what is the sun"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		RequestID string               `json:"request_id"`
		Result    models.SearchOutcome `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RequestID == "" {
		t.Error("response missing request id")
	}
	if body.Result.ContentID != "content-1" {
		t.Errorf("content id = %q", body.Result.ContentID)
	}

	// The language defaults when omitted.
	if search.lastLanguage != "english" {
		t.Errorf("language = %q", search.lastLanguage)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	router := newTestRouter(&fakeSearchService{}, &fakeGenerator{})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{"},
		{"blank query", `{"query": "   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/search", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestMindmapEndpoint(t *testing.T) {
	generator := &fakeGenerator{mindmap: &services.MindMap{CentralTopic: "The Sun"}}
	router := newTestRouter(&fakeSearchService{}, generator)

	req := httptest.NewRequest("GET", "/api/mindmap/content-1?language=indonesian", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if generator.lastID != "content-1" || generator.lastLanguage != "indonesian" {
		t.Errorf("generator called with id=%q language=%q", generator.lastID, generator.lastLanguage)
	}

	var mm services.MindMap
	if err := json.Unmarshal(rec.Body.Bytes(), &mm); err != nil {
		t.Fatal(err)
	}
	if mm.CentralTopic != "The Sun" {
		t.Errorf("central topic = %q", mm.CentralTopic)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown content", fmt.Errorf("load: %w", services.ErrContentNotFound), http.StatusNotFound},
		{"model server down", fmt.Errorf("embed: %w", &ollama.ServiceError{Endpoint: "/api/embed", Status: 503}), http.StatusBadGateway},
		{"unparseable model output", fmt.Errorf("decode: %w", &services.ParseError{What: "mindmap"}), http.StatusBadGateway},
		{"internal", errors.New("something broke"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeSearchService{}, &fakeGenerator{err: tc.err})

			req := httptest.NewRequest("GET", "/api/summary/content-1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeSearchService{}, &fakeGenerator{})

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
