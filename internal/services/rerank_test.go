package services

import (
	"context"
	"errors"
	"testing"

	"lentera/internal/models"
)

func TestRerankOrdersByQuerySimilarity(t *testing.T) {
	query := "what is the sun"
	sun := hit("Sun", "Astronomy", "The Sun is a star.")
	moon := hit("Moon", "Astronomy", "The Moon orbits Earth.")
	star := hit("Star", "Astronomy", "A luminous sphere of plasma.")

	embedder := vectorsByInput(map[string][]float32{
		QueryPrefix + query:                                      {1, 0},
		PassagePrefix + "Sun - The Sun is a star.":               {0.95, 0.05},
		PassagePrefix + "Moon - The Moon orbits Earth.":          {0.1, 0.9},
		PassagePrefix + "Star - A luminous sphere of plasma.":    {0.7, 0.3},
	}, []float32{0, 1})

	reranker := NewReranker(embedder, "embed-model")
	ranked, err := reranker.Rerank(context.Background(), query, []models.SearchHit{moon, sun, star})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Sun", "Star", "Moon"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(ranked))
	}
	for i, title := range want {
		if ranked[i].Title != title {
			t.Errorf("rank %d = %q, want %q", i, ranked[i].Title, title)
		}
	}
	if ranked[0].Score <= ranked[1].Score || ranked[1].Score <= ranked[2].Score {
		t.Errorf("scores not descending: %v %v %v", ranked[0].Score, ranked[1].Score, ranked[2].Score)
	}

	// One batch call: the prefixed query first, then every passage.
	if len(embedder.calls) != 1 {
		t.Fatalf("expected 1 embed call, got %d", len(embedder.calls))
	}
	inputs := embedder.calls[0]
	if inputs[0] != QueryPrefix+query {
		t.Errorf("first input = %q", inputs[0])
	}
	if len(inputs) != 4 {
		t.Errorf("expected 4 inputs, got %d", len(inputs))
	}
}

func TestRerankEmptyHits(t *testing.T) {
	embedder := &fakeEmbedder{fn: func(inputs []string) ([][]float32, error) {
		t.Error("embedder called for empty hit list")
		return nil, nil
	}}

	ranked, err := NewReranker(embedder, "embed-model").Rerank(context.Background(), "anything", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 0 {
		t.Fatalf("expected empty ranking, got %+v", ranked)
	}
}

func TestRerankEmbedFailure(t *testing.T) {
	boom := errors.New("embed failed")
	embedder := &fakeEmbedder{fn: func(inputs []string) ([][]float32, error) {
		return nil, boom
	}}

	_, err := NewReranker(embedder, "embed-model").Rerank(context.Background(), "q", []models.SearchHit{
		hit("Sun", "Astronomy", "The Sun is a star."),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped embed error, got %v", err)
	}
}
