package services

import (
	"reflect"
	"testing"

	"lentera/internal/models"
)

func TestRemoveDuplicates(t *testing.T) {
	hits := []models.SearchHit{
		hit("Sun", "Astronomy", "The Sun is a star."),
		hit("Moon", "Astronomy", "The Moon orbits Earth."),
		hit("Sun", "Astronomy", "Duplicate teaser."),
		hit("Sun", "Physics", "Same title, different book."),
	}

	unique := RemoveDuplicates(hits)

	if len(unique) != 3 {
		t.Fatalf("expected 3 unique hits, got %d", len(unique))
	}
	// First occurrence wins and order is preserved.
	if unique[0].Description.Text != "The Sun is a star." {
		t.Errorf("first occurrence not kept: %q", unique[0].Description.Text)
	}
	if unique[1].Title != "Moon" || unique[2].BookTitle != "Physics" {
		t.Errorf("order not preserved: %+v", unique)
	}
}

func TestFilterEmptyDescriptions(t *testing.T) {
	hits := []models.SearchHit{
		hit("Sun", "Astronomy", "The Sun is a star."),
		hit("Stub", "Astronomy", models.EmptyDescription),
		hit("Moon", "Astronomy", "The Moon orbits Earth."),
	}

	filtered := FilterEmptyDescriptions(hits)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(filtered))
	}
	for _, h := range filtered {
		if h.Description.Text == models.EmptyDescription {
			t.Errorf("placeholder description survived: %+v", h)
		}
	}
}

func TestCleanSearchResultsIsIdempotent(t *testing.T) {
	hits := []models.SearchHit{
		hit("Sun", "Astronomy", "The Sun is a star."),
		hit("Sun", "Astronomy", "Duplicate."),
		hit("Stub", "Astronomy", models.EmptyDescription),
	}

	once := CleanSearchResults(hits)
	twice := CleanSearchResults(once)

	if len(once) != 1 || len(twice) != 1 {
		t.Fatalf("expected 1 hit after cleaning, got %d then %d", len(once), len(twice))
	}
	if !reflect.DeepEqual(once[0], twice[0]) {
		t.Errorf("second pass changed output: %+v vs %+v", once[0], twice[0])
	}
}

func TestCleanSearchResultsEmptyInput(t *testing.T) {
	if got := CleanSearchResults(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
