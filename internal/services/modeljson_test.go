package services

import (
	"errors"
	"testing"
)

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Keywords []string `json:"keywords"`
	}

	t.Run("plain json", func(t *testing.T) {
		var p payload
		if err := decodeModelJSON("keywords", `{"keywords":["sun"]}`, &p); err != nil {
			t.Fatal(err)
		}
		if len(p.Keywords) != 1 || p.Keywords[0] != "sun" {
			t.Fatalf("unexpected payload: %+v", p)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		var p payload
		input := "```json\n{\"keywords\":[\"sun\",\"star\"]}\n```"
		if err := decodeModelJSON("keywords", input, &p); err != nil {
			t.Fatal(err)
		}
		if len(p.Keywords) != 2 {
			t.Fatalf("unexpected payload: %+v", p)
		}
	})

	t.Run("fenced without language tag", func(t *testing.T) {
		var p payload
		input := "```\n{\"keywords\":[\"sun\"]}\n```"
		if err := decodeModelJSON("keywords", input, &p); err != nil {
			t.Fatal(err)
		}
		if len(p.Keywords) != 1 {
			t.Fatalf("unexpected payload: %+v", p)
		}
	})

	t.Run("repairable json", func(t *testing.T) {
		var p payload
		// Trailing comma and single quotes, typical sloppy model output.
		input := `{'keywords': ['sun', 'star',]}`
		if err := decodeModelJSON("keywords", input, &p); err != nil {
			t.Fatal(err)
		}
		if len(p.Keywords) != 2 {
			t.Fatalf("unexpected payload: %+v", p)
		}
	})

	t.Run("unrepairable", func(t *testing.T) {
		var p payload
		err := decodeModelJSON("keywords", "I cannot answer that.", &p)
		if err == nil {
			t.Fatal("expected parse error")
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError, got %T", err)
		}
		if parseErr.What != "keywords" {
			t.Errorf("ParseError.What = %q", parseErr.What)
		}
		if parseErr.Raw != "I cannot answer that." {
			t.Errorf("ParseError.Raw = %q", parseErr.Raw)
		}
	})
}
