package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseError means a model response could not be parsed into the expected
// shape, even after one repair attempt.
type ParseError struct {
	What string
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from model output: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// stripCodeFence removes a wrapping Markdown code fence, with or without a
// language tag, from model output.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// decodeModelJSON parses model output into v: strip a code fence, try the
// raw text, then make one best-effort repair pass before giving up with a
// ParseError.
func decodeModelJSON(what, content string, v any) error {
	cleaned := stripCodeFence(content)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return &ParseError{What: what, Raw: content, Err: err}
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &ParseError{What: what, Raw: content, Err: err}
	}
	return nil
}
