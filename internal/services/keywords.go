package services

import (
	"context"
	"fmt"

	"lentera/internal/middleware"

	"go.opentelemetry.io/otel/attribute"
)

const keywordTemperature = 0.2

// KeywordExtractor derives a small set of corpus search keywords from a
// natural-language query via the completion model.
type KeywordExtractor struct {
	completer Completer
	model     string
	maxTokens int
}

func NewKeywordExtractor(completer Completer, model string, maxTokens int) *KeywordExtractor {
	return &KeywordExtractor{
		completer: completer,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Extract asks the model for the most relevant search keywords. The prompt
// asks for five but the result length is not enforced.
func (e *KeywordExtractor) Extract(ctx context.Context, query string) ([]string, error) {
	ctx, span := middleware.StartSpan(ctx, "KeywordExtractor.Extract",
		attribute.String("query", query),
	)
	defer span.End()

	prompt := fmt.Sprintf(
		`Please determine 5 most relevant search keywords for query: %s. Respond ONLY in this format: { "keywords": string[] }`,
		query,
	)

	content, err := e.completer.Complete(ctx, prompt, e.model, keywordTemperature, e.maxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("keyword extraction completion failed: %w", err)
	}

	var parsed struct {
		Keywords []string `json:"keywords"`
	}
	if err := decodeModelJSON("keywords", content, &parsed); err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	middleware.AddSpanEvent(ctx, "keywords_extracted",
		attribute.Int("count", len(parsed.Keywords)),
	)
	return parsed.Keywords, nil
}
