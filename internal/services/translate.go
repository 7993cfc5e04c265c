package services

import (
	"context"
	"fmt"

	"lentera/internal/middleware"

	"go.opentelemetry.io/otel/attribute"
)

// Translator rewrites a query into English so the corpus search and the
// embedding model operate in the language the corpus is indexed in.
type Translator struct {
	completer Completer
	model     string
	maxTokens int
}

func NewTranslator(completer Completer, model string, maxTokens int) *Translator {
	return &Translator{
		completer: completer,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Translate returns the English rendering of text. Queries already tagged
// as English pass through unchanged.
func (t *Translator) Translate(ctx context.Context, text, language string) (string, error) {
	if language == "english" || language == "en" {
		return text, nil
	}

	ctx, span := middleware.StartSpan(ctx, "Translator.Translate",
		attribute.String("language", language),
	)
	defer span.End()

	prompt := fmt.Sprintf(
		"You translate text from %s to English. Text: %s\n\nRespond ONLY in this format: { \"translation\": \"...\" }.",
		language, text,
	)

	content, err := t.completer.Complete(ctx, prompt, t.model, -1, t.maxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return "", fmt.Errorf("translation completion failed: %w", err)
	}

	var parsed struct {
		Translation string `json:"translation"`
	}
	if err := decodeModelJSON("translation", content, &parsed); err != nil {
		middleware.AddSpanError(ctx, err)
		return "", err
	}

	return parsed.Translation, nil
}
