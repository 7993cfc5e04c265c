package services

import (
	"context"
	"fmt"
	"strings"

	"lentera/internal/middleware"
	"lentera/internal/textproc"

	"go.opentelemetry.io/otel/attribute"
)

// NoMeaningfulContent is returned when cleaning leaves nothing usable to
// summarise. Callers treat it as a normal outcome, not an error.
const NoMeaningfulContent = "No meaningful content to summarize."

const DefaultMaxSentences = 7

// Preprocessor condenses a set of context passages into a bullet-point
// digest of representative sentences, trimming the prompt a generator has
// to carry.
type Preprocessor struct {
	embedder       Embedder
	embeddingModel string
	maxSentences   int
}

func NewPreprocessor(embedder Embedder, embeddingModel string, maxSentences int) *Preprocessor {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &Preprocessor{
		embedder:       embedder,
		embeddingModel: embeddingModel,
		maxSentences:   maxSentences,
	}
}

// Preprocess extracts valid sentences from the texts, embeds them in one
// batch and selects a representative, diverse subset joined as bullet
// points.
func (p *Preprocessor) Preprocess(ctx context.Context, texts []string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "Preprocessor.Preprocess",
		attribute.Int("texts", len(texts)),
	)
	defer span.End()

	sentences := textproc.ExtractSentences(texts)
	if len(sentences) == 0 {
		return NoMeaningfulContent, nil
	}

	embeddings, err := p.embedder.Embed(ctx, p.embeddingModel, sentences)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return "", fmt.Errorf("failed to embed sentences: %w", err)
	}

	items := make([]EmbeddedItem, len(sentences))
	for i := range sentences {
		items[i] = EmbeddedItem{Text: sentences[i], Embedding: embeddings[i]}
	}

	selected, err := SelectRepresentative(items, p.maxSentences)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return "", fmt.Errorf("failed to select representative sentences: %w", err)
	}

	bullets := make([]string, len(selected))
	for i, item := range selected {
		bullets[i] = "• " + strings.TrimSpace(item.Text)
	}

	middleware.AddSpanEvent(ctx, "sentences_selected",
		attribute.Int("candidates", len(sentences)),
		attribute.Int("selected", len(selected)),
	)
	return strings.Join(bullets, "\n"), nil
}
