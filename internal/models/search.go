package models

// EmptyDescription is the placeholder teaser the corpus server emits when a
// document has no extractable text. Hits carrying it are dropped by the
// result cleaner.
const EmptyDescription = "..."

// Description is a search-hit teaser: plain text plus the bold spans the
// corpus search engine marked as keyword matches.
type Description struct {
	Text string   `json:"#text"`
	Bold []string `json:"b,omitempty"`
}

// SearchHit is one ranked result from the corpus search endpoint. Immutable
// once produced; identity for deduplication is (Title, BookTitle).
type SearchHit struct {
	Title       string      `json:"title"`
	Link        string      `json:"link"`
	Description Description `json:"description"`
	WordCount   int         `json:"wordCount"`
	BookTitle   string      `json:"bookTitle"`
}

// IdentityKey is the composite key used for deduplication.
func (h SearchHit) IdentityKey() string {
	return h.Title + " | " + h.BookTitle
}

// ScoredHit is a search hit annotated with its relevance to a query.
type ScoredHit struct {
	SearchHit
	Score float64 `json:"score"`
}
