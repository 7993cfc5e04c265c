package models

// Chunk is an overlapping word-window slice of one fetched document.
// Chunks live only for the duration of a single context build.
type Chunk struct {
	Text     string
	HitIndex int // index into the hit list the chunk was extracted from
}

// ScoredChunk is a chunk annotated with its cosine similarity to the query
// embedding. Ordering is score descending with ties broken by discovery
// order.
type ScoredChunk struct {
	Chunk
	Score float64
}

// ContextResult is the unit handed to downstream generators: the selected
// passages (already carrying the embedding passage prefix) and the hits
// that contributed at least one of them, in first-appearance order.
type ContextResult struct {
	Context    []string    `json:"context"`
	TopResults []SearchHit `json:"topResults"`
}

// SearchOutcome is what the semantic search flow returns: either a cache
// hit replayed from storage or a freshly computed ranking that was just
// stored.
type SearchOutcome struct {
	ContentID     string       `json:"id"`
	Query         string       `json:"query"`
	Cached        bool         `json:"cached"`
	RankedResults []ScoredHit  `json:"rankedResults"`
	Stored        UpsertResult `json:"stored"`
}
