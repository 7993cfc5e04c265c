package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CachedContent is one resolved search query: the query text, its embedding
// and the ranked result list derived from it. The unique index on the
// embedding column means two queries that embed identically share a row;
// the upsert path updates search_result in place instead of inserting.
type CachedContent struct {
	ID             string          `json:"id" gorm:"type:char(27);primaryKey"`
	Query          string          `json:"query" gorm:"type:text;not null"`
	QueryEmbedding pgvector.Vector `json:"query_embedding" gorm:"type:vector(384);not null;uniqueIndex:idx_content_query_embedding"`
	SearchResult   datatypes.JSON  `json:"search_result" gorm:"type:jsonb"`
	CreatedAt      time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CachedContent) TableName() string { return "content" }

// BeforeCreate hook generates KSUID before inserting
func (c *CachedContent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// Mindmap is a generated mind-map keyed by the content row it was derived from.
type Mindmap struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	Mindmap   datatypes.JSON `json:"mindmap" gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Mindmap) TableName() string { return "mindmap" }

// Flashquiz is a generated quiz keyed by the content row it was derived from.
type Flashquiz struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	Flashquiz datatypes.JSON `json:"flashquiz" gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (f *Flashquiz) TableName() string { return "flashquiz" }

// SearchSummary is a generated summary keyed by the content row it was
// derived from.
type SearchSummary struct {
	ID        string         `json:"id" gorm:"type:char(27);primaryKey"`
	Summary   datatypes.JSON `json:"summary" gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SearchSummary) TableName() string { return "search_summary" }

// CachedContentMatch is a content row returned from a similarity lookup,
// annotated with how close its stored embedding is to the probe.
type CachedContentMatch struct {
	ID                   string    `json:"id"`
	Query                string    `json:"query"`
	SearchResult         string    `json:"search_result"`
	Distance             float64   `json:"distance"`
	SimilarityPercentage float64   `json:"similarity_percentage"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// UpsertOperation reports which branch an upsert took.
type UpsertOperation string

const (
	OperationInserted UpsertOperation = "inserted"
	OperationUpdated  UpsertOperation = "updated"
)

// UpsertResult is the structured outcome of a cache write. Failure is a
// value, not an error: callers hold freshly computed results and must be
// able to return them even when persistence failed.
type UpsertResult struct {
	Success   bool            `json:"success"`
	Operation UpsertOperation `json:"operation,omitempty"`
	ID        string          `json:"id,omitempty"`
	Error     string          `json:"error,omitempty"`
}
