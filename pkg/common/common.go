package common

import "time"

// Passage is a contiguous segment of normalized document text, produced by
// the chunker and stored by the similarity index. Passages are immutable
// once created; the index references them by position, with the vector at
// the same position belonging to the same passage.
type Passage struct {
	Text         string `json:"text"`
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	ChunkIndex   int    `json:"chunk_index"`
}

// SearchResult is a single ranked hit from a similarity search. Score is a
// bounded similarity in (0, 1] derived from squared L2 distance; Rank is
// 1-based in ascending-distance order.
type SearchResult struct {
	Passage Passage `json:"passage"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// Document statuses as tracked by the registry. A document starts out
// pending, moves to processing when a consumer picks it up, and ends up
// indexed or failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// Document is a registry record for an ingested document. Chunks and
// Tokens are filled in once processing completes; Error carries the
// failure reason for failed documents.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Chunks     int       `json:"chunks"`
	Tokens     int       `json:"tokens"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// GraphNode is a single entity in the materialized graph view. Size is a
// frequency-scaled display weight, Connections counts every relationship
// row referencing the entity, and Color comes from a fixed palette.
type GraphNode struct {
	ID          int     `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	Size        float64 `json:"size"`
	Color       string  `json:"color"`
	Connections int     `json:"connections"`
	Frequency   int     `json:"frequency"`
}

// GraphEdge connects two nodes of the graph view by their node indices.
type GraphEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

// GraphView is the read-only projection consumed by visualization layers.
// It is rebuilt on demand and never persisted as primary state.
type GraphView struct {
	Nodes          []GraphNode `json:"nodes"`
	Edges          []GraphEdge `json:"edges"`
	TotalEntities  int         `json:"total_entities"`
	TotalDocuments int         `json:"total_documents"`
}

// RelatedEntity pairs an entity name with the weight of one relationship
// row referencing it. Rows are raw: the same entity may appear more than
// once when multiple relationships exist for the pair.
type RelatedEntity struct {
	Entity string `json:"entity"`
	Weight int    `json:"weight"`
}

// EntityDetails describes a single entity: how often it was observed, the
// documents mentioning it, and up to five related entities by descending
// relationship weight.
type EntityDetails struct {
	Entity    string          `json:"entity"`
	Frequency int             `json:"frequency"`
	Documents []string        `json:"documents"`
	Related   []RelatedEntity `json:"related_entities"`
}
