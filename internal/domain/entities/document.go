package entities

import "time"

// Document is the retrievable unit of evidence. Each document is owned by
// exactly one source; a source may own many documents.
type Document struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Language    Language  `json:"language"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Candidate is a document joined with its source's authority, status and
// credibility plus the similarity score of a retrieval. Candidates are
// ephemeral and never persisted.
type Candidate struct {
	Document

	SourceTitle    string         `json:"source_title"`
	Publisher      string         `json:"publisher"`
	AuthorityLevel AuthorityLevel `json:"authority_level"`
	Status         SourceStatus   `json:"status"`
	Credibility    int            `json:"credibility"`
	Year           int            `json:"year,omitempty"`

	// SimilarityScore is the cosine similarity to the query in [0,1].
	SimilarityScore float64 `json:"similarity_score"`
}
