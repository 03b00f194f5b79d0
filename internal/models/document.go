package models

import "time"

// Source labels attached to retrieved snippets.
const (
	SourceDocument = "document"
	SourceWeb      = "web"
)

// Segment is a bounded slice of document text, the unit of retrieval.
// Segments are immutable once created.
type Segment struct {
	ID           string
	Text         string
	SourceOffset int
	DocumentID   string
}

// SearchResult is a snippet retrieved for a question, from either the
// document index or the web. Produced fresh per question.
type SearchResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Score     float64 `json:"score"`
	URL       string  `json:"url,omitempty"`
	SegmentID string  `json:"segment_id,omitempty"`
}

// AnswerRecord is one answered question with the context that grounded
// it. Appended to the session history, never mutated afterwards.
type AnswerRecord struct {
	Question         string         `json:"question"`
	DocumentSnippets []SearchResult `json:"document_snippets"`
	WebSnippets      []SearchResult `json:"web_snippets"`
	Answer           string         `json:"answer"`
	Degraded         bool           `json:"degraded"`
	DegradedReason   string         `json:"degraded_reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}
