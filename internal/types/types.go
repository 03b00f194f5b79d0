package types

import (
	"context"

	"github.com/askdoc/askdoc/internal/models"
)

// Core interfaces

// Embedder maps a text to a fixed-dimension, L2-normalized vector.
// Implementations retry transient backend failures internally; a
// returned error means the text could not be embedded at all.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Index holds the embedded segments of exactly one document and
// answers nearest-neighbor queries against them.
type Index interface {
	Build(ctx context.Context, segments []models.Segment) error
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
	Len() int
	Close()
}

// WebSearcher returns up to n web snippets for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string, n int) ([]models.SearchResult, error)
}

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
