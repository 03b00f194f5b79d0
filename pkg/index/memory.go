// Package index stores the embedded segments of a single document and
// answers nearest-neighbor queries. An index is built once per upload
// and replaced wholesale when a new document arrives.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
)

// ErrNoSegments is returned by Build when every segment failed to
// embed, leaving nothing searchable.
var ErrNoSegments = errors.New("no segments could be embedded")

// ErrDimensionMismatch is returned when a query vector does not match
// the dimension the index was built with.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Memory is a brute-force in-memory cosine index. Exact search over a
// single document's chunks — hundreds of vectors, not millions — needs
// no approximate structure.
type Memory struct {
	embedder types.Embedder
	segments []models.Segment
	vectors  [][]float32
	dim      int
}

func NewMemory(embedder types.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

// Build embeds all segments and stores them in ingestion order. A
// segment that still fails after the embedder's retries is dropped
// with a warning; Build fails only when nothing remains.
func (m *Memory) Build(ctx context.Context, segments []models.Segment) error {
	m.segments = make([]models.Segment, 0, len(segments))
	m.vectors = make([][]float32, 0, len(segments))
	m.dim = 0

	for _, seg := range segments {
		vec, err := m.embedder.Embed(ctx, seg.Text)
		if err != nil {
			log.Printf("warning: dropping segment %s at offset %d: %v", seg.ID, seg.SourceOffset, err)
			continue
		}
		if m.dim == 0 {
			m.dim = len(vec)
		} else if len(vec) != m.dim {
			log.Printf("warning: dropping segment %s: got %d-dim vector, index is %d-dim", seg.ID, len(vec), m.dim)
			continue
		}

		m.segments = append(m.segments, seg)
		m.vectors = append(m.vectors, vec)
	}

	if len(m.segments) == 0 {
		return ErrNoSegments
	}
	return nil
}

// Search embeds the query and returns the k most similar segments,
// ordered by descending cosine similarity with ties broken by
// ingestion order. An empty index yields an empty result, never an
// error; an index smaller than k yields everything it holds.
func (m *Memory) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(m.segments) == 0 {
		return []models.SearchResult{}, nil
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVec) != m.dim {
		return nil, fmt.Errorf("%w: query is %d-dim, index is %d-dim", ErrDimensionMismatch, len(queryVec), m.dim)
	}

	results := make([]models.SearchResult, len(m.segments))
	for i, seg := range m.segments {
		results[i] = models.SearchResult{
			Text:      seg.Text,
			Source:    models.SourceDocument,
			Score:     dot(queryVec, m.vectors[i]),
			SegmentID: seg.ID,
		}
	}

	// Stable sort keeps ingestion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (m *Memory) Len() int {
	return len(m.segments)
}

func (m *Memory) Close() {}

// dot is the cosine similarity of two unit vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
