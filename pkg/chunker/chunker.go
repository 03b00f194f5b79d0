package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/askdoc/askdoc/internal/models"
)

// ErrEmptyInput is returned when the document text contains nothing
// ingestible after whitespace normalization.
var ErrEmptyInput = errors.New("document text is empty")

type ChunkerConfig struct {
	ChunkSize    int // target segment length in characters
	ChunkOverlap int // characters shared between consecutive segments
	// BoundaryTolerance is how far back from a hard cut the chunker
	// may move to land on whitespace. Defaults to 15% of ChunkSize.
	BoundaryTolerance int
}

type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) (*Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.BoundaryTolerance == 0 {
		config.BoundaryTolerance = config.ChunkSize * 15 / 100
	}

	if config.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk overlap must be non-negative and less than chunk size")
	}

	return &Chunker{config: config}, nil
}

// Chunk splits the document text into overlapping segments of at most
// ChunkSize characters. Consecutive segments share ChunkOverlap
// characters, and segment boundaries snap back to whitespace when one
// falls within the tolerance window. The final segment may be shorter
// than the target size.
func (c *Chunker) Chunk(text, documentID string) ([]models.Segment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	runes := []rune(text)
	total := len(runes)
	step := c.config.ChunkSize - c.config.ChunkOverlap

	segments := make([]models.Segment, 0, total/step+1)

	start := 0
	for start < total {
		end := start + c.config.ChunkSize
		if end >= total {
			end = total
		} else {
			end = c.snapToBoundary(runes, start, end)
		}

		segments = append(segments, models.Segment{
			ID:           uuid.New().String(),
			Text:         string(runes[start:end]),
			SourceOffset: start,
			DocumentID:   documentID,
		})

		if end >= total {
			break
		}

		next := end - c.config.ChunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return segments, nil
}

// snapToBoundary moves a cut position back to the nearest whitespace
// within the tolerance window so segments prefer to end on word or
// paragraph breaks. Falls back to the hard cut when no whitespace is
// close enough.
func (c *Chunker) snapToBoundary(runes []rune, start, end int) int {
	limit := end - c.config.BoundaryTolerance
	if limit < start+1 {
		limit = start + 1
	}

	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
