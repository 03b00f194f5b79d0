package llm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedderWithConfigDefaults(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", emb.config.Model)
	assert.Equal(t, "http://localhost:11434", emb.config.BaseURL)
	assert.Equal(t, 2, emb.config.MaxRetries)
	assert.Equal(t, 0, emb.Dimension())
}

func TestNormalizeUnitLength(t *testing.T) {
	vec, err := normalize([]float32{3, 4})
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)
}

func TestNormalizeRejectsZeroVector(t *testing.T) {
	_, err := normalize([]float32{0, 0, 0})
	assert.Error(t, err)
}

func TestEmbeddingErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &EmbeddingError{Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "embedding service")
}
