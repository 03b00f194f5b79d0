package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbeddingError wraps any failure of the embedding backend: transport
// errors, timeouts, and malformed responses. Callers decide whether to
// drop the offending text or abort.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// EmbedderConfig represents the configuration for the embedding client.
type EmbedderConfig struct {
	Model      string
	BaseURL    string // Ollama server URL
	MaxRetries int    // retries per text on transient failure
	Timeout    time.Duration
}

// Embedder turns texts into L2-normalized vectors via an Ollama
// embedding model. Identical text always yields the identical vector
// for a fixed model.
type Embedder struct {
	config EmbedderConfig
	client *ollama.LLM
	dim    int
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	return &Embedder{
		config: config,
		client: client,
	}, nil
}

// Embed returns the normalized embedding vector for text, retrying up
// to MaxRetries times on failure. The returned error is an
// *EmbeddingError once the retries are exhausted.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &EmbeddingError{Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		vec, err := e.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}

	return nil, &EmbeddingError{Err: lastErr}
}

func (e *Embedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vectors, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("backend returned %d vectors for one text", len(vectors))
	}

	vec, err := normalize(vectors[0])
	if err != nil {
		return nil, err
	}

	if e.dim == 0 {
		e.dim = len(vec)
	}
	return vec, nil
}

// Dimension reports the embedding dimension, learned from the first
// successful call. Zero until then.
func (e *Embedder) Dimension() int {
	return e.dim
}

// normalize scales the vector to unit length so that cosine similarity
// between normalized vectors equals their dot product.
func normalize(vec []float32) ([]float32, error) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, fmt.Errorf("backend returned a zero vector")
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out, nil
}
