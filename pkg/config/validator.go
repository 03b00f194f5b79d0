package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid generation base URL",
		})
	}

	if c.Embedding.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "embedding base URL is required",
		})
	}

	if c.Embedding.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "embedding.max_retries",
			Message: "max_retries must be non-negative",
		})
	}

	if c.Chunker.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Retrieval.K < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.k",
			Message: "k must be positive",
		})
	}

	switch c.Retrieval.Backend {
	case "memory":
	case "pgvector":
		if c.Retrieval.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "retrieval.url",
				Message: "database URL is required for the pgvector backend",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "retrieval.backend",
			Message: fmt.Sprintf("unknown backend %q, expected memory or pgvector", c.Retrieval.Backend),
		})
	}

	if c.WebSearch.MaxResults < 1 {
		errors = append(errors, ValidationError{
			Field:   "websearch.max_results",
			Message: "max_results must be positive",
		})
	}

	if c.WebSearch.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "websearch.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}
