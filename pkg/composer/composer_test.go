package composer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/pkg/composer"
)

type fakeGenerator struct {
	answer string
	err    error

	gotSystem string
	gotPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	f.gotSystem = system
	f.gotPrompt = prompt
	return f.answer, f.err
}

func docSnippets() []models.SearchResult {
	return []models.SearchResult{
		{Text: "Prompts are instructions given to a model.", Source: models.SourceDocument, Score: 0.9, SegmentID: "seg-a"},
	}
}

func webSnippets() []models.SearchResult {
	return []models.SearchResult{
		{Text: "A prompt is the input to an LLM.", Source: models.SourceWeb, URL: "https://example.org/prompts"},
	}
}

func TestAnswerAssemblesLabeledContext(t *testing.T) {
	gen := &fakeGenerator{answer: "A prompt is an instruction. (document)"}
	c := composer.New(gen)

	record, err := c.Answer(context.Background(), "What is a prompt?", docSnippets(), webSnippets())
	require.NoError(t, err)

	assert.Contains(t, gen.gotPrompt, "=== DOCUMENT CONTENT ===")
	assert.Contains(t, gen.gotPrompt, "=== WEB SEARCH RESULTS ===")
	assert.Contains(t, gen.gotPrompt, "Prompts are instructions given to a model.")
	assert.Contains(t, gen.gotPrompt, "Source: https://example.org/prompts")
	assert.Contains(t, gen.gotPrompt, "Question: What is a prompt?")
	assert.Contains(t, gen.gotSystem, "cite")

	// Answer text is verbatim, provenance attached unmodified.
	assert.Equal(t, "A prompt is an instruction. (document)", record.Answer)
	assert.Equal(t, docSnippets(), record.DocumentSnippets)
	assert.Equal(t, webSnippets(), record.WebSnippets)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestAnswerWithoutContextStatesSo(t *testing.T) {
	gen := &fakeGenerator{answer: "I don't have grounded information on that."}
	c := composer.New(gen)

	_, err := c.Answer(context.Background(), "What is a prompt?", nil, nil)
	require.NoError(t, err)

	assert.Contains(t, gen.gotSystem, "No grounding context was found")
	assert.Contains(t, gen.gotPrompt, "No context available.")
}

func TestAnswerBackendError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	c := composer.New(gen)

	_, err := c.Answer(context.Background(), "question", docSnippets(), nil)
	require.Error(t, err)

	var genErr *composer.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestAnswerEmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{answer: "   \n"}
	c := composer.New(gen)

	_, err := c.Answer(context.Background(), "question", docSnippets(), nil)

	var genErr *composer.GenerationError
	assert.ErrorAs(t, err, &genErr)
}
