// Package composer assembles the grounding context for a question and
// invokes the generation backend to produce the final answer.
package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
)

// GenerationError marks a failed generation call: backend unreachable,
// timed out, or returned an empty completion. Fatal to the current
// question only.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation service: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const systemInstruction = `You are a helpful assistant. Answer the user's question using only the provided context.

RULES:
1. Use the DOCUMENT CONTENT first if it contains relevant information
2. Use WEB SEARCH RESULTS as supplementary or if the document doesn't cover the topic
3. Be specific and cite which source informed each claim (document or web)
4. If neither source has the answer, say so clearly
5. Keep answers concise but comprehensive`

const noContextInstruction = `You are a helpful assistant. No grounding context was found for this question: the document retrieval and web search both returned nothing. Answer from general knowledge if you can, state clearly that the answer is not grounded in the uploaded document or search results, and do not invent citations.`

// Composer merges retrieved snippets into a single prompt and calls
// the generator.
type Composer struct {
	generator types.Generator
}

func New(generator types.Generator) *Composer {
	return &Composer{generator: generator}
}

// Answer builds the labeled context prompt from the two snippet sets,
// invokes the generator, and returns the answer with the provenance
// lists attached unmodified.
func (c *Composer) Answer(ctx context.Context, question string, docSnippets, webSnippets []models.SearchResult) (models.AnswerRecord, error) {
	system := systemInstruction
	contextBlock := buildContext(docSnippets, webSnippets)
	if contextBlock == "" {
		system = noContextInstruction
		contextBlock = "No context available."
	}

	prompt := fmt.Sprintf("Context:\n%s\n\n---\n\nQuestion: %s", contextBlock, question)

	answer, err := c.generator.Generate(ctx, system, prompt)
	if err != nil {
		return models.AnswerRecord{}, &GenerationError{Err: err}
	}
	if strings.TrimSpace(answer) == "" {
		return models.AnswerRecord{}, &GenerationError{Err: fmt.Errorf("backend returned an empty completion")}
	}

	return models.AnswerRecord{
		Question:         question,
		DocumentSnippets: docSnippets,
		WebSnippets:      webSnippets,
		Answer:           answer,
		CreatedAt:        time.Now(),
	}, nil
}

func buildContext(docSnippets, webSnippets []models.SearchResult) string {
	var parts []string

	if len(docSnippets) > 0 {
		var b strings.Builder
		b.WriteString("=== DOCUMENT CONTENT ===\n")
		for i, s := range docSnippets {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString(s.Text)
			b.WriteString("\n")
		}
		parts = append(parts, b.String())
	}

	if len(webSnippets) > 0 {
		var b strings.Builder
		b.WriteString("=== WEB SEARCH RESULTS ===\n")
		for i, s := range webSnippets {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			if s.URL != "" {
				fmt.Fprintf(&b, "Source: %s\n", s.URL)
			}
			b.WriteString(s.Text)
			b.WriteString("\n")
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n")
}
