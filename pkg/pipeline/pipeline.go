// Package pipeline wires the components into the two entry points the
// UI surfaces call: Ingest, which turns a document's text into a
// searchable index, and Ask, which answers a question from that index
// plus live web results.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
	"github.com/askdoc/askdoc/pkg/chunker"
	"github.com/askdoc/askdoc/pkg/composer"
)

type PipelineConfig struct {
	RetrievalK int // document snippets per question
	WebResults int // web snippets per question
}

// Pipeline owns the per-question flow. The index is passed into Ask
// explicitly: it belongs to the session that ingested the document,
// not to the pipeline.
type Pipeline struct {
	config   PipelineConfig
	chunker  *chunker.Chunker
	newIndex func() types.Index
	web      types.WebSearcher
	composer *composer.Composer
}

func New(config PipelineConfig, ch *chunker.Chunker, newIndex func() types.Index, web types.WebSearcher, comp *composer.Composer) *Pipeline {
	if config.RetrievalK == 0 {
		config.RetrievalK = 4
	}
	if config.WebResults == 0 {
		config.WebResults = 3
	}

	return &Pipeline{
		config:   config,
		chunker:  ch,
		newIndex: newIndex,
		web:      web,
		composer: comp,
	}
}

// Ingest chunks the document text and builds a fresh index over it.
// Blocking and one-shot: either a fully-populated index comes back or
// an error does, never a partial index.
func (p *Pipeline) Ingest(ctx context.Context, documentText, documentID string) (types.Index, error) {
	segments, err := p.chunker.Chunk(documentText, documentID)
	if err != nil {
		return nil, err
	}

	idx := p.newIndex()
	if err := idx.Build(ctx, segments); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return idx, nil
}

// Ask retrieves document and web context concurrently, then composes
// the answer. A failing source degrades the answer rather than failing
// the question; only generation failure is fatal, and it leaves the
// index and any prior records untouched.
func (p *Pipeline) Ask(ctx context.Context, question string, idx types.Index) (models.AnswerRecord, error) {
	var (
		docSnippets []models.SearchResult
		webSnippets []models.SearchResult
		docErr      error
		webErr      error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docSnippets, docErr = idx.Search(gctx, question, p.config.RetrievalK)
		return nil
	})
	g.Go(func() error {
		webSnippets, webErr = p.web.Search(gctx, question, p.config.WebResults)
		return nil
	})
	g.Wait()

	var reasons []string
	if docErr != nil {
		docSnippets = nil
		reasons = append(reasons, fmt.Sprintf("document retrieval failed: %v", docErr))
	}
	if webErr != nil {
		webSnippets = nil
		reasons = append(reasons, fmt.Sprintf("web search unavailable: %v", webErr))
	}

	record, err := p.composer.Answer(ctx, question, docSnippets, webSnippets)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	if len(reasons) > 0 {
		record.Degraded = true
		record.DegradedReason = strings.Join(reasons, "; ")
	}
	return record, nil
}
