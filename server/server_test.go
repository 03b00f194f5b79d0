package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
	"github.com/askdoc/askdoc/pkg/chunker"
	"github.com/askdoc/askdoc/pkg/composer"
	"github.com/askdoc/askdoc/pkg/index"
	"github.com/askdoc/askdoc/pkg/pipeline"
	"github.com/askdoc/askdoc/server"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vec := make([]float32, 64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		if word == "" {
			continue
		}
		idx, ok := f.vocab[word]
		if !ok {
			idx = len(f.vocab) % len(vec)
			f.vocab[word] = idx
		}
		vec[idx]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func (f *fakeEmbedder) Dimension() int { return 64 }

type fakeWebSearcher struct{ err error }

func (f *fakeWebSearcher) Search(context.Context, string, int) ([]models.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.SearchResult{
		{Text: "web snippet", Source: models.SourceWeb, URL: "https://example.org"},
	}, nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	answer string
	err    error
}

func (f *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answer, f.err
}

func (f *fakeGenerator) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestServer(t *testing.T, web *fakeWebSearcher, gen *fakeGenerator) *httptest.Server {
	t.Helper()

	ch, err := chunker.NewWithConfig(chunker.ChunkerConfig{ChunkSize: 40, ChunkOverlap: 10})
	require.NoError(t, err)

	embedder := &fakeEmbedder{vocab: make(map[string]int)}
	newIndex := func() types.Index { return index.NewMemory(embedder) }

	p := pipeline.New(pipeline.PipelineConfig{RetrievalK: 2, WebResults: 3},
		ch, newIndex, web, composer.New(gen))

	ts := httptest.NewServer(server.New(p).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postText(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestUploadAndAsk(t *testing.T) {
	ts := newTestServer(t, &fakeWebSearcher{}, &fakeGenerator{answer: "A prompt instructs the model."})

	resp := postText(t, ts.URL+"/upload", "Prompts are instructions given to a model. They guide output.")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.GreaterOrEqual(t, uploaded["segments_indexed"], 2)

	resp = postText(t, ts.URL+"/ask", `{"question": "What is a prompt?"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var record models.AnswerRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, "A prompt instructs the model.", record.Answer)
	assert.NotEmpty(t, record.DocumentSnippets)
	assert.NotEmpty(t, record.WebSnippets)

	// The record lands in the session history.
	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	var history []models.AnswerRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "What is a prompt?", history[0].Question)
}

func TestAskBeforeUpload(t *testing.T) {
	ts := newTestServer(t, &fakeWebSearcher{}, &fakeGenerator{answer: "x"})

	resp := postText(t, ts.URL+"/ask", `{"question": "anything"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUploadEmptyDocument(t *testing.T) {
	ts := newTestServer(t, &fakeWebSearcher{}, &fakeGenerator{answer: "x"})

	resp := postText(t, ts.URL+"/upload", "   ")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerationFailureKeepsHistory(t *testing.T) {
	gen := &fakeGenerator{answer: "first answer"}
	ts := newTestServer(t, &fakeWebSearcher{}, gen)

	resp := postText(t, ts.URL+"/upload", "Prompts are instructions given to a model. They guide output.")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postText(t, ts.URL+"/ask", `{"question": "What is a prompt?"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Backend starts failing: the question fails, prior history survives.
	gen.setErr(errors.New("backend down"))
	resp = postText(t, ts.URL+"/ask", `{"question": "Another question?"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	var history []models.AnswerRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "first answer", history[0].Answer)
}
